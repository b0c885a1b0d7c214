package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig is the flat environment surface read by cleanenv.
//
//	PORT            - Server port (default: "8080")
//	ENVIRONMENT     - Runtime environment (default: "development")
//	DATABASE_URL    - "memory" or a postgres:// connection string
//	DB_SCHEMA       - Postgres schema (default: "articles")
//	STORAGE_URL     - "memory://", "file:///path/to/data" or "s3://bucket?region=..."
//	IMAGE_URL_PREFIX- Route prefix baked into stored blob URLs
//	API_KEY         - Optional shared secret for write endpoints
//
// S3 credentials come from the standard AWS variables.
type envConfig struct {
	Port           string `env:"PORT"`
	Environment    string `env:"ENVIRONMENT"`
	DatabaseURL    string `env:"DATABASE_URL"`
	DBSchema       string `env:"DB_SCHEMA"`
	StorageURL     string `env:"STORAGE_URL"`
	ImageURLPrefix string `env:"IMAGE_URL_PREFIX"`
	APIKey         string `env:"API_KEY"`

	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion          string `env:"AWS_REGION"`
	S3Endpoint         string `env:"S3_ENDPOINT"`
	S3UsePathStyle     bool   `env:"S3_USE_PATH_STYLE"`
	S3CreateBucket     bool   `env:"S3_CREATE_BUCKET"`
}

// WithEnv applies environment variable overrides on top of the current
// configuration.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		if env.Port != "" {
			c.Port = env.Port
		}
		if env.Environment != "" {
			c.Environment = env.Environment
		}
		if env.DBSchema != "" {
			c.DBSchema = env.DBSchema
		}
		if env.ImageURLPrefix != "" {
			c.ImageURLPrefix = env.ImageURLPrefix
		}
		if env.APIKey != "" {
			c.APIKey = env.APIKey
		}

		if err := applyDatabaseEnv(env, c); err != nil {
			return err
		}
		return applyStorageEnv(env, c)
	}
}

func applyDatabaseEnv(env envConfig, c *ServerConfig) error {
	switch {
	case env.DatabaseURL == "" || env.DatabaseURL == "memory":
		// Keep whatever is configured; empty means no override
		if env.DatabaseURL == "memory" {
			c.DatabaseType = "memory"
			c.DatabaseURL = ""
		}
		return nil
	case strings.HasPrefix(env.DatabaseURL, "postgres://"),
		strings.HasPrefix(env.DatabaseURL, "postgresql://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = env.DatabaseURL
		return nil
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", env.DatabaseURL)
	}
}

func applyStorageEnv(env envConfig, c *ServerConfig) error {
	raw := env.StorageURL
	if raw == "" {
		return nil
	}
	if raw == "memory" || raw == "memory://" {
		c.DefaultStorageBackend = "memory"
		c.StorageBackends = upsertStorageBackend(c.StorageBackends, StorageBackendConfig{
			Name:   "memory",
			Type:   "memory",
			Config: map[string]interface{}{},
		})
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}

	switch u.Scheme {
	case "file":
		if u.Path == "" {
			return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		c.DefaultStorageBackend = "fs"
		c.StorageBackends = upsertStorageBackend(c.StorageBackends, StorageBackendConfig{
			Name: "fs",
			Type: "fs",
			Config: map[string]interface{}{
				"base_dir": u.Path,
			},
		})
		return nil

	case "s3":
		bucket := u.Host
		if bucket == "" {
			return fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
		}
		conf := map[string]interface{}{
			"bucket": bucket,
			"region": "us-east-1",
		}
		if region := u.Query().Get("region"); region != "" {
			conf["region"] = region
		} else if env.AWSRegion != "" {
			conf["region"] = env.AWSRegion
		}
		if env.AWSAccessKeyID != "" {
			conf["access_key_id"] = env.AWSAccessKeyID
		}
		if env.AWSSecretAccessKey != "" {
			conf["secret_access_key"] = env.AWSSecretAccessKey
		}
		if env.S3Endpoint != "" {
			conf["endpoint"] = env.S3Endpoint
		}
		if env.S3UsePathStyle {
			conf["use_path_style"] = true
		}
		if env.S3CreateBucket {
			conf["create_bucket_if_not_exist"] = true
		}
		c.DefaultStorageBackend = "s3"
		c.StorageBackends = upsertStorageBackend(c.StorageBackends, StorageBackendConfig{
			Name:   "s3",
			Type:   "s3",
			Config: conf,
		})
		return nil
	}

	return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", raw)
}

func upsertStorageBackend(backends []StorageBackendConfig, backend StorageBackendConfig) []StorageBackendConfig {
	if backend.Config == nil {
		backend.Config = map[string]interface{}{}
	}
	for i := range backends {
		if backends[i].Name == backend.Name {
			backends[i] = backend
			return backends
		}
	}
	return append(backends, backend)
}
