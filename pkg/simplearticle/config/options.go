package config

import (
	"fmt"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithDefaultStorage sets the default storage backend name
func WithDefaultStorage(name string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			return fmt.Errorf("default storage backend name cannot be empty")
		}
		c.DefaultStorageBackend = name
		return nil
	}
}

// WithMemoryStorage adds a memory storage backend (for testing)
// If name is empty, defaults to "memory"
func WithMemoryStorage(name string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "memory"
		}
		c.StorageBackends = upsertStorageBackend(c.StorageBackends, StorageBackendConfig{
			Name:   name,
			Type:   "memory",
			Config: map[string]interface{}{},
		})
		return nil
	}
}

// WithFilesystemStorage adds a filesystem storage backend
// If name is empty, defaults to "fs"
func WithFilesystemStorage(name, baseDir, urlPrefix string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "fs"
		}
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}

		backend := StorageBackendConfig{
			Name: name,
			Type: "fs",
			Config: map[string]interface{}{
				"base_dir": baseDir,
			},
		}
		if urlPrefix != "" {
			backend.Config["url_prefix"] = urlPrefix
		}

		c.StorageBackends = upsertStorageBackend(c.StorageBackends, backend)
		return nil
	}
}

// WithS3Storage adds an S3 storage backend
// If name is empty, defaults to "s3"
func WithS3Storage(name, bucket, region string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "s3"
		}
		if bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		if region == "" {
			region = "us-east-1"
		}

		c.StorageBackends = upsertStorageBackend(c.StorageBackends, StorageBackendConfig{
			Name: name,
			Type: "s3",
			Config: map[string]interface{}{
				"bucket": bucket,
				"region": region,
			},
		})
		return nil
	}
}

// WithS3Credentials sets AWS credentials for S3 storage
func WithS3Credentials(name, accessKeyID, secretAccessKey string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "s3"
		}
		for i := range c.StorageBackends {
			if c.StorageBackends[i].Name == name && c.StorageBackends[i].Type == "s3" {
				c.StorageBackends[i].Config["access_key_id"] = accessKeyID
				c.StorageBackends[i].Config["secret_access_key"] = secretAccessKey
				return nil
			}
		}
		c.StorageBackends = append(c.StorageBackends, StorageBackendConfig{
			Name: name,
			Type: "s3",
			Config: map[string]interface{}{
				"access_key_id":     accessKeyID,
				"secret_access_key": secretAccessKey,
			},
		})
		return nil
	}
}

// WithS3Endpoint sets a custom S3 endpoint (for MinIO, LocalStack, etc.)
func WithS3Endpoint(name, endpoint string, usePathStyle bool) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "s3"
		}
		for i := range c.StorageBackends {
			if c.StorageBackends[i].Name == name && c.StorageBackends[i].Type == "s3" {
				c.StorageBackends[i].Config["endpoint"] = endpoint
				c.StorageBackends[i].Config["use_path_style"] = usePathStyle
				return nil
			}
		}
		c.StorageBackends = append(c.StorageBackends, StorageBackendConfig{
			Name: name,
			Type: "s3",
			Config: map[string]interface{}{
				"endpoint":       endpoint,
				"use_path_style": usePathStyle,
			},
		})
		return nil
	}
}

// WithImageURLPrefix sets the route prefix baked into stored blob URLs
func WithImageURLPrefix(prefix string) Option {
	return func(c *ServerConfig) error {
		if prefix == "" {
			return fmt.Errorf("image URL prefix cannot be empty")
		}
		c.ImageURLPrefix = prefix
		return nil
	}
}

// WithAPIKey sets the shared secret required by write endpoints
func WithAPIKey(key string) Option {
	return func(c *ServerConfig) error {
		c.APIKey = key
		return nil
	}
}

// WithEventLogging enables or disables event logging
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}
