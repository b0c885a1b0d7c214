package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/tendant/simple-articles/internal/database"
	"github.com/tendant/simple-articles/pkg/simplearticle"
	"github.com/tendant/simple-articles/pkg/simplearticle/api"
	"github.com/tendant/simple-articles/pkg/simplearticle/config"
)

// maxRequestBodyBytes caps any request body; image uploads are validated
// against their own limit inside the service.
const maxRequestBodyBytes = 12 << 20

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if cfg.DatabaseType == "postgres" {
		migrationsPath := os.Getenv("MIGRATIONS_PATH")
		if migrationsPath == "" {
			migrationsPath = "migrations"
		}
		if err := database.RunMigrations(cfg.DatabaseURL, migrationsPath, logger); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	svc, err := cfg.BuildService(logger)
	if err != nil {
		logger.Error("Failed to build service", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: routes(svc, cfg),
	}

	go func() {
		logger.Info("Simple Articles Server starting",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"database", cfg.DatabaseType,
			"storage", cfg.DefaultStorageBackend)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exiting")
}

func routes(svc simplearticle.Service, cfg *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(api.RequestSizeLimit(maxRequestBodyBytes))

	// CORS for development
	if cfg.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

				if r.Method == "OPTIONS" {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]string{
			"status":      "healthy",
			"environment": cfg.Environment,
			"storage":     cfg.DefaultStorageBackend,
		})
	})

	articleHandler := api.NewArticleHandler(svc)
	mediaHandler := api.NewMediaHandler(svc)

	r.Route("/api", func(r chi.Router) {
		r.With(api.APIKeyAuth(cfg.APIKey)).Mount("/articles", articleHandler.Routes())
		r.Mount("/images", mediaHandler.Routes())
	})

	return r
}
