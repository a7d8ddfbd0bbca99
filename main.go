// minber/main.go
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"minber/config"
	"minber/database"
	"minber/handlers"
	"minber/models"
	"minber/storage"
	"minber/utils"
)

type Application struct {
	store       *storage.Service
	rateLimiter *models.RateLimiter
	logger      *slog.Logger
	blobs       models.BlobStore
	uploadDir   string
	adminToken  string
}

// Methods to satisfy the handlers.App interface
func (a *Application) Storage() *storage.Service        { return a.store }
func (a *Application) RateLimiter() *models.RateLimiter { return a.rateLimiter }
func (a *Application) Logger() *slog.Logger             { return a.logger }
func (a *Application) Blobs() models.BlobStore          { return a.blobs }
func (a *Application) UploadDir() string                { return a.uploadDir }
func (a *Application) AdminToken() string               { return a.adminToken }

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- External Configuration ---
	port := utils.GetEnv("MINBER_PORT", "8080")
	uploadDir := utils.GetEnv("MINBER_UPLOAD_DIR", "./uploads")
	adminToken := utils.GetEnv("MINBER_ADMIN_TOKEN", "")
	if adminToken == "" {
		logger.Warn("MINBER_ADMIN_TOKEN is not set, admin routes are disabled")
	}

	postgresDSN := utils.GetEnv("MINBER_POSTGRES_DSN", "")
	sqlitePath := utils.GetEnv("MINBER_SQLITE_PATH", "./minber.db?_journal_mode=WAL&_foreign_keys=on")

	rateLimitEvery, err := time.ParseDuration(utils.GetEnv("MINBER_RATE_EVERY", config.DefaultRateLimitEvery))
	if err != nil {
		logger.Warn("Invalid MINBER_RATE_EVERY duration, using default", "value", utils.GetEnv("MINBER_RATE_EVERY", ""), "default", config.DefaultRateLimitEvery)
		rateLimitEvery, _ = time.ParseDuration(config.DefaultRateLimitEvery)
	}
	rateLimitBurst, err := strconv.Atoi(utils.GetEnv("MINBER_RATE_BURST", strconv.Itoa(config.DefaultRateLimitBurst)))
	if err != nil {
		logger.Warn("Invalid MINBER_RATE_BURST integer, using default", "value", utils.GetEnv("MINBER_RATE_BURST", ""), "default", config.DefaultRateLimitBurst)
		rateLimitBurst = config.DefaultRateLimitBurst
	}
	rateLimitPrune, err := time.ParseDuration(utils.GetEnv("MINBER_RATE_PRUNE", config.DefaultRateLimitPrune))
	if err != nil {
		rateLimitPrune, _ = time.ParseDuration(config.DefaultRateLimitPrune)
	}
	rateLimitExpire, err := time.ParseDuration(utils.GetEnv("MINBER_RATE_EXPIRE", config.DefaultRateLimitExpire))
	if err != nil {
		rateLimitExpire, _ = time.ParseDuration(config.DefaultRateLimitExpire)
	}

	// --- Backends ---
	// The SQLite fallback always comes up; Postgres is primary when a
	// DSN is configured, otherwise SQLite serves both roles.
	sqliteAdapter, err := database.NewSQLiteAdapter(sqlitePath, logger)
	if err != nil {
		logger.Error("Failed to initialize SQLite backend", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := sqliteAdapter.Close(); err != nil {
			logger.Error("Failed to close SQLite backend", "error", err)
		}
	}()

	var primary, secondary database.Adapter
	if postgresDSN != "" {
		postgresAdapter, err := database.NewPostgresAdapter(postgresDSN, logger)
		if err != nil {
			logger.Error("Failed to initialize Postgres backend", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := postgresAdapter.Close(); err != nil {
				logger.Error("Failed to close Postgres backend", "error", err)
			}
		}()
		primary, secondary = postgresAdapter, sqliteAdapter
		logger.Info("Storage backends initialized", "primary", "postgres", "secondary", "sqlite")
	} else {
		primary = sqliteAdapter
		logger.Warn("MINBER_POSTGRES_DSN is not set, running on SQLite only")
	}

	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		logger.Error("FATAL: Could not create uploads directory", "path", uploadDir, "error", err)
		os.Exit(1)
	}

	// --- Blob Store Init ---
	var blobs models.BlobStore
	if utils.GetEnv("MINBER_S3_ENABLED", "false") == "true" {
		endpoint := utils.GetEnv("MINBER_S3_ENDPOINT", "")
		accessKey := utils.GetEnv("MINBER_S3_ACCESS_KEY", "")
		secretKey := utils.GetEnv("MINBER_S3_SECRET_KEY", "")
		bucket := utils.GetEnv("MINBER_S3_BUCKET", "")
		region := utils.GetEnv("MINBER_S3_REGION", "us-east-1")
		publicURL := utils.GetEnv("MINBER_S3_PUBLIC_URL", "")
		useSSL := utils.GetEnv("MINBER_S3_USE_SSL", "true") == "true"

		blobs, err = utils.NewS3Storage(endpoint, accessKey, secretKey, bucket, region, publicURL, useSSL)
		if err != nil {
			logger.Error("Failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		logger.Info("S3 Storage initialized", "endpoint", endpoint, "bucket", bucket)
	} else {
		blobs = &utils.LocalStorage{UploadDir: uploadDir}
		logger.Info("Local Storage initialized", "dir", uploadDir)
	}

	app := &Application{
		store:       storage.NewService(primary, secondary, logger),
		rateLimiter: models.NewRateLimiter(rateLimitEvery, rateLimitBurst, rateLimitPrune, rateLimitExpire),
		logger:      logger,
		blobs:       blobs,
		uploadDir:   uploadDir,
		adminToken:  adminToken,
	}

	mux := handlers.SetupRouter(app)

	// --- Graceful Shutdown ---
	server := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("minber server started successfully",
		"version", config.AppVersion,
		"address", "http://localhost:"+port,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("Server exiting")
}
