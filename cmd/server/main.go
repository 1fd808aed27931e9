// @title           FileVault Backend API
// @version         1.0.0
// @description     Per-user file storage API. Files are grouped into documents, images, audios, videos and archived,
// @description     uploaded under the caller's folder, archived or deleted, and served through public URLs.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"filevault-backend/internal/config"
	"filevault-backend/internal/database"
	"filevault-backend/internal/filemanager"
	"filevault-backend/internal/handlers"
	"filevault-backend/internal/logging"
	"filevault-backend/internal/middleware"
	"filevault-backend/internal/services"
	"filevault-backend/internal/storage"
	"filevault-backend/internal/storage/memory"
	"filevault-backend/internal/storage/s3"
	"filevault-backend/internal/supabase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New(logging.Config{})
		fallback.Error(err, "failed to load configuration")
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(err, "server stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logr.Logger) error {
	// Initialize Supabase client
	var supabaseClient *supabase.Client
	if cfg.SupabaseURL != "" && cfg.SupabasePublishableKey != "" {
		client, err := supabase.NewClient(cfg)
		if err != nil {
			return err
		}
		supabaseClient = client
	}

	objects, err := newObjectStorage(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("object storage ready", "backend", cfg.StorageBackend)

	profileRepo, closeRepo, err := newProfileRepository(ctx, cfg, supabaseClient, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	var identity services.IdentityProvider = localSignOut{}
	if supabaseClient != nil {
		identity = supabase.NewAuthClient(supabaseClient.Supabase.Auth)
	} else {
		logger.Info("Supabase URL not set, sign-out only clears local state")
	}

	profileService := services.NewProfileService(profileRepo, identity, logger)
	sessions := filemanager.NewSessions(objects, cfg.UploadCacheControl, logger)

	// Initialize handlers
	filesHandler := handlers.NewFilesHandler(sessions, logger.WithName("files"))
	uploadHandler := handlers.NewUploadHandler(sessions, cfg.MaxUploadBytes, logger.WithName("upload"))
	profileHandler := handlers.NewProfileHandler(profileService, sessions, logger.WithName("profile"))

	// Setup router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Health check and metrics (no auth)
	router.GET("/health", handlers.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))
	api.Use(middleware.ProfileSync(profileService))

	// Files
	api.GET("/files", filesHandler.ListFiles)
	api.GET("/files/counts", filesHandler.GetCounts)
	api.GET("/files/:category/:name", filesHandler.GetFile)
	api.POST("/files/:category/:name/archive", filesHandler.ArchiveFile)
	api.DELETE("/files/:category/:name", filesHandler.DeleteFile)

	// Upload
	api.POST("/files", uploadHandler.Upload)
	api.GET("/files/upload-status", uploadHandler.UploadStatus)

	// Profile
	api.GET("/profile", profileHandler.GetProfile)
	api.POST("/logout", profileHandler.Logout)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newObjectStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStorage, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendS3:
		return s3.New(ctx, s3.Options{
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			BucketPrefix: cfg.S3BucketPrefix,
			PublicURL:    cfg.S3PublicURL,
		})
	case config.StorageBackendMemory:
		return memory.New("http://localhost:" + cfg.Port), nil
	default:
		return supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey)
	}
}

// newProfileRepository picks the profile table backend. With a direct
// database connection the embedded migrations run first.
func newProfileRepository(ctx context.Context, cfg *config.Config, client *supabase.Client, logger logr.Logger) (services.ProfileRepository, func(), error) {
	if cfg.DatabaseURL != "" {
		migrator, err := database.NewMigrator(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error(err, "failed to initialize migrator")
		} else {
			if err := migrator.Run(ctx); err != nil {
				logger.Error(err, "migration failed")
			} else {
				logger.Info("migrations completed successfully")
			}
			migrator.Close()
		}
	}

	if cfg.ProfileBackend == config.ProfileBackendPostgres {
		dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL, cfg.ProfileTable)
		if err != nil {
			return nil, nil, err
		}
		return dbClient, func() { dbClient.Close() }, nil
	}

	return supabase.NewProfileClient(client.Supabase, cfg.ProfileTable), func() {}, nil
}

// localSignOut is used when no Supabase project is configured.
type localSignOut struct{}

func (localSignOut) SignOut(context.Context, string) error { return nil }
