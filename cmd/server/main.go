// Package main runs the multi-tenant API server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/flow4ops/backend/config"
	"github.com/flow4ops/backend/internal/audit"
	"github.com/flow4ops/backend/internal/auth"
	"github.com/flow4ops/backend/internal/departments"
	"github.com/flow4ops/backend/internal/middleware"
	"github.com/flow4ops/backend/internal/models"
	"github.com/flow4ops/backend/internal/organizations"
	"github.com/flow4ops/backend/internal/users"
	"github.com/flow4ops/backend/pkg/database"
	"github.com/flow4ops/backend/pkg/queue"
	"github.com/flow4ops/backend/pkg/ratelimit"
	"github.com/flow4ops/backend/pkg/redis"
	"github.com/flow4ops/backend/pkg/response"
	"github.com/flow4ops/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, poolConfig(cfg), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis unavailable, rate limiting and audit queue disabled", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			AssetsBucket:         cfg.AWS.AssetsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
			MaxFileSizeMB:        cfg.Upload.MaxFileSizeMB,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	// Audit trail: log-only unless redis and the flag are available.
	var auditSink auth.AuditSink
	if cfg.Audit.Enabled {
		var jobQueue *queue.Queue
		if rdb != nil {
			jobQueue = queue.NewQueue(rdb.Client, logger)
		}
		auditSink = audit.NewRecorder(jobQueue, logger)
	}

	// Auth core. The signing secret is read once here and never mutated.
	tokenService := auth.NewTokenService(
		cfg.JWT.Secret,
		cfg.JWT.Algorithm,
		time.Duration(cfg.JWT.AccessExpireMinutes)*time.Minute,
		time.Duration(cfg.JWT.RefreshExpireDays)*24*time.Hour,
	)
	hasher := auth.NewHasher(cfg.Password.BcryptCost)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokenService, hasher, auditSink, logger)
	authHandler := auth.NewHandler(authService, logger)

	var loginLimiter *ratelimit.Limiter
	if cfg.Login.RateLimitEnabled && rdb != nil {
		loginLimiter = ratelimit.NewLimiter(rdb.Client, cfg.Login.MaxAttempts,
			time.Duration(cfg.Login.WindowSeconds)*time.Second, logger)
	}

	orgRepo := organizations.NewRepository(pool)
	orgHandler := organizations.NewHandler(orgRepo, s3Client, logger)

	deptRepo := departments.NewRepository(pool)
	deptHandler := departments.NewHandler(deptRepo, logger)

	userRepo := users.NewRepository(pool)
	userHandler := users.NewHandler(userRepo, hasher, s3Client, auditSink, logger)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok", "version": cfg.App.Version})
	})

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", middleware.LoginRateLimit(loginLimiter), authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Protected API (access token required; user + org loaded into context)
	api := router.Group("")
	api.Use(middleware.Auth(authService, authRepo))
	{
		api.GET("/auth/me", authHandler.Me)
		api.POST("/auth/me/avatar", userHandler.UploadAvatar)
		api.GET("/auth/me/avatar/download-url", userHandler.AvatarDownloadURL)

		// Users (admin only)
		api.GET("/users", middleware.RequireRole(models.RoleAdmin), userHandler.List)
		api.POST("/users", middleware.RequireRole(models.RoleAdmin), userHandler.Create)
		api.GET("/users/:id", middleware.RequireRole(models.RoleAdmin), userHandler.Get)
		api.PATCH("/users/:id", middleware.RequireRole(models.RoleAdmin), userHandler.Update)
		api.DELETE("/users/:id", middleware.RequireRole(models.RoleAdmin), userHandler.Delete)
		api.POST("/users/:id/password", middleware.RequireRole(models.RoleAdmin), userHandler.SetPassword)
		api.POST("/users/:id/deactivate", middleware.RequireRole(models.RoleAdmin), userHandler.Deactivate)
		api.POST("/users/:id/activate", middleware.RequireRole(models.RoleAdmin), userHandler.Activate)

		// Organization (current tenant)
		api.GET("/organization", orgHandler.GetCurrent)
		api.PATCH("/organization", middleware.RequireRole(models.RoleAdmin), orgHandler.Update)
		api.PUT("/organization/modules", middleware.RequireRole(models.RoleAdmin), orgHandler.SetModules)
		api.POST("/organization/logo/upload-url", middleware.RequireRole(models.RoleAdmin), orgHandler.LogoUploadURL)
		api.POST("/organization/logo", middleware.RequireRole(models.RoleAdmin), orgHandler.ConfirmLogo)

		// Sales module probe (any active member of a sales-enabled org)
		api.GET("/sales/ping", middleware.RequireRoleAndModule(models.RoleUser, models.ModuleSales),
			func(c *gin.Context) {
				response.OK(c, gin.H{"module": models.ModuleSales})
			})

		// Departments (reads for everyone, writes for manager+)
		api.GET("/departments", deptHandler.List)
		api.GET("/departments/:id", deptHandler.Get)
		api.POST("/departments", middleware.RequireRole(models.RoleManager), deptHandler.Create)
		api.PATCH("/departments/:id", middleware.RequireRole(models.RoleManager), deptHandler.Update)
		api.DELETE("/departments/:id", middleware.RequireRole(models.RoleManager), deptHandler.Delete)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func poolConfig(cfg *config.Config) database.PoolConfig {
	return database.PoolConfig{
		DSN:             cfg.Database.DSN(),
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: time.Duration(cfg.Database.MaxConnLifetimeMin) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.Database.MaxConnIdleMin) * time.Minute,
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
