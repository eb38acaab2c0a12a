package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusworks/exam-seating-api/api/swagger"
	"github.com/campusworks/exam-seating-api/internal/handler"
	"github.com/campusworks/exam-seating-api/internal/middleware"
	"github.com/campusworks/exam-seating-api/internal/repository"
	"github.com/campusworks/exam-seating-api/internal/service"
	"github.com/campusworks/exam-seating-api/pkg/cache"
	"github.com/campusworks/exam-seating-api/pkg/config"
	"github.com/campusworks/exam-seating-api/pkg/database"
	"github.com/campusworks/exam-seating-api/pkg/logger"
	corsmiddleware "github.com/campusworks/exam-seating-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusworks/exam-seating-api/pkg/middleware/requestid"
)

// @title Exam Seating API
// @version 0.1.0
// @description Exam hall seat allocation service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	allocationRepo := repository.NewAllocationRepository(db)
	warningRepo := repository.NewWarningRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Seating.CacheTTL, logr, cfg.Seating.CacheEnabled)
	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		AdminEmail:        cfg.Admin.Email,
		AdminPasswordHash: cfg.Admin.PasswordHash,
		Secret:            cfg.JWT.Secret,
		Expiry:            cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	seatingSvc := service.NewSeatingService(allocationRepo, warningRepo, cacheSvc, metricsSvc, validate, logr, cfg.Seating.InsertBatchSize, cfg.Seating.CacheTTL)
	exportSvc := service.NewExportService(allocationRepo, logr, nil, nil, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Housekeeping.Enabled {
		housekeeping := service.NewHousekeepingService(allocationRepo, warningRepo, cfg.Housekeeping.Interval, logr)
		housekeeping.Start(ctx)
		defer housekeeping.Stop()
	}

	seatingHandler := handler.NewSeatingHandler(seatingSvc, cfg.Seating.MaxRosterRows)
	exportHandler := handler.NewExportHandler(exportSvc, cfg.Exports.Enabled)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.GET("/stats", metricsHandler.Stats)

		seating := api.Group("/seating")
		{
			seating.GET("/current", seatingHandler.Current)
			seating.GET("/view", seatingHandler.View)
			seating.GET("/student/:regno", seatingHandler.Student)

			admin := seating.Group("", middleware.JWT(authSvc))
			{
				admin.POST("/generate", seatingHandler.Generate)
				admin.DELETE("/clear", seatingHandler.Clear)
				admin.GET("/export", exportHandler.Download)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		<-ctx.Done()
		logr.Sugar().Infow("shutting down")
		_ = srv.Shutdown(context.Background())
	}()

	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
