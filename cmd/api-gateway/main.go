package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/autohub-api/api/swagger"
	"github.com/noah-isme/autohub-api/internal/handler"
	internalmiddleware "github.com/noah-isme/autohub-api/internal/middleware"
	"github.com/noah-isme/autohub-api/internal/models"
	"github.com/noah-isme/autohub-api/internal/repository"
	"github.com/noah-isme/autohub-api/internal/service"
	"github.com/noah-isme/autohub-api/pkg/cache"
	"github.com/noah-isme/autohub-api/pkg/config"
	"github.com/noah-isme/autohub-api/pkg/database"
	"github.com/noah-isme/autohub-api/pkg/export"
	"github.com/noah-isme/autohub-api/pkg/jobs"
	"github.com/noah-isme/autohub-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/autohub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/autohub-api/pkg/middleware/requestid"
	"github.com/noah-isme/autohub-api/pkg/storage"
	"github.com/noah-isme/autohub-api/pkg/summarizer"
)

// @title AutoHub API
// @version 1.0.0
// @description Vehicle inspection records with a moderated single-use edit workflow
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Summary.CacheTTL, logr)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	editRequestRepo := repository.NewEditRequestRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	activitySvc := service.NewActivityService(activityRepo, metricsSvc, logr)

	store, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare attachment storage", zap.Error(err))
	}
	attachmentSvc := service.NewAttachmentService(store,
		storage.NewSignedURLSigner(cfg.Attachments.SignedURLSecret, cfg.Attachments.SignedURLTTL),
		service.AttachmentConfig{
			MaxFileSizeBytes: cfg.Attachments.MaxFileSizeBytes,
			AllowedMIMEs:     cfg.Attachments.AllowedMIMEs,
			URLPrefix:        strings.TrimSuffix(cfg.APIPrefix, "/") + "/attachments/",
		}, logr)

	authSvc := service.NewAuthService(userRepo, activitySvc, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, activitySvc, validate, logr)
	recordSvc := service.NewRecordService(recordRepo, attachmentSvc, activitySvc, validate, logr)

	var summaryClient service.Summarizer
	if cfg.Summary.Enabled() {
		summaryClient = service.NewHTTPSummarizer(summarizer.NewClient(cfg.Summary.URL, cfg.Summary.APIKey, cfg.Summary.Timeout))
	}
	summarySvc := service.NewSummaryService(recordRepo, summaryClient, cacheSvc, metricsSvc, logr, cfg.Summary.CacheTTL)

	workflowSvc := service.NewEditWorkflowService(recordRepo, editRequestRepo, activitySvc, validate, logr,
		service.WithWorkflowImages(attachmentSvc),
		service.WithWorkflowMetrics(metricsSvc),
		service.WithWorkflowSummaries(summarySvc),
	)
	dashboardSvc := service.NewDashboardService(recordRepo, editRequestRepo, userRepo, logr)
	exportSvc := service.NewExportService(activityRepo, recordRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if summaryClient != nil {
		summaryQueue := jobs.NewQueue("summaries", summarySvc.Process, jobs.QueueConfig{
			Workers:    cfg.Summary.Workers,
			MaxRetries: cfg.Summary.Retries,
			JobTimeout: cfg.Summary.Timeout,
			Logger:     logr,
		})
		summarySvc.UseQueue(summaryQueue)
		summaryQueue.Start(ctx)
		defer summaryQueue.Stop()
	}

	if _, err := authSvc.EnsureBootstrapAdmin(ctx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword); err != nil {
		logr.Fatal("failed to bootstrap admin", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Records:      handler.NewRecordHandler(recordSvc, workflowSvc, summarySvc, exportSvc),
		EditRequests: handler.NewEditRequestHandler(workflowSvc),
		Users:        handler.NewUserHandler(userSvc),
		Activity:     handler.NewActivityHandler(activitySvc, exportSvc),
		Dashboard:    handler.NewDashboardHandler(dashboardSvc),
		Catalog:      handler.NewCatalogHandler(models.DefaultCatalog()),
		Attachments:  handler.NewAttachmentHandler(attachmentSvc),
	}, authSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
