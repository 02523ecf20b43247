package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/complaint-desk-api/api/swagger"
	"github.com/noah-isme/complaint-desk-api/internal/handler"
	"github.com/noah-isme/complaint-desk-api/internal/repository"
	"github.com/noah-isme/complaint-desk-api/internal/router"
	"github.com/noah-isme/complaint-desk-api/internal/service"
	"github.com/noah-isme/complaint-desk-api/pkg/cache"
	"github.com/noah-isme/complaint-desk-api/pkg/config"
	"github.com/noah-isme/complaint-desk-api/pkg/database"
	"github.com/noah-isme/complaint-desk-api/pkg/logger"
	"github.com/noah-isme/complaint-desk-api/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Complaint Desk API
// @version 1.0.0
// @description Complaint submission, tracking and staff triage.
// @BasePath /
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, login throttling disabled", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	files, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare attachment storage", zap.Error(err))
	}
	signingSecret := cfg.Attachments.SignedURLSecret
	if signingSecret == "" {
		signingSecret = cfg.JWT.Secret
	}
	signer := storage.NewSignedURLSigner(signingSecret, cfg.Attachments.SignedURLTTL)

	metrics := service.NewMetricsService()
	validate := service.NewValidator()

	userRepo := repository.NewUserRepository(db)
	complaintRepo := repository.NewComplaintRepository(db).WithObserver(metrics)
	attemptRepo := repository.NewRateLimitRepository(redisClient)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	complaintSvc := service.NewComplaintService(service.ComplaintServiceParams{
		Store:     complaintRepo,
		Audit:     userRepo,
		Files:     files,
		Signer:    signer,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
		Config: service.ComplaintServiceConfig{
			PageSize:           cfg.Complaints.PageSize,
			AdminPageSize:      cfg.Complaints.AdminPageSize,
			RecentLimit:        cfg.Complaints.RecentLimit,
			MaxAttachmentBytes: cfg.Attachments.MaxFileSizeBytes,
			AllowedMIMEs:       cfg.Attachments.AllowedMIMEs,
			DownloadBaseURL:    cfg.APIPrefix,
		},
	})
	exportSvc := service.NewExportService(complaintSvc, userRepo, metrics, logr)

	checks := []handler.ReadinessCheck{{Name: "postgres", Check: db.PingContext}}
	if redisClient != nil {
		checks = append(checks, handler.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	engine := router.New(cfg, router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Complaint: handler.NewComplaintHandler(complaintSvc),
		Dashboard: handler.NewDashboardHandler(complaintSvc),
		Admin:     handler.NewAdminComplaintHandler(complaintSvc, exportSvc),
		Metrics:   handler.NewMetricsHandler(metrics, checks...),
	}, router.Dependencies{
		Tokens:   authSvc,
		Audit:    userRepo,
		Requests: metrics,
		Attempts: attemptRepo,
		Throttle: metrics,
		Logger:   logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
