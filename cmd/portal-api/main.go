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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-placement-api/api/swagger"
	"github.com/noah-isme/campus-placement-api/internal/handler"
	internalmiddleware "github.com/noah-isme/campus-placement-api/internal/middleware"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	"github.com/noah-isme/campus-placement-api/internal/service"
	"github.com/noah-isme/campus-placement-api/pkg/cache"
	"github.com/noah-isme/campus-placement-api/pkg/config"
	"github.com/noah-isme/campus-placement-api/pkg/database"
	"github.com/noah-isme/campus-placement-api/pkg/jobs"
	"github.com/noah-isme/campus-placement-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-placement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-placement-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-placement-api/pkg/storage"
)

// @title Campus Placement API
// @version 1.0.0
// @description Job placement portal for students and recruiters
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	files, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	metrics := service.NewMetricsService()
	validate := service.NewValidator()

	accounts := repository.NewAccountRepository(db)
	tokens := repository.NewTokenRepository(db)
	jobRepo := repository.NewJobRepository(db)
	applications := repository.NewApplicationRepository(db)

	audit := service.NewAuditQueue(repository.NewAuditRepository(db), jobs.Config{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		Logger:     logr,
	})
	audit.Start(context.Background())
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := audit.Stop(drainCtx); err != nil {
			logr.Warn("audit queue not drained", zap.Error(err))
		}
	}()

	var (
		cacheRepo service.CacheRepository
		limiter   internalmiddleware.Limiter = internalmiddleware.NewMemoryLimiter()
	)
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
		limiter = internalmiddleware.NewRedisLimiter(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)

	authSvc := service.NewAuthService(accounts, tokens, audit, metrics, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	cvValidator := service.NewCVValidator(cfg.Uploads.MaxCVSizeBytes, cfg.Uploads.AllowedCVFormats)
	profileSvc := service.NewProfileService(accounts, files, cvValidator, audit, metrics, validate, logr)
	jobSvc := service.NewJobService(jobRepo, applications, cacheSvc, audit, validate, logr, cfg.Dashboard.LocationsTTL)
	applicationSvc := service.NewApplicationService(jobRepo, applications, accounts, files, cacheSvc, metrics, audit, logr, service.ApplicationConfig{
		LockTerminalStatus: cfg.Applications.LockTerminalStatus,
		RoutePrefix:        cfg.APIPrefix,
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Students:     accounts,
		Jobs:         jobRepo,
		Applications: applications,
		Cache:        cacheSvc,
		Logger:       logr,
		Config:       service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})
	exportSvc := service.NewExportService(applicationSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	handler.Register(r, handler.Handlers{
		Auth:      handler.NewAuthHandler(authSvc, cfg.APIPrefix),
		Profile:   handler.NewProfileHandler(profileSvc),
		Student:   handler.NewStudentHandler(dashboardSvc, profileSvc, applicationSvc),
		Jobs:      handler.NewJobHandler(jobSvc, applicationSvc, cfg.APIPrefix),
		Recruiter: handler.NewRecruiterHandler(dashboardSvc, jobSvc, applicationSvc, exportSvc),
		Metrics:   handler.NewMetricsHandler(metrics, readinessChecks(db.PingContext, redisClient)),
	}, handler.RouteOptions{
		Prefix:           cfg.APIPrefix,
		Tokens:           authSvc,
		Limiter:          limiter,
		LoginLimit:       cfg.RateLimit.LoginLimit,
		LoginWindow:      cfg.RateLimit.LoginWindow,
		OnLoginThrottled: metrics.RecordLoginThrottled,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
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

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func readinessChecks(pingDB handler.ReadinessCheck, client *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{"postgres": pingDB}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}
