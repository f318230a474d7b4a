package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/cognify-api/api/swagger"
	"github.com/noah-isme/cognify-api/internal/handler"
	"github.com/noah-isme/cognify-api/internal/middleware"
	"github.com/noah-isme/cognify-api/internal/models"
	"github.com/noah-isme/cognify-api/internal/repository"
	"github.com/noah-isme/cognify-api/internal/service"
	"github.com/noah-isme/cognify-api/pkg/cache"
	"github.com/noah-isme/cognify-api/pkg/config"
	"github.com/noah-isme/cognify-api/pkg/database"
	"github.com/noah-isme/cognify-api/pkg/jobs"
	"github.com/noah-isme/cognify-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/cognify-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/cognify-api/pkg/middleware/requestid"
)

// @title Cognify API
// @version 1.0.0
// @description Academic content and assessment platform
// @BasePath /api
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
			defer cacheRepo.Close()
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	whitelistRepo := repository.NewWhitelistRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	contentRepo := repository.NewContentRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	revisionRepo := repository.NewRevisionRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	activitySvc := service.NewActivityService(activityRepo, logr, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
	})
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	activitySvc.Start(ctx)
	defer activitySvc.Stop()

	settingsSvc := service.NewSettingsService(settingsRepo, cacheSvc, activitySvc, validate, logr, float64(cfg.Grading.DefaultPassingGrade))
	authSvc := service.NewAuthService(userRepo, whitelistRepo, settingsSvc, activitySvc, validate, logr, service.AuthConfig{
		Secret:        cfg.JWT.Secret,
		AccessExpiry:  cfg.JWT.Expiration,
		RefreshExpiry: cfg.JWT.RefreshExpiration,
		Issuer:        cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, activitySvc, validate, logr)
	roleSvc := service.NewRoleService(roleRepo, userRepo, activitySvc, validate, logr)
	whitelistSvc := service.NewWhitelistService(whitelistRepo, activitySvc, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, activitySvc, validate, logr)
	contentSvc := service.NewContentService(contentRepo, activitySvc, validate, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, settingsSvc, activitySvc, metricsSvc, validate, logr)
	questionSvc := service.NewQuestionService(questionRepo, activitySvc, validate, logr)
	revisionSvc := service.NewRevisionService(revisionRepo, activitySvc, validate, logr)
	verificationSvc := service.NewVerificationService(contentRepo, assessmentRepo, subjectRepo, userRepo, logr)
	dashboardSvc := service.NewDashboardService(analyticsRepo, activityRepo, settingsSvc, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, userRepo, logr)

	handlers := handler.Handlers{
		WebAuth:      handler.NewAuthHandler(authSvc, models.SurfaceWeb),
		MobileAuth:   handler.NewAuthHandler(authSvc, models.SurfaceMobile),
		Users:        handler.NewUserHandler(userSvc),
		Roles:        handler.NewRoleHandler(roleSvc),
		Whitelist:    handler.NewWhitelistHandler(whitelistSvc),
		Subjects:     handler.NewSubjectHandler(subjectSvc),
		Content:      handler.NewContentHandler(contentSvc),
		Assessments:  handler.NewAssessmentHandler(assessmentSvc),
		Questions:    handler.NewQuestionHandler(questionSvc),
		Revisions:    handler.NewRevisionHandler(revisionSvc),
		Verification: handler.NewVerificationHandler(verificationSvc),
		Activity:     handler.NewActivityHandler(activitySvc),
		Settings:     handler.NewSettingsHandler(settingsSvc),
		Dashboard:    handler.NewDashboardHandler(dashboardSvc),
		Analytics:    handler.NewAnalyticsHandler(analyticsSvc),
	}

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authSvc, settingsSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
