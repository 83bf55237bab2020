package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/fci-zu/faculty-api/internal/handler"
	"github.com/fci-zu/faculty-api/internal/middleware"
	"github.com/fci-zu/faculty-api/internal/repository"
	"github.com/fci-zu/faculty-api/internal/service"
	"github.com/fci-zu/faculty-api/pkg/cache"
	"github.com/fci-zu/faculty-api/pkg/config"
	"github.com/fci-zu/faculty-api/pkg/database"
	"github.com/fci-zu/faculty-api/pkg/jobs"
	"github.com/fci-zu/faculty-api/pkg/logger"
	corsmiddleware "github.com/fci-zu/faculty-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fci-zu/faculty-api/pkg/middleware/requestid"
	"github.com/fci-zu/faculty-api/pkg/storage"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, true)
		}
	}

	courseRepo := repository.NewCourseRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	prerequisiteRepo := repository.NewPrerequisiteRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	authSvc := service.NewAuthService(staffRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	courseSvc := service.NewCourseService(courseRepo, departmentRepo, cacheSvc, validate, logr)
	departmentSvc := service.NewDepartmentService(departmentRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, departmentRepo, validate, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, studentRepo, courseRepo, completionRepo, validate, logr)
	completionSvc := service.NewCompletionService(completionRepo, studentRepo, courseRepo, validate, logr)
	prerequisiteSvc := service.NewPrerequisiteService(prerequisiteRepo, courseRepo, validate, logr)
	recommendationSvc := service.NewRecommendationService(studentRepo, courseRepo, logr)
	activitySvc := service.NewActivityService(activityRepo, studentRepo, validate, logr)

	var transcriptHandler *handler.TranscriptHandler
	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.Dir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignSecret, cfg.Exports.ResultTTL)
		exportRepo := repository.NewExportRepository(db)
		exporter := service.NewExportService(completionSvc, files, signer, logr, nil, nil)
		worker := service.NewTranscriptWorker(exportRepo, exporter, cfg.Exports.MaxRetries, logr)
		queue := jobs.NewQueue("transcript-exports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.Workers,
			MaxRetries: cfg.Exports.MaxRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		transcriptSvc := service.NewTranscriptService(exportRepo, studentRepo, queue, exporter, logr, service.TranscriptServiceConfig{
			ResultTTL:       cfg.Exports.ResultTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
		})
		transcriptSvc.RecoverPendingJobs(ctx)
		transcriptSvc.StartCleanup(ctx)
		transcriptHandler = handler.NewTranscriptHandler(transcriptSvc)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.RegisterRoutes(r, handler.RouterDeps{
		Auth:           authSvc,
		Courses:        handler.NewCourseHandler(courseSvc, prerequisiteSvc),
		Departments:    handler.NewDepartmentHandler(departmentSvc),
		Students:       handler.NewStudentHandler(studentSvc, recommendationSvc),
		Registrations:  handler.NewRegistrationHandler(registrationSvc),
		Completions:    handler.NewCompletionHandler(completionSvc),
		Activities:     handler.NewActivityHandler(activitySvc),
		Transcripts:    transcriptHandler,
		AuthHandler:    handler.NewAuthHandler(authSvc),
		Metrics:        handler.NewMetricsHandler(metrics),
		APIPrefix:      cfg.APIPrefix,
		ExportsEnabled: cfg.Exports.Enabled,
		ReadyCheck:     db.Ping,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
