package main

import (
	"context"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"

	_ "github.com/edulink/edulink-api/api/swagger"
	"github.com/edulink/edulink-api/internal/codes"
	"github.com/edulink/edulink-api/internal/handler"
	"github.com/edulink/edulink-api/internal/repository"
	"github.com/edulink/edulink-api/internal/router"
	"github.com/edulink/edulink-api/internal/service"
	"github.com/edulink/edulink-api/pkg/cache"
	"github.com/edulink/edulink-api/pkg/config"
	"github.com/edulink/edulink-api/pkg/database"
	"github.com/edulink/edulink-api/pkg/export"
	"github.com/edulink/edulink-api/pkg/jobs"
	"github.com/edulink/edulink-api/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// @title EduLink API
// @version 1.0.0
// @description School platform linking teachers, students and parents
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.Database); err != nil {
		logr.Fatal("failed to run migrations", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
			redisClient = nil
		}
	}

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	parentLinkRepo := repository.NewParentLinkRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	homeworkRepo := repository.NewHomeworkRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	generator := codes.NewGenerator(cfg.Codes.MaxAttempts)
	validate := validator.New()

	metricsSvc := service.NewMetricsService()

	auditSvc := service.NewAuditService(auditRepo, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		Logger:     logr,
	}, logr)
	auditSvc.Start(context.Background())
	defer auditSvc.Stop()

	authSvc := service.NewAuthService(userRepo, generator, metricsSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	classSvc := service.NewClassService(classRepo, enrollmentRepo, generator, metricsSvc, export.NewCSVExporter(), export.NewPDFExporter(), validate, logr)
	parentSvc := service.NewParentService(userRepo, parentLinkRepo, enrollmentRepo, cacheRepo, cfg.Cache.ChildrenTTL, metricsSvc, validate, logr)
	contentSvc := service.NewContentService(classRepo, enrollmentRepo, lessonRepo, homeworkRepo, quizRepo, announcementRepo, validate, logr)
	messageSvc := service.NewMessageService(messageRepo, userRepo, validate, logr)

	handlers := router.Handlers{
		Auth:    handler.NewAuthHandler(authSvc),
		Class:   handler.NewClassHandler(classSvc),
		Parent:  handler.NewParentHandler(parentSvc),
		Content: handler.NewContentHandler(contentSvc),
		Message: handler.NewMessageHandler(messageSvc),
		Metrics: handler.NewMetricsHandler(metricsSvc, db),
	}

	r := router.New(cfg, logr, handlers, router.Services{
		Auth:    authSvc,
		Audit:   auditSvc,
		Metrics: metricsSvc,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("starting server", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}
