package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/medibook-api/api/swagger"
	"github.com/noah-isme/medibook-api/internal/handler"
	"github.com/noah-isme/medibook-api/internal/middleware"
	"github.com/noah-isme/medibook-api/internal/repository"
	"github.com/noah-isme/medibook-api/internal/service"
	"github.com/noah-isme/medibook-api/pkg/cache"
	"github.com/noah-isme/medibook-api/pkg/config"
	"github.com/noah-isme/medibook-api/pkg/database"
	"github.com/noah-isme/medibook-api/pkg/events"
	"github.com/noah-isme/medibook-api/pkg/jobs"
	"github.com/noah-isme/medibook-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/medibook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/medibook-api/pkg/middleware/requestid"
	"github.com/noah-isme/medibook-api/pkg/timezone"
)

// @title MediBook API
// @version 1.0.0
// @description Hospital appointment booking
// @BasePath /api/v1
// @schemes http

const txRetries = 3

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

	tz, err := timezone.New(cfg.Booking.Timezone)
	if err != nil {
		logr.Fatal("invalid booking timezone", zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	switch {
	case err != nil:
		logr.Warn("redis unavailable, slot cache disabled", zap.Error(err))
	case redisClient != nil:
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	var publisher service.EventPublisher
	if cfg.Kafka.Enabled() {
		producer, err := events.NewProducer(cfg.Kafka, logr)
		if err != nil {
			logr.Fatal("failed to init event producer", zap.Error(err))
		}
		defer producer.Close()
		publisher = producer
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	hospitalRepo := repository.NewHospitalRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	slotRepo := repository.NewSlotRepository(db, txRetries)
	appointmentRepo := repository.NewAppointmentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	bookingStore := repository.NewBookingStore(db, txRetries)

	effects := service.NewSideEffects(service.SideEffectsConfig{
		Audit:     auditRepo,
		Notifier:  notificationRepo,
		Publisher: publisher,
		Metrics:   metricsSvc,
		Logger:    logr,
	})
	sideEffectQueue := jobs.NewQueue("side-effects", effects.Handle, jobs.QueueConfig{
		Workers:    cfg.SideEffects.Workers,
		BufferSize: cfg.SideEffects.BufferSize,
		MaxRetries: cfg.SideEffects.MaxRetries,
		RetryDelay: cfg.SideEffects.RetryDelay,
		Logger:     logr,
	})
	effects.AttachQueue(sideEffectQueue)
	sideEffectQueue.Start(context.Background())

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Booking.SlotsCacheTTL, logr, cfg.Booking.SlotsCacheEnabled)
	principalSvc := service.NewPrincipalService(userRepo, logr, service.PrincipalConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	bookingSvc := service.NewBookingService(bookingStore, service.BookingServiceConfig{
		Cache:     cacheSvc,
		Effects:   effects,
		Metrics:   metricsSvc,
		Validator: validate,
		Logger:    logr,
		Timeout:   cfg.Booking.TxTimeout,
	})
	statusSvc := service.NewAppointmentStatusService(appointmentRepo, doctorRepo, effects, metricsSvc, logr)
	querySvc := service.NewAppointmentQueryService(appointmentRepo, doctorRepo, tz, logr)
	slotSvc := service.NewSlotService(slotRepo, doctorRepo, service.SlotServiceConfig{
		Timezone:  tz,
		Cache:     cacheSvc,
		Effects:   effects,
		Validator: validate,
		Logger:    logr,
	})
	catalogSvc := service.NewCatalogService(hospitalRepo, departmentRepo, doctorRepo, effects, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	if metricsSvc != nil {
		r.Use(middleware.Metrics(metricsSvc))
	}

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Routes{
		Auth:          principalSvc,
		Appointments:  handler.NewAppointmentHandler(bookingSvc, statusSvc, querySvc),
		Slots:         handler.NewSlotHandler(slotSvc),
		Catalog:       handler.NewCatalogHandler(catalogSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
	}.Register(r.Group(cfg.APIPrefix))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", tz.Location().String())
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
	sideEffectQueue.Stop()
}
