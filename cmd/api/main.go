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

	"github.com/SergeiKhy/portfolio/internal/config"
	"github.com/SergeiKhy/portfolio/internal/geo"
	"github.com/SergeiKhy/portfolio/internal/handler"
	"github.com/SergeiKhy/portfolio/internal/logger"
	"github.com/SergeiKhy/portfolio/internal/metrics"
	"github.com/SergeiKhy/portfolio/internal/middleware"
	"github.com/SergeiKhy/portfolio/internal/repository"
	"github.com/SergeiKhy/portfolio/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	hashPassword := pflag.String("hash-password", "", "print a bcrypt hash for ADMIN_PASSWORD_HASH and exit")
	pflag.Parse()

	if *hashPassword != "" {
		hash, err := service.HashPassword(*hashPassword)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Миграции схемы
	if err := repository.RunMigrations(cfg.DB); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Подключение к БД (postgres)
	db, err := repository.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Подключение к Redis
	redis, err := repository.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	// GeoIP опционален
	var locator geo.Locator = geo.NopLocator{}
	if cfg.GeoIP.DBPath != "" {
		mm, err := geo.Open(cfg.GeoIP.DBPath)
		if err != nil {
			logger.Warn("GeoIP disabled", zap.Error(err))
		} else {
			defer mm.Close()
			locator = mm
			logger.Info("GeoIP enabled", zap.String("path", cfg.GeoIP.DBPath))
		}
	}

	// Метрики
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Инициализация репозиториев
	linkRepo := repository.NewLinkRepository(db)
	clickRepo := repository.NewClickRepository(db)
	eventRepo := repository.NewEventRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	cacheRepo := repository.NewCacheRepository(redis)

	// Инициализация сервисов
	linkService := service.NewLinkService(linkRepo, clickRepo, eventRepo, cacheRepo, service.LinkServiceConfig{
		BaseURL:  cfg.App.BaseURL,
		CacheTTL: cfg.Redis.CacheTTL,
	}, logger)

	// Инициализация процессора кликов (Worker Pool)
	clickProcessor := service.NewClickProcessor(clickRepo, locator, m, service.ClickProcessorConfig{
		Workers:    cfg.Clicks.Workers,
		BufferSize: cfg.Clicks.BufferSize,
	}, logger)
	clickProcessor.Start()

	authService, err := service.NewAuthService(service.AuthConfig{
		JWTSecret:         cfg.Auth.JWTSecret,
		TokenTTL:          cfg.Auth.TokenTTL,
		AdminEmail:        cfg.Auth.AdminEmail,
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
		APIKeys:           cfg.Auth.APIKeys,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to init auth", zap.Error(err))
	}
	if len(cfg.Auth.APIKeys) > 0 {
		logger.Info("API key authentication enabled", zap.Int("keys_count", len(cfg.Auth.APIKeys)))
	}

	// Инициализация middleware
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
		Metrics:           m,
	})
	defer rateLimiter.Stop()

	// Настройка роутера
	router := handler.NewRouter(handler.Services{
		Links:     linkService,
		Redirects: service.NewRedirectService(linkService, clickProcessor, m, logger),
		Events:    service.NewEventTracker(clickRepo, eventRepo, m, logger),
		Analytics: service.NewAnalyticsService(analyticsRepo, logger),
		Auth:      authService,
		Clicks:    clickProcessor,
	}, handler.RouterOptions{
		BaseURL:        cfg.App.BaseURL,
		CORSOrigins:    cfg.App.CORSOrigins,
		TrustedProxies: cfg.App.TrustedProxies,
		SecureCookie:   cfg.App.IsProduction(),
		RateLimiter:    rateLimiter,
		HealthDeps: map[string]handler.Pinger{
			"postgres": db,
			"redis":    redis,
		},
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, logger)

	// Запуск сервера
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск в горутине
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// клики, принятые до остановки сервера, дописываются
	clickProcessor.Stop()

	logger.Info("Server exited")
}
