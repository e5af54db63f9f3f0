package handler

import (
	"net/http"
	"time"

	"github.com/SergeiKhy/portfolio/internal/middleware"
	"github.com/SergeiKhy/portfolio/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services сервисы, которые обслуживает HTTP слой
type Services struct {
	Links     service.LinkService
	Redirects service.RedirectService
	Events    service.EventTracker
	Analytics service.AnalyticsService
	Auth      service.AuthService
	Clicks    service.ClickProcessor
}

type RouterOptions struct {
	BaseURL        string
	CORSOrigins    []string
	TrustedProxies []string
	SecureCookie   bool
	RateLimiter    *middleware.RateLimiter
	HealthDeps     map[string]Pinger
	MetricsHandler http.Handler
}

func NewRouter(svc Services, opts RouterOptions, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	// без явного списка gin доверяет заголовкам прокси от любого адреса
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		logger.Warn("Invalid trusted proxies, forwarded headers ignored", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())

	// Middleware для логгирования
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))
	router.Use(middleware.Identify(svc.Auth))

	linkHandler := NewLinkHandler(svc.Links, opts.BaseURL, logger)
	redirectHandler := NewRedirectHandler(svc.Redirects, opts.SecureCookie)
	eventHandler := NewEventHandler(svc.Events, logger)
	analyticsHandler := NewAnalyticsHandler(svc.Analytics, logger)
	authHandler := NewAuthHandler(svc.Auth, logger)
	healthHandler := NewHealthHandler(opts.HealthDeps, svc.Clicks, logger)

	// Rate limiting только для публичной записи; редирект не ограничиваем
	var limited gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if opts.RateLimiter != nil {
		limited = opts.RateLimiter.Middleware()
	}

	router.GET("/health", healthHandler.HealthCheck)
	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	router.GET("/l/:slug", redirectHandler.Redirect)

	api := router.Group("/api")
	{
		api.POST("/analytics", limited, eventHandler.TrackEvent)
		api.POST("/auth/login", limited, authHandler.Login)

		admin := api.Group("", middleware.RequireAdmin())
		{
			admin.GET("/analytics", analyticsHandler.GetAnalytics)
			admin.GET("/clicks/:id/journey", eventHandler.GetJourney)

			admin.GET("/links", linkHandler.ListLinks)
			admin.POST("/links", linkHandler.CreateLink)
			admin.GET("/links/stats", linkHandler.GetStats)
			admin.GET("/links/:id", linkHandler.GetLink)
			admin.PUT("/links/:id", linkHandler.UpdateLink)
			admin.DELETE("/links/:id", linkHandler.DeleteLink)
			admin.GET("/links/:id/qr", linkHandler.GetQRCode)
		}
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		MaxAge:           12 * time.Hour,
	}

	// браузеры не принимают credentials вместе с Access-Control-Allow-Origin: *
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}

	return cfg
}
