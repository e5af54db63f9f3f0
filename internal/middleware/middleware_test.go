package middleware_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SergeiKhy/portfolio/internal/metrics"
	"github.com/SergeiKhy/portfolio/internal/middleware"
	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestRateLimiter_Middleware проверяет работу rate limiter middleware
func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	// Создаём rate limiter с лимитом 5 запросов в секунду и burst 5
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 5,
		BurstSize:         5,
		CleanupInterval:   time.Minute,
		Metrics:           metrics.New(reg),
	})
	defer rl.Stop()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Первые 5 запросов должны пройти (в пределах burst лимита)
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// Следующие запросы должны быть ограничены
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	count, err := testutil.GatherAndCount(reg, "portfolio_rate_limited_requests_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func setupLimitedRouter(rl *middleware.RateLimiter, trusted []string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	_ = router.SetTrustedProxies(trusted)
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func sendFrom(router *gin.Engine, remote, xff string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = remote
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	router.ServeHTTP(w, req)
	return w.Code
}

// TestRateLimiter_PerClient проверяет раздельные лимиты по адресу соединения
func TestRateLimiter_PerClient(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 2,
		BurstSize:         2,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()
	router := setupLimitedRouter(rl, nil)

	// Клиент 1 - первые 2 запроса успешны, третий ограничен
	assert.Equal(t, http.StatusOK, sendFrom(router, "203.0.113.1:4000", ""))
	assert.Equal(t, http.StatusOK, sendFrom(router, "203.0.113.1:4001", ""))
	assert.Equal(t, http.StatusTooManyRequests, sendFrom(router, "203.0.113.1:4002", ""))

	// Клиент 2 - запрос успешен (другой адрес)
	assert.Equal(t, http.StatusOK, sendFrom(router, "203.0.113.2:4000", ""))
}

// TestRateLimiter_IgnoresForwardedFromUntrustedPeer проверяет, что смена
// X-Forwarded-For с одного адреса не даёт нового лимита
func TestRateLimiter_IgnoresForwardedFromUntrustedPeer(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()
	router := setupLimitedRouter(rl, nil)

	accepted := 0
	for i := 0; i < 50; i++ {
		xff := fmt.Sprintf("198.51.100.%d", i+1)
		if sendFrom(router, "203.0.113.50:5000", xff) == http.StatusOK {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}

// TestRateLimiter_TrustedProxy проверяет лимит по клиенту за доверенным прокси
func TestRateLimiter_TrustedProxy(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()
	router := setupLimitedRouter(rl, []string{"10.0.0.1"})

	assert.Equal(t, http.StatusOK, sendFrom(router, "10.0.0.1:80", "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, sendFrom(router, "10.0.0.1:80", "198.51.100.1"))
	assert.Equal(t, http.StatusOK, sendFrom(router, "10.0.0.1:80", "198.51.100.2"))
}

// TestClientIP проверяет порядок источников адреса клиента
func TestClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"первый из X-Forwarded-For", map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1", "X-Real-IP": "10.0.0.2"}, "127.0.0.1:5000", "198.51.100.7"},
		{"X-Real-IP", map[string]string{"X-Real-IP": "198.51.100.8"}, "127.0.0.1:5000", "198.51.100.8"},
		{"адрес соединения", nil, "192.0.2.10:43122", "192.0.2.10"},
		{"мусор в X-Forwarded-For", map[string]string{"X-Forwarded-For": strings.Repeat("a", 200) + ", 10.0.0.1", "X-Real-IP": "198.51.100.8"}, "127.0.0.1:5000", "198.51.100.8"},
		{"мусор во всех заголовках", map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "<script>"}, "192.0.2.11:43122", "192.0.2.11"},
		{"IPv6 в X-Forwarded-For", map[string]string{"X-Forwarded-For": " 2001:db8::1 "}, "127.0.0.1:5000", "2001:db8::1"},
		{"нет адреса", nil, "pipe", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, middleware.ClientIP(c))
		})
	}
}

// stubProvider проверяет фиксированные учётные данные
type stubProvider struct{}

func (stubProvider) ParseToken(token string) (models.Identity, error) {
	switch token {
	case "admin-jwt":
		return models.Identity{UserID: "admin@example.dev", Role: models.RoleAdmin}, nil
	case "visitor-jwt":
		return models.Identity{UserID: "guest", Role: models.RoleVisitor}, nil
	}
	return models.Identity{}, errors.New("invalid token")
}

func (stubProvider) IdentifyAPIKey(key string) (models.Identity, bool) {
	if key == "test-key-1" {
		return models.Identity{UserID: "apikey:ci", Role: models.RoleAdmin}, true
	}
	return models.Identity{}, false
}

func setupAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.Identify(stubProvider{}))
	router.GET("/public", func(c *gin.Context) {
		identity, ok := middleware.GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"identified": ok, "user": identity.UserID})
	})
	router.GET("/admin", middleware.RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

// TestRequireAdmin проверяет доступ к админским роутам
func TestRequireAdmin(t *testing.T) {
	router := setupAuthRouter()

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"без учётных данных", "", "", http.StatusUnauthorized},
		{"невалидный API ключ", "X-API-Key", "invalid-key", http.StatusUnauthorized},
		{"валидный API ключ", "X-API-Key", "test-key-1", http.StatusOK},
		{"JWT администратора", "Authorization", "Bearer admin-jwt", http.StatusOK},
		{"JWT посетителя", "Authorization", "Bearer visitor-jwt", http.StatusUnauthorized},
		{"API ключ как Bearer", "Authorization", "Bearer test-key-1", http.StatusOK},
		{"не Bearer схема", "Authorization", "Basic admin-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/admin", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

// TestIdentify_Optional проверяет, что без учётных данных публичный роут доступен
func TestIdentify_Optional(t *testing.T) {
	router := setupAuthRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/public", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"identified":false`)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/public", nil)
	req.Header.Set("Authorization", "Bearer visitor-jwt")
	router.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"user":"guest"`)
}

// TestRequestLogger проверяет поля лога запроса
func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	router := gin.New()
	router.Use(middleware.RequestLogger(zap.New(core)))
	router.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/boom", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.9")
	router.ServeHTTP(w, req)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, zap.ErrorLevel, entries[0].Level)
		fields := entries[0].ContextMap()
		assert.Equal(t, "/boom", fields["path"])
		assert.Equal(t, int64(http.StatusInternalServerError), fields["status"])
		assert.Equal(t, "198.51.100.9", fields["ip"])
	}
}
