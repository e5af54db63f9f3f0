package middleware

import (
	"net/http"
	"strings"

	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	identityKey  = "identity"
	apiKeyHeader = "X-API-Key"
)

// IdentityProvider проверяет JWT и API ключи
type IdentityProvider interface {
	ParseToken(token string) (models.Identity, error)
	IdentifyAPIKey(key string) (models.Identity, bool)
}

// Identify кладёт в контекст личность из X-API-Key или Authorization: Bearer.
// Запрос без валидных учётных данных проходит дальше анонимным.
func Identify(provider IdentityProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, ok := identify(c, provider); ok {
			c.Set(identityKey, identity)
		}
		c.Next()
	}
}

func identify(c *gin.Context, provider IdentityProvider) (models.Identity, bool) {
	if key := c.GetHeader(apiKeyHeader); key != "" {
		return provider.IdentifyAPIKey(key)
	}

	authHeader := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return models.Identity{}, false
	}
	token = strings.TrimSpace(token)

	if identity, err := provider.ParseToken(token); err == nil {
		return identity, true
	}

	// API ключ тоже можно передать как Bearer
	return provider.IdentifyAPIKey(token)
}

// RequireAdmin пропускает только администратора
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok || !identity.IsAdmin() {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Требуется авторизация администратора. Передайте JWT через Authorization: Bearer или ключ через X-API-Key",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentity извлекает личность из контекста
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := value.(models.Identity)
	return identity, ok
}
