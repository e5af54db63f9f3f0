package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClientIP адрес посетителя для метаданных клика и события:
// первый элемент X-Forwarded-For, затем X-Real-IP, затем адрес соединения.
// Значения, которые не разбираются как IP, пропускаются.
// Заголовки задаёт клиент, поэтому для rate limiting используется c.ClientIP().
func ClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := parseIP(first); ip != "" {
			return ip
		}
	}

	if ip := parseIP(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}

	raw := strings.TrimSpace(c.Request.RemoteAddr)
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	return parseIP(raw)
}

// parseIP нормализует адрес или возвращает пустую строку
func parseIP(raw string) string {
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil {
		return ""
	}
	return ip.String()
}
