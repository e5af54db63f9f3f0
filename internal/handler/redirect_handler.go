package handler

import (
	"net/http"

	"github.com/SergeiKhy/portfolio/internal/middleware"
	"github.com/SergeiKhy/portfolio/internal/service"
	"github.com/gin-gonic/gin"
)

type RedirectHandler struct {
	service      service.RedirectService
	secureCookie bool
}

func NewRedirectHandler(service service.RedirectService, secureCookie bool) *RedirectHandler {
	return &RedirectHandler{service: service, secureCookie: secureCookie}
}

// Redirect godoc
// @Summary Follow a tracked link
// @Description Redirects to the link target and sets the correlation cookie.
// @Description Unknown, disabled or failing links redirect to the home page.
// @Tags redirect
// @Param slug path string true "Link slug"
// @Success 302
// @Router /l/{slug} [get]
func (h *RedirectHandler) Redirect(c *gin.Context) {
	result := h.service.Resolve(c.Request.Context(), service.RedirectRequest{
		Slug:      c.Param("slug"),
		IPAddress: middleware.ClientIP(c),
		UserAgent: c.Request.UserAgent(),
		Referer:   c.Request.Referer(),
	})

	if result.SessionToken != "" {
		// cookie читает скрипт аналитики на сайте, поэтому без HttpOnly
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     service.TrackingCookieName,
			Value:    result.SessionToken,
			Path:     "/",
			MaxAge:   int(service.TrackingCookieTTL.Seconds()),
			Secure:   h.secureCookie,
			HttpOnly: false,
			SameSite: http.SameSiteLaxMode,
		})
	}

	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, result.Location)
}
