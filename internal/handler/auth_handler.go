package handler

import (
	"net/http"

	"github.com/SergeiKhy/portfolio/internal/middleware"
	"github.com/SergeiKhy/portfolio/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service service.AuthService
	logger  *zap.Logger
}

func NewAuthHandler(service service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// Login godoc
// @Summary Exchange admin credentials for a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	token, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		h.logger.Warn("Failed admin login", zap.String("ip", middleware.ClientIP(c)))
		respondError(c, h.logger, err, "login")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token})
}
