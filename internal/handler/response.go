package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/portfolio/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respondError переводит ошибку сервиса в HTTP ответ
func respondError(c *gin.Context, logger *zap.Logger, err error, action string) {
	var ve *service.ValidationError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: ve.Error(),
		})
	case errors.Is(err, service.ErrSlugConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "slug_conflict",
			Message: "Slug уже используется другой ссылкой",
		})
	case errors.Is(err, service.ErrLinkNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Ссылка не найдена",
		})
	case errors.Is(err, service.ErrClickNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Клик не найден",
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Неверный email или пароль",
		})
	default:
		logger.Error("Failed to "+action, zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to " + action,
		})
	}
}

func invalidRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: err.Error(),
	})
}
