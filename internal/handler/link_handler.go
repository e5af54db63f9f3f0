package handler

import (
	"net/http"
	"strconv"

	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/SergeiKhy/portfolio/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LinkHandler админский CRUD отслеживаемых ссылок
type LinkHandler struct {
	service service.LinkService
	baseURL string
	logger  *zap.Logger
}

func NewLinkHandler(service service.LinkService, baseURL string, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		baseURL: baseURL,
		logger:  logger,
	}
}

type LinkResponse struct {
	models.Link
	ShortURL string `json:"short_url"`
}

func (h *LinkHandler) toResponse(link *models.Link) LinkResponse {
	return LinkResponse{Link: *link, ShortURL: h.baseURL + "/l/" + link.Slug}
}

// CreateLink godoc
// @Summary Create a tracked link
// @Tags links
// @Accept json
// @Produce json
// @Param request body models.CreateLinkInput true "Link creation request"
// @Success 201 {object} LinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/links [post]
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var input models.CreateLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		invalidRequest(c, err)
		return
	}

	link, err := h.service.CreateLink(c.Request.Context(), &input)
	if err != nil {
		respondError(c, h.logger, err, "create link")
		return
	}

	h.logger.Info("Link created", zap.String("id", link.ID), zap.String("slug", link.Slug))
	c.JSON(http.StatusCreated, h.toResponse(link))
}

// UpdateLink godoc
// @Summary Partially update a tracked link
// @Tags links
// @Accept json
// @Produce json
// @Param id path string true "Link ID"
// @Param request body models.UpdateLinkInput true "Fields to change"
// @Success 200 {object} LinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/links/{id} [put]
func (h *LinkHandler) UpdateLink(c *gin.Context) {
	var input models.UpdateLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		invalidRequest(c, err)
		return
	}

	link, err := h.service.UpdateLink(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, h.logger, err, "update link")
		return
	}

	c.JSON(http.StatusOK, h.toResponse(link))
}

// DeleteLink godoc
// @Summary Delete a tracked link and its clicks
// @Tags links
// @Produce json
// @Param id path string true "Link ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /api/links/{id} [delete]
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.DeleteLink(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "delete link")
		return
	}

	h.logger.Info("Link deleted", zap.String("id", id))
	c.JSON(http.StatusOK, gin.H{"message": "Link deleted successfully"})
}

// ListLinks godoc
// @Summary List tracked links, newest first
// @Tags links
// @Produce json
// @Success 200 {array} models.LinkWithCount
// @Router /api/links [get]
func (h *LinkHandler) ListLinks(c *gin.Context) {
	links, err := h.service.ListLinks(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "list links")
		return
	}

	c.JSON(http.StatusOK, links)
}

// GetLink godoc
// @Summary Get a link with its recent clicks and their journeys
// @Tags links
// @Produce json
// @Param id path string true "Link ID"
// @Success 200 {object} models.LinkDetails
// @Failure 404 {object} ErrorResponse
// @Router /api/links/{id} [get]
func (h *LinkHandler) GetLink(c *gin.Context) {
	details, err := h.service.GetLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "get link")
		return
	}

	c.JSON(http.StatusOK, details)
}

// GetStats godoc
// @Summary Link leaderboard sorted by clicks
// @Tags links
// @Produce json
// @Success 200 {array} models.LinkStats
// @Router /api/links/stats [get]
func (h *LinkHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Leaderboard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "get link stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetQRCode godoc
// @Summary PNG QR code of the public short URL
// @Tags links
// @Produce png
// @Param id path string true "Link ID"
// @Param size query int false "Image size in pixels" default(256)
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/links/{id}/qr [get]
func (h *LinkHandler) GetQRCode(c *gin.Context) {
	size := 0
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			invalidRequest(c, err)
			return
		}
		size = n
	}

	png, err := h.service.QRCode(c.Request.Context(), c.Param("id"), size)
	if err != nil {
		respondError(c, h.logger, err, "render qr code")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
