package handler

import (
	"net/http"

	"github.com/SergeiKhy/portfolio/internal/middleware"
	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/SergeiKhy/portfolio/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EventHandler struct {
	tracker service.EventTracker
	logger  *zap.Logger
}

func NewEventHandler(tracker service.EventTracker, logger *zap.Logger) *EventHandler {
	return &EventHandler{tracker: tracker, logger: logger}
}

type TrackEventRequest struct {
	Event           string         `json:"event"`
	Page            string         `json:"page,omitempty"`
	Target          string         `json:"target,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	TrackingSession string         `json:"trackingSession,omitempty"`
}

// TrackEvent godoc
// @Summary Record an analytics event
// @Description Correlates the event with a link click through trackingSession
// @Description or the _track_session cookie. Storage failures are not reported.
// @Tags analytics
// @Accept json
// @Produce json
// @Param request body TrackEventRequest true "Event"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /api/analytics [post]
func (h *EventHandler) TrackEvent(c *gin.Context) {
	var req TrackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid event body", zap.Error(err))
		invalidRequest(c, err)
		return
	}

	if req.TrackingSession == "" {
		if cookie, err := c.Cookie(service.TrackingCookieName); err == nil {
			req.TrackingSession = cookie
		}
	}

	input := &models.TrackEventInput{
		Event:           req.Event,
		Page:            req.Page,
		Target:          req.Target,
		Metadata:        req.Metadata,
		UserAgent:       c.Request.UserAgent(),
		IPAddress:       middleware.ClientIP(c),
		TrackingSession: req.TrackingSession,
	}
	if identity, ok := middleware.GetIdentity(c); ok {
		input.UserID = identity.UserID
	}

	if err := h.tracker.Record(c.Request.Context(), input); err != nil {
		respondError(c, h.logger, err, "record event")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetJourney godoc
// @Summary Events that followed a link click
// @Tags analytics
// @Produce json
// @Param id path string true "Click ID"
// @Success 200 {array} models.Event
// @Failure 404 {object} ErrorResponse
// @Router /api/clicks/{id}/journey [get]
func (h *EventHandler) GetJourney(c *gin.Context) {
	events, err := h.tracker.Journey(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "get journey")
		return
	}

	c.JSON(http.StatusOK, events)
}
