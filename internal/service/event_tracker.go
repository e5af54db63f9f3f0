package service

import (
	"context"
	"errors"
	"strings"

	"github.com/SergeiKhy/portfolio/internal/metrics"
	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/SergeiKhy/portfolio/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxEventNameLen = 100

// EventTracker принимает события аналитики и связывает их с кликом по токену
type EventTracker interface {
	Record(ctx context.Context, input *models.TrackEventInput) error
	Journey(ctx context.Context, clickID string) ([]models.Event, error)
}

type eventTracker struct {
	clickRepo repository.ClickRepository
	eventRepo repository.EventRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewEventTracker(
	clickRepo repository.ClickRepository,
	eventRepo repository.EventRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) EventTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &eventTracker{
		clickRepo: clickRepo,
		eventRepo: eventRepo,
		metrics:   m,
		logger:    logger,
	}
}

// Record сохраняет событие. Ошибку возвращает только невалидный ввод:
// неизвестный токен даёт несвязанное событие, а сбой хранилища
// логируется и проглатывается.
func (t *eventTracker) Record(ctx context.Context, input *models.TrackEventInput) error {
	name := strings.TrimSpace(input.Event)
	if name == "" {
		return newValidationError("event", "обязательное поле")
	}
	if len(name) > maxEventNameLen {
		return newValidationError("event", "слишком длинное значение")
	}

	event := &models.Event{
		ID:          uuid.NewString(),
		UserID:      nullableString(input.UserID),
		LinkClickID: t.resolveClick(ctx, input.TrackingSession),
		Event:       name,
		Page:        nullableString(input.Page),
		Target:      nullableString(input.Target),
		Metadata:    input.Metadata,
		UserAgent:   nullableString(input.UserAgent),
		IPAddress:   nullableString(input.IPAddress),
	}

	if err := t.eventRepo.Create(ctx, event); err != nil {
		t.metrics.EventFailed()
		t.logger.Error("Failed to record analytics event", zap.String("event", name), zap.Error(err))
		return nil
	}

	t.metrics.EventRecorded(event.LinkClickID != nil)
	return nil
}

// resolveClick находит клик по токену корреляции; nil, если связи нет
func (t *eventTracker) resolveClick(ctx context.Context, token string) *string {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	clickID, err := t.clickRepo.FindIDBySession(ctx, token)
	if err != nil {
		if !errors.Is(err, repository.ErrClickNotFound) {
			t.logger.Warn("Failed to resolve tracking session", zap.Error(err))
		}
		return nil
	}

	return &clickID
}

// Journey события, пришедшие после клика, по возрастанию времени
func (t *eventTracker) Journey(ctx context.Context, clickID string) ([]models.Event, error) {
	if !isUUID(clickID) {
		return nil, ErrClickNotFound
	}

	events, err := t.eventRepo.ListByClick(ctx, clickID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}

	return events, nil
}
