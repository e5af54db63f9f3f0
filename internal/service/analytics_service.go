package service

import (
	"context"
	"strings"
	"time"

	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/SergeiKhy/portfolio/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultAnalyticsWindow = 30 * 24 * time.Hour
	topListLimit           = 10
	pageViewEvent          = "page_view"
	dateLayout             = "2006-01-02"
)

// AnalyticsService сводка по событиям за окно времени
type AnalyticsService interface {
	GetAnalytics(ctx context.Context, window models.TimeWindow) *models.Analytics
}

type analyticsService struct {
	repo   repository.AnalyticsRepository
	logger *zap.Logger
}

func NewAnalyticsService(repo repository.AnalyticsRepository, logger *zap.Logger) AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &analyticsService{repo: repo, logger: logger}
}

// GetAnalytics выполняет запросы параллельно. При любой ошибке дашборд
// получает нулевую сводку, а не ошибку.
func (s *analyticsService) GetAnalytics(ctx context.Context, window models.TimeWindow) *models.Analytics {
	result := models.EmptyAnalytics()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.repo.CountEvents(gctx, window)
		result.TotalEvents = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountEventsByName(gctx, window, pageViewEvent)
		result.PageViews = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountDistinctIPs(gctx, window)
		result.UniqueVisitors = n
		return err
	})
	g.Go(func() error {
		pages, err := s.repo.TopPages(gctx, window, topListLimit)
		if pages != nil {
			result.TopPages = pages
		}
		return err
	})
	g.Go(func() error {
		events, err := s.repo.TopEvents(gctx, window, topListLimit)
		if events != nil {
			result.TopEvents = events
		}
		return err
	})
	g.Go(func() error {
		days, err := s.repo.EventsByDay(gctx, window)
		if days != nil {
			result.EventsByDay = days
		}
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to aggregate analytics",
			zap.Time("start", window.Start),
			zap.Time("end", window.End),
			zap.Error(err),
		)
		return models.EmptyAnalytics()
	}

	return result
}

// ParseWindow разбирает границы окна из query-параметров. Принимаются
// YYYY-MM-DD и RFC3339; дата без времени в конце окна покрывает весь день.
// Без параметров окно равно последним 30 дням.
func ParseWindow(startRaw, endRaw string, now time.Time) (models.TimeWindow, error) {
	window := models.TimeWindow{End: now}

	if endRaw = strings.TrimSpace(endRaw); endRaw != "" {
		end, dateOnly, err := parseBound(endRaw)
		if err != nil {
			return models.TimeWindow{}, newValidationError("endDate", "ожидается YYYY-MM-DD или RFC3339")
		}
		if dateOnly {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		window.End = end
	}

	// начало по умолчанию отсчитывается от now, а не от endDate;
	// если оно оказалось позже конца, окно просто пустое
	window.Start = now.Add(-defaultAnalyticsWindow)
	if startRaw = strings.TrimSpace(startRaw); startRaw != "" {
		start, _, err := parseBound(startRaw)
		if err != nil {
			return models.TimeWindow{}, newValidationError("startDate", "ожидается YYYY-MM-DD или RFC3339")
		}
		if start.After(window.End) {
			return models.TimeWindow{}, newValidationError("startDate", "начало окна позже конца")
		}
		window.Start = start
	}

	return window, nil
}

func parseBound(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, false, err
}
