package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/SergeiKhy/portfolio/internal/service"
	"github.com/SergeiKhy/portfolio/internal/service/mocks"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEvent(t *testing.T, repo *mocks.MockEventRepository, name, page, ip string, at time.Time) {
	t.Helper()
	e := &models.Event{ID: gofakeit.UUID(), Event: name, CreatedAt: at}
	if page != "" {
		e.Page = &page
	}
	if ip != "" {
		e.IPAddress = &ip
	}
	require.NoError(t, repo.Create(context.Background(), e))
}

// TestAnalyticsService_GetAnalytics проверяет агрегаты за окно
func TestAnalyticsService_GetAnalytics(t *testing.T) {
	env := setupTestEnv()
	analytics := service.NewAnalyticsService(mocks.NewMockAnalyticsRepository(env.store), env.logger)

	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	// K = 5 page_view и M = 2 других событий в окне
	seedEvent(t, env.eventRepo, "page_view", "/", "1.1.1.1", day)
	seedEvent(t, env.eventRepo, "page_view", "/", "1.1.1.1", day.Add(time.Hour))
	seedEvent(t, env.eventRepo, "page_view", "/projects", "2.2.2.2", day.Add(2*time.Hour))
	seedEvent(t, env.eventRepo, "page_view", "/", "", day.Add(24*time.Hour))
	seedEvent(t, env.eventRepo, "page_view", "/contact", "3.3.3.3", day.Add(25*time.Hour))
	seedEvent(t, env.eventRepo, "project_view", "", "2.2.2.2", day.Add(26*time.Hour))
	seedEvent(t, env.eventRepo, "link_click", "", "", day.Add(27*time.Hour))
	// вне окна
	seedEvent(t, env.eventRepo, "page_view", "/", "9.9.9.9", day.AddDate(0, -3, 0))

	window, err := service.ParseWindow("2026-03-01", "2026-03-31", time.Now())
	require.NoError(t, err)

	result := analytics.GetAnalytics(context.Background(), window)

	assert.Equal(t, int64(7), result.TotalEvents)
	assert.Equal(t, int64(5), result.PageViews)
	assert.Equal(t, int64(3), result.UniqueVisitors)
	require.NotEmpty(t, result.TopPages)
	assert.Equal(t, models.PageCount{Page: "/", Count: 3}, result.TopPages[0])
	require.NotEmpty(t, result.TopEvents)
	assert.Equal(t, models.EventCount{Event: "page_view", Count: 5}, result.TopEvents[0])
	require.Len(t, result.EventsByDay, 2)
	assert.Equal(t, "2026-03-11", result.EventsByDay[0].Date)
	assert.Equal(t, int64(4), result.EventsByDay[0].Count)
}

// TestAnalyticsService_GetAnalytics_Empty проверяет нули без данных
func TestAnalyticsService_GetAnalytics_Empty(t *testing.T) {
	env := setupTestEnv()
	analytics := service.NewAnalyticsService(mocks.NewMockAnalyticsRepository(env.store), env.logger)

	window, err := service.ParseWindow("", "", time.Now())
	require.NoError(t, err)

	result := analytics.GetAnalytics(context.Background(), window)

	assert.Equal(t, models.EmptyAnalytics(), result)
}

// TestAnalyticsService_GetAnalytics_StorageError проверяет деградацию до нулевой сводки
func TestAnalyticsService_GetAnalytics_StorageError(t *testing.T) {
	env := setupTestEnv()
	seedEvent(t, env.eventRepo, "page_view", "/", "1.1.1.1", time.Now())
	repo := mocks.NewMockAnalyticsRepository(env.store)
	repo.Err = errors.New("statement timeout")
	analytics := service.NewAnalyticsService(repo, env.logger)

	window, err := service.ParseWindow("", "", time.Now())
	require.NoError(t, err)

	result := analytics.GetAnalytics(context.Background(), window)

	assert.Equal(t, models.EmptyAnalytics(), result)
}

// TestParseWindow проверяет разбор границ окна
func TestParseWindow(t *testing.T) {
	now := time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)

	t.Run("по умолчанию 30 дней", func(t *testing.T) {
		w, err := service.ParseWindow("", "", now)
		require.NoError(t, err)
		assert.Equal(t, now, w.End)
		assert.Equal(t, now.AddDate(0, 0, -30), w.Start)
	})

	t.Run("дата конца покрывает весь день", func(t *testing.T) {
		w, err := service.ParseWindow("2026-05-01", "2026-05-10", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), w.Start)
		assert.Equal(t, 10, w.End.Day())
		assert.Equal(t, 23, w.End.Hour())
	})

	t.Run("только дата конца", func(t *testing.T) {
		w, err := service.ParseWindow("", "2026-05-10", now)
		require.NoError(t, err)
		assert.Equal(t, now.AddDate(0, 0, -30), w.Start)
		assert.Equal(t, 10, w.End.Day())
	})

	t.Run("конец раньше начала по умолчанию", func(t *testing.T) {
		w, err := service.ParseWindow("", "2026-01-01", now)
		require.NoError(t, err)
		assert.True(t, w.Start.After(w.End))
	})

	t.Run("RFC3339", func(t *testing.T) {
		w, err := service.ParseWindow("2026-05-01T10:00:00Z", "2026-05-01T12:00:00Z", now)
		require.NoError(t, err)
		assert.Equal(t, 2*time.Hour, w.End.Sub(w.Start))
	})

	t.Run("невалидная дата", func(t *testing.T) {
		_, err := service.ParseWindow("yesterday", "", now)
		assert.True(t, service.IsValidation(err))
	})

	t.Run("начало позже конца", func(t *testing.T) {
		_, err := service.ParseWindow("2026-05-10", "2026-05-01", now)
		assert.True(t, service.IsValidation(err))
	})
}
