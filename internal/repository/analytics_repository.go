package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/jackc/pgx/v5"
)

// AnalyticsRepository только читает analytics_events
type AnalyticsRepository interface {
	CountEvents(ctx context.Context, w models.TimeWindow) (int64, error)
	CountEventsByName(ctx context.Context, w models.TimeWindow, name string) (int64, error)
	CountDistinctIPs(ctx context.Context, w models.TimeWindow) (int64, error)
	TopPages(ctx context.Context, w models.TimeWindow, limit int) ([]models.PageCount, error)
	TopEvents(ctx context.Context, w models.TimeWindow, limit int) ([]models.EventCount, error)
	EventsByDay(ctx context.Context, w models.TimeWindow) ([]models.DailyCount, error)
}

type analyticsRepository struct {
	db *PostgresDB
}

func NewAnalyticsRepository(db *PostgresDB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) CountEvents(ctx context.Context, w models.TimeWindow) (int64, error) {
	query := `SELECT COUNT(*) FROM analytics_events WHERE created_at >= $1 AND created_at <= $2`
	return r.count(ctx, query, w.Start, w.End)
}

func (r *analyticsRepository) CountEventsByName(ctx context.Context, w models.TimeWindow, name string) (int64, error) {
	query := `SELECT COUNT(*) FROM analytics_events WHERE created_at >= $1 AND created_at <= $2 AND event = $3`
	return r.count(ctx, query, w.Start, w.End, name)
}

// CountDistinctIPs приближение уникальных посетителей по IP
func (r *analyticsRepository) CountDistinctIPs(ctx context.Context, w models.TimeWindow) (int64, error) {
	query := `
		SELECT COUNT(DISTINCT ip_address)
		FROM analytics_events
		WHERE created_at >= $1 AND created_at <= $2 AND ip_address IS NOT NULL
	`
	return r.count(ctx, query, w.Start, w.End)
}

func (r *analyticsRepository) TopPages(ctx context.Context, w models.TimeWindow, limit int) ([]models.PageCount, error) {
	query := `
		SELECT page, COUNT(*) AS cnt
		FROM analytics_events
		WHERE created_at >= $1 AND created_at <= $2 AND event = 'page_view' AND page IS NOT NULL
		GROUP BY page
		ORDER BY cnt DESC, page ASC
		LIMIT $3
	`

	rows, err := r.db.Pool.Query(ctx, query, w.Start, w.End, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top pages: %w", err)
	}

	pages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PageCount, error) {
		var p models.PageCount
		err := row.Scan(&p.Page, &p.Count)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan top pages: %w", err)
	}

	return pages, nil
}

func (r *analyticsRepository) TopEvents(ctx context.Context, w models.TimeWindow, limit int) ([]models.EventCount, error) {
	query := `
		SELECT event, COUNT(*) AS cnt
		FROM analytics_events
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY event
		ORDER BY cnt DESC, event ASC
		LIMIT $3
	`

	rows, err := r.db.Pool.Query(ctx, query, w.Start, w.End, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.EventCount, error) {
		var e models.EventCount
		err := row.Scan(&e.Event, &e.Count)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan top events: %w", err)
	}

	return events, nil
}

func (r *analyticsRepository) EventsByDay(ctx context.Context, w models.TimeWindow) ([]models.DailyCount, error) {
	query := `
		SELECT TO_CHAR(DATE(created_at), 'YYYY-MM-DD') AS date, COUNT(*)
		FROM analytics_events
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at) DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily events: %w", err)
	}

	days, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.DailyCount, error) {
		var d models.DailyCount
		err := row.Scan(&d.Date, &d.Count)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan daily events: %w", err)
	}

	return days, nil
}

func (r *analyticsRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}
