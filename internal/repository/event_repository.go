package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/jackc/pgx/v5"
)

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	ListByClick(ctx context.Context, clickID string) ([]models.Event, error)
	ListByClicks(ctx context.Context, clickIDs []string) (map[string][]models.Event, error)
}

type eventRepository struct {
	db *PostgresDB
}

func NewEventRepository(db *PostgresDB) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, user_id, link_click_id, event, page, target, metadata, user_agent, ip_address, created_at`

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO analytics_events (id, user_id, link_click_id, event, page, target, metadata, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		event.ID,
		event.UserID,
		event.LinkClickID,
		event.Event,
		event.Page,
		event.Target,
		event.Metadata,
		event.UserAgent,
		event.IPAddress,
	).Scan(&event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// ListByClick возвращает путь посетителя после редиректа, по возрастанию времени
func (r *eventRepository) ListByClick(ctx context.Context, clickID string) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM analytics_events WHERE link_click_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Pool.Query(ctx, query, clickID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}

	return events, nil
}

// ListByClicks одним запросом собирает события для набора кликов
func (r *eventRepository) ListByClicks(ctx context.Context, clickIDs []string) (map[string][]models.Event, error) {
	result := make(map[string][]models.Event, len(clickIDs))
	if len(clickIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT ` + eventColumns + `
		FROM analytics_events
		WHERE link_click_id = ANY($1::uuid[])
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, clickIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for clicks: %w", err)
	}

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}

	for _, e := range events {
		if e.LinkClickID != nil {
			result[*e.LinkClickID] = append(result[*e.LinkClickID], e)
		}
	}

	return result, nil
}

func scanEvents(rows pgx.Rows) ([]models.Event, error) {
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.LinkClickID,
			&e.Event,
			&e.Page,
			&e.Target,
			&e.Metadata,
			&e.UserAgent,
			&e.IPAddress,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}
