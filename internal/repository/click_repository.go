package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/jackc/pgx/v5"
)

type ClickRepository interface {
	RecordClick(ctx context.Context, click *models.Click) error
	FindIDBySession(ctx context.Context, sessionID string) (string, error)
	ListRecentByLink(ctx context.Context, linkID string, limit int) ([]models.Click, error)
}

type clickRepository struct {
	db *PostgresDB
}

func NewClickRepository(db *PostgresDB) ClickRepository {
	return &clickRepository{db: db}
}

// RecordClick в одной транзакции инкрементирует счётчик и вставляет клик,
// поэтому clicks всегда совпадает с числом строк link_clicks
func (r *clickRepository) RecordClick(ctx context.Context, click *models.Click) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin click tx: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `UPDATE tracked_links SET clicks = clicks + 1 WHERE id = $1`, click.LinkID)
	if err != nil {
		return fmt.Errorf("failed to increment clicks: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	// created_at ставит база, как и у событий, чтобы путь сортировался по одним часам
	query := `
		INSERT INTO link_clicks (id, link_id, session_id, ip_address, user_agent, referer, country, city)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err = tx.QueryRow(ctx, query,
		click.ID,
		click.LinkID,
		click.SessionID,
		click.IPAddress,
		click.UserAgent,
		click.Referer,
		click.Country,
		click.City,
	).Scan(&click.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit click: %w", err)
	}

	return nil
}

func (r *clickRepository) FindIDBySession(ctx context.Context, sessionID string) (string, error) {
	query := `SELECT id FROM link_clicks WHERE session_id = $1`

	var id string
	err := r.db.Pool.QueryRow(ctx, query, sessionID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrClickNotFound
		}
		return "", fmt.Errorf("failed to find click by session: %w", err)
	}

	return id, nil
}

func (r *clickRepository) ListRecentByLink(ctx context.Context, linkID string, limit int) ([]models.Click, error) {
	query := `
		SELECT id, link_id, session_id, ip_address, user_agent, referer, country, city, created_at
		FROM link_clicks
		WHERE link_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, linkID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}
	defer rows.Close()

	clicks := []models.Click{}
	for rows.Next() {
		var c models.Click
		if err := rows.Scan(
			&c.ID,
			&c.LinkID,
			&c.SessionID,
			&c.IPAddress,
			&c.UserAgent,
			&c.Referer,
			&c.Country,
			&c.City,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan click: %w", err)
		}
		clicks = append(clicks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clicks: %w", err)
	}

	return clicks, nil
}
