package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/jackc/pgx/v5"
)

type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	GetByID(ctx context.Context, id string) (*models.LinkWithCount, error)
	GetBySlug(ctx context.Context, slug string) (*models.Link, error)
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	Update(ctx context.Context, link *models.Link) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.LinkWithCount, error)
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

const linkColumns = `l.id, l.slug, l.url, l.title, l.description, l.notes, l.enabled, l.clicks, l.created_at, l.updated_at`

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO tracked_links (id, slug, url, title, description, notes, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING clicks, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.ID,
		link.Slug,
		link.URL,
		link.Title,
		link.Description,
		link.Notes,
		link.Enabled,
	).Scan(&link.Clicks, &link.CreatedAt, &link.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

func (r *linkRepository) GetByID(ctx context.Context, id string) (*models.LinkWithCount, error) {
	query := `
		SELECT ` + linkColumns + `,
			(SELECT COUNT(*) FROM link_clicks c WHERE c.link_id = l.id)
		FROM tracked_links l
		WHERE l.id = $1
	`

	link := &models.LinkWithCount{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(append(linkDest(&link.Link), &link.ClickEventsCount)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}

func (r *linkRepository) GetBySlug(ctx context.Context, slug string) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM tracked_links l WHERE l.slug = $1`

	link := &models.Link{}
	err := r.db.Pool.QueryRow(ctx, query, slug).Scan(linkDest(link)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link by slug: %w", err)
	}

	return link, nil
}

// SlugTaken проверяет занятость slug любой ссылкой, кроме excludeID
func (r *linkRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM tracked_links WHERE slug = $1 AND ($2 = '' OR id::text <> $2))`

	var taken bool
	if err := r.db.Pool.QueryRow(ctx, query, slug, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}

	return taken, nil
}

// Update перезаписывает редактируемые поля; clicks здесь не трогается
func (r *linkRepository) Update(ctx context.Context, link *models.Link) error {
	query := `
		UPDATE tracked_links
		SET slug = $2, url = $3, title = $4, description = $5, notes = $6, enabled = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING clicks, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.ID,
		link.Slug,
		link.URL,
		link.Title,
		link.Description,
		link.Notes,
		link.Enabled,
	).Scan(&link.Clicks, &link.CreatedAt, &link.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLinkNotFound
		}
		if isUniqueViolation(err) {
			return ErrSlugExists
		}
		return fmt.Errorf("failed to update link: %w", err)
	}

	return nil
}

// Delete удаляет ссылку; клики удаляются каскадно, события теряют link_click_id
func (r *linkRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM tracked_links WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

func (r *linkRepository) List(ctx context.Context) ([]models.LinkWithCount, error) {
	query := `
		SELECT ` + linkColumns + `, COUNT(c.id)
		FROM tracked_links l
		LEFT JOIN link_clicks c ON c.link_id = l.id
		GROUP BY l.id
		ORDER BY l.created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []models.LinkWithCount{}
	for rows.Next() {
		var link models.LinkWithCount
		if err := rows.Scan(append(linkDest(&link.Link), &link.ClickEventsCount)...); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

func linkDest(link *models.Link) []any {
	return []any{
		&link.ID,
		&link.Slug,
		&link.URL,
		&link.Title,
		&link.Description,
		&link.Notes,
		&link.Enabled,
		&link.Clicks,
		&link.CreatedAt,
		&link.UpdatedAt,
	}
}
