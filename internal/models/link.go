package models

import (
	"time"
)

type Link struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	Enabled     bool      `json:"enabled"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LinkWithCount ссылка со счётчиком записанных ClickEvent
type LinkWithCount struct {
	Link
	ClickEventsCount int64 `json:"click_events_count"`
}

// LinkDetails ссылка с последними кликами и их путями по сайту
type LinkDetails struct {
	LinkWithCount
	RecentClicks []ClickWithJourney `json:"recent_clicks"`
}

type CreateLinkInput struct {
	Slug        string  `json:"slug" validate:"required,max=64"`
	URL         string  `json:"url" validate:"required,url,max=2048"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
}

// UpdateLinkInput частичное обновление: nil означает "не менять"
type UpdateLinkInput struct {
	Slug        *string `json:"slug,omitempty" validate:"omitempty,max=64"`
	URL         *string `json:"url,omitempty" validate:"omitempty,url,max=2048"`
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
}

// IsEmpty сообщает, что в запросе нет ни одного поля для обновления
func (in *UpdateLinkInput) IsEmpty() bool {
	return in.Slug == nil && in.URL == nil && in.Title == nil &&
		in.Description == nil && in.Notes == nil && in.Enabled == nil
}

// LinkStats строка рейтинга ссылок по кликам
type LinkStats struct {
	ID               string `json:"id"`
	Slug             string `json:"slug"`
	Title            string `json:"title"`
	Enabled          bool   `json:"enabled"`
	Clicks           int64  `json:"clicks"`
	ClickEventsCount int64  `json:"click_events_count"`
}
