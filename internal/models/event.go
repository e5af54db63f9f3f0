package models

import (
	"time"
)

// Event именованное событие аналитики (page_view, project_view, link_click...)
type Event struct {
	ID          string         `json:"id"`
	UserID      *string        `json:"user_id,omitempty"`
	LinkClickID *string        `json:"link_click_id,omitempty"`
	Event       string         `json:"event"`
	Page        *string        `json:"page,omitempty"`
	Target      *string        `json:"target,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	UserAgent   *string        `json:"user_agent,omitempty"`
	IPAddress   *string        `json:"ip_address,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

type TrackEventInput struct {
	Event           string
	Page            string
	Target          string
	Metadata        map[string]any
	UserID          string
	UserAgent       string
	IPAddress       string
	TrackingSession string
}
