package models

import (
	"time"
)

type Click struct {
	ID        string    `json:"id"`
	LinkID    string    `json:"link_id"`
	SessionID string    `json:"session_id"`
	IPAddress *string   `json:"ip_address,omitempty"`
	UserAgent *string   `json:"user_agent,omitempty"`
	Referer   *string   `json:"referer,omitempty"`
	Country   *string   `json:"country,omitempty"`
	City      *string   `json:"city,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ClickEvent данные клика, снятые с запроса в момент редиректа
type ClickEvent struct {
	LinkID    string
	Slug      string
	SessionID string
	IPAddress string
	UserAgent string
	Referer   string
}

type ClickWithJourney struct {
	Click
	Events []Event `json:"events"`
}
