package models

import (
	"time"
)

type TimeWindow struct {
	Start time.Time
	End   time.Time
}

type PageCount struct {
	Page  string `json:"page"`
	Count int64  `json:"count"`
}

type EventCount struct {
	Event string `json:"event"`
	Count int64  `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type Analytics struct {
	TotalEvents    int64        `json:"totalEvents"`
	PageViews      int64        `json:"pageViews"`
	UniqueVisitors int64        `json:"uniqueVisitors"`
	TopPages       []PageCount  `json:"topPages"`
	TopEvents      []EventCount `json:"topEvents"`
	EventsByDay    []DailyCount `json:"eventsByDay"`
}

// EmptyAnalytics нулевой результат для деградации дашборда
func EmptyAnalytics() *Analytics {
	return &Analytics{
		TopPages:    []PageCount{},
		TopEvents:   []EventCount{},
		EventsByDay: []DailyCount{},
	}
}
