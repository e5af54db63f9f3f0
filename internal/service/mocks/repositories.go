package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/SergeiKhy/portfolio/internal/repository"
)

// ErrDuplicateSession нарушение уникальности session_id
var ErrDuplicateSession = errors.New("duplicate session id")

// Store общее in-memory хранилище для моков репозиториев.
// Повторяет ограничения схемы: уникальный slug, каскадное удаление
// кликов и обнуление link_click_id у событий.
type Store struct {
	mu     sync.RWMutex
	links  map[string]*models.Link
	clicks map[string]*models.Click
	order  []string // порядок вставки кликов
	events []*models.Event
}

func NewStore() *Store {
	return &Store{
		links:  make(map[string]*models.Link),
		clicks: make(map[string]*models.Click),
	}
}

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	*Store
	Err error
}

// MockClickRepository implements repository.ClickRepository for testing
type MockClickRepository struct {
	*Store
	RecordErr error
}

// MockEventRepository implements repository.EventRepository for testing
type MockEventRepository struct {
	*Store
	Err error
}

// MockAnalyticsRepository implements repository.AnalyticsRepository for testing
type MockAnalyticsRepository struct {
	*Store
	Err error
}

func NewMockLinkRepository(s *Store) *MockLinkRepository { return &MockLinkRepository{Store: s} }

func NewMockClickRepository(s *Store) *MockClickRepository { return &MockClickRepository{Store: s} }

func NewMockEventRepository(s *Store) *MockEventRepository { return &MockEventRepository{Store: s} }

func NewMockAnalyticsRepository(s *Store) *MockAnalyticsRepository {
	return &MockAnalyticsRepository{Store: s}
}

// --- links ---

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.links {
		if l.Slug == link.Slug {
			return repository.ErrSlugExists
		}
	}

	now := time.Now()
	link.Clicks = 0
	link.CreatedAt = now
	link.UpdatedAt = now
	stored := *link
	m.links[link.ID] = &stored
	return nil
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id string) (*models.LinkWithCount, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[id]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return &models.LinkWithCount{Link: *link, ClickEventsCount: m.countClicks(id)}, nil
}

func (m *MockLinkRepository) GetBySlug(ctx context.Context, slug string) (*models.Link, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.links {
		if l.Slug == slug {
			link := *l
			return &link, nil
		}
	}
	return nil, repository.ErrLinkNotFound
}

func (m *MockLinkRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.links {
		if l.Slug == slug && l.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockLinkRepository) Update(ctx context.Context, link *models.Link) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.links[link.ID]
	if !exists {
		return repository.ErrLinkNotFound
	}
	for _, l := range m.links {
		if l.Slug == link.Slug && l.ID != link.ID {
			return repository.ErrSlugExists
		}
	}

	// счётчик кликов меняет только запись клика
	link.Clicks = stored.Clicks
	link.CreatedAt = stored.CreatedAt
	link.UpdatedAt = time.Now()
	updated := *link
	m.links[link.ID] = &updated
	return nil
}

func (m *MockLinkRepository) Delete(ctx context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[id]; !exists {
		return repository.ErrLinkNotFound
	}
	delete(m.links, id)

	removed := make(map[string]bool)
	order := m.order[:0]
	for _, clickID := range m.order {
		if m.clicks[clickID].LinkID == id {
			removed[clickID] = true
			delete(m.clicks, clickID)
			continue
		}
		order = append(order, clickID)
	}
	m.order = order

	for _, e := range m.events {
		if e.LinkClickID != nil && removed[*e.LinkClickID] {
			e.LinkClickID = nil
		}
	}
	return nil
}

func (m *MockLinkRepository) List(ctx context.Context) ([]models.LinkWithCount, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	links := make([]models.LinkWithCount, 0, len(m.links))
	for id, l := range m.links {
		links = append(links, models.LinkWithCount{Link: *l, ClickEventsCount: m.countClicks(id)})
	}
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})
	return links, nil
}

// --- clicks ---

// RecordClick атомарно инкрементирует счётчик и сохраняет клик
func (m *MockClickRepository) RecordClick(ctx context.Context, click *models.Click) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.links[click.LinkID]
	if !exists {
		return repository.ErrLinkNotFound
	}
	for _, c := range m.clicks {
		if c.SessionID == click.SessionID {
			return ErrDuplicateSession
		}
	}

	link.Clicks++
	// как DEFAULT NOW() в link_clicks
	click.CreatedAt = time.Now()
	stored := *click
	m.clicks[click.ID] = &stored
	m.order = append(m.order, click.ID)
	return nil
}

func (m *MockClickRepository) FindIDBySession(ctx context.Context, sessionID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.clicks {
		if c.SessionID == sessionID {
			return c.ID, nil
		}
	}
	return "", repository.ErrClickNotFound
}

func (m *MockClickRepository) ListRecentByLink(ctx context.Context, linkID string, limit int) ([]models.Click, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clicks := []models.Click{}
	for i := len(m.order) - 1; i >= 0 && len(clicks) < limit; i-- {
		c := m.clicks[m.order[i]]
		if c.LinkID == linkID {
			clicks = append(clicks, *c)
		}
	}
	return clicks, nil
}

// Clicks все клики ссылки в порядке записи
func (m *MockClickRepository) Clicks(linkID string) []models.Click {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var clicks []models.Click
	for _, id := range m.order {
		if c := m.clicks[id]; c.LinkID == linkID {
			clicks = append(clicks, *c)
		}
	}
	return clicks
}

// --- events ---

func (m *MockEventRepository) Create(ctx context.Context, event *models.Event) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.LinkClickID != nil {
		if _, exists := m.clicks[*event.LinkClickID]; !exists {
			event.LinkClickID = nil
		}
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	stored := *event
	m.events = append(m.events, &stored)
	return nil
}

func (m *MockEventRepository) ListByClick(ctx context.Context, clickID string) ([]models.Event, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := []models.Event{}
	for _, e := range m.events {
		if e.LinkClickID != nil && *e.LinkClickID == clickID {
			events = append(events, *e)
		}
	}
	sortByTime(events)
	return events, nil
}

func (m *MockEventRepository) ListByClicks(ctx context.Context, clickIDs []string) (map[string][]models.Event, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[string]bool, len(clickIDs))
	for _, id := range clickIDs {
		wanted[id] = true
	}

	result := make(map[string][]models.Event)
	for _, e := range m.events {
		if e.LinkClickID != nil && wanted[*e.LinkClickID] {
			result[*e.LinkClickID] = append(result[*e.LinkClickID], *e)
		}
	}
	for id := range result {
		sortByTime(result[id])
	}
	return result, nil
}

// Events снимок всех сохранённых событий
func (m *MockEventRepository) Events() []models.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]models.Event, 0, len(m.events))
	for _, e := range m.events {
		events = append(events, *e)
	}
	return events
}

// --- analytics ---

func (m *MockAnalyticsRepository) CountEvents(ctx context.Context, w models.TimeWindow) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	m.each(w, func(*models.Event) { n++ })
	return n, nil
}

func (m *MockAnalyticsRepository) CountEventsByName(ctx context.Context, w models.TimeWindow, name string) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	m.each(w, func(e *models.Event) {
		if e.Event == name {
			n++
		}
	})
	return n, nil
}

func (m *MockAnalyticsRepository) CountDistinctIPs(ctx context.Context, w models.TimeWindow) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	ips := make(map[string]bool)
	m.each(w, func(e *models.Event) {
		if e.IPAddress != nil {
			ips[*e.IPAddress] = true
		}
	})
	return int64(len(ips)), nil
}

func (m *MockAnalyticsRepository) TopPages(ctx context.Context, w models.TimeWindow, limit int) ([]models.PageCount, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	counts := make(map[string]int64)
	m.each(w, func(e *models.Event) {
		if e.Event == "page_view" && e.Page != nil {
			counts[*e.Page]++
		}
	})

	pages := make([]models.PageCount, 0, len(counts))
	for page, n := range counts {
		pages = append(pages, models.PageCount{Page: page, Count: n})
	}
	sort.Slice(pages, func(i, j int) bool {
		if pages[i].Count != pages[j].Count {
			return pages[i].Count > pages[j].Count
		}
		return pages[i].Page < pages[j].Page
	})
	if len(pages) > limit {
		pages = pages[:limit]
	}
	return pages, nil
}

func (m *MockAnalyticsRepository) TopEvents(ctx context.Context, w models.TimeWindow, limit int) ([]models.EventCount, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	counts := make(map[string]int64)
	m.each(w, func(e *models.Event) { counts[e.Event]++ })

	events := make([]models.EventCount, 0, len(counts))
	for name, n := range counts {
		events = append(events, models.EventCount{Event: name, Count: n})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Count != events[j].Count {
			return events[i].Count > events[j].Count
		}
		return events[i].Event < events[j].Event
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (m *MockAnalyticsRepository) EventsByDay(ctx context.Context, w models.TimeWindow) ([]models.DailyCount, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	counts := make(map[string]int64)
	m.each(w, func(e *models.Event) { counts[e.CreatedAt.UTC().Format("2006-01-02")]++ })

	days := make([]models.DailyCount, 0, len(counts))
	for date, n := range counts {
		days = append(days, models.DailyCount{Date: date, Count: n})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date > days[j].Date })
	return days, nil
}

func (m *MockAnalyticsRepository) each(w models.TimeWindow, fn func(*models.Event)) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.events {
		if !e.CreatedAt.Before(w.Start) && !e.CreatedAt.After(w.End) {
			fn(e)
		}
	}
}

// --- helpers ---

func (s *Store) countClicks(linkID string) int64 {
	var n int64
	for _, c := range s.clicks {
		if c.LinkID == linkID {
			n++
		}
	}
	return n
}

func sortByTime(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.Link
	Err   error // имитация недоступного Redis
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.Link),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, slug string) (*models.Link, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.cache[slug]
	if !exists {
		return nil, repository.ErrCacheMiss
	}
	copied := *link
	return &copied, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, slug string, link *models.Link, ttl time.Duration) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *link
	m.cache[slug] = &copied
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, slugs ...string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, slug := range slugs {
		delete(m.cache, slug)
	}
	return nil
}

// Has сообщает, лежит ли slug в кэше
func (m *MockCacheRepository) Has(slug string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.cache[slug]
	return exists
}

var (
	_ repository.LinkRepository      = (*MockLinkRepository)(nil)
	_ repository.ClickRepository     = (*MockClickRepository)(nil)
	_ repository.EventRepository     = (*MockEventRepository)(nil)
	_ repository.AnalyticsRepository = (*MockAnalyticsRepository)(nil)
	_ repository.CacheRepository     = (*MockCacheRepository)(nil)
)
