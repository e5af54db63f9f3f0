package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/SergeiKhy/portfolio/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// Константы сервиса
const (
	defaultCacheTTL   = time.Hour
	recentClicksLimit = 100
	defaultQRSize     = 256
	minQRSize         = 128
	maxQRSize         = 1024
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// LinkService реестр отслеживаемых ссылок
type LinkService interface {
	CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error)
	UpdateLink(ctx context.Context, id string, input *models.UpdateLinkInput) (*models.Link, error)
	DeleteLink(ctx context.Context, id string) error
	ListLinks(ctx context.Context) ([]models.LinkWithCount, error)
	GetLink(ctx context.Context, id string) (*models.LinkDetails, error)
	ResolveSlug(ctx context.Context, slug string) (*models.Link, error)
	Leaderboard(ctx context.Context) ([]models.LinkStats, error)
	QRCode(ctx context.Context, id string, size int) ([]byte, error)
}

type LinkServiceConfig struct {
	BaseURL  string
	CacheTTL time.Duration
}

// linkService реализация сервиса ссылок
type linkService struct {
	linkRepo  repository.LinkRepository
	clickRepo repository.ClickRepository
	eventRepo repository.EventRepository
	cacheRepo repository.CacheRepository
	cfg       LinkServiceConfig
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
}

// NewLinkService создаёт новый экземпляр сервиса
func NewLinkService(
	linkRepo repository.LinkRepository,
	clickRepo repository.ClickRepository,
	eventRepo repository.EventRepository,
	cacheRepo repository.CacheRepository,
	cfg LinkServiceConfig,
	logger *zap.Logger,
) LinkService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	// в сообщениях об ошибках используем имена полей из json
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return &linkService{
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
		eventRepo: eventRepo,
		cacheRepo: cacheRepo,
		cfg:       cfg,
		validate:  validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger,
	}
}

// CreateLink создаёт новую отслеживаемую ссылку
func (s *linkService) CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error) {
	input.Slug = strings.TrimSpace(input.Slug)
	input.URL = strings.TrimSpace(input.URL)
	input.Title = strings.TrimSpace(input.Title)

	if err := s.validateSlug(input.Slug); err != nil {
		return nil, err
	}
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}
	if err := validateTargetURL(input.URL); err != nil {
		return nil, err
	}

	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}

	link := &models.Link{
		ID:          uuid.NewString(),
		Slug:        input.Slug,
		URL:         input.URL,
		Title:       input.Title,
		Description: s.cleanText(input.Description),
		Notes:       s.cleanText(input.Notes),
		Enabled:     enabled,
	}

	if err := s.linkRepo.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrSlugExists) {
			return nil, ErrSlugConflict
		}
		return nil, err
	}

	// slug мог раньше принадлежать удалённой ссылке
	s.invalidate(ctx, link.Slug)

	return link, nil
}

// UpdateLink применяет частичное обновление
func (s *linkService) UpdateLink(ctx context.Context, id string, input *models.UpdateLinkInput) (*models.Link, error) {
	if !isUUID(id) {
		return nil, ErrLinkNotFound
	}
	if input.IsEmpty() {
		return nil, newValidationError("", "нет полей для обновления")
	}
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}

	current, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	link := current.Link
	oldSlug := link.Slug

	if input.Slug != nil {
		slug := strings.TrimSpace(*input.Slug)
		if err := s.validateSlug(slug); err != nil {
			return nil, err
		}
		if slug != oldSlug {
			taken, err := s.linkRepo.SlugTaken(ctx, slug, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrSlugConflict
			}
		}
		link.Slug = slug
	}
	if input.URL != nil {
		target := strings.TrimSpace(*input.URL)
		if err := validateTargetURL(target); err != nil {
			return nil, err
		}
		link.URL = target
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, newValidationError("title", "обязательное поле")
		}
		link.Title = title
	}
	if input.Description != nil {
		link.Description = s.cleanText(input.Description)
	}
	if input.Notes != nil {
		link.Notes = s.cleanText(input.Notes)
	}
	if input.Enabled != nil {
		link.Enabled = *input.Enabled
	}

	if err := s.linkRepo.Update(ctx, &link); err != nil {
		switch {
		case errors.Is(err, repository.ErrLinkNotFound):
			return nil, ErrLinkNotFound
		case errors.Is(err, repository.ErrSlugExists):
			return nil, ErrSlugConflict
		}
		return nil, err
	}

	s.invalidate(ctx, oldSlug, link.Slug)

	return &link, nil
}

// DeleteLink удаляет ссылку вместе с её кликами
func (s *linkService) DeleteLink(ctx context.Context, id string) error {
	if !isUUID(id) {
		return ErrLinkNotFound
	}

	link, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return ErrLinkNotFound
		}
		return err
	}

	if err := s.linkRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return ErrLinkNotFound
		}
		return err
	}

	s.invalidate(ctx, link.Slug)

	return nil
}

func (s *linkService) ListLinks(ctx context.Context) ([]models.LinkWithCount, error) {
	return s.linkRepo.List(ctx)
}

// GetLink возвращает ссылку с последними кликами и событиями каждого клика
func (s *linkService) GetLink(ctx context.Context, id string) (*models.LinkDetails, error) {
	if !isUUID(id) {
		return nil, ErrLinkNotFound
	}

	link, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	clicks, err := s.clickRepo.ListRecentByLink(ctx, id, recentClicksLimit)
	if err != nil {
		return nil, err
	}

	clickIDs := make([]string, 0, len(clicks))
	for _, c := range clicks {
		clickIDs = append(clickIDs, c.ID)
	}

	journeys, err := s.eventRepo.ListByClicks(ctx, clickIDs)
	if err != nil {
		return nil, err
	}

	details := &models.LinkDetails{
		LinkWithCount: *link,
		RecentClicks:  make([]models.ClickWithJourney, 0, len(clicks)),
	}
	for _, c := range clicks {
		events := journeys[c.ID]
		if events == nil {
			events = []models.Event{}
		}
		details.RecentClicks = append(details.RecentClicks, models.ClickWithJourney{Click: c, Events: events})
	}

	return details, nil
}

// ResolveSlug ищет ссылку сначала в кэше, затем в БД
func (s *linkService) ResolveSlug(ctx context.Context, slug string) (*models.Link, error) {
	link, err := s.cacheRepo.Get(ctx, slug)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("Link cache unavailable, falling back to database", zap.String("slug", slug), zap.Error(err))
	}

	link, err = s.linkRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	if err := s.cacheRepo.Set(ctx, slug, link, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("Failed to cache link", zap.String("slug", slug), zap.Error(err))
	}

	return link, nil
}

// Leaderboard рейтинг ссылок по числу кликов
func (s *linkService) Leaderboard(ctx context.Context) ([]models.LinkStats, error) {
	links, err := s.linkRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]models.LinkStats, 0, len(links))
	for _, l := range links {
		stats = append(stats, models.LinkStats{
			ID:               l.ID,
			Slug:             l.Slug,
			Title:            l.Title,
			Enabled:          l.Enabled,
			Clicks:           l.Clicks,
			ClickEventsCount: l.ClickEventsCount,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Clicks != stats[j].Clicks {
			return stats[i].Clicks > stats[j].Clicks
		}
		return stats[i].ClickEventsCount > stats[j].ClickEventsCount
	})

	return stats, nil
}

// QRCode рисует PNG с публичным коротким адресом ссылки
func (s *linkService) QRCode(ctx context.Context, id string, size int) ([]byte, error) {
	if !isUUID(id) {
		return nil, ErrLinkNotFound
	}
	if size == 0 {
		size = defaultQRSize
	}
	if size < minQRSize || size > maxQRSize {
		return nil, newValidationError("size", fmt.Sprintf("допустимо от %d до %d", minQRSize, maxQRSize))
	}

	link, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	png, err := qrcode.Encode(s.ShortURL(link.Slug), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}

	return png, nil
}

// ShortURL публичный адрес ссылки
func (s *linkService) ShortURL(slug string) string {
	return s.cfg.BaseURL + "/l/" + slug
}

func (s *linkService) invalidate(ctx context.Context, slugs ...string) {
	if err := s.cacheRepo.Delete(ctx, slugs...); err != nil {
		s.logger.Warn("Failed to invalidate link cache", zap.Strings("slugs", slugs), zap.Error(err))
	}
}

// validateSlug проверяет формат slug (буквы, цифры, '_' и '-')
func (s *linkService) validateSlug(slug string) error {
	if slug == "" {
		return newValidationError("slug", "обязательное поле")
	}
	if !slugPattern.MatchString(slug) {
		return newValidationError("slug", "допустимы только буквы, цифры, '_' и '-'")
	}
	return nil
}

func (s *linkService) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Tag() {
		case "required":
			return newValidationError(fe.Field(), "обязательное поле")
		case "url":
			return newValidationError(fe.Field(), "невалидный URL")
		case "max":
			return newValidationError(fe.Field(), "слишком длинное значение")
		case "min":
			return newValidationError(fe.Field(), "пустое значение")
		}
		return newValidationError(fe.Field(), "невалидное значение")
	}

	return newValidationError("", err.Error())
}

// cleanText очищает свободный текст от HTML; пустая строка становится NULL
func (s *linkService) cleanText(text *string) *string {
	if text == nil {
		return nil
	}
	clean := strings.TrimSpace(s.sanitizer.Sanitize(*text))
	if clean == "" {
		return nil
	}
	return &clean
}

// validateTargetURL допускает только абсолютные http(s) адреса
func validateTargetURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return newValidationError("url", "невалидный URL")
	}
	return nil
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
