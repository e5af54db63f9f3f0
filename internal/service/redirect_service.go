package service

import (
	"context"
	"errors"
	"time"

	"github.com/SergeiKhy/portfolio/internal/metrics"
	"github.com/SergeiKhy/portfolio/internal/models"
	"go.uber.org/zap"
)

// FallbackPath куда уходит посетитель, если ссылка недоступна
const FallbackPath = "/"

// RedirectRequest данные входящего запроса на короткую ссылку
type RedirectRequest struct {
	Slug      string
	IPAddress string
	UserAgent string
	Referer   string
}

// RedirectResult куда отправить посетителя и какой токен положить в cookie.
// Пустой SessionToken означает, что cookie ставить не нужно.
type RedirectResult struct {
	Location     string
	SessionToken string
}

type RedirectService interface {
	Resolve(ctx context.Context, req RedirectRequest) RedirectResult
}

type redirectService struct {
	links     LinkService
	processor ClickProcessor
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewRedirectService(links LinkService, processor ClickProcessor, m *metrics.Metrics, logger *zap.Logger) RedirectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redirectService{
		links:     links,
		processor: processor,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Resolve никогда не возвращает ошибку: любая проблема с поиском ссылки
// заканчивается редиректом на главную. Запись клика ставится в очередь
// и на ответ не влияет.
func (s *redirectService) Resolve(ctx context.Context, req RedirectRequest) RedirectResult {
	fallback := RedirectResult{Location: FallbackPath}

	link, err := s.links.ResolveSlug(ctx, req.Slug)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			s.metrics.Redirect(metrics.OutcomeMissing)
			return fallback
		}
		s.logger.Error("Failed to resolve link", zap.String("slug", req.Slug), zap.Error(err))
		s.metrics.Redirect(metrics.OutcomeError)
		return fallback
	}

	if !link.Enabled {
		s.metrics.Redirect(metrics.OutcomeDisabled)
		return fallback
	}

	s.metrics.Redirect(metrics.OutcomeRedirected)

	now := s.now()
	token, err := NewSessionToken(link.ID, now)
	if err != nil {
		// без токена клик не с чем коррелировать, но посетителя всё равно отправляем
		s.logger.Error("Failed to issue session token", zap.String("slug", req.Slug), zap.Error(err))
		return RedirectResult{Location: link.URL}
	}

	s.processor.RecordClick(models.ClickEvent{
		LinkID:    link.ID,
		Slug:      link.Slug,
		SessionID: token,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		Referer:   req.Referer,
	})

	return RedirectResult{Location: link.URL, SessionToken: token}
}
