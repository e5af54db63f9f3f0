package service

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/portfolio/internal/geo"
	"github.com/SergeiKhy/portfolio/internal/metrics"
	"github.com/SergeiKhy/portfolio/internal/models"
	"github.com/SergeiKhy/portfolio/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Константы worker pool
const (
	defaultWorkerCount   = 3    // Количество воркеров
	defaultChannelBuffer = 1000 // Размер буфера канала
	clickWriteTimeout    = 5 * time.Second
)

// ClickProcessor асинхронная запись кликов; редирект её не ждёт
type ClickProcessor interface {
	Start()
	Stop()
	RecordClick(event models.ClickEvent)
	Stats() ChannelStats
}

type ClickProcessorConfig struct {
	Workers    int
	BufferSize int
}

// clickProcessor реализация процессора кликов с использованием Worker Pool
type clickProcessor struct {
	clickRepo    repository.ClickRepository
	locator      geo.Locator
	metrics      *metrics.Metrics
	logger       *zap.Logger
	clickChannel chan models.ClickEvent // Канал для событий кликов
	workerCount  int                    // Количество воркеров
	wg           sync.WaitGroup         // WaitGroup для ожидания завершения воркеров
	overflow     sync.WaitGroup         // записи вне пула при переполнении канала
	mu           sync.RWMutex
	stopped      bool
}

// NewClickProcessor создаёт новый экземпляр процессора кликов
func NewClickProcessor(
	clickRepo repository.ClickRepository,
	locator geo.Locator,
	m *metrics.Metrics,
	cfg ClickProcessorConfig,
	logger *zap.Logger,
) ClickProcessor {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkerCount
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultChannelBuffer
	}
	if locator == nil {
		locator = geo.NopLocator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &clickProcessor{
		clickRepo:    clickRepo,
		locator:      locator,
		metrics:      m,
		logger:       logger,
		clickChannel: make(chan models.ClickEvent, cfg.BufferSize),
		workerCount:  cfg.Workers,
	}
}

// Start запускает worker pool
func (p *clickProcessor) Start() {
	p.logger.Info("Запуск воркеров процессора кликов", zap.Int("count", p.workerCount))

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop закрывает канал и ждёт, пока воркеры допишут очередь
func (p *clickProcessor) Stop() {
	p.logger.Info("Остановка процессора кликов...", zap.Int("pending", len(p.clickChannel)))

	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.clickChannel)
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.overflow.Wait()
	p.logger.Info("Процессор кликов остановлен")
}

// worker обрабатывает события кликов из канала до его закрытия
func (p *clickProcessor) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("Воркер кликов запущен", zap.Int("id", id))

	for event := range p.clickChannel {
		p.processClick(event)
	}

	p.logger.Debug("Воркер кликов остановлен", zap.Int("id", id))
}

// processClick пишет один клик. Повторов нет: неудачная запись теряется
// целиком, счётчик и строка клика меняются только вместе.
func (p *clickProcessor) processClick(event models.ClickEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), clickWriteTimeout)
	defer cancel()

	click := &models.Click{
		ID:        uuid.NewString(),
		LinkID:    event.LinkID,
		SessionID: event.SessionID,
		IPAddress: nullableString(event.IPAddress),
		UserAgent: nullableString(event.UserAgent),
		Referer:   nullableString(event.Referer),
	}

	if event.IPAddress != "" {
		loc, err := p.locator.Lookup(event.IPAddress)
		if err != nil {
			p.logger.Debug("GeoIP lookup failed", zap.String("ip", event.IPAddress), zap.Error(err))
		}
		click.Country = nullableString(loc.Country)
		click.City = nullableString(loc.City)
	}

	err := p.clickRepo.RecordClick(ctx, click)
	p.metrics.ClickWrite(err)
	if err != nil {
		p.logger.Error("Не удалось записать клик",
			zap.String("slug", event.Slug),
			zap.String("link_id", event.LinkID),
			zap.Error(err),
		)
		return
	}

	p.logger.Debug("Клик записан", zap.String("slug", event.Slug), zap.String("click_id", click.ID))
}

// RecordClick отправляет событие в worker pool (неблокирующая операция).
// При заполненном канале клик пишется в отдельной горутине, а не теряется.
func (p *clickProcessor) RecordClick(event models.ClickEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.logger.Warn("Процессор кликов остановлен, клик потерян", zap.String("slug", event.Slug))
		p.metrics.ClickWrite(ErrProcessorStopped)
		return
	}

	select {
	case p.clickChannel <- event:
	default:
		p.logger.Warn("Буфер канала кликов заполнен, запись вне пула", zap.String("slug", event.Slug))
		p.metrics.ClickOverflow()
		p.overflow.Add(1)
		go func() {
			defer p.overflow.Done()
			p.processClick(event)
		}()
	}
}

// Stats возвращает статистику канала для мониторинга
func (p *clickProcessor) Stats() ChannelStats {
	return ChannelStats{
		BufferSize:  cap(p.clickChannel),
		BufferUsed:  len(p.clickChannel),
		WorkerCount: p.workerCount,
	}
}

// ChannelStats статистика канала worker pool
type ChannelStats struct {
	BufferSize  int `json:"buffer_size"`  // Общая ёмкость канала
	BufferUsed  int `json:"buffer_used"`  // Текущее использование
	WorkerCount int `json:"worker_count"` // Количество воркеров
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
