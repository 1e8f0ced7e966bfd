package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/SergeiKhy/tracking-links/internal/repository"
)

// Константы зеркала истории
const (
	defaultMirrorBuffer = 1000 // Размер буфера канала
	maxMirrorRetries    = 3    // Максимальное количество попыток записи
)

// HistoryMirror асинхронно дублирует записи истории в target (Postgres).
// Один воркер сохраняет порядок записей.
type HistoryMirror struct {
	target repository.HistoryRepository
	logger *zap.Logger
	queue  chan models.HistoryEntry

	mu      sync.Mutex
	started bool
	closed  bool
	wg      sync.WaitGroup
}

var _ repository.HistoryRepository = (*HistoryMirror)(nil)

func NewHistoryMirror(target repository.HistoryRepository, logger *zap.Logger) *HistoryMirror {
	return &HistoryMirror{
		target: target,
		logger: logger,
		queue:  make(chan models.HistoryEntry, defaultMirrorBuffer),
	}
}

// Start запускает воркер
func (m *HistoryMirror) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true

	m.logger.Info("Запуск зеркала истории")
	m.wg.Add(1)
	go m.worker()
}

// Stop закрывает очередь и ждёт, пока воркер запишет оставшиеся записи
func (m *HistoryMirror) Stop() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	m.logger.Info("Остановка зеркала истории...")
	m.wg.Wait()
	m.logger.Info("Зеркало истории остановлено")
}

func (m *HistoryMirror) worker() {
	defer m.wg.Done()

	for entry := range m.queue {
		m.write(entry)
	}
}

// write одна запись с retry логикой
func (m *HistoryMirror) write(entry models.HistoryEntry) {
	var err error
	for i := 0; i < maxMirrorRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = m.target.Append(ctx, &entry)
		cancel()
		if err == nil {
			return
		}
		if i < maxMirrorRetries-1 {
			m.logger.Debug("Повторная попытка записи истории",
				zap.String("tracking_link_name", entry.TrackingLinkName),
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
		}
	}

	m.logger.Error("Не удалось записать историю после всех попыток",
		zap.String("tracking_link_name", entry.TrackingLinkName),
		zap.Error(err),
	)
}

// Append ставит запись в очередь (не блокирует пайплайн)
func (m *HistoryMirror) Append(ctx context.Context, entry *models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case m.queue <- *entry:
		return nil
	default:
		// Канал заполнен, запись остаётся только на листе "Links History"
		m.logger.Warn("Буфер зеркала истории заполнен, запись пропущена",
			zap.String("tracking_link_name", entry.TrackingLinkName),
		)
		return nil
	}
}

func (m *HistoryMirror) List(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	return m.target.List(ctx, limit)
}

// Pending количество записей в очереди
func (m *HistoryMirror) Pending() int {
	return len(m.queue)
}
