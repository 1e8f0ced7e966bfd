package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/metrics"
	"github.com/SergeiKhy/tracking-links/internal/models"
)

// BatchStats итоги планировщика
type BatchStats struct {
	Batches int
	Pauses  int
}

// BatchScheduler отправляет строки последовательно пачками по size,
// между пачками (но не после последней) ждёт delay
type BatchScheduler struct {
	clock  Clock
	delay  time.Duration
	logger *zap.Logger
}

func NewBatchScheduler(clock Clock, delay time.Duration, logger *zap.Logger) *BatchScheduler {
	return &BatchScheduler{
		clock:  clock,
		delay:  delay,
		logger: logger,
	}
}

// Run вызывает submit для каждой строки по порядку и afterBatch (если задан) после каждой пачки.
// submit возвращает ошибку только при сбое хранилища, неудачная отправка строки ошибкой не считается.
// Run прерывается на такой ошибке и при отмене ctx во время паузы.
func (s *BatchScheduler) Run(
	ctx context.Context,
	rows []models.Row,
	size int,
	submit func(ctx context.Context, row models.Row) error,
	afterBatch func(batch int),
) (BatchStats, error) {
	var stats BatchStats
	if size < 1 {
		size = 1
	}

	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		stats.Batches++

		for _, row := range rows[start:end] {
			if err := submit(ctx, row); err != nil {
				return stats, err
			}
		}
		if afterBatch != nil {
			afterBatch(stats.Batches)
		}

		if end == len(rows) {
			break
		}

		s.logger.Info("Batch done, pausing",
			zap.Int("batch", stats.Batches),
			zap.Int("remaining", len(rows)-end),
			zap.Duration("delay", s.delay),
		)
		stats.Pauses++
		metrics.RecordBatchPause()
		if err := s.clock.Sleep(ctx, s.delay); err != nil {
			return stats, err
		}
	}

	return stats, nil
}
