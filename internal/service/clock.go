package service

import (
	"context"
	"time"
)

// Clock источник времени и пауз пайплайна
type Clock interface {
	Now() time.Time
	// Sleep ждёт d или отмены ctx
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func NewRealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
