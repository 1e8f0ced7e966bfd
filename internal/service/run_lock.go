package service

import "sync"

// RunLock одна операция, меняющая раскладку или результаты книги, за раз.
// Запуски, синхронизация аккаунта, правки ячеек и пересборка заголовков
// делят один RunLock; занятый лок - ErrRunInProgress.
type RunLock struct {
	mu sync.Mutex
}

func NewRunLock() *RunLock {
	return &RunLock{}
}

// TryAcquire не ждёт: вернёт ErrRunInProgress, если лок занят
func (l *RunLock) TryAcquire() (release func(), err error) {
	if !l.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	return l.mu.Unlock, nil
}
