package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/SergeiKhy/tracking-links/internal/service"
	"github.com/SergeiKhy/tracking-links/internal/service/mocks"
)

func TestHistoryMirror_DrainsOnStop(t *testing.T) {
	target := mocks.NewMockHistoryRepository()
	m := service.NewHistoryMirror(target, zap.NewNop())
	m.Start()

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, m.Append(context.Background(), &models.HistoryEntry{TrackingLinkName: name, CreatedAt: testNow}))
	}
	m.Stop()

	entries := target.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].TrackingLinkName)
	assert.Equal(t, "c", entries[2].TrackingLinkName)
	assert.Zero(t, m.Pending())
}

func TestHistoryMirror_AppendAfterStopIsNoop(t *testing.T) {
	target := mocks.NewMockHistoryRepository()
	m := service.NewHistoryMirror(target, zap.NewNop())
	m.Start()
	m.Stop()
	m.Stop()

	require.NoError(t, m.Append(context.Background(), &models.HistoryEntry{TrackingLinkName: "late"}))
	assert.Empty(t, target.Entries())
}

func TestHistoryMirror_DoesNotBlockWithoutWorker(t *testing.T) {
	m := service.NewHistoryMirror(mocks.NewMockHistoryRepository(), zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1100; i++ {
			_ = m.Append(context.Background(), &models.HistoryEntry{TrackingLinkName: "x"})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Append blocked on a full queue")
	}
	assert.Equal(t, 1000, m.Pending())
}

// flakyHistory падает первые failures раз
type flakyHistory struct {
	*mocks.MockHistoryRepository
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyHistory) Append(ctx context.Context, entry *models.HistoryEntry) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return errors.New("connection reset")
	}
	return f.MockHistoryRepository.Append(ctx, entry)
}

func TestHistoryMirror_Retries(t *testing.T) {
	target := &flakyHistory{MockHistoryRepository: mocks.NewMockHistoryRepository(), failures: 2}
	m := service.NewHistoryMirror(target, zap.NewNop())
	m.Start()

	require.NoError(t, m.Append(context.Background(), &models.HistoryEntry{TrackingLinkName: "retry"}))
	m.Stop()

	assert.Equal(t, 3, target.calls)
	require.Len(t, target.Entries(), 1)
}

func TestHistoryMirror_ListDelegates(t *testing.T) {
	target := mocks.NewMockHistoryRepository()
	require.NoError(t, target.Append(context.Background(), &models.HistoryEntry{TrackingLinkName: "stored"}))
	m := service.NewHistoryMirror(target, zap.NewNop())

	entries, err := m.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "stored", entries[0].TrackingLinkName)
}
