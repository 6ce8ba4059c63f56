package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Add(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Add(context.Background(), "*/5 * * * *", "five-minutes", func(context.Context) {}))
	require.NoError(t, s.Add(context.Background(), "@every 1h", "hourly", func(context.Context) {}))
	assert.Equal(t, 2, s.Len())

	err := s.Add(context.Background(), "not a spec", "broken", func(context.Context) {})
	assert.ErrorContains(t, err, "invalid cron spec")
	assert.Equal(t, 2, s.Len())
}

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	s := New(nil)
	require.NoError(t, s.Add(ctx, "@every 1s", "tick", func(context.Context) {
		if runs.Add(1) == 1 {
			cancel()
		}
	}))

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3500*time.Millisecond)
	defer cancel()

	var running, maxRunning atomic.Int32
	s := New(nil)
	require.NoError(t, s.Add(ctx, "@every 1s", "slow", func(ctx context.Context) {
		n := running.Add(1)
		if n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		select {
		case <-time.After(2500 * time.Millisecond):
		case <-ctx.Done():
		}
		running.Add(-1)
	}))

	s.Run(ctx)
	assert.Equal(t, int32(1), maxRunning.Load())
}
