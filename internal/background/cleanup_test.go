package background

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingPurger struct {
	calls atomic.Int64
}

func (p *countingPurger) DeleteExpired(ctx context.Context) (int64, error) {
	p.calls.Add(1)
	return 3, nil
}

func TestCleanupManager_RunsImmediatelyAndStops(t *testing.T) {
	purger := &countingPurger{}
	cm := NewCleanupManager(purger, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)

	done := make(chan struct{})
	go func() {
		cm.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return purger.calls.Load() >= 1
	}, time.Second, 10*time.Millisecond)

	cm.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup manager did not stop")
	}
}

func TestCleanupManager_StopsOnContextCancel(t *testing.T) {
	purger := &countingPurger{}
	cm := NewCleanupManager(purger, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cm.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup manager did not stop on context cancel")
	}
}
