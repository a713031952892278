package background

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredTokenPurger deletes refresh-token rows that can never validate again.
type ExpiredTokenPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupManager periodically purges expired refresh tokens so the table
// stays bounded by the number of live sessions.
type CleanupManager struct {
	purger   ExpiredTokenPurger
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(purger ExpiredTokenPurger, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		purger:   purger,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.purger.DeleteExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to purge expired refresh tokens", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("expired refresh tokens purged", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
