package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"burnish/internal/logging"
	"burnish/internal/store"
)

const fallbackHeartbeatInterval = 15 * time.Second

// HeartbeatMonitor keeps processing sessions alive in the database and
// reclaims sessions whose worker died mid-run.
type HeartbeatMonitor struct {
	store    *store.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

// NewHeartbeatMonitor creates a new monitor.
func NewHeartbeatMonitor(st *store.Store, logger *slog.Logger, interval, timeout time.Duration) *HeartbeatMonitor {
	if interval <= 0 {
		interval = fallbackHeartbeatInterval
	}
	return &HeartbeatMonitor{store: st, logger: logger, interval: interval, timeout: timeout}
}

// ReclaimStaleSessions resets sessions whose heartbeat is older than the
// timeout back to pending. A zero timeout disables reclamation.
func (h *HeartbeatMonitor) ReclaimStaleSessions(ctx context.Context, logger *slog.Logger) error {
	if h.timeout <= 0 {
		return nil
	}
	reclaimed, err := h.store.ReclaimStaleProcessing(ctx, time.Now().Add(-h.timeout))
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		logger.Info("reclaimed stale sessions", logging.Int64("count", reclaimed))
	}
	return nil
}

// StartLoop refreshes the heartbeat for one session until the context is
// cancelled. Runs as its own goroutine per active session.
func (h *HeartbeatMonitor) StartLoop(ctx context.Context, wg *sync.WaitGroup, sessionID string) {
	defer wg.Done()

	logger := logging.WithContext(ctx, h.logger.With(logging.String("component", "workflow-heartbeat")))
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		err := h.store.UpdateHeartbeat(ctx, sessionID)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			logger.Info("daemon shutting down, heartbeat update cancelled")
		default:
			logger.Warn("heartbeat update failed", logging.Error(err))
		}
	}
}
