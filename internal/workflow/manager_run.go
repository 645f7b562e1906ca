package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"burnish/internal/logging"
	"burnish/internal/services"
	"burnish/internal/store"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(m.workers)
	m.mu.Unlock()

	for i := 0; i < m.workers; i++ {
		go m.runWorker(runCtx, i)
	}
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) runWorker(ctx context.Context, index int) {
	defer m.wg.Done()
	logger := m.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(
		logging.String("component", "workflow-worker"),
		logging.Int("worker", index),
	)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Worker 0 doubles as the reclaimer so a crashed run never strands
		// a session in a processing status.
		if index == 0 {
			if err := m.heartbeat.ReclaimStaleSessions(ctx, logger); err != nil {
				logger.Warn("reclaim stale sessions failed; stuck sessions may remain",
					logging.Error(err),
					logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
					logging.String(logging.FieldErrorHint, "check session database access"),
				)
			}
		}

		session, err := m.store.ClaimNextPending(ctx)
		if err != nil {
			m.handleClaimError(ctx, logger, err)
			continue
		}
		if session == nil {
			m.waitForSessionOrShutdown(ctx)
			continue
		}

		if err := m.processSession(ctx, logger, session); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) processSession(ctx context.Context, logger *slog.Logger, session *store.Session) error {
	sessionCtx := services.WithSessionID(ctx, session.ID)
	sessionLogger := logging.WithContext(sessionCtx, logger)
	sessionLogger.Info("session claimed",
		logging.String("title", session.Title),
		logging.String(logging.FieldEventType, "session_claimed"),
	)

	heartbeatCtx, stopHeartbeat := context.WithCancel(sessionCtx)
	var heartbeatWG sync.WaitGroup
	heartbeatWG.Add(1)
	go m.heartbeat.StartLoop(heartbeatCtx, &heartbeatWG, session.ID)

	summary, err := m.runner.Run(sessionCtx, session)
	stopHeartbeat()
	heartbeatWG.Wait()

	m.setLastSession(session)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			sessionLogger.Info("session interrupted by shutdown; will be reclaimed")
			return err
		}
		m.handleSessionFailure(sessionCtx, sessionLogger, session, err)
		return err
	}
	if !summary.Persisted {
		// The session was deleted or re-imported mid-run; the result was
		// already discarded by the store.
		return nil
	}
	m.notifyCompletion(sessionCtx, sessionLogger, session, summary)
	return nil
}

func (m *Manager) handleClaimError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logger.Error("failed to claim next session",
		logging.Error(err),
		logging.String(logging.FieldEventType, "session_claim_failed"),
		logging.String(logging.FieldErrorHint, "check session database access"),
	)
	select {
	case <-ctx.Done():
	case <-time.After(m.retryDelay):
	}
}

func (m *Manager) waitForSessionOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}
