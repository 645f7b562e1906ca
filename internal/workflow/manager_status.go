package workflow

import (
	"context"

	"burnish/internal/logging"
	"burnish/internal/store"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running      bool
	Workers      int
	LastError    string
	LastSession  *store.Session
	SessionStats map[store.Status]int
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastSession := m.lastSession
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read session stats", logging.Error(err))
	}

	summary := StatusSummary{Running: running, Workers: m.workers, SessionStats: stats}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastSession != nil {
		copy := *lastSession
		summary.LastSession = &copy
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastSession(session *store.Session) {
	m.mu.Lock()
	if session != nil {
		copy := *session
		m.lastSession = &copy
	} else {
		m.lastSession = nil
	}
	m.mu.Unlock()
}
