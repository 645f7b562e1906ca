package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"burnish/internal/logging"
	"burnish/internal/store"
)

// handleSessionFailure records an infrastructure failure on the session and
// notifies the operator. Collaborator and parse failures never reach here;
// the pipeline degrades those onto the fallback branch instead.
func (m *Manager) handleSessionFailure(ctx context.Context, logger *slog.Logger, session *store.Session, runErr error) {
	m.setLastError(runErr)

	message := strings.TrimSpace(runErr.Error())
	if message == "" {
		message = "session processing failed without error detail"
	}

	logging.ErrorWithContext(logger, "session failed", "session_failure",
		logging.Error(runErr),
		logging.String("error_message", message),
		logging.String(logging.FieldErrorHint, "inspect the error and retry the session"),
	)

	if err := m.store.SetFailed(ctx, session.ID, message); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not persist session failure")
		} else {
			logger.Error("failed to persist session failure", logging.Error(err))
		}
	}

	if err := m.notifier.NotifySessionFailed(ctx, session.Title, runErr); err != nil {
		logger.Warn("failure notification not delivered", logging.Error(err))
	}
}
