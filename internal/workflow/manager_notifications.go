package workflow

import (
	"context"
	"log/slog"

	"burnish/internal/logging"
	"burnish/internal/pipeline"
	"burnish/internal/store"
)

func (m *Manager) notifyCompletion(ctx context.Context, logger *slog.Logger, session *store.Session, summary pipeline.Summary) {
	logger.Info("session processed",
		logging.String(logging.FieldEventType, "session_processed"),
		logging.Int("segments", summary.Segments),
		logging.Int("fallback_segments", summary.FallbackSegments),
		logging.Bool("degraded", summary.Degraded),
		logging.String(logging.FieldStrategy, summary.Strategy),
	)

	if summary.Degraded {
		if err := m.notifier.NotifySessionDegraded(ctx, session.Title, summary.FallbackSegments); err != nil {
			logger.Warn("degraded-run notification not delivered", logging.Error(err))
		}
	}
	if err := m.notifier.NotifySessionCompleted(ctx, session.Title, summary.Segments, summary.FallbackSegments); err != nil {
		logger.Warn("completion notification not delivered", logging.Error(err))
	}
}
