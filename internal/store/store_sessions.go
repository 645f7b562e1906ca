package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewSession inserts a new session awaiting pipeline processing.
func (s *Store) NewSession(ctx context.Context, title, language, scriptVariant string) (*Session, error) {
	timestamp := nowStamp()
	id := uuid.New().String()

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO sessions (
            id, title, language, script_variant, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		title,
		language,
		scriptVariant,
		StatusPending,
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return s.GetSession(ctx, id)
}

// GetSession fetches a session by identifier. A missing session returns
// (nil, nil).
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// ClaimNextPending atomically claims the oldest pending session for a
// worker, moving it to merging. The conditional transition guarantees two
// workers never claim the same session; a nil result means nothing was
// pending.
func (s *Store) ClaimNextPending(ctx context.Context) (*Session, error) {
	for {
		row := s.db.QueryRowContext(ctx,
			`SELECT id FROM sessions WHERE status = ? ORDER BY created_at, id LIMIT 1`,
			StatusPending,
		)
		var id string
		if err := row.Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("next pending: %w", err)
		}

		timestamp := nowStamp()
		res, err := s.execWithRetry(ctx,
			`UPDATE sessions SET status = ?, progress_phase = NULL, error_message = NULL,
                last_heartbeat = ?, updated_at = ?
             WHERE id = ? AND status = ?`,
			StatusMerging, timestamp, timestamp, id, StatusPending,
		)
		if err != nil {
			return nil, fmt.Errorf("claim session: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("claim session rows: %w", err)
		}
		if affected == 0 {
			// Another worker won the claim; look for the next candidate.
			continue
		}
		return s.GetSession(ctx, id)
	}
}

// UpdatePhase moves a session to the given status and progress phase.
func (s *Store) UpdatePhase(ctx context.Context, id string, status Status, phase string) error {
	if err := s.execWithoutResultRetry(ctx,
		`UPDATE sessions SET status = ?, progress_phase = ?, updated_at = ? WHERE id = ?`,
		status, nullableString(phase), nowStamp(), id,
	); err != nil {
		return fmt.Errorf("update phase: %w", err)
	}
	return nil
}

// SetCompleted marks a session done and records how many cleaned segments
// took the fallback path.
func (s *Store) SetCompleted(ctx context.Context, id string, fallbackSegments int) error {
	if err := s.execWithoutResultRetry(ctx,
		`UPDATE sessions SET status = ?, progress_phase = NULL, error_message = NULL,
            fallback_segments = ?, last_heartbeat = NULL, updated_at = ?
         WHERE id = ?`,
		StatusCompleted, fallbackSegments, nowStamp(), id,
	); err != nil {
		return fmt.Errorf("set completed: %w", err)
	}
	return nil
}

// SetFailed marks a session failed with an operator-facing message. Only
// infrastructure errors land here; collaborator failures degrade instead.
func (s *Store) SetFailed(ctx context.Context, id string, message string) error {
	if err := s.execWithoutResultRetry(ctx,
		`UPDATE sessions SET status = ?, error_message = ?, last_heartbeat = NULL, updated_at = ?
         WHERE id = ?`,
		StatusFailed, nullableString(message), nowStamp(), id,
	); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// RetrySession moves a completed or failed session back to pending for
// reprocessing. Raw segments stay; cleaned segments are rebuilt by the run.
func (s *Store) RetrySession(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE sessions SET status = ?, progress_phase = 'Reprocess requested',
            error_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusPending, nowStamp(), id, StatusCompleted, StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("retry session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("session %s is not in a retryable state", id)
	}
	return nil
}

// DeleteSession removes a session and, through foreign keys, its segments
// and assignments.
func (s *Store) DeleteSession(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// UpdateHeartbeat stamps an in-flight session.
func (s *Store) UpdateHeartbeat(ctx context.Context, id string) error {
	timestamp := nowStamp()
	if err := s.execWithoutResultRetry(ctx,
		`UPDATE sessions SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		timestamp, timestamp, id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ResetStuckProcessing returns every in-flight session to pending. Called on
// daemon boot, when no worker can still own them.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE sessions SET status = ?, progress_phase = 'Reset from stuck processing',
            last_heartbeat = NULL, updated_at = ?
         WHERE status IN (?, ?, ?, ?, ?)`,
		StatusPending, nowStamp(),
		StatusMerging, StatusRequesting, StatusParsing, StatusEnforcing, StatusResolvingRoles,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck sessions: %w", err)
	}
	return res.RowsAffected()
}

// ReclaimStaleProcessing returns in-flight sessions whose heartbeat expired
// before cutoff back to pending.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE sessions SET status = ?, progress_phase = 'Reclaimed from stale processing',
            last_heartbeat = NULL, updated_at = ?
         WHERE status IN (?, ?, ?, ?, ?) AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		StatusPending, nowStamp(),
		StatusMerging, StatusRequesting, StatusParsing, StatusEnforcing, StatusResolvingRoles,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale sessions: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of sessions grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM sessions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates session state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusFailed:
			health.Failed += count
		case StatusCompleted:
			health.Completed += count
		default:
			if status.Processing() {
				health.Processing += count
			}
		}
	}
	return health, nil
}
