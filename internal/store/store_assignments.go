package store

import (
	"context"
	"fmt"

	"burnish/internal/transcript"
)

// Assignments returns a session's speaker role assignments.
func (s *Store) Assignments(ctx context.Context, sessionID string) ([]transcript.SpeakerRoleAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT speaker_key, role, source FROM role_assignments
         WHERE session_id = ? ORDER BY speaker_key`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("assignments: %w", err)
	}
	defer rows.Close()

	var assignments []transcript.SpeakerRoleAssignment
	for rows.Next() {
		var (
			key    string
			role   string
			source string
		)
		if err := rows.Scan(&key, &role, &source); err != nil {
			return nil, err
		}
		assignments = append(assignments, transcript.SpeakerRoleAssignment{
			SessionID:  sessionID,
			SpeakerKey: key,
			Role:       transcript.Role(role),
			Source:     transcript.AssignmentSource(source),
		})
	}
	return assignments, rows.Err()
}

// UpsertAssignment writes one speaker role assignment. Precedence lives in
// the SQL so every writer obeys the same rule: a manual assignment is never
// overwritten by an inferred one, while a manual write always wins
// (last-writer-wins among manual edits).
func (s *Store) UpsertAssignment(ctx context.Context, a transcript.SpeakerRoleAssignment) error {
	if a.SpeakerKey == "" {
		return fmt.Errorf("upsert assignment: empty speaker key")
	}
	if err := s.execWithoutResultRetry(ctx,
		`INSERT INTO role_assignments (session_id, speaker_key, role, source, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(session_id, speaker_key) DO UPDATE SET
            role = excluded.role,
            source = excluded.source,
            updated_at = excluded.updated_at
         WHERE NOT (role_assignments.source = 'manual' AND excluded.source = 'inferred')`,
		a.SessionID, a.SpeakerKey, string(a.Role), string(a.Source), nowStamp(),
	); err != nil {
		return fmt.Errorf("upsert assignment: %w", err)
	}
	return nil
}

// RefreshSegmentRoles re-labels a session's cleaned segments for one speaker
// key from its assignment. Pinned segments keep their override.
func (s *Store) RefreshSegmentRoles(ctx context.Context, sessionID, speakerKey string, role transcript.Role) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE cleaned_segments SET role = ?
         WHERE session_id = ? AND speaker_key = ? AND role_origin != ?`,
		string(role), sessionID, speakerKey, string(transcript.OriginOverride),
	)
	if err != nil {
		return 0, fmt.Errorf("refresh segment roles: %w", err)
	}
	return res.RowsAffected()
}
