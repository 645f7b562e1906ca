package store

import (
	"context"
	"encoding/json"
	"fmt"

	"burnish/internal/transcript"
)

// SaveRawSegments stores the immutable ASR input for a session. It is called
// once at import; re-importing replaces the set wholesale.
func (s *Store) SaveRawSegments(ctx context.Context, sessionID string, segments []transcript.RawSegment) error {
	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin raw segments tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM raw_segments WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear raw segments: %w", err)
	}
	for _, seg := range segments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO raw_segments (session_id, seq, start_ms, end_ms, speaker_tag, text, confidence)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sessionID, seg.Seq, seg.StartMS, seg.EndMS, seg.SpeakerTag, seg.Text, seg.Confidence,
		); err != nil {
			return fmt.Errorf("insert raw segment %d: %w", seg.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit raw segments: %w", err)
	}
	return nil
}

// RawSegments returns a session's raw segments in sequence order.
func (s *Store) RawSegments(ctx context.Context, sessionID string) ([]transcript.RawSegment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, start_ms, end_ms, speaker_tag, text, confidence
         FROM raw_segments WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("raw segments: %w", err)
	}
	defer rows.Close()

	var segments []transcript.RawSegment
	for rows.Next() {
		var seg transcript.RawSegment
		if err := rows.Scan(&seg.Seq, &seg.StartMS, &seg.EndMS, &seg.SpeakerTag, &seg.Text, &seg.Confidence); err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// ReplaceCleanedSegments atomically replaces a session's cleaned transcript.
//
// The write is conditioned on the session still existing with exactly
// expectedRawCount raw segments: a session deleted or re-imported while the
// pipeline was in flight silently discards the late result. The first return
// value reports whether the write landed.
func (s *Store) ReplaceCleanedSegments(ctx context.Context, sessionID string, segments []transcript.CleanedSegment, expectedRawCount int) (bool, error) {
	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin cleaned segments tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var sessionCount, rawCount int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM sessions WHERE id = ?`, sessionID,
	).Scan(&sessionCount); err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	if sessionCount == 0 {
		return false, nil
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM raw_segments WHERE session_id = ?`, sessionID,
	).Scan(&rawCount); err != nil {
		return false, fmt.Errorf("check raw segments: %w", err)
	}
	if rawCount != expectedRawCount {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cleaned_segments WHERE session_id = ?`, sessionID); err != nil {
		return false, fmt.Errorf("clear cleaned segments: %w", err)
	}
	for _, seg := range segments {
		seqs, err := json.Marshal(seg.SourceSeqs)
		if err != nil {
			return false, fmt.Errorf("marshal source seqs: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cleaned_segments (
                session_id, seq, start_ms, end_ms, speaker_key, role, role_origin,
                text, quality, source_seqs, edited
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sessionID, seg.Seq, seg.StartMS, seg.EndMS, seg.SpeakerKey, string(seg.Role),
			string(seg.RoleOrigin), seg.Text, string(seg.Quality), string(seqs), boolToInt(seg.Edited),
		); err != nil {
			return false, fmt.Errorf("insert cleaned segment %d: %w", seg.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit cleaned segments: %w", err)
	}
	return true, nil
}

// CleanedSegments returns a session's cleaned transcript in sequence order.
func (s *Store) CleanedSegments(ctx context.Context, sessionID string) ([]transcript.CleanedSegment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, start_ms, end_ms, speaker_key, role, role_origin, text, quality, source_seqs, edited
         FROM cleaned_segments WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("cleaned segments: %w", err)
	}
	defer rows.Close()

	var segments []transcript.CleanedSegment
	for rows.Next() {
		var (
			seg     transcript.CleanedSegment
			role    string
			origin  string
			quality string
			seqsRaw string
			edited  int
		)
		if err := rows.Scan(&seg.Seq, &seg.StartMS, &seg.EndMS, &seg.SpeakerKey, &role, &origin, &seg.Text, &quality, &seqsRaw, &edited); err != nil {
			return nil, err
		}
		seg.Role = transcript.Role(role)
		seg.RoleOrigin = transcript.RoleOrigin(origin)
		seg.Quality = transcript.Quality(quality)
		seg.Edited = edited != 0
		if seqsRaw != "" {
			if err := json.Unmarshal([]byte(seqsRaw), &seg.SourceSeqs); err != nil {
				return nil, fmt.Errorf("decode source seqs for segment %d: %w", seg.Seq, err)
			}
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// UpdateSegmentText hand-edits one cleaned segment without re-running
// correction. The edited flag keeps reprocessing from clobbering intent
// silently in exports.
func (s *Store) UpdateSegmentText(ctx context.Context, sessionID string, seq int, text string) (bool, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE cleaned_segments SET text = ?, edited = 1 WHERE session_id = ? AND seq = ?`,
		text, sessionID, seq,
	)
	if err != nil {
		return false, fmt.Errorf("update segment text: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// PinSegmentRole overrides one cleaned segment's role by hand. The override
// origin pins it: role refreshes from assignments skip pinned segments, so
// the human decision survives inference re-runs.
func (s *Store) PinSegmentRole(ctx context.Context, sessionID string, seq int, role transcript.Role) (bool, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE cleaned_segments SET role = ?, role_origin = ? WHERE session_id = ? AND seq = ?`,
		string(role), string(transcript.OriginOverride), sessionID, seq,
	)
	if err != nil {
		return false, fmt.Errorf("pin segment role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// PinnedRoles returns the manual per-segment role overrides keyed by raw
// segment sequence number, the boundaries the merger must not cross.
func (s *Store) PinnedRoles(ctx context.Context, sessionID string) (map[int]transcript.Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_seqs, role FROM cleaned_segments
         WHERE session_id = ? AND role_origin = ?`,
		sessionID, string(transcript.OriginOverride),
	)
	if err != nil {
		return nil, fmt.Errorf("pinned roles: %w", err)
	}
	defer rows.Close()

	pins := make(map[int]transcript.Role)
	for rows.Next() {
		var seqsRaw, role string
		if err := rows.Scan(&seqsRaw, &role); err != nil {
			return nil, err
		}
		var seqs []int
		if seqsRaw != "" {
			if err := json.Unmarshal([]byte(seqsRaw), &seqs); err != nil {
				return nil, fmt.Errorf("decode pinned source seqs: %w", err)
			}
		}
		for _, seq := range seqs {
			pins[seq] = transcript.Role(role)
		}
	}
	return pins, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
