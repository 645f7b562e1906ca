package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"burnish/internal/roles"
	"burnish/internal/store"
	"burnish/internal/transcript"
)

// ErrNotFound marks lookups against unknown sessions or segments.
var ErrNotFound = errors.New("not found")

// ErrInvalidRequest marks malformed session operations.
var ErrInvalidRequest = errors.New("invalid request")

// SessionStore abstracts the persistence interactions the session service
// needs. *store.Store satisfies it.
type SessionStore interface {
	ListSessions(ctx context.Context) ([]*store.Session, error)
	GetSession(ctx context.Context, id string) (*store.Session, error)
	CleanedSegments(ctx context.Context, sessionID string) ([]transcript.CleanedSegment, error)
	Assignments(ctx context.Context, sessionID string) ([]transcript.SpeakerRoleAssignment, error)
	UpsertAssignment(ctx context.Context, a transcript.SpeakerRoleAssignment) error
	RefreshSegmentRoles(ctx context.Context, sessionID, speakerKey string, role transcript.Role) (int64, error)
	PinSegmentRole(ctx context.Context, sessionID string, seq int, role transcript.Role) (bool, error)
	UpdateSegmentText(ctx context.Context, sessionID string, seq int, text string) (bool, error)
	DeleteSession(ctx context.Context, id string) (bool, error)
	RetrySession(ctx context.Context, id string) error
	Health(ctx context.Context) (store.HealthSummary, error)
}

// SessionService exposes session operations returning API DTOs. It is shared
// by the HTTP handlers and the CLI so both surfaces behave identically.
type SessionService struct {
	store SessionStore
}

// NewSessionService constructs a SessionService around the provided store.
func NewSessionService(st SessionStore) *SessionService {
	if st == nil {
		return nil
	}
	return &SessionService{store: st}
}

// List returns all sessions, newest first.
func (s *SessionService) List(ctx context.Context) ([]Session, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	return FromSessions(sessions), nil
}

// Describe fetches a single session with its role assignments.
func (s *SessionService) Describe(ctx context.Context, id string) (*SessionResponse, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}
	assignments, err := s.store.Assignments(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]Assignment, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, Assignment{
			SpeakerKey: a.SpeakerKey,
			Role:       string(a.Role),
			Source:     string(a.Source),
		})
	}
	return &SessionResponse{Session: FromSession(session), Assignments: out}, nil
}

// Transcript returns the cleaned, role-labeled transcript of a session.
func (s *SessionService) Transcript(ctx context.Context, id string) (*TranscriptResponse, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}
	segments, err := s.store.CleanedSegments(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]TranscriptSegment, 0, len(segments))
	for _, seg := range segments {
		out = append(out, FromCleanedSegment(seg))
	}
	return &TranscriptResponse{SessionID: id, Segments: out}, nil
}

// Override applies a manual role override. The segment form pins exactly
// that segment; the speaker form normalizes the name, upserts a manual
// assignment, and refreshes every non-pinned segment carrying that key.
// Neither form re-runs correction.
func (s *SessionService) Override(ctx context.Context, sessionID string, req OverrideRequest) (*OverrideResponse, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	role := transcript.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role must be coach, client, or unknown", ErrInvalidRequest)
	}
	hasSeq := req.SegmentSeq > 0
	hasSpeaker := strings.TrimSpace(req.Speaker) != ""
	if hasSeq == hasSpeaker {
		return nil, fmt.Errorf("%w: exactly one of segmentSeq or speaker is required", ErrInvalidRequest)
	}
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}

	if hasSeq {
		updated, err := s.store.PinSegmentRole(ctx, sessionID, req.SegmentSeq, role)
		if err != nil {
			return nil, err
		}
		if !updated {
			return nil, fmt.Errorf("%w: segment %d", ErrNotFound, req.SegmentSeq)
		}
		return &OverrideResponse{Role: string(role), SegmentsUpdated: 1}, nil
	}

	key := roles.SpeakerKey(req.Speaker)
	if err := s.store.UpsertAssignment(ctx, transcript.SpeakerRoleAssignment{
		SessionID:  sessionID,
		SpeakerKey: key,
		Role:       role,
		Source:     transcript.SourceManual,
	}); err != nil {
		return nil, err
	}
	refreshed, err := s.store.RefreshSegmentRoles(ctx, sessionID, key, role)
	if err != nil {
		return nil, err
	}
	return &OverrideResponse{SpeakerKey: key, Role: string(role), SegmentsUpdated: refreshed}, nil
}

// EditSegmentText replaces one segment's text by hand and marks it edited.
func (s *SessionService) EditSegmentText(ctx context.Context, sessionID string, seq int, text string) error {
	if s == nil || s.store == nil {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	updated, err := s.store.UpdateSegmentText(ctx, sessionID, seq, text)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("%w: segment %d", ErrNotFound, seq)
	}
	return nil
}

// Delete removes a session and all its segments and assignments.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if s == nil || s.store == nil {
		return nil
	}
	deleted, err := s.store.DeleteSession(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// Reprocess moves a completed or failed session back to pending. Manual
// assignments and pinned segment overrides survive the re-run.
func (s *SessionService) Reprocess(ctx context.Context, id string) error {
	if s == nil || s.store == nil {
		return nil
	}
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNotFound
	}
	return s.store.RetrySession(ctx, id)
}

// Health returns aggregate session counts.
func (s *SessionService) Health(ctx context.Context) (HealthResponse, error) {
	if s == nil || s.store == nil {
		return HealthResponse{}, nil
	}
	summary, err := s.store.Health(ctx)
	if err != nil {
		return HealthResponse{}, err
	}
	return HealthResponse{
		Total:      summary.Total,
		Pending:    summary.Pending,
		Processing: summary.Processing,
		Completed:  summary.Completed,
		Failed:     summary.Failed,
	}, nil
}
