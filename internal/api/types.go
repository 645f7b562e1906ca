package api

import (
	"time"

	"burnish/internal/store"
	"burnish/internal/transcript"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Session describes a transcript session in a transport-friendly format.
type Session struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Language         string `json:"language"`
	ScriptVariant    string `json:"scriptVariant"`
	Status           string `json:"status"`
	ProgressPhase    string `json:"progressPhase,omitempty"`
	ErrorMessage     string `json:"errorMessage,omitempty"`
	FallbackSegments int    `json:"fallbackSegments"`
	CreatedAt        string `json:"createdAt,omitempty"`
	UpdatedAt        string `json:"updatedAt,omitempty"`
}

// TranscriptSegment is one cleaned segment with its role label.
type TranscriptSegment struct {
	Seq        int    `json:"seq"`
	StartMS    int64  `json:"startMs"`
	EndMS      int64  `json:"endMs"`
	SpeakerKey string `json:"speakerKey"`
	Role       string `json:"role"`
	RoleOrigin string `json:"roleOrigin"`
	Text       string `json:"text"`
	Quality    string `json:"quality"`
	Edited     bool   `json:"edited"`
}

// Assignment is a speaker-to-role binding for a session.
type Assignment struct {
	SpeakerKey string `json:"speakerKey"`
	Role       string `json:"role"`
	Source     string `json:"source"`
}

// SessionListResponse wraps a collection of sessions.
type SessionListResponse struct {
	Sessions []Session `json:"sessions"`
}

// SessionResponse wraps one session with its role assignments.
type SessionResponse struct {
	Session     Session      `json:"session"`
	Assignments []Assignment `json:"assignments"`
}

// TranscriptResponse wraps the cleaned transcript of one session.
type TranscriptResponse struct {
	SessionID string              `json:"sessionId"`
	Segments  []TranscriptSegment `json:"segments"`
}

// OverrideRequest carries a manual role override. Exactly one of SegmentSeq
// or Speaker must be set: the segment form pins a single segment, the
// speaker form assigns every non-pinned segment carrying that speaker.
type OverrideRequest struct {
	SegmentSeq int    `json:"segmentSeq,omitempty"`
	Speaker    string `json:"speaker,omitempty"`
	Role       string `json:"role"`
}

// OverrideResponse reports how many segments an override touched.
type OverrideResponse struct {
	SpeakerKey      string `json:"speakerKey,omitempty"`
	Role            string `json:"role"`
	SegmentsUpdated int64  `json:"segmentsUpdated"`
}

// EditTextRequest carries a hand edit of one segment's text.
type EditTextRequest struct {
	Text string `json:"text"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running      bool           `json:"running"`
	Workers      int            `json:"workers"`
	SessionStats map[string]int `json:"sessionStats"`
	LastError    string         `json:"lastError,omitempty"`
	LastSession  *Session       `json:"lastSession,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"databasePath"`
	LockFilePath string         `json:"lockFilePath"`
	Workflow     WorkflowStatus `json:"workflow"`
}

// HealthResponse reports aggregate session counts.
type HealthResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// FromSession converts a store session into its DTO.
func FromSession(session *store.Session) Session {
	if session == nil {
		return Session{}
	}
	return Session{
		ID:               session.ID,
		Title:            session.Title,
		Language:         session.Language,
		ScriptVariant:    session.ScriptVariant,
		Status:           string(session.Status),
		ProgressPhase:    session.ProgressPhase,
		ErrorMessage:     session.ErrorMessage,
		FallbackSegments: session.FallbackSegments,
		CreatedAt:        formatTime(session.CreatedAt),
		UpdatedAt:        formatTime(session.UpdatedAt),
	}
}

// FromSessions converts a slice of store sessions.
func FromSessions(sessions []*store.Session) []Session {
	out := make([]Session, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, FromSession(session))
	}
	return out
}

// FromCleanedSegment converts one cleaned segment into its DTO.
func FromCleanedSegment(seg transcript.CleanedSegment) TranscriptSegment {
	return TranscriptSegment{
		Seq:        seg.Seq,
		StartMS:    seg.StartMS,
		EndMS:      seg.EndMS,
		SpeakerKey: seg.SpeakerKey,
		Role:       string(seg.Role),
		RoleOrigin: string(seg.RoleOrigin),
		Text:       seg.Text,
		Quality:    string(seg.Quality),
		Edited:     seg.Edited,
	}
}

// MergeSessionStats flattens status-keyed counts into string keys.
func MergeSessionStats(stats map[store.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeFormat)
}
