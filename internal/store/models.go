package store

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a transcript session.
type Status string

const (
	StatusPending        Status = "pending"
	StatusMerging        Status = "merging"
	StatusRequesting     Status = "requesting"
	StatusParsing        Status = "parsing"
	StatusEnforcing      Status = "enforcing"
	StatusResolvingRoles Status = "resolving_roles"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusMerging,
	StatusRequesting,
	StatusParsing,
	StatusEnforcing,
	StatusResolvingRoles,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// processingStatuses are the in-flight states a worker stamps heartbeats
// for. Sessions stuck here with expired heartbeats are reclaimed back to
// pending.
var processingStatuses = map[Status]struct{}{
	StatusMerging:        {},
	StatusRequesting:     {},
	StatusParsing:        {},
	StatusEnforcing:      {},
	StatusResolvingRoles: {},
}

// ParseStatus validates a user-supplied status string.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[status]
	return status, ok
}

// Processing reports whether the status is an in-flight pipeline state.
func (s Status) Processing() bool {
	_, ok := processingStatuses[s]
	return ok
}

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Session is the unit of pipeline work: one imported transcript.
type Session struct {
	ID            string
	Title         string
	Language      string
	ScriptVariant string
	Status        Status
	ProgressPhase string
	ErrorMessage  string
	// FallbackSegments counts cleaned segments that took the deterministic
	// fallback path, the session-level face of the per-segment quality
	// indicator.
	FallbackSegments int
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastHeartbeat    *time.Time
}

// HealthSummary aggregates session counts for diagnostics.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}
