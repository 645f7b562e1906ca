// Package api defines wire-format types and session operations for the HTTP
// API layer. It translates internal store models into transport-friendly DTOs
// so UI consumers never couple to internal types.
//
// # Key Types
//
// Session: transport representation of a session with status, progress,
// and fallback-quality counts.
//
// TranscriptSegment: one cleaned segment with role, quality, and timing.
//
// WorkflowStatus/DaemonStatus: daemon running state and session stats.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (store.Status, transcript.Role) are exposed as lowercase strings.
// Timestamps use RFC3339 with milliseconds.
//
// SessionService carries the write operations the HTTP handlers and the CLI
// share: role overrides (segment pin or speaker-name assignment), hand edits
// of segment text, deletes, and reprocess requests. Overrides never re-run
// correction; reprocess re-runs the whole pipeline while manual assignments
// and pinned segments survive.
package api
