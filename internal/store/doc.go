// Package store persists transcript sessions in SQLite.
//
// A session row tracks pipeline status and heartbeats; raw segments are the
// immutable ASR input, cleaned segments the exported output, and role
// assignments bind normalized speaker keys to roles. Assignment precedence
// (manual always wins over inference) is enforced in SQL so every writer
// goes through the same rule. All timestamps are stored as RFC3339Nano UTC
// strings.
package store
