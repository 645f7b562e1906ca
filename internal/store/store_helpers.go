package store

import (
	"database/sql"
	"time"
)

const sessionColumns = "id, title, language, script_variant, status, progress_phase, error_message, fallback_segments, created_at, updated_at, last_heartbeat"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id            string
		title         string
		language      string
		scriptVariant string
		statusStr     string
		progressPhase sql.NullString
		errorMessage  sql.NullString
		fallbackSegs  sql.NullInt64
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
		heartbeatRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&language,
		&scriptVariant,
		&statusStr,
		&progressPhase,
		&errorMessage,
		&fallbackSegs,
		&createdRaw,
		&updatedRaw,
		&heartbeatRaw,
	); err != nil {
		return nil, err
	}

	session := &Session{
		ID:               id,
		Title:            title,
		Language:         language,
		ScriptVariant:    scriptVariant,
		Status:           Status(statusStr),
		ProgressPhase:    progressPhase.String,
		ErrorMessage:     errorMessage.String,
		FallbackSegments: int(fallbackSegs.Int64),
		CreatedAt:        parseTime(createdRaw),
		UpdatedAt:        parseTime(updatedRaw),
	}
	if heartbeatRaw.Valid {
		if ts := parseTime(heartbeatRaw); !ts.IsZero() {
			session.LastHeartbeat = &ts
		}
	}
	return session, nil
}

func parseTime(value sql.NullString) time.Time {
	if !value.Valid || value.String == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
