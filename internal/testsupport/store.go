package testsupport

import (
	"context"
	"testing"

	"burnish/internal/config"
	"burnish/internal/store"
	"burnish/internal/transcript"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewSession creates a pending session for tests using the provided store.
func NewSession(t testing.TB, st *store.Store, title string) *store.Session {
	t.Helper()

	session, err := st.NewSession(context.Background(), title, "zh", "traditional")
	if err != nil {
		t.Fatalf("store.NewSession: %v", err)
	}
	return session
}

// SeedRawSegments stores raw segments on a session for tests.
func SeedRawSegments(t testing.TB, st *store.Store, sessionID string, segments []transcript.RawSegment) {
	t.Helper()

	if err := st.SaveRawSegments(context.Background(), sessionID, segments); err != nil {
		t.Fatalf("store.SaveRawSegments: %v", err)
	}
}
