package api_test

import (
	"context"
	"errors"
	"testing"

	"burnish/internal/api"
	"burnish/internal/store"
	"burnish/internal/testsupport"
	"burnish/internal/transcript"
)

func newService(t *testing.T) (*api.SessionService, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	return api.NewSessionService(st), st
}

func seedCompletedSession(t *testing.T, st *store.Store) *store.Session {
	t.Helper()
	ctx := context.Background()
	session := testsupport.NewSession(t, st, "weekly check-in")
	raw := []transcript.RawSegment{
		{Seq: 1, StartMS: 0, EndMS: 3000, SpeakerTag: "Speaker_1", Text: "你 今天 想 聊 什麼"},
		{Seq: 2, StartMS: 3500, EndMS: 7000, SpeakerTag: "Speaker_2", Text: "工作 上 的 壓力"},
	}
	testsupport.SeedRawSegments(t, st, session.ID, raw)
	cleaned := []transcript.CleanedSegment{
		{Seq: 1, StartMS: 0, EndMS: 3000, SpeakerKey: "spk:speaker_1", Role: transcript.RoleCoach, RoleOrigin: transcript.OriginAssignment, Text: "你今天想聊什麼？", Quality: transcript.QualityCorrected, SourceSeqs: []int{1}},
		{Seq: 2, StartMS: 3500, EndMS: 7000, SpeakerKey: "spk:speaker_2", Role: transcript.RoleClient, RoleOrigin: transcript.OriginAssignment, Text: "工作上的壓力。", Quality: transcript.QualityCorrected, SourceSeqs: []int{2}},
	}
	persisted, err := st.ReplaceCleanedSegments(ctx, session.ID, cleaned, len(raw))
	if err != nil || !persisted {
		t.Fatalf("seed cleaned segments: persisted=%v err=%v", persisted, err)
	}
	if err := st.SetCompleted(ctx, session.ID, 0); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	return session
}

func TestListAndDescribe(t *testing.T) {
	svc, st := newService(t)
	session := seedCompletedSession(t, st)
	ctx := context.Background()

	sessions, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != session.ID {
		t.Fatalf("unexpected list: %+v", sessions)
	}
	if sessions[0].Status != "completed" {
		t.Fatalf("unexpected status: %q", sessions[0].Status)
	}

	detail, err := svc.Describe(ctx, session.ID)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if detail.Session.Title != "weekly check-in" {
		t.Fatalf("unexpected title: %q", detail.Session.Title)
	}

	if _, err := svc.Describe(ctx, "no-such-session"); !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTranscriptCarriesRolesAndQuality(t *testing.T) {
	svc, st := newService(t)
	session := seedCompletedSession(t, st)

	resp, err := svc.Transcript(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if len(resp.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(resp.Segments))
	}
	if resp.Segments[0].Role != "coach" || resp.Segments[1].Role != "client" {
		t.Fatalf("roles lost in transit: %+v", resp.Segments)
	}
	if resp.Segments[0].Quality != "corrected" {
		t.Fatalf("quality lost in transit: %+v", resp.Segments[0])
	}
}

func TestOverrideSegmentFormPins(t *testing.T) {
	svc, st := newService(t)
	session := seedCompletedSession(t, st)
	ctx := context.Background()

	resp, err := svc.Override(ctx, session.ID, api.OverrideRequest{SegmentSeq: 2, Role: "coach"})
	if err != nil {
		t.Fatalf("Override: %v", err)
	}
	if resp.SegmentsUpdated != 1 {
		t.Fatalf("expected one segment updated, got %d", resp.SegmentsUpdated)
	}

	segments, _ := st.CleanedSegments(ctx, session.ID)
	if segments[1].Role != transcript.RoleCoach || segments[1].RoleOrigin != transcript.OriginOverride {
		t.Fatalf("segment not pinned: %+v", segments[1])
	}
	// The sibling segment keeps its role.
	if segments[0].Role != transcript.RoleCoach || segments[0].RoleOrigin != transcript.OriginAssignment {
		t.Fatalf("sibling segment disturbed: %+v", segments[0])
	}
}

func TestOverrideSpeakerFormRefreshesNonPinned(t *testing.T) {
	svc, st := newService(t)
	session := seedCompletedSession(t, st)
	ctx := context.Background()

	// Pin segment 2 first; the speaker-form override must not touch it.
	if _, err := svc.Override(ctx, session.ID, api.OverrideRequest{SegmentSeq: 2, Role: "unknown"}); err != nil {
		t.Fatalf("pin: %v", err)
	}
	resp, err := svc.Override(ctx, session.ID, api.OverrideRequest{Speaker: "Speaker 2", Role: "coach"})
	if err != nil {
		t.Fatalf("Override: %v", err)
	}
	if resp.SpeakerKey != "spk:speaker_2" {
		t.Fatalf("speaker name not normalized: %q", resp.SpeakerKey)
	}
	if resp.SegmentsUpdated != 0 {
		t.Fatalf("pinned segment must be skipped, updated=%d", resp.SegmentsUpdated)
	}

	assignments, _ := st.Assignments(ctx, session.ID)
	var found bool
	for _, a := range assignments {
		if a.SpeakerKey == "spk:speaker_2" {
			found = true
			if a.Role != transcript.RoleCoach || a.Source != transcript.SourceManual {
				t.Fatalf("unexpected assignment: %+v", a)
			}
		}
	}
	if !found {
		t.Fatal("manual assignment not persisted")
	}
}

func TestOverrideValidation(t *testing.T) {
	svc, st := newService(t)
	session := seedCompletedSession(t, st)
	ctx := context.Background()

	cases := []struct {
		name string
		req  api.OverrideRequest
	}{
		{"bad role", api.OverrideRequest{SegmentSeq: 1, Role: "therapist"}},
		{"neither form", api.OverrideRequest{Role: "coach"}},
		{"both forms", api.OverrideRequest{SegmentSeq: 1, Speaker: "A", Role: "coach"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Override(ctx, session.ID, tc.req); !errors.Is(err, api.ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}

	if _, err := svc.Override(ctx, session.ID, api.OverrideRequest{SegmentSeq: 99, Role: "coach"}); !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing segment, got %v", err)
	}
	if _, err := svc.Override(ctx, "no-such-session", api.OverrideRequest{SegmentSeq: 1, Role: "coach"}); !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing session, got %v", err)
	}
}

func TestEditSegmentText(t *testing.T) {
	svc, st := newService(t)
	session := seedCompletedSession(t, st)
	ctx := context.Background()

	if err := svc.EditSegmentText(ctx, session.ID, 1, "你今天想聊什麼主題？"); err != nil {
		t.Fatalf("EditSegmentText: %v", err)
	}
	segments, _ := st.CleanedSegments(ctx, session.ID)
	if segments[0].Text != "你今天想聊什麼主題？" || !segments[0].Edited {
		t.Fatalf("edit not recorded: %+v", segments[0])
	}

	if err := svc.EditSegmentText(ctx, session.ID, 1, "   "); !errors.Is(err, api.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for blank text, got %v", err)
	}
	if err := svc.EditSegmentText(ctx, session.ID, 99, "text"); !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAndReprocess(t *testing.T) {
	svc, st := newService(t)
	session := seedCompletedSession(t, st)
	ctx := context.Background()

	if err := svc.Reprocess(ctx, session.ID); err != nil {
		t.Fatalf("Reprocess: %v", err)
	}
	got, _ := st.GetSession(ctx, session.ID)
	if got.Status != store.StatusPending {
		t.Fatalf("expected pending after reprocess, got %s", got.Status)
	}

	if err := svc.Delete(ctx, session.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, session.ID); !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestHealthCounts(t *testing.T) {
	svc, st := newService(t)
	seedCompletedSession(t, st)
	testsupport.NewSession(t, st, "still pending")

	health, err := svc.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 2 || health.Completed != 1 || health.Pending != 1 {
		t.Fatalf("unexpected counts: %+v", health)
	}
}
