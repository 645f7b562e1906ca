package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"burnish/internal/logging"
	"burnish/internal/pipeline"
	"burnish/internal/store"
	"burnish/internal/testsupport"
	"burnish/internal/transcript"
)

type fakeCorrector struct {
	reply string
	err   error
	calls int
}

func (f *fakeCorrector) Correct(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newPipeline(t *testing.T, corrector pipeline.Corrector) (*pipeline.Pipeline, *store.Store, *store.Session) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	session := testsupport.NewSession(t, st, "coaching session")
	return pipeline.New(cfg, st, corrector, nil, nil, logging.NewNop()), st, session
}

func seedConversation(t *testing.T, st *store.Store, sessionID string) {
	t.Helper()
	testsupport.SeedRawSegments(t, st, sessionID, []transcript.RawSegment{
		{Seq: 1, StartMS: 0, EndMS: 4000, SpeakerTag: "Speaker_1", Text: "好 ， 你好 ， 我 是 你 的 教練"},
		{Seq: 2, StartMS: 5000, EndMS: 8000, SpeakerTag: "Speaker_2", Text: "只是 想 說 這個 問題"},
	})
}

func assertNoInterCJKSpace(t *testing.T, text string) {
	t.Helper()
	runes := []rune(text)
	for i := 1; i < len(runes)-1; i++ {
		if runes[i] != ' ' {
			continue
		}
		if runes[i-1] >= 0x4E00 && runes[i-1] <= 0x9FFF && runes[i+1] >= 0x4E00 && runes[i+1] <= 0x9FFF {
			t.Fatalf("inter-CJK space survived in %q", text)
		}
	}
}

func TestRunEndToEndWithCorrection(t *testing.T) {
	corrector := &fakeCorrector{reply: `{
  "speakers": {"Speaker_1": "coach", "Speaker_2": "client"},
  "segments": [
    {"speaker": "Speaker_1", "text": "好，你好，我是你的教練。"},
    {"speaker": "Speaker_2", "text": "只是想說這個問題。"}
  ]
}`}
	p, st, session := newPipeline(t, corrector)
	seedConversation(t, st, session.ID)
	ctx := context.Background()

	summary, err := p.Run(ctx, session)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Degraded || !summary.Persisted {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.FallbackSegments != 0 {
		t.Fatalf("expected no fallback segments, got %d", summary.FallbackSegments)
	}

	got, err := st.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Status != store.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}

	segments, err := st.CleanedSegments(ctx, session.ID)
	if err != nil {
		t.Fatalf("CleanedSegments: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 cleaned segments, got %d", len(segments))
	}
	if segments[0].Text != "好，你好，我是你的教練。" {
		t.Fatalf("unexpected first text: %q", segments[0].Text)
	}
	if segments[1].Text != "只是想說這個問題。" {
		t.Fatalf("unexpected second text: %q", segments[1].Text)
	}
	if segments[0].Role != transcript.RoleCoach || segments[1].Role != transcript.RoleClient {
		t.Fatalf("unexpected roles: %s / %s", segments[0].Role, segments[1].Role)
	}
	for _, seg := range segments {
		if seg.Quality != transcript.QualityCorrected {
			t.Fatalf("expected corrected quality: %+v", seg)
		}
		assertNoInterCJKSpace(t, seg.Text)
	}
}

func TestRunTotalCollaboratorFailureStillCompletes(t *testing.T) {
	corrector := &fakeCorrector{err: errors.New("upstream down")}
	p, st, session := newPipeline(t, corrector)
	seedConversation(t, st, session.ID)
	ctx := context.Background()

	summary, err := p.Run(ctx, session)
	if err != nil {
		t.Fatalf("collaborator failure must not fail the run: %v", err)
	}
	if !summary.Degraded || summary.FallbackSegments != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	got, _ := st.GetSession(ctx, session.ID)
	if got.Status != store.StatusCompleted {
		t.Fatalf("expected completed, got %s (error=%q)", got.Status, got.ErrorMessage)
	}
	if got.FallbackSegments != 2 {
		t.Fatalf("fallback count not recorded: %+v", got)
	}

	segments, _ := st.CleanedSegments(ctx, session.ID)
	if len(segments) != 2 {
		t.Fatalf("no segment may be dropped, got %d", len(segments))
	}
	if segments[0].Text != "好，你好，我是你的教練" {
		t.Fatalf("deterministic cleanup missing: %q", segments[0].Text)
	}
	for _, seg := range segments {
		if seg.Quality != transcript.QualityFallback {
			t.Fatalf("expected fallback quality: %+v", seg)
		}
		if seg.Role != transcript.RoleUnknown {
			t.Fatalf("no evidence must resolve to unknown, got %s", seg.Role)
		}
		assertNoInterCJKSpace(t, seg.Text)
	}
}

func TestRunUnusableReplyDegrades(t *testing.T) {
	corrector := &fakeCorrector{reply: "Sorry, I cannot help with that."}
	p, st, session := newPipeline(t, corrector)
	seedConversation(t, st, session.ID)

	summary, err := p.Run(context.Background(), session)
	if err != nil {
		t.Fatalf("parse failure must not fail the run: %v", err)
	}
	if !summary.Degraded {
		t.Fatalf("expected degraded run: %+v", summary)
	}
	segments, _ := st.CleanedSegments(context.Background(), session.ID)
	for _, seg := range segments {
		if seg.Quality != transcript.QualityFallback {
			t.Fatalf("expected fallback quality: %+v", seg)
		}
	}
}

func TestRunManualAssignmentWinsOverCorrectionHint(t *testing.T) {
	corrector := &fakeCorrector{reply: `{
  "speakers": {"Speaker_1": "client", "Speaker_2": "coach"},
  "segments": [
    {"speaker": "Speaker_1", "text": "好，你好，我是你的教練。"},
    {"speaker": "Speaker_2", "text": "只是想說這個問題。"}
  ]
}`}
	p, st, session := newPipeline(t, corrector)
	seedConversation(t, st, session.ID)
	ctx := context.Background()

	err := st.UpsertAssignment(ctx, transcript.SpeakerRoleAssignment{
		SessionID:  session.ID,
		SpeakerKey: "spk:speaker_1",
		Role:       transcript.RoleCoach,
		Source:     transcript.SourceManual,
	})
	if err != nil {
		t.Fatalf("UpsertAssignment: %v", err)
	}

	if _, err := p.Run(ctx, session); err != nil {
		t.Fatalf("Run: %v", err)
	}

	segments, _ := st.CleanedSegments(ctx, session.ID)
	if segments[0].Role != transcript.RoleCoach {
		t.Fatalf("manual assignment overridden by correction hint: %+v", segments[0])
	}

	assignments, _ := st.Assignments(ctx, session.ID)
	for _, a := range assignments {
		if a.SpeakerKey == "spk:speaker_1" && (a.Role != transcript.RoleCoach || a.Source != transcript.SourceManual) {
			t.Fatalf("manual assignment mutated: %+v", a)
		}
	}
}

func TestRunEmptySessionCompletes(t *testing.T) {
	corrector := &fakeCorrector{reply: "irrelevant"}
	p, st, session := newPipeline(t, corrector)

	summary, err := p.Run(context.Background(), session)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Segments != 0 || summary.Degraded {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if corrector.calls != 0 {
		t.Fatalf("empty session must not call the collaborator")
	}
	got, _ := st.GetSession(context.Background(), session.ID)
	if got.Status != store.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
}

func TestRunPinnedSegmentSurvivesReprocess(t *testing.T) {
	corrector := &fakeCorrector{err: errors.New("down")}
	p, st, session := newPipeline(t, corrector)
	seedConversation(t, st, session.ID)
	ctx := context.Background()

	if _, err := p.Run(ctx, session); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := st.PinSegmentRole(ctx, session.ID, 2, transcript.RoleClient); err != nil {
		t.Fatalf("PinSegmentRole: %v", err)
	}

	if err := st.RetrySession(ctx, session.ID); err != nil {
		t.Fatalf("RetrySession: %v", err)
	}
	if _, err := p.Run(ctx, session); err != nil {
		t.Fatalf("second run: %v", err)
	}

	segments, _ := st.CleanedSegments(ctx, session.ID)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[1].Role != transcript.RoleClient || segments[1].RoleOrigin != transcript.OriginOverride {
		t.Fatalf("pin lost across reprocess: %+v", segments[1])
	}
}

func TestRunMixedScriptFallbackKeepsLatinSpacing(t *testing.T) {
	corrector := &fakeCorrector{err: errors.New("down")}
	p, st, session := newPipeline(t, corrector)
	testsupport.SeedRawSegments(t, st, session.ID, []transcript.RawSegment{
		{Seq: 1, StartMS: 0, EndMS: 1000, SpeakerTag: "A", Text: "我 上週 用 Excel 做 了 報表"},
	})

	if _, err := p.Run(context.Background(), session); err != nil {
		t.Fatalf("Run: %v", err)
	}
	segments, _ := st.CleanedSegments(context.Background(), session.ID)
	if !strings.Contains(segments[0].Text, " Excel ") {
		t.Fatalf("latin spacing lost: %q", segments[0].Text)
	}
	assertNoInterCJKSpace(t, segments[0].Text)
}
