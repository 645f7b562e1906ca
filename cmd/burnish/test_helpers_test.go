package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"burnish/internal/config"
	"burnish/internal/store"
	"burnish/internal/testsupport"
	"burnish/internal/transcript"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	st := testsupport.MustOpenStore(t, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		store:      st,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\napi_bind = %q\n\n[llm]\napi_key = %q\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.LLM.APIKey,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// seedCompletedSession stores a processed two-speaker session and returns it.
func seedCompletedSession(t *testing.T, st *store.Store, title string) *store.Session {
	t.Helper()
	ctx := context.Background()

	session, err := st.NewSession(ctx, title, "zh", "traditional")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	raw := []transcript.RawSegment{
		{Seq: 1, StartMS: 0, EndMS: 4000, SpeakerTag: "SPEAKER_1", Text: "你好我是你的教練"},
		{Seq: 2, StartMS: 4200, EndMS: 9000, SpeakerTag: "SPEAKER_2", Text: "最近工作壓力很大"},
	}
	if err := st.SaveRawSegments(ctx, session.ID, raw); err != nil {
		t.Fatalf("SaveRawSegments: %v", err)
	}
	cleaned := []transcript.CleanedSegment{
		{
			Seq: 1, StartMS: 0, EndMS: 4000,
			SpeakerKey: "spk:speaker_1",
			Role:       transcript.RoleCoach,
			RoleOrigin: transcript.OriginAssignment,
			Text:       "你好，我是你的教練。",
			Quality:    transcript.QualityCorrected,
			SourceSeqs: []int{1},
		},
		{
			Seq: 2, StartMS: 4200, EndMS: 9000,
			SpeakerKey: "spk:speaker_2",
			Role:       transcript.RoleClient,
			RoleOrigin: transcript.OriginAssignment,
			Text:       "最近工作壓力很大",
			Quality:    transcript.QualityFallback,
			SourceSeqs: []int{2},
		},
	}
	if _, err := st.ReplaceCleanedSegments(ctx, session.ID, cleaned, len(raw)); err != nil {
		t.Fatalf("ReplaceCleanedSegments: %v", err)
	}
	for _, a := range []transcript.SpeakerRoleAssignment{
		{SessionID: session.ID, SpeakerKey: "spk:speaker_1", Role: transcript.RoleCoach, Source: transcript.SourceInferred},
		{SessionID: session.ID, SpeakerKey: "spk:speaker_2", Role: transcript.RoleClient, Source: transcript.SourceInferred},
	} {
		if err := st.UpsertAssignment(ctx, a); err != nil {
			t.Fatalf("UpsertAssignment: %v", err)
		}
	}
	if err := st.SetCompleted(ctx, session.ID, 1); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	return session
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
