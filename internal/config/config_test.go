package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"burnish/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "burnish", "data")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7487" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != config.Default().LLM.BaseURL {
		t.Fatalf("unexpected LLM base url: %q", cfg.LLM.BaseURL)
	}
	if cfg.Correction.MergeGapMS != 500 {
		t.Fatalf("unexpected merge gap: %d", cfg.Correction.MergeGapMS)
	}
	if cfg.Correction.Language != "zh" {
		t.Fatalf("unexpected language: %q", cfg.Correction.Language)
	}
	if cfg.Correction.ScriptVariant != "traditional" {
		t.Fatalf("unexpected script variant: %q", cfg.Correction.ScriptVariant)
	}
	if cfg.Cache.Enabled {
		t.Fatal("expected cache disabled by default")
	}
	if cfg.Workflow.HeartbeatInterval != config.Default().Workflow.HeartbeatInterval {
		t.Fatalf("unexpected heartbeat interval: %d", cfg.Workflow.HeartbeatInterval)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}

	if cfg.DatabasePath() != filepath.Join(cfg.Paths.DataDir, "burnish.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "burnish.toml")

	type payload struct {
		LLM struct {
			APIKey string `toml:"api_key"`
			Model  string `toml:"model"`
		} `toml:"llm"`
		Correction struct {
			MergeGapMS    int64  `toml:"merge_gap_ms"`
			ScriptVariant string `toml:"script_variant"`
		} `toml:"correction"`
		Workflow struct {
			HeartbeatInterval int `toml:"heartbeat_interval"`
			HeartbeatTimeout  int `toml:"heartbeat_timeout"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.LLM.APIKey = "abc123"
	custom.LLM.Model = "deepseek/deepseek-chat"
	custom.Correction.MergeGapMS = 750
	custom.Correction.ScriptVariant = "simplified"
	custom.Workflow.HeartbeatInterval = 20
	custom.Workflow.HeartbeatTimeout = 200
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.LLM.APIKey != "abc123" {
		t.Fatalf("expected LLM key from file, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "deepseek/deepseek-chat" {
		t.Fatalf("expected model override, got %q", cfg.LLM.Model)
	}
	if cfg.Correction.MergeGapMS != 750 {
		t.Fatalf("expected merge gap 750, got %d", cfg.Correction.MergeGapMS)
	}
	if cfg.Correction.ScriptVariant != "simplified" {
		t.Fatalf("expected simplified variant, got %q", cfg.Correction.ScriptVariant)
	}
	if cfg.Workflow.HeartbeatInterval != 20 {
		t.Fatalf("expected heartbeat interval 20, got %d", cfg.Workflow.HeartbeatInterval)
	}
	if cfg.Workflow.HeartbeatTimeout != 200 {
		t.Fatalf("expected heartbeat timeout 200, got %d", cfg.Workflow.HeartbeatTimeout)
	}
}

func TestEnvVarFillsMissingAPIKey(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "burnish.toml")

	type payload struct {
		LLM struct {
			Model string `toml:"model"`
		} `toml:"llm"`
	}
	custom := payload{}
	custom.LLM.Model = "deepseek/deepseek-chat"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("BURNISH_LLM_API_KEY", "env-key")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "api_key") {
		t.Fatalf("sample config missing api_key stanza: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing api key")
	}

	cfg = config.Default()
	cfg.LLM.APIKey = "key"
	cfg.Workflow.HeartbeatInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for heartbeat interval")
	}

	cfg = config.Default()
	cfg.LLM.APIKey = "key"
	cfg.Workflow.HeartbeatTimeout = cfg.Workflow.HeartbeatInterval
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when timeout <= interval")
	}

	cfg = config.Default()
	cfg.LLM.APIKey = "key"
	cfg.Workflow.Workers = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero workers")
	}

	cfg = config.Default()
	cfg.LLM.APIKey = "key"
	cfg.Cache.Enabled = true
	cfg.Cache.Addr = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when cache enabled without addr")
	}
}

func TestLoadRejectsUnknownScriptVariant(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "burnish.toml")
	body := "[llm]\napi_key = \"k\"\n[correction]\nscript_variant = \"kanji\"\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown script variant")
	}
}
