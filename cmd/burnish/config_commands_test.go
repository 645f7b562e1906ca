package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	content := string(data)
	for _, section := range []string{"[paths]", "[llm]", "[correction]", "[workflow]", "[notifications]"} {
		if !strings.Contains(content, section) {
			t.Fatalf("sample config missing %s", section)
		}
	}
}

func TestConfigInitRefusesExistingFile(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "config.toml")
	if err := os.WriteFile(target, []byte("# keep me\n"), 0o644); err != nil {
		t.Fatalf("write existing: %v", err)
	}

	_, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected refusal, got %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read existing: %v", err)
	}
	if string(data) != "# keep me\n" {
		t.Fatal("existing config was clobbered")
	}

	out, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "")
	if err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
}

func TestConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)
}
