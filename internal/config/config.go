package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// LLM contains connection settings for the correction model endpoint.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
}

// Correction contains tuning for the merge and correction passes.
type Correction struct {
	// MergeGapMS is the maximum silence between same-speaker segments that
	// still merges them, in milliseconds.
	MergeGapMS    int64  `toml:"merge_gap_ms"`
	Language      string `toml:"language"`
	ScriptVariant string `toml:"script_variant"`
	// SynonymsPath optionally points at a YAML file extending the built-in
	// role label dictionary.
	SynonymsPath string `toml:"synonyms_path"`
}

// Ingest contains tuning for ASR export decoding.
type Ingest struct {
	// WordGapMS is the silence between consecutive words of one speaker that
	// starts a new utterance when folding word-level exports.
	WordGapMS int64 `toml:"word_gap_ms"`
}

// Cache contains configuration for the correction response cache.
type Cache struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	TTLHours int    `toml:"ttl_hours"`
}

// Workflow contains configuration for daemon timing and concurrency.
type Workflow struct {
	Workers            int `toml:"workers"`
	PollInterval       int `toml:"poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completion     bool   `toml:"completion"`
	Fallback       bool   `toml:"fallback"`
	Errors         bool   `toml:"errors"`
}

// Config encapsulates all configuration values for Burnish.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - LLM: correction model connection settings
//   - Correction: merge threshold, target language, and script variant
//   - Ingest: ASR export decoding thresholds
//   - Cache: redis-backed correction response cache
//   - Workflow: daemon polling intervals, heartbeats, and worker count
//   - Logging: log format, level, and retention
//   - Notifications: ntfy push notification settings
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Correction    Correction    `toml:"correction"`
	Ingest        Ingest        `toml:"ingest"`
	Cache         Cache         `toml:"cache"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/burnish/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file was actually found; when it is false the defaults are in
// effect.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		raw, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// resolveConfigPath picks the config file to use. An explicit path wins even
// when missing; otherwise the user config dir is tried, then a burnish.toml
// in the working directory.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		switch _, err := os.Stat(expanded); {
		case err == nil:
			return expanded, true, nil
		case errors.Is(err, fs.ErrNotExist):
			return expanded, false, nil
		default:
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("burnish.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{defaultPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the transcript database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "burnish.db")
}

// expandPath resolves a leading tilde and makes the path absolute.
func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if rest, ok := strings.CutPrefix(pathValue, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		switch {
		case rest == "":
			pathValue = home
		case rest[0] == '/' || rest[0] == '\\':
			pathValue = filepath.Join(home, rest[1:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the annotated sample configuration to path, creating
// parent directories as needed.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains common LLM settings used across features.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	RetryAttempts  int
}

// GetLLM returns the correction model connection settings with string fields
// trimmed.
func (c *Config) GetLLM() LLMConfig {
	trim := strings.TrimSpace
	return LLMConfig{
		APIKey:         trim(c.LLM.APIKey),
		BaseURL:        trim(c.LLM.BaseURL),
		Model:          trim(c.LLM.Model),
		Referer:        trim(c.LLM.Referer),
		Title:          trim(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
		RetryAttempts:  c.LLM.RetryAttempts,
	}
}
