package testsupport

import (
	"path/filepath"
	"testing"

	"burnish/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.LLM.APIKey = "test"
	cfg.Cache.Enabled = false

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithLLM overrides the correction model settings on the test config.
func WithLLM(llm config.LLM) ConfigOption {
	return func(cfg *config.Config) {
		cfg.LLM = llm
	}
}

// WithMergeGap overrides the merge-gap threshold on the test config.
func WithMergeGap(ms int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Correction.MergeGapMS = ms
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
