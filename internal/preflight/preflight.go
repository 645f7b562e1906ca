package preflight

import (
	"context"
	"strings"

	"burnish/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Advisory marks checks whose failure degrades processing instead of
	// blocking it. The pipeline survives a dead correction model or cache;
	// it cannot survive an unwritable data directory.
	Advisory bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if path := strings.TrimSpace(cfg.Correction.SynonymsPath); path != "" {
		results = append(results, CheckSynonyms(path))
	}

	llmCheck := CheckLLM(ctx, "Correction model", cfg.GetLLM())
	llmCheck.Advisory = true
	results = append(results, llmCheck)

	if cfg.Cache.Enabled {
		cacheCheck := CheckCache(ctx, cfg)
		cacheCheck.Advisory = true
		results = append(results, cacheCheck)
	}

	return results
}

// BlockingFailures filters results down to the failures that should stop
// the daemon from starting.
func BlockingFailures(results []Result) []Result {
	var blocking []Result
	for _, r := range results {
		if !r.Passed && !r.Advisory {
			blocking = append(blocking, r)
		}
	}
	return blocking
}
