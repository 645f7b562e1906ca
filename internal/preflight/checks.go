package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"burnish/internal/config"
	"burnish/internal/correction"
	"burnish/internal/roles"
	"burnish/internal/services/llm"
)

// CheckLLM verifies that the correction model API is reachable and the key
// is valid. It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		Model:         cfg.Model,
		Referer:       cfg.Referer,
		Title:         cfg.Title,
		RetryAttempts: 1,
	})

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckCache verifies that the configured redis instance answers a ping.
func CheckCache(ctx context.Context, cfg *config.Config) Result {
	const name = "Reply cache"

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cache := correction.NewCache(correction.CacheConfig{
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	}, nil)
	defer cache.Close()

	if err := cache.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("redis unreachable (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: "redis reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSynonyms verifies that the role synonym dictionary loads.
func CheckSynonyms(path string) Result {
	const name = "Role synonyms"
	if _, err := roles.LoadDictionary(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// summarizeLLMError produces a human-readable summary for correction model
// health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (correction API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (correction API unreachable)"
	}
	return err.Error()
}
