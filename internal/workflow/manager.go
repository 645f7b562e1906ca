package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"burnish/internal/config"
	"burnish/internal/correction"
	"burnish/internal/notifications"
	"burnish/internal/pipeline"
	"burnish/internal/roles"
	"burnish/internal/services"
	"burnish/internal/services/llm"
	"burnish/internal/store"
)

// Runner executes one claimed session through to completion.
type Runner interface {
	Run(ctx context.Context, session *store.Session) (pipeline.Summary, error)
}

// Manager coordinates session processing across a pool of workers.
type Manager struct {
	cfg          *config.Config
	store        *store.Store
	logger       *slog.Logger
	runner       Runner
	notifier     notifications.Service
	pollInterval time.Duration
	retryDelay   time.Duration
	workers      int

	heartbeat *HeartbeatMonitor
	cache     *correction.Cache

	mu          sync.RWMutex
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	lastErr     error
	lastSession *store.Session
}

// NewManager constructs a workflow manager with the production pipeline:
// the configured correction model client, the optional redis reply cache,
// and the role synonym dictionary.
func NewManager(cfg *config.Config, st *store.Store, logger *slog.Logger) (*Manager, error) {
	var dict *roles.Dictionary
	if path := cfg.Correction.SynonymsPath; path != "" {
		loaded, err := roles.LoadDictionary(path)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "workflow", "init", "load role synonyms", err)
		}
		dict = loaded
	}

	var cache *correction.Cache
	if cfg.Cache.Enabled {
		cache = correction.NewCache(correction.CacheConfig{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      time.Duration(cfg.Cache.TTLHours) * time.Hour,
		}, logger)
	}

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		RetryAttempts:  cfg.LLM.RetryAttempts,
	})
	runner := pipeline.New(cfg, st, client, cache, dict, logger)
	return NewManagerWithRunner(cfg, st, logger, runner, notifications.NewService(cfg), cache), nil
}

// NewManagerWithRunner constructs a manager around a custom runner and
// notifier (used in tests).
func NewManagerWithRunner(cfg *config.Config, st *store.Store, logger *slog.Logger, runner Runner, notifier notifications.Service, cache *correction.Cache) *Manager {
	workers := cfg.Workflow.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Manager{
		cfg:          cfg,
		store:        st,
		logger:       logger,
		runner:       runner,
		notifier:     notifier,
		pollInterval: time.Duration(cfg.Workflow.PollInterval) * time.Second,
		retryDelay:   time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		workers:      workers,
		cache:        cache,
		heartbeat: NewHeartbeatMonitor(
			st,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
}

// Close releases resources held by the manager's collaborators.
func (m *Manager) Close() error {
	return m.cache.Close()
}
