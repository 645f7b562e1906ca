package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"burnish/internal/api"
	"burnish/internal/config"
	"burnish/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the session database for one command invocation. The CLI
// and the daemon share the database; WAL mode and busy retries keep the
// concurrent access safe.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st)
}

// withService wraps withStore with the shared session service, so CLI
// commands and HTTP handlers run the exact same operations.
func (c *commandContext) withService(fn func(*config.Config, *api.SessionService) error) error {
	return c.withStore(func(cfg *config.Config, st *store.Store) error {
		return fn(cfg, api.NewSessionService(st))
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
