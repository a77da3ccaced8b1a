package main

import (
	"log/slog"
	"strings"
	"sync"

	"aquanexa/internal/api"
	"aquanexa/internal/config"
	"aquanexa/internal/ingest"
	"aquanexa/internal/logging"
	"aquanexa/internal/unify"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	storesOnce sync.Once
	catalog    *ingest.Store
	aggregates *unify.Store
	service    *api.Service
	logger     *slog.Logger
	storesErr  error
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

// ensureService lazily opens both stores and the logger, shared by every
// command that touches data.
func (c *commandContext) ensureService() (*api.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.storesOnce.Do(func() {
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.storesErr = err
			return
		}
		catalog, err := ingest.Open(cfg)
		if err != nil {
			c.storesErr = err
			return
		}
		aggregates, err := unify.Open(cfg)
		if err != nil {
			_ = catalog.Close()
			c.storesErr = err
			return
		}
		c.logger = logger
		c.catalog = catalog
		c.aggregates = aggregates
		c.service = api.NewService(cfg, catalog, aggregates, logger)
	})
	return c.service, c.storesErr
}

func (c *commandContext) close() {
	if c.aggregates != nil {
		_ = c.aggregates.Close()
		c.aggregates = nil
	}
	if c.catalog != nil {
		_ = c.catalog.Close()
		c.catalog = nil
	}
}
