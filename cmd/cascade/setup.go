package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/elunari/cascade/pkg/cascade"
	"github.com/elunari/cascade/pkg/config"
	"github.com/elunari/cascade/pkg/logging"
	"github.com/elunari/cascade/pkg/tracker"
)

func loadConfig(path string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func newSource(cfg *config.Config, logger *zap.Logger) *cascade.Source {
	return cascade.New(cascade.Options{
		URL:          cfg.Cascade.URL,
		TTL:          cfg.Cascade.TTL,
		FetchTimeout: cfg.Cascade.FetchTimeout,
		Fallback:     cfg.Cascade.Fallback,
		Logger:       logger.Named("cascade"),
	})
}

func openTracker(cfg *config.Config) (*tracker.SQLiteTracker, error) {
	tr, err := tracker.New(cfg.Stats.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init tracker: %w", err)
	}
	return tr, nil
}
