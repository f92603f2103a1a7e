package root

import (
	"context"
	"fmt"

	"compass/internal/config"
	"compass/internal/engine"
	"compass/internal/logger"
	"compass/internal/storage"
)

// loadConfig merges config files, env and flags, and initialises the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if global.dbPath != "" {
		cfg.DBPath = global.dbPath
	}
	if global.logLevel != "" {
		cfg.Log.Level = global.logLevel
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openService(ctx context.Context) (*engine.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return openServiceWith(ctx, cfg)
}

func openServiceWith(ctx context.Context, cfg *config.Config) (*engine.Service, func(), error) {
	path, err := storage.ResolveDBPath(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	policy, err := engine.ParseDeletePolicy(cfg.Missions.DeletePolicy)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	svc, err := engine.NewService(ctx, db, engine.Options{DeletePolicy: policy})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}
	cleanup := func() {
		_ = db.Close()
		logger.Sync()
	}
	return svc, cleanup, nil
}
