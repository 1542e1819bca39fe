package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/carogaltier/medscheduler/internal/config"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg    *config.Config
	Env    string
	Logger *zap.Logger
	Ctx    context.Context
}

// configWithSeed returns a copy of the loaded config, with --seed applied when given
func (a *AppContext) configWithSeed(seed *uint64) (*config.Config, error) {
	cfg, err := a.Cfg.Clone()
	if err != nil {
		return nil, err
	}
	if seed != nil {
		s := *seed
		cfg.Seed = &s
	}
	return cfg, nil
}
