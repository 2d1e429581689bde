package main

import (
	"go.uber.org/zap"

	config "github.com/NordCoder/Linkerus/internal/config/link-checker"
	"github.com/NordCoder/Linkerus/internal/obs"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(&obs.LogConfig{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		App:    cfg.App.Name,
		Env:    cfg.App.Env,
		Ver:    cfg.App.Version,
	})
}
