package main

import (
	"context"

	config "github.com/NordCoder/Linkerus/internal/config/link-checker"
	"github.com/NordCoder/Linkerus/internal/obs"
)

func initOTel(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	otelCfg := cfg.OTEL
	if otelCfg.ServiceName == "" {
		otelCfg.ServiceName = cfg.App.Name
	}
	otelCfg.Version, otelCfg.Env = cfg.App.Version, cfg.App.Env
	closer, err := obs.SetupOTel(ctx, &otelCfg)
	if err != nil {
		return nil, err
	}
	return closer.Shutdown, nil
}
