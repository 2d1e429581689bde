package main

import (
	"context"

	"go.uber.org/zap"

	config "github.com/NordCoder/Linkerus/internal/config/link-checker"
	pg "github.com/NordCoder/Linkerus/internal/repository/postgres"
)

// initArchive connects the run archive. It returns nil when db.enable is off.
func initArchive(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pg.DB, *pg.RunRepoImpl, error) {
	if !cfg.DB.Enable {
		return nil, nil, nil
	}
	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("run archive connected")
	return db, pg.NewRunRepo(db, pg.NewTransactor(db, logger)), nil
}
