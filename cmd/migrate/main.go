package main

import (
	"context"

	"storefront/internal/config"
	"storefront/internal/logging"
	"storefront/internal/migrate"
	"storefront/internal/storage"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).WithField("cmd", "migrate")

	ctx := context.Background()
	pool, err := storage.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.WithError(err).Fatal("connect db")
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.WithError(err).Fatal("apply migrations")
	}

	version, err := migrate.Version(ctx, pool)
	if err != nil {
		logger.WithError(err).Warn("migrations applied, version unknown")
		return
	}
	logger.WithField("version", version).Info("migrations applied")
}
