// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down DB connections and other resources.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return closeBackends(ctx, deps, logger)
}

func closeBackends(ctx context.Context, deps DBDeps, logger *zap.Logger) error {
	deps.SessionLimiter.Stop()
	deps.Events.Close()

	var firstErr error
	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			firstErr = err
		}
	}
	if deps.Postgres != nil {
		logger.Info("closing Postgres pool")
		if err := deps.Postgres.Close(); err != nil {
			logger.Error("Postgres close failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
