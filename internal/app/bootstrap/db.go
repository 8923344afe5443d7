// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/store/memstore"
	"github.com/dalemusser/mwanacheck/internal/app/store/mongostore"
	"github.com/dalemusser/mwanacheck/internal/app/store/sqlstore"
	"github.com/dalemusser/mwanacheck/internal/app/system/events"
	"github.com/dalemusser/mwanacheck/internal/app/system/indexes"
	"github.com/dalemusser/mwanacheck/internal/app/system/ratelimit"
	"github.com/dalemusser/mwanacheck/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 15 * time.Second

// ConnectDB opens the configured store backend and, when nats_url is set,
// the event publisher.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	deps := DBDeps{Backend: appCfg.StoreBackend}

	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch appCfg.StoreBackend {
	case BackendMongo:
		opts := options.Client().ApplyURI(appCfg.MongoURI)
		if appCfg.MongoMaxPoolSize > 0 {
			opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
		}
		client, err := mongo.Connect(cctx, opts)
		if err != nil {
			return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(cctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
		}
		db := client.Database(appCfg.MongoDatabase)
		b := mongostore.New(client, db)
		deps.MongoClient = client
		deps.MongoDatabase = db
		deps.Store = b
		deps.Audit = b.Audit
		deps.Audits = b.Audit
		logger.Info("connected to MongoDB",
			zap.String("database", appCfg.MongoDatabase),
			zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize))

	case BackendPostgres:
		db, err := sqlstore.Open(cctx, appCfg.PostgresDSN, appCfg.PostgresMaxOpen, logger)
		if err != nil {
			return DBDeps{}, err
		}
		s := sqlstore.New(db)
		deps.Postgres = db
		deps.Store = s
		deps.Audit = s
		deps.Audits = s

	case BackendMemory:
		s := memstore.New()
		deps.Store = s
		deps.Audit = s.AuditSink()
		deps.Audits = s
		logger.Info("using in-memory store")

	default:
		return DBDeps{}, fmt.Errorf("unknown store_backend %q", appCfg.StoreBackend)
	}

	if appCfg.SessionRateLimit > 0 {
		deps.SessionLimiter = ratelimit.New(appCfg.SessionRateLimit, time.Minute)
	}

	if appCfg.NatsURL != "" {
		pub, err := events.Connect(appCfg.NatsURL, appCfg.NatsSubjectPrefix, logger)
		if err != nil {
			closeBackends(context.Background(), deps, logger)
			return DBDeps{}, err
		}
		deps.Events = pub
	}
	return deps, nil
}

// EnsureSchema installs collection validators and indexes (MongoDB) or
// tables and indexes (Postgres). Both are idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	switch {
	case deps.MongoDatabase != nil:
		if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
			logger.Error("ensure validators failed", zap.Error(err))
			return err
		}
		if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
			logger.Error("ensure indexes failed", zap.Error(err))
			return err
		}
		logger.Info("MongoDB schema ready")
	case deps.Postgres != nil:
		if err := sqlstore.New(deps.Postgres).EnsureSchema(ctx); err != nil {
			logger.Error("ensure postgres schema failed", zap.Error(err))
			return err
		}
		logger.Info("Postgres schema ready")
	}
	return nil
}
