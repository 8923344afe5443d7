// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/mwanacheck/internal/app/catalog"
	"github.com/dalemusser/mwanacheck/internal/app/ledger"
	"github.com/dalemusser/mwanacheck/internal/app/roster"
	"github.com/dalemusser/mwanacheck/internal/app/store/audit"
	"github.com/dalemusser/mwanacheck/internal/app/system/auditlog"
	"github.com/dalemusser/mwanacheck/internal/app/system/events"
	"github.com/dalemusser/mwanacheck/internal/app/system/ratelimit"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is what every backend provides: the roster, the offence catalog
// and the ledger.
type Store interface {
	roster.Repository
	catalog.Repository
	ledger.Store
	Ping(ctx context.Context) error
}

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	Backend string
	Store   Store
	Audit   auditlog.Sink
	Audits  audit.Reader

	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Postgres      *bun.DB

	Events *events.Publisher // nil when publishing is disabled

	// Sign-in limiter shared by the session handler; stopped at shutdown.
	// nil when session_rate_limit is 0.
	SessionLimiter *ratelimit.Limiter
}
