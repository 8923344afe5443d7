package testutil

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	pgOnce sync.Once
	pgDB   *bun.DB
	pgErr  error
)

// SetupTestPostgres returns a bun handle on a PostgreSQL container shared by
// every test in the package. The container is started on first use and
// reaped by testcontainers when the test binary exits. Tests are skipped
// when no container runtime is available.
//
// Callers own the schema and should truncate their tables before use; the
// shared database means these tests cannot run in parallel.
func SetupTestPostgres(t *testing.T) *bun.DB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	pgOnce.Do(func() {
		ctx := context.Background()
		c, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("mwanacheck"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2),
			),
		)
		if err != nil {
			pgErr = err
			return
		}
		dsn, err := c.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			pgErr = err
			return
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		pgDB = bun.NewDB(sqldb, pgdialect.New())
		pgErr = pgDB.PingContext(ctx)
	})
	require.NoError(t, pgErr, "start postgres container")
	return pgDB
}

// TruncateTables empties the named tables.
func TruncateTables(t *testing.T, db *bun.DB, tables ...string) {
	t.Helper()
	ctx, cancel := TestContext()
	defer cancel()
	for _, table := range tables {
		_, err := db.ExecContext(ctx, "TRUNCATE "+table+" RESTART IDENTITY CASCADE")
		require.NoError(t, err, "truncate %s", table)
	}
}
