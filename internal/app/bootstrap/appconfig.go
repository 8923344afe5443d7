// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// Store backends selectable with store_backend.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (MWANACHECK_*),
// configuration files, or command-line flags (loaded in LoadConfig).
// WAFFLE's CoreConfig covers ports, TLS, logging and CORS; everything
// specific to MwanaCheck lives here and is passed to every lifecycle hook.
type AppConfig struct {
	// Store backend: "mongo", "postgres" or "memory"
	StoreBackend string

	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64

	// Postgres (only used if StoreBackend is "postgres")
	PostgresDSN     string
	PostgresMaxOpen int

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: mwanacheck-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Sign-in attempts allowed per client IP per minute; 0 disables the limit
	SessionRateLimit int

	// Read client IPs from X-Forwarded-For / X-Real-IP; only set behind a reverse proxy
	TrustProxy bool

	// Identity tokens exchanged for sessions and accepted as bearer tokens
	IdentityJWTSecret string
	IdentityIssuer    string

	// Post-commit events; blank NatsURL disables publishing
	NatsURL           string
	NatsSubjectPrefix string

	// Ledger
	LedgerMaxAttempts int
	LedgerTimeout     time.Duration

	SearchPageSize int

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLog string

	// Seed a demo school on startup when the store is empty
	SeedDemo bool
}
