// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/mwanacheck/internal/app/catalog"
	"github.com/dalemusser/mwanacheck/internal/app/directory"
	auditfeature "github.com/dalemusser/mwanacheck/internal/app/features/auditlog"
	healthfeature "github.com/dalemusser/mwanacheck/internal/app/features/health"
	ledgerfeature "github.com/dalemusser/mwanacheck/internal/app/features/ledger"
	offencesfeature "github.com/dalemusser/mwanacheck/internal/app/features/offences"
	searchfeature "github.com/dalemusser/mwanacheck/internal/app/features/search"
	sessionfeature "github.com/dalemusser/mwanacheck/internal/app/features/session"
	statsfeature "github.com/dalemusser/mwanacheck/internal/app/features/stats"
	studentsfeature "github.com/dalemusser/mwanacheck/internal/app/features/students"
	usersfeature "github.com/dalemusser/mwanacheck/internal/app/features/users"
	"github.com/dalemusser/mwanacheck/internal/app/ledger"
	"github.com/dalemusser/mwanacheck/internal/app/roster"
	"github.com/dalemusser/mwanacheck/internal/app/system/auditlog"
	"github.com/dalemusser/mwanacheck/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. It builds the services over the
// configured store, applies the actor-loading middleware, and mounts one
// chi router per feature.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	if appCfg.IdentityJWTSecret != "" {
		v, err := auth.NewIdentityVerifier(appCfg.IdentityJWTSecret, appCfg.IdentityIssuer)
		if err != nil {
			logger.Error("identity verifier init failed", zap.Error(err))
			return nil, err
		}
		sessionMgr.SetVerifier(v)
	} else {
		logger.Warn("identity_jwt_secret not set; sign-in is disabled")
	}

	auditLog := auditlog.New(deps.Audit, logger, appCfg.AuditLog)
	auditLog.TrustProxyHeaders(appCfg.TrustProxy)

	ledgerCfg := ledger.Config{
		MaxAttempts: appCfg.LedgerMaxAttempts,
		Timeout:     appCfg.LedgerTimeout,
		Audit:       auditLog,
	}
	if deps.Events != nil {
		ledgerCfg.Events = deps.Events
	}

	cat := catalog.New(deps.Store, logger)
	ro := roster.New(deps.Store, logger)
	led := ledger.New(deps.Store, ledgerCfg, logger)
	dir := directory.New(deps.Store, appCfg.SearchPageSize, logger)

	r := chi.NewRouter()

	// Loads the actor from a bearer token or the session cookie.
	r.Use(sessionMgr.LoadActor)

	healthHandler := healthfeature.NewHandler(deps.Store, deps.Backend, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	sessionHandler := sessionfeature.NewHandler(sessionMgr, auditLog, logger)
	sessionHandler.Limiter = deps.SessionLimiter
	sessionHandler.TrustProxy = appCfg.TrustProxy
	r.Mount("/session", sessionfeature.Routes(sessionHandler))

	offencesHandler := offencesfeature.NewHandler(cat, auditLog, logger)
	r.Mount("/offences", offencesfeature.Routes(offencesHandler))

	// Ledger writes
	ledgerHandler := ledgerfeature.NewHandler(led, ro, logger)
	r.Mount("/discipline", ledgerfeature.DisciplineRoutes(ledgerHandler))
	r.Mount("/merits", ledgerfeature.MeritRoutes(ledgerHandler))
	r.Mount("/payments", ledgerfeature.PaymentRoutes(ledgerHandler))

	// Roster and ledger history reads
	studentsHandler := studentsfeature.NewHandler(ro, led, logger)
	r.Mount("/students", studentsfeature.Routes(studentsHandler))

	usersHandler := usersfeature.NewHandler(ro, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler))

	searchHandler := searchfeature.NewHandler(dir, appCfg.SearchPageSize, logger)
	r.Mount("/search", searchfeature.Routes(searchHandler))

	statsHandler := statsfeature.NewHandler(led, logger)
	r.Mount("/stats", statsfeature.Routes(statsHandler))

	auditHandler := auditfeature.NewHandler(deps.Audits, logger)
	r.Mount("/audit", auditfeature.Routes(auditHandler))

	return r, nil
}
