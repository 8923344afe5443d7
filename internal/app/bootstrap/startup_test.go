package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/ledger"
	"github.com/dalemusser/mwanacheck/internal/app/system/auth"
	"github.com/dalemusser/mwanacheck/internal/app/system/timeouts"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

const testSecret = "test-identity-secret-0123456789abcdef"

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func memoryConfig() AppConfig {
	return AppConfig{
		StoreBackend:      BackendMemory,
		SessionKey:        "test-session-key-0123456789ABCDEFGHIJ",
		SessionName:       "mwanacheck-test",
		SessionMaxAge:     time.Hour,
		IdentityJWTSecret: testSecret,
		IdentityIssuer:    "test-idp",
		LedgerMaxAttempts: 5,
		SearchPageSize:    10,
		AuditLog:          "all",
		SeedDemo:          true,
	}
}

func TestValidateConfig(t *testing.T) {
	core := &config.CoreConfig{Env: "dev"}

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"memory ok", func(c *AppConfig) {}, false},
		{"mongo ok", func(c *AppConfig) {
			c.StoreBackend = BackendMongo
			c.MongoURI = "mongodb://localhost:27017"
			c.MongoDatabase = "mwanacheck"
		}, false},
		{"mongo missing database", func(c *AppConfig) {
			c.StoreBackend = BackendMongo
			c.MongoURI = "mongodb://localhost:27017"
			c.MongoDatabase = " "
		}, true},
		{"postgres ok", func(c *AppConfig) {
			c.StoreBackend = BackendPostgres
			c.PostgresDSN = "postgres://u:p@localhost:5432/db?sslmode=disable"
		}, false},
		{"postgres bad dsn", func(c *AppConfig) {
			c.StoreBackend = BackendPostgres
			c.PostgresDSN = "localhost:5432"
		}, true},
		{"unknown backend", func(c *AppConfig) { c.StoreBackend = "redis" }, true},
		{"short identity secret", func(c *AppConfig) { c.IdentityJWTSecret = "short" }, true},
		{"blank identity secret", func(c *AppConfig) { c.IdentityJWTSecret = "" }, false},
		{"bad audit mode", func(c *AppConfig) { c.AuditLog = "sometimes" }, true},
		{"zero attempts", func(c *AppConfig) { c.LedgerMaxAttempts = 0 }, true},
		{"zero page size", func(c *AppConfig) { c.SearchPageSize = 0 }, true},
		{"negative rate limit", func(c *AppConfig) { c.SessionRateLimit = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := memoryConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(core, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConfig_ShortSessionKeyInProd(t *testing.T) {
	cfg := memoryConfig()
	cfg.SessionKey = "too-short"
	if err := ValidateConfig(&config.CoreConfig{Env: "prod"}, cfg, testLogger()); err == nil {
		t.Error("expected error for short session key in prod")
	}
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, testLogger()); err != nil {
		t.Errorf("short session key should be allowed in dev: %v", err)
	}
}

// startApp runs the lifecycle hooks up to BuildHandler on the memory backend.
func startApp(t *testing.T) (http.Handler, DBDeps) {
	t.Helper()
	t.Cleanup(timeouts.Reset)

	ctx := context.Background()
	core := &config.CoreConfig{Env: "dev"}
	cfg := memoryConfig()

	deps, err := ConnectDB(ctx, core, cfg, testLogger())
	if err != nil {
		t.Fatalf("ConnectDB: %v", err)
	}
	if err := EnsureSchema(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := Startup(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	h, err := BuildHandler(core, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	t.Cleanup(func() { _ = Shutdown(context.Background(), core, cfg, deps, testLogger()) })
	return h, deps
}

func TestShutdown_StopsSessionLimiter(t *testing.T) {
	ctx := context.Background()
	core := &config.CoreConfig{Env: "dev"}
	cfg := memoryConfig()
	cfg.SessionRateLimit = 5

	deps, err := ConnectDB(ctx, core, cfg, testLogger())
	if err != nil {
		t.Fatalf("ConnectDB: %v", err)
	}
	if deps.SessionLimiter == nil {
		t.Fatal("expected a session limiter when session_rate_limit > 0")
	}
	if err := Shutdown(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case <-deps.SessionLimiter.Done():
	default:
		t.Error("session limiter still running after Shutdown")
	}

	cfg.SessionRateLimit = 0
	deps, err = ConnectDB(ctx, core, cfg, testLogger())
	if err != nil {
		t.Fatalf("ConnectDB: %v", err)
	}
	if deps.SessionLimiter != nil {
		t.Error("limiter created with session_rate_limit = 0")
	}
	if err := Shutdown(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Errorf("Shutdown without limiter: %v", err)
	}
}

func TestSeedDemo_Idempotent(t *testing.T) {
	_, deps := startApp(t)
	ctx := context.Background()

	if actors, err := seedDemo(ctx, deps.Store, testLogger()); err != nil || actors != nil {
		t.Fatalf("second seed = %v, %v; want a no-op", actors, err)
	}

	students, err := deps.Store.ListStudentsBySchool(ctx, demoSchoolID)
	if err != nil {
		t.Fatalf("ListStudentsBySchool: %v", err)
	}
	if len(students) != 3 {
		t.Errorf("students = %d, want 3", len(students))
	}
	offences, err := deps.Store.ListOffencesBySchool(ctx, demoSchoolID)
	if err != nil {
		t.Fatalf("ListOffencesBySchool: %v", err)
	}
	if len(offences) != len(demoOffences) {
		t.Errorf("offences = %d, want %d", len(offences), len(demoOffences))
	}
}

func bearer(t *testing.T, actor models.Actor) string {
	t.Helper()
	v, err := auth.NewIdentityVerifier(testSecret, "test-idp")
	if err != nil {
		t.Fatalf("NewIdentityVerifier: %v", err)
	}
	tok, err := v.Issue(actor, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func TestBuildHandler_Health(t *testing.T) {
	h, _ := startApp(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"backend":"memory"`) {
		t.Errorf("health body %s does not name the backend", rec.Body.String())
	}
}

func TestBuildHandler_SessionCookie(t *testing.T) {
	h, _ := startApp(t)
	actor := models.Actor{ID: "u1", Name: "Grace", Role: models.RoleAdmin, SchoolID: demoSchoolID}

	body, _ := json.Marshal(map[string]string{"token": bearer(t, actor)})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /session = %d, body %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /session = %d", rec.Code)
	}
	var got models.Actor
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "u1" || got.SchoolID != demoSchoolID {
		t.Errorf("session actor = %+v", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /session without cookie = %d, want 401", rec.Code)
	}
}

func TestBuildHandler_IssueThroughRouter(t *testing.T) {
	h, deps := startApp(t)
	ctx := context.Background()

	students, err := deps.Store.ListStudentsBySchool(ctx, demoSchoolID)
	if err != nil || len(students) == 0 {
		t.Fatalf("ListStudentsBySchool: %v (%d)", err, len(students))
	}
	offences, err := deps.Store.ListOffencesBySchool(ctx, demoSchoolID)
	if err != nil || len(offences) == 0 {
		t.Fatalf("ListOffencesBySchool: %v (%d)", err, len(offences))
	}
	student, offence := students[0], offences[0]

	teacher := bearer(t, models.Actor{ID: "t1", Name: "Peter", Role: models.RoleTeacher, SchoolID: demoSchoolID})

	body, _ := json.Marshal(map[string]string{"student_id": student.ID, "offence_id": offence.ID})
	req := httptest.NewRequest(http.MethodPost, "/discipline", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+teacher)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /discipline = %d, body %s", rec.Code, rec.Body.String())
	}
	var dr models.DisciplineRecord
	if err := json.NewDecoder(rec.Body).Decode(&dr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dr.PreviousPoints != 100 || dr.NewPoints != 100-offence.PointsToDeduct {
		t.Errorf("points %d -> %d, want 100 -> %d", dr.PreviousPoints, dr.NewPoints, 100-offence.PointsToDeduct)
	}

	req = httptest.NewRequest(http.MethodGet, "/students/"+student.ID+"/discipline", nil)
	req.Header.Set("Authorization", "Bearer "+teacher)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET history = %d, body %s", rec.Code, rec.Body.String())
	}
	var page ledger.HistoryPage[models.DisciplineRecord]
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != dr.ID {
		t.Errorf("history = %+v, want the issued record", page.Items)
	}

	admin := bearer(t, models.Actor{ID: "a1", Name: "Grace", Role: models.RoleAdmin, SchoolID: demoSchoolID})
	req = httptest.NewRequest(http.MethodGet, "/audit?event_type=discipline_issued", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /audit = %d, body %s", rec.Code, rec.Body.String())
	}
	var trail struct {
		Total int64 `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&trail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if trail.Total != 1 {
		t.Errorf("audited issues = %d, want 1", trail.Total)
	}

	// Unauthenticated writes are rejected.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/discipline", bytes.NewReader(body)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous POST /discipline = %d, want 401", rec.Code)
	}
}
