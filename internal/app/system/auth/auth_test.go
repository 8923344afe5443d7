package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/system/auth"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testSecret = "test-identity-secret-must-be-32-chars"

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	v, err := auth.NewIdentityVerifier(testSecret, "mwanacheck-idp")
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}
	sm.SetVerifier(v)
	return sm
}

func teacher() models.Actor {
	return models.Actor{ID: "u1", Name: "Jane Smith", Role: models.RoleTeacher, SchoolID: "school1"}
}

// echoActor writes the actor id, or "anonymous".
var echoActor = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	a, ok := auth.CurrentActor(r)
	if !ok {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(a.ID + "/" + a.Role + "/" + a.SchoolID))
})

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestRequireSignedIn(t *testing.T) {
	handler := auth.RequireSignedIn(echoActor)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/offences", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/offences", nil)
	req = req.WithContext(auth.WithActor(req.Context(), teacher()))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("signed in: status %d, want 200", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := auth.RequireRole(models.RoleAdmin, " Teacher ")(echoActor)

	tests := []struct {
		name  string
		actor *models.Actor
		want  int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"teacher", &models.Actor{ID: "1", Role: "teacher"}, http.StatusOK},
		{"admin upper case", &models.Actor{ID: "1", Role: "ADMIN"}, http.StatusOK},
		{"parent", &models.Actor{ID: "1", Role: "parent"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/discipline", nil)
			if tt.actor != nil {
				req = req.WithContext(auth.WithActor(req.Context(), *tt.actor))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLoadActor_SessionRoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	if err := sm.Save(rec, httptest.NewRequest(http.MethodPost, "/session", nil), teacher()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie set")
	}

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	sm.LoadActor(echoActor).ServeHTTP(rec, req)
	if got := rec.Body.String(); got != "u1/teacher/school1" {
		t.Errorf("actor = %q", got)
	}
}

func TestLoadActor_Clear(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	if err := sm.Clear(rec, httptest.NewRequest(http.MethodDelete, "/session", nil)); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			t.Errorf("cookie %s not expired: MaxAge %d", c.Name, c.MaxAge)
		}
	}
}

func TestLoadActor_Bearer(t *testing.T) {
	sm := newTestSessionManager(t)
	token, err := sm.Verifier().Issue(teacher(), time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer " + token, "u1/teacher/school1"},
		{"lower case scheme", "bearer " + token, "u1/teacher/school1"},
		{"garbage", "Bearer not.a.token", "anonymous"},
		{"basic auth", "Basic dXNlcjpwYXNz", "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()
			sm.LoadActor(echoActor).ServeHTTP(rec, req)
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("actor = %q, want %q", got, tt.want)
			}
		})
	}
}

func sign(t *testing.T, method jwt.SigningMethod, key any, c auth.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, c).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestIdentityVerifier(t *testing.T) {
	v, err := auth.NewIdentityVerifier(testSecret, "mwanacheck-idp")
	if err != nil {
		t.Fatalf("NewIdentityVerifier failed: %v", err)
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))
	base := func() auth.Claims {
		return auth.Claims{
			Name:     "Jane",
			Role:     "teacher",
			SchoolID: "school1",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u1",
				Issuer:    "mwanacheck-idp",
				ExpiresAt: exp,
			},
		}
	}

	tests := []struct {
		name   string
		token  func() string
		wantOK bool
	}{
		{"valid", func() string { return sign(t, jwt.SigningMethodHS256, []byte(testSecret), base()) }, true},
		{"wrong secret", func() string {
			return sign(t, jwt.SigningMethodHS256, []byte("another-secret-that-is-32-chars-long"), base())
		}, false},
		{"wrong algorithm", func() string { return sign(t, jwt.SigningMethodHS512, []byte(testSecret), base()) }, false},
		{"expired", func() string {
			c := base()
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			return sign(t, jwt.SigningMethodHS256, []byte(testSecret), c)
		}, false},
		{"no expiry", func() string {
			c := base()
			c.ExpiresAt = nil
			return sign(t, jwt.SigningMethodHS256, []byte(testSecret), c)
		}, false},
		{"wrong issuer", func() string {
			c := base()
			c.Issuer = "someone-else"
			return sign(t, jwt.SigningMethodHS256, []byte(testSecret), c)
		}, false},
		{"unknown role", func() string {
			c := base()
			c.Role = "janitor"
			return sign(t, jwt.SigningMethodHS256, []byte(testSecret), c)
		}, false},
		{"no school", func() string {
			c := base()
			c.SchoolID = ""
			return sign(t, jwt.SigningMethodHS256, []byte(testSecret), c)
		}, false},
		{"student without student id", func() string {
			c := base()
			c.Role = "student"
			return sign(t, jwt.SigningMethodHS256, []byte(testSecret), c)
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := v.Verify(tt.token())
			if tt.wantOK {
				if err != nil {
					t.Fatalf("Verify failed: %v", err)
				}
				if a.ID != "u1" || a.Role != "teacher" || a.SchoolID != "school1" {
					t.Errorf("actor = %+v", a)
				}
				return
			}
			if !errors.Is(err, auth.ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNewIdentityVerifier_ShortSecret(t *testing.T) {
	if _, err := auth.NewIdentityVerifier("short", ""); err == nil {
		t.Error("expected error for short secret")
	}
}
