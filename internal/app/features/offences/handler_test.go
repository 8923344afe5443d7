package offences_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/mwanacheck/internal/app/catalog"
	"github.com/dalemusser/mwanacheck/internal/app/features/offences"
	"github.com/dalemusser/mwanacheck/internal/app/store/memstore"
	"github.com/dalemusser/mwanacheck/internal/app/system/auditlog"
	"github.com/dalemusser/mwanacheck/internal/testutil"
	"go.uber.org/zap"
)

type offenceJSON struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PointsToDeduct int    `json:"points_to_deduct"`
	Severity       string `json:"severity"`
}

func setup(t *testing.T) (http.Handler, *memstore.Store, *testutil.Fixtures) {
	t.Helper()
	st := memstore.New()
	h := offences.NewHandler(catalog.New(st, zap.NewNop()), auditlog.New(st.AuditSink(), zap.NewNop(), auditlog.ModeDB), zap.NewNop())
	return offences.Routes(h), st, testutil.NewFixtures(t, st)
}

func TestCreate(t *testing.T) {
	router, st, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	school := fx.CreateSchool(ctx, "S")

	body := map[string]any{"name": "Fighting", "description": "Physical altercation", "points_to_deduct": 15}

	tests := []struct {
		name  string
		actor func() *http.Request
		want  int
	}{
		{"admin", func() *http.Request {
			return testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPost, "/", body), testutil.AdminActor(school.ID))
		}, http.StatusCreated},
		{"teacher", func() *http.Request {
			return testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPost, "/", body), testutil.TeacherActor(school.ID))
		}, http.StatusForbidden},
		{"anonymous", func() *http.Request {
			return testutil.NewJSONRequest(t, http.MethodPost, "/", body)
		}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, tt.actor())
			if rec.Code != tt.want {
				t.Fatalf("status %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	list, _ := st.ListOffencesBySchool(ctx, school.ID)
	if len(list) != 1 || list[0].PointsToDeduct != 15 {
		t.Errorf("stored offences = %+v", list)
	}
	if len(st.AuditEvents()) != 1 {
		t.Errorf("audit events = %d, want 1", len(st.AuditEvents()))
	}
}

func TestCreate_Validation(t *testing.T) {
	router, _, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	school := fx.CreateSchool(ctx, "S")

	for _, pts := range []int{0, 101} {
		req := testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPost, "/",
			map[string]any{"name": "X", "description": "Y", "points_to_deduct": pts}), testutil.AdminActor(school.ID))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("points %d: status %d, want 400", pts, rec.Code)
		}
	}
}

func TestList_ScopedToSchool(t *testing.T) {
	router, _, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	school := fx.CreateSchool(ctx, "S")
	other := fx.CreateSchool(ctx, "O")
	fx.CreateOffence(ctx, school.ID, "Late", 5)
	fx.CreateOffence(ctx, other.ID, "Cheating", 20)

	req := testutil.WithActor(httptest.NewRequest(http.MethodGet, "/", nil), testutil.TeacherActor(school.ID))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var resp struct {
		Offences []offenceJSON `json:"offences"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Offences) != 1 || resp.Offences[0].Name != "Late" || resp.Offences[0].Severity != "low" {
		t.Errorf("offences = %+v", resp.Offences)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	router, st, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	school := fx.CreateSchool(ctx, "S")
	other := fx.CreateSchool(ctx, "O")
	off := fx.CreateOffence(ctx, school.ID, "Late", 5)
	foreign := fx.CreateOffence(ctx, other.ID, "Cheating", 20)
	admin := testutil.AdminActor(school.ID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPatch, "/"+off.ID, map[string]any{"points_to_deduct": 10}), admin))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status %d: %s", rec.Code, rec.Body.String())
	}
	var got offenceJSON
	testutil.DecodeJSON(t, rec, &got)
	if got.PointsToDeduct != 10 || got.Name != "Late" || got.Severity != "medium" {
		t.Errorf("updated = %+v", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPatch, "/"+foreign.ID, map[string]any{"points_to_deduct": 1}), admin))
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign update status %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithActor(httptest.NewRequest(http.MethodDelete, "/"+off.ID, nil), admin))
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status %d, want 204", rec.Code)
	}
	if _, err := st.GetOffence(ctx, off.ID); err == nil {
		t.Error("offence still stored after delete")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithActor(httptest.NewRequest(http.MethodDelete, "/"+off.ID, nil), admin))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status %d, want 404", rec.Code)
	}
}
