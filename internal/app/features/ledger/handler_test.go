package ledger_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	ledgerfeature "github.com/dalemusser/mwanacheck/internal/app/features/ledger"
	"github.com/dalemusser/mwanacheck/internal/app/ledger"
	"github.com/dalemusser/mwanacheck/internal/app/roster"
	"github.com/dalemusser/mwanacheck/internal/app/store/memstore"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/dalemusser/mwanacheck/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*ledgerfeature.Handler, *memstore.Store, *testutil.Fixtures) {
	t.Helper()
	st := memstore.New()
	h := ledgerfeature.NewHandler(
		ledger.New(st, ledger.Config{}, zap.NewNop()),
		roster.New(st, zap.NewNop()),
		zap.NewNop(),
	)
	return h, st, testutil.NewFixtures(t, st)
}

func TestHandleIssue(t *testing.T) {
	h, st, fx := setup(t)
	router := ledgerfeature.DisciplineRoutes(h)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := fx.CreateSchool(ctx, "S")
	student := fx.CreateStudent(ctx, school.ID, "John Doe", testutil.IntPtr(85))
	off := fx.CreateOffence(ctx, school.ID, "Late", 5)
	teacher := testutil.TeacherActor(school.ID)

	body := map[string]string{"student_id": student.ID, "offence_id": off.ID}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPost, "/", body), teacher))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var got models.DisciplineRecord
	testutil.DecodeJSON(t, rec, &got)
	if got.PreviousPoints != 85 || got.NewPoints != 80 || got.TeacherID != teacher.ID || got.TeacherName != teacher.Name {
		t.Errorf("record = %+v", got)
	}

	s, _ := st.GetStudent(ctx, student.ID)
	if s.Points() != 80 {
		t.Errorf("points = %d, want 80", s.Points())
	}
}

func TestHandleIssue_Errors(t *testing.T) {
	h, _, fx := setup(t)
	router := ledgerfeature.DisciplineRoutes(h)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := fx.CreateSchool(ctx, "S")
	other := fx.CreateSchool(ctx, "O")
	student := fx.CreateStudent(ctx, school.ID, "John", nil)
	off := fx.CreateOffence(ctx, school.ID, "Late", 5)

	tests := []struct {
		name  string
		actor *models.Actor
		body  map[string]string
		want  int
	}{
		{"parent forbidden", ptr(testutil.ParentActor(school.ID, "p1")), map[string]string{"student_id": student.ID, "offence_id": off.ID}, http.StatusForbidden},
		{"anonymous", nil, map[string]string{"student_id": student.ID, "offence_id": off.ID}, http.StatusUnauthorized},
		{"unknown offence", ptr(testutil.TeacherActor(school.ID)), map[string]string{"student_id": student.ID, "offence_id": models.NewID()}, http.StatusNotFound},
		{"teacher of other school", ptr(testutil.TeacherActor(other.ID)), map[string]string{"student_id": student.ID, "offence_id": off.ID}, http.StatusNotFound},
		{"missing student", ptr(testutil.TeacherActor(school.ID)), map[string]string{"offence_id": off.ID}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/", tt.body)
			if tt.actor != nil {
				req = testutil.WithActor(req, *tt.actor)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func ptr(a models.Actor) *models.Actor { return &a }

func TestHandleAward(t *testing.T) {
	h, _, fx := setup(t)
	router := ledgerfeature.MeritRoutes(h)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := fx.CreateSchool(ctx, "S")
	student := fx.CreateStudent(ctx, school.ID, "John", testutil.IntPtr(95))

	body := map[string]any{"student_id": student.ID, "title": "Class prefect", "points": 10}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPost, "/", body), testutil.TeacherActor(school.ID)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var m models.Merit
	testutil.DecodeJSON(t, rec, &m)
	if m.NewPoints != 100 {
		t.Errorf("NewPoints = %d, want 100", m.NewPoints)
	}
}

func TestHandlePayment(t *testing.T) {
	h, st, fx := setup(t)
	router := ledgerfeature.PaymentRoutes(h)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := fx.CreateSchool(ctx, "S")
	parent := fx.CreateUser(ctx, school.ID, "Robert Johnson", "robert@example.com", models.RoleParent)
	child := fx.CreateStudentWithGuardian(ctx, school.ID, "Emma", parent.ID, 10000)
	stranger := fx.CreateStudentWithFees(ctx, school.ID, "Other", 10000)

	parentActor := testutil.ParentActor(school.ID, parent.ID)
	tests := []struct {
		name    string
		actor   models.Actor
		student string
		want    int
	}{
		{"guardian pays", parentActor, child.ID, http.StatusCreated},
		{"parent of someone else", parentActor, stranger.ID, http.StatusForbidden},
		{"admin pays", testutil.AdminActor(school.ID), stranger.ID, http.StatusCreated},
		{"unknown student", testutil.AdminActor(school.ID), models.NewID(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]any{"student_id": tt.student, "amount": 2500, "method": "mpesa", "reference": "QX12"}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPost, "/", body), tt.actor))
			if rec.Code != tt.want {
				t.Errorf("status %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	got, _ := st.GetStudent(ctx, child.ID)
	if got.FeeBalance != 7500 {
		t.Errorf("child balance = %d, want 7500", got.FeeBalance)
	}
}
