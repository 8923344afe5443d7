package students_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dalemusser/mwanacheck/internal/app/features/students"
	"github.com/dalemusser/mwanacheck/internal/app/ledger"
	"github.com/dalemusser/mwanacheck/internal/app/roster"
	"github.com/dalemusser/mwanacheck/internal/app/store/memstore"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/dalemusser/mwanacheck/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	router http.Handler
	ledger *ledger.Service
	fx     *testutil.Fixtures
}

func newEnv(t *testing.T) env {
	t.Helper()
	st := memstore.New()
	l := ledger.New(st, ledger.Config{}, zap.NewNop())
	h := students.NewHandler(roster.New(st, zap.NewNop()), l, zap.NewNop())
	return env{router: students.Routes(h), ledger: l, fx: testutil.NewFixtures(t, st)}
}

func (e env) do(t *testing.T, req *http.Request, actor *models.Actor) *httptest.ResponseRecorder {
	t.Helper()
	if actor != nil {
		req = testutil.WithActor(req, *actor)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGet(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	school := e.fx.CreateSchool(ctx, "Nairobi Academy")
	admin := testutil.AdminActor(school.ID)

	rec := e.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{
		"name": "John Doe", "class": "Form 4A", "gpa": 3.5,
	}), &admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID               string `json:"id"`
		DisciplinePoints int    `json:"discipline_points"`
		Status           string `json:"status"`
	}
	testutil.DecodeJSON(t, rec, &created)
	if created.DisciplinePoints != 100 || created.Status != models.StudentActive {
		t.Errorf("created = %+v", created)
	}

	teacher := testutil.TeacherActor(school.ID)
	rec = e.do(t, testutil.NewRequest(http.MethodGet, "/"+created.ID), &teacher)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status %d", rec.Code)
	}

	rec = e.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{"name": "X"}), &teacher)
	if rec.Code != http.StatusForbidden {
		t.Errorf("teacher create status %d, want 403", rec.Code)
	}
}

func TestList_Filters(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	school := e.fx.CreateSchool(ctx, "S")
	e.fx.CreateStudent(ctx, school.ID, "Zed", nil)
	e.fx.CreateStudent(ctx, school.ID, "Amy", nil)
	e.fx.CreateStudentWithFees(ctx, school.ID, "NoClass", 0)
	teacher := testutil.TeacherActor(school.ID)

	rec := e.do(t, testutil.NewRequest(http.MethodGet, "/?class=Form+4A"), &teacher)
	var body struct {
		Students []struct {
			Name string `json:"name"`
		} `json:"students"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if len(body.Students) != 2 || body.Students[0].Name != "Amy" || body.Students[1].Name != "Zed" {
		t.Errorf("students = %+v", body.Students)
	}

	parent := testutil.ParentActor(school.ID, models.NewID())
	if rec := e.do(t, testutil.NewRequest(http.MethodGet, "/"), &parent); rec.Code != http.StatusForbidden {
		t.Errorf("parent list status %d, want 403", rec.Code)
	}
}

func TestVisibility(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	school := e.fx.CreateSchool(ctx, "S")
	other := e.fx.CreateSchool(ctx, "O")
	parent := e.fx.CreateUser(ctx, school.ID, "Robert", "robert@example.com", models.RoleParent)
	child := e.fx.CreateStudentWithGuardian(ctx, school.ID, "Emma", parent.ID, 0)

	tests := []struct {
		name  string
		actor models.Actor
		want  int
	}{
		{"teacher", testutil.TeacherActor(school.ID), http.StatusOK},
		{"guardian", testutil.ParentActor(school.ID, parent.ID), http.StatusOK},
		{"self", testutil.StudentActor(school.ID, child.ID), http.StatusOK},
		{"other parent", testutil.ParentActor(school.ID, models.NewID()), http.StatusForbidden},
		{"other student", testutil.StudentActor(school.ID, models.NewID()), http.StatusForbidden},
		{"other school admin", testutil.AdminActor(other.ID), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, path := range []string{"/" + child.ID, "/" + child.ID + "/discipline", "/" + child.ID + "/merits", "/" + child.ID + "/payments"} {
				rec := e.do(t, testutil.NewRequest(http.MethodGet, path), &tt.actor)
				if rec.Code != tt.want {
					t.Errorf("%s: status %d, want %d", path, rec.Code, tt.want)
				}
			}
		})
	}

	if rec := e.do(t, testutil.NewRequest(http.MethodGet, "/"+child.ID), nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status %d, want 401", rec.Code)
	}
}

func TestDisciplineHistory_Paging(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	school := e.fx.CreateSchool(ctx, "S")
	student := e.fx.CreateStudent(ctx, school.ID, "John", nil)
	off := e.fx.CreateOffence(ctx, school.ID, "Late", 1)
	teacher := testutil.TeacherActor(school.ID)

	for i := 0; i < 3; i++ {
		if _, err := e.ledger.IssueDisciplineRecord(ctx, ledger.IssueRequest{
			SchoolID: school.ID, StudentID: student.ID, OffenceID: off.ID, TeacherID: teacher.ID,
		}); err != nil {
			t.Fatalf("issue: %v", err)
		}
	}

	rec := e.do(t, testutil.NewRequest(http.MethodGet, "/"+student.ID+"/discipline?limit=2"), &teacher)
	var first ledger.HistoryPage[models.DisciplineRecord]
	testutil.DecodeJSON(t, rec, &first)
	if len(first.Items) != 2 || !first.HasMore || first.NextCursor == "" {
		t.Fatalf("first page = %+v", first)
	}
	if first.Items[0].NewPoints != 97 {
		t.Errorf("newest NewPoints = %d, want 97", first.Items[0].NewPoints)
	}

	rec = e.do(t, testutil.NewRequest(http.MethodGet, "/"+student.ID+"/discipline?limit=2&cursor="+url.QueryEscape(first.NextCursor)), &teacher)
	var second ledger.HistoryPage[models.DisciplineRecord]
	testutil.DecodeJSON(t, rec, &second)
	if len(second.Items) != 1 || second.HasMore || second.Items[0].NewPoints != 99 {
		t.Errorf("second page = %+v", second)
	}

	rec = e.do(t, testutil.NewRequest(http.MethodGet, "/"+student.ID+"/discipline?cursor=garbage"), &teacher)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad cursor status %d, want 400", rec.Code)
	}
}
