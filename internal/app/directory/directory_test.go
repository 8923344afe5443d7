package directory_test

import (
	"testing"

	"github.com/dalemusser/mwanacheck/internal/app/directory"
	"github.com/dalemusser/mwanacheck/internal/app/store/memstore"
	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/app/system/search"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/dalemusser/mwanacheck/internal/testutil"
	"go.uber.org/zap"
)

func TestStudentEntry(t *testing.T) {
	e := directory.StudentEntry(models.Student{
		ID:               "s1",
		Name:             "John Doe",
		Class:            "Form 4A",
		GPA:              3.8,
		DisciplinePoints: testutil.IntPtr(85),
	})

	if e.Type != search.TypeStudent || e.Title != "John Doe" {
		t.Errorf("entry = %+v", e)
	}
	if e.Subtitle != "Student ID: s1 | Class: Form 4A" {
		t.Errorf("Subtitle = %q", e.Subtitle)
	}
	if e.Description != "GPA: 3.8 | Discipline: 85/100" {
		t.Errorf("Description = %q", e.Description)
	}
	if e.GPA == nil || *e.GPA != 3.8 || e.DisciplinePoints == nil || *e.DisciplinePoints != 85 {
		t.Errorf("facet values = %v / %v", e.GPA, e.DisciplinePoints)
	}

	def := directory.StudentEntry(models.Student{ID: "s2", Name: "New"})
	if *def.DisciplinePoints != 100 {
		t.Errorf("absent balance listed as %d, want 100", *def.DisciplinePoints)
	}
}

func TestUserEntry(t *testing.T) {
	tests := []struct {
		user     models.User
		wantType string
		wantSub  string
	}{
		{models.User{Name: "Jane Smith", Role: models.RoleTeacher, Subject: "Mathematics", Class: "Form 4A"}, search.TypeTeacher, "Mathematics Teacher | Class: Form 4A"},
		{models.User{Name: "Robert Johnson", Role: models.RoleParent, Occupation: "Engineer"}, search.TypeParent, "Parent | Engineer"},
		{models.User{Name: "Admin", Role: models.RoleAdmin}, search.TypeUser, "User | admin"},
	}
	for _, tt := range tests {
		e := directory.UserEntry(tt.user)
		if e.Type != tt.wantType || e.Subtitle != tt.wantSub {
			t.Errorf("%s: type=%q subtitle=%q, want %q %q", tt.user.Name, e.Type, e.Subtitle, tt.wantType, tt.wantSub)
		}
	}
}

func TestSearch(t *testing.T) {
	st := memstore.New()
	fx := testutil.NewFixtures(t, st)
	svc := directory.New(st, 10, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := fx.CreateSchool(ctx, "Riverside High")
	other := fx.CreateSchool(ctx, "Hillcrest")
	fx.CreateStudent(ctx, school.ID, "Alice Wanjiru", testutil.IntPtr(90))
	fx.CreateStudent(ctx, school.ID, "Brian Otieno", testutil.IntPtr(40))
	fx.CreateUser(ctx, school.ID, "Alice Mwangi", "alice.m@riverside.ac.ke", models.RoleTeacher)
	fx.CreateStudent(ctx, other.ID, "Alice Elsewhere", nil)

	page, err := svc.Search(ctx, school.ID, search.Options{Query: "alice"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("Total = %d, want 2 (other school excluded)", page.Total)
	}
	if page.PageSize != 10 {
		t.Errorf("PageSize = %d, want configured 10", page.PageSize)
	}

	all, err := svc.Search(ctx, school.ID, search.Options{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	// Two students, one teacher and the school.
	if all.Total != 4 {
		t.Errorf("empty query Total = %d, want 4", all.Total)
	}
	if all.Bounds.Discipline.Min != 40 || all.Bounds.Discipline.Max != 90 {
		t.Errorf("discipline bounds = %+v", all.Bounds.Discipline)
	}

	low, err := svc.Search(ctx, school.ID, search.Options{
		Filters: search.Filters{Discipline: &search.Range{Min: 0, Max: 50}},
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if low.Total != 1 || low.Results[0].Name != "Brian Otieno" {
		t.Errorf("discipline filter = %+v", low.Results)
	}
}

func TestSearch_UnknownSchool(t *testing.T) {
	svc := directory.New(memstore.New(), 0, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := svc.Search(ctx, models.NewID(), search.Options{}); !apperr.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestSuggest(t *testing.T) {
	st := memstore.New()
	fx := testutil.NewFixtures(t, st)
	svc := directory.New(st, 0, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := fx.CreateSchool(ctx, "Riverside High")
	fx.CreateStudent(ctx, school.ID, "Alice Wanjiru", nil)

	got, err := svc.Suggest(ctx, school.ID, "ali", 5)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if len(got) == 0 || got[0] != "Alice Wanjiru" {
		t.Errorf("Suggest = %v", got)
	}

	short, err := svc.Suggest(ctx, school.ID, "a", 5)
	if err != nil || len(short) != 0 {
		t.Errorf("short query = %v, %v", short, err)
	}
}
