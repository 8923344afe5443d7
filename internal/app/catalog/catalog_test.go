package catalog_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dalemusser/mwanacheck/internal/app/catalog"
	"github.com/dalemusser/mwanacheck/internal/app/store/memstore"
	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/dalemusser/mwanacheck/internal/testutil"
	"go.uber.org/zap"
)

func newService(t *testing.T) (*catalog.Service, *testutil.Fixtures) {
	t.Helper()
	st := memstore.New()
	return catalog.New(st, zap.NewNop()), testutil.NewFixtures(t, st)
}

func hasField(err error, field string) bool {
	for _, f := range apperr.FieldsOf(err) {
		if f.Field == field {
			return true
		}
	}
	return false
}

func TestCreateOffence_PointsBoundary(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		points  int
		wantErr bool
	}{
		{-5, true},
		{0, true},
		{1, false},
		{50, false},
		{100, false},
		{101, true},
	}

	for _, tt := range tests {
		o, err := svc.CreateOffence(ctx, "school", fmt.Sprintf("Late %d", tt.points), "Arrived after bell", tt.points)
		if tt.wantErr {
			if !apperr.IsValidation(err) || !hasField(err, "points_to_deduct") {
				t.Errorf("points %d: err = %v, want points_to_deduct validation error", tt.points, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("points %d: unexpected error %v", tt.points, err)
			continue
		}
		if o.PointsToDeduct != tt.points || o.ID == "" {
			t.Errorf("points %d: got %+v", tt.points, o)
		}
	}
}

func TestCreateOffence_Text(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name      string
		offName   string
		desc      string
		wantField string
	}{
		{"empty name", "", "desc", "name"},
		{"blank name", "   ", "desc", "name"},
		{"markup only name", "<b></b>", "desc", "name"},
		{"empty description", "Late", "", "description"},
		{"long name", strings.Repeat("x", 121), "desc", "name"},
		{"long description", "Late", strings.Repeat("x", 501), "description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOffence(ctx, "school", tt.offName, tt.desc, 5)
			if !hasField(err, tt.wantField) {
				t.Errorf("err = %v, want %s field error", err, tt.wantField)
			}
		})
	}

	o, err := svc.CreateOffence(ctx, "school", "  <b>Bullying</b> ", "Repeated <script>x</script>harm", 20)
	if err != nil {
		t.Fatalf("CreateOffence failed: %v", err)
	}
	if o.Name != "Bullying" {
		t.Errorf("Name = %q, want markup stripped", o.Name)
	}
	if strings.Contains(o.Description, "<") {
		t.Errorf("Description kept markup: %q", o.Description)
	}
	if o.Severity() != "high" {
		t.Errorf("Severity = %q, want high", o.Severity())
	}
}

func TestCreateOffence_RequiresSchool(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := svc.CreateOffence(ctx, "", "Late", "desc", 5); !hasField(err, "school_id") {
		t.Errorf("err = %v, want school_id field error", err)
	}
}

func TestUpdateOffence(t *testing.T) {
	svc, fx := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := fx.CreateSchool(ctx, "S")
	off := fx.CreateOffence(ctx, school.ID, "Late", 5)

	name := "Very late"
	got, err := svc.UpdateOffence(ctx, off.ID, models.OffenceUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateOffence failed: %v", err)
	}
	if got.Name != "Very late" || got.PointsToDeduct != 5 || got.Description != off.Description {
		t.Errorf("partial update = %+v", got)
	}

	stored, err := svc.GetOffence(ctx, off.ID)
	if err != nil {
		t.Fatalf("GetOffence failed: %v", err)
	}
	if stored.Name != "Very late" {
		t.Errorf("stored Name = %q", stored.Name)
	}

	zero, big := 0, 101
	for _, pts := range []*int{&zero, &big} {
		if _, err := svc.UpdateOffence(ctx, off.ID, models.OffenceUpdate{PointsToDeduct: pts}); !hasField(err, "points_to_deduct") {
			t.Errorf("points %d: err = %v, want validation", *pts, err)
		}
	}

	if _, err := svc.UpdateOffence(ctx, off.ID, models.OffenceUpdate{}); !apperr.IsValidation(err) {
		t.Errorf("empty update: err = %v, want validation", err)
	}

	if _, err := svc.UpdateOffence(ctx, models.NewID(), models.OffenceUpdate{Name: &name}); !errors.Is(err, apperr.NotFound("offence")) {
		t.Errorf("unknown id: err = %v, want not found", err)
	}
}

func TestCreateOffence_DuplicateName(t *testing.T) {
	svc, fx := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := fx.CreateSchool(ctx, "S")
	other := fx.CreateSchool(ctx, "Other")

	if _, err := svc.CreateOffence(ctx, school.ID, "Late to class", "Arrived after bell", 5); err != nil {
		t.Fatalf("CreateOffence failed: %v", err)
	}
	if _, err := svc.CreateOffence(ctx, school.ID, "LATE TO CLASS", "Again", 7); !apperr.IsConflict(err) {
		t.Errorf("same folded name: err = %v, want conflict", err)
	}
	if _, err := svc.CreateOffence(ctx, other.ID, "Late to class", "Another school", 5); err != nil {
		t.Errorf("same name in another school: %v", err)
	}

	list, err := svc.ListOffencesBySchool(ctx, school.ID)
	if err != nil {
		t.Fatalf("ListOffencesBySchool failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("offences = %d, want 1", len(list))
	}
}

func TestUpdateOffence_RenameToTakenName(t *testing.T) {
	svc, fx := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := fx.CreateSchool(ctx, "S")
	late := fx.CreateOffence(ctx, school.ID, "Late", 5)
	noise := fx.CreateOffence(ctx, school.ID, "Noise", 2)

	taken := "late"
	if _, err := svc.UpdateOffence(ctx, noise.ID, models.OffenceUpdate{Name: &taken}); !apperr.IsConflict(err) {
		t.Errorf("rename to taken name: err = %v, want conflict", err)
	}
	stored, err := svc.GetOffence(ctx, noise.ID)
	if err != nil {
		t.Fatalf("GetOffence failed: %v", err)
	}
	if stored.Name != "Noise" {
		t.Errorf("Name = %q, want unchanged after conflict", stored.Name)
	}

	recased := "LATE"
	got, err := svc.UpdateOffence(ctx, late.ID, models.OffenceUpdate{Name: &recased})
	if err != nil {
		t.Fatalf("recasing own name: %v", err)
	}
	if got.Name != "LATE" {
		t.Errorf("Name = %q, want LATE", got.Name)
	}
}

func TestDeleteOffence(t *testing.T) {
	svc, fx := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := fx.CreateSchool(ctx, "S")
	off := fx.CreateOffence(ctx, school.ID, "Late", 5)

	if err := svc.DeleteOffence(ctx, off.ID); err != nil {
		t.Fatalf("DeleteOffence failed: %v", err)
	}
	if _, err := svc.GetOffence(ctx, off.ID); !apperr.IsNotFound(err) {
		t.Errorf("GetOffence after delete: err = %v, want not found", err)
	}
	if err := svc.DeleteOffence(ctx, off.ID); !apperr.IsNotFound(err) {
		t.Errorf("second delete: err = %v, want not found", err)
	}
}

func TestListOffencesBySchool(t *testing.T) {
	svc, fx := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := fx.CreateSchool(ctx, "S")
	other := fx.CreateSchool(ctx, "Other")
	fx.CreateOffence(ctx, school.ID, "noise", 2)
	fx.CreateOffence(ctx, school.ID, "Fighting", 15)
	fx.CreateOffence(ctx, school.ID, "Absent", 8)
	fx.CreateOffence(ctx, other.ID, "Cheating", 20)

	list, err := svc.ListOffencesBySchool(ctx, school.ID)
	if err != nil {
		t.Fatalf("ListOffencesBySchool failed: %v", err)
	}
	var names []string
	for _, o := range list {
		names = append(names, o.Name)
	}
	if got, want := strings.Join(names, ","), "Absent,Fighting,noise"; got != want {
		t.Errorf("order = %s, want %s", got, want)
	}

	empty, err := svc.ListOffencesBySchool(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("empty school: list=%v err=%v", empty, err)
	}
}
