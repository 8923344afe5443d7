package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/mwanacheck/internal/app/system/auth"
	"github.com/dalemusser/mwanacheck/internal/app/system/authz"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
)

func TestActor(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	if _, ok := authz.Actor(req); ok {
		t.Error("expected no actor on anonymous request")
	}

	req = req.WithContext(auth.WithActor(req.Context(), models.Actor{ID: "u1", Role: "ADMIN"}))
	if _, ok := authz.Actor(req); ok {
		t.Error("expected actor without school to be rejected")
	}

	req = httptest.NewRequest("GET", "/test", nil)
	req = req.WithContext(auth.WithActor(req.Context(), models.Actor{ID: "u1", Role: "ADMIN", SchoolID: "s1"}))
	a, ok := authz.Actor(req)
	if !ok || a.Role != "admin" {
		t.Errorf("Actor = %+v, %v", a, ok)
	}
	if !authz.IsAdmin(req) || !authz.IsStaff(req) {
		t.Error("expected admin to be admin and staff")
	}
	if authz.SchoolID(req) != "s1" {
		t.Errorf("SchoolID = %q", authz.SchoolID(req))
	}
}

func TestCanViewStudent(t *testing.T) {
	st := models.Student{ID: "st1", SchoolID: "s1", Guardians: []string{"p1"}}

	tests := []struct {
		name  string
		actor models.Actor
		want  bool
	}{
		{"teacher same school", models.Actor{ID: "t1", Role: "teacher", SchoolID: "s1"}, true},
		{"admin same school", models.Actor{ID: "a1", Role: "admin", SchoolID: "s1"}, true},
		{"teacher other school", models.Actor{ID: "t1", Role: "teacher", SchoolID: "s2"}, false},
		{"guardian", models.Actor{ID: "p1", Role: "parent", SchoolID: "s1"}, true},
		{"other parent", models.Actor{ID: "p2", Role: "parent", SchoolID: "s1"}, false},
		{"the student", models.Actor{ID: "u9", Role: "student", SchoolID: "s1", StudentID: "st1"}, true},
		{"another student", models.Actor{ID: "u8", Role: "student", SchoolID: "s1", StudentID: "st2"}, false},
		{"unknown role", models.Actor{ID: "x", Role: "visitor", SchoolID: "s1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.CanViewStudent(tt.actor, st); got != tt.want {
				t.Errorf("CanViewStudent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanRecordPayment(t *testing.T) {
	st := models.Student{ID: "st1", SchoolID: "s1", Guardians: []string{"p1"}}

	tests := []struct {
		name  string
		actor models.Actor
		want  bool
	}{
		{"admin", models.Actor{ID: "a1", Role: "admin", SchoolID: "s1"}, true},
		{"teacher", models.Actor{ID: "t1", Role: "teacher", SchoolID: "s1"}, false},
		{"guardian", models.Actor{ID: "p1", Role: "parent", SchoolID: "s1"}, true},
		{"other parent", models.Actor{ID: "p2", Role: "parent", SchoolID: "s1"}, false},
		{"admin other school", models.Actor{ID: "a1", Role: "admin", SchoolID: "s2"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.CanRecordPayment(tt.actor, st); got != tt.want {
				t.Errorf("CanRecordPayment = %v, want %v", got, tt.want)
			}
		})
	}
}
