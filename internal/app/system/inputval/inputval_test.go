package inputval

import (
	"testing"

	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
)

type offenceInput struct {
	Name   string `json:"name" validate:"required,max=120"`
	Points int    `json:"points_to_deduct" validate:"gte=1,lte=100"`
	Method string `json:"method" validate:"omitempty,payment_method"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name       string
		in         offenceInput
		wantFields []string
	}{
		{"valid", offenceInput{Name: "Late", Points: 5}, nil},
		{"missing name", offenceInput{Points: 5}, []string{"name"}},
		{"points low", offenceInput{Name: "Late", Points: 0}, []string{"points_to_deduct"}},
		{"points high", offenceInput{Name: "Late", Points: 101}, []string{"points_to_deduct"}},
		{"bad method", offenceInput{Name: "Late", Points: 1, Method: "cash"}, []string{"method"}},
		{"several", offenceInput{Points: 200}, []string{"name", "points_to_deduct"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantFields == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !apperr.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			fields := apperr.FieldsOf(err)
			if len(fields) != len(tt.wantFields) {
				t.Fatalf("fields = %+v, want %v", fields, tt.wantFields)
			}
			for i, f := range fields {
				if f.Field != tt.wantFields[i] {
					t.Errorf("field[%d] = %q, want %q", i, f.Field, tt.wantFields[i])
				}
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user.name+tag@school.ac.ke", true},
		{"", false},
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{"user @example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}
