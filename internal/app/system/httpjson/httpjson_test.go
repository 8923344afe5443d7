package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"go.uber.org/zap"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.NotFound("student"), http.StatusNotFound},
		{apperr.Conflict("lost", nil), http.StatusConflict},
		{apperr.Unavailable("slow", nil), http.StatusServiceUnavailable},
		{apperr.Forbidden("no"), http.StatusForbidden},
		{apperr.Wrap(apperr.NotFound("offence"), "issue"), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := Status(tt.err); got != tt.want {
			t.Errorf("Status(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestError_Body(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, zap.NewNop(), apperr.Validation("invalid", apperr.FieldError{Field: "points", Message: "too big"}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "validation" || len(body.Fields) != 1 || body.Fields[0].Field != "points" {
		t.Errorf("body = %+v", body)
	}
}

func TestError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, zap.NewNop(), errors.New("mongo: connection string has password hunter2"))

	if strings.Contains(rec.Body.String(), "hunter2") {
		t.Errorf("internal error leaked: %s", rec.Body.String())
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	tests := []struct {
		body    string
		wantErr bool
	}{
		{`{"name":"x"}`, false},
		{``, true},
		{`{"name":`, true},
		{`{"name":"x","extra":1}`, true},
		{`{"name":"x"}{"name":"y"}`, true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
		err := Decode(r, &v)
		if (err != nil) != tt.wantErr {
			t.Errorf("Decode(%q) err = %v, wantErr %v", tt.body, err, tt.wantErr)
		}
		if err != nil && !apperr.IsValidation(err) {
			t.Errorf("Decode(%q) err kind = %v, want validation", tt.body, apperr.KindOf(err))
		}
	}
}
