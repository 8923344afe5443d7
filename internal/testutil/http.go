package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/mwanacheck/internal/app/system/auth"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AdminActor returns a school administrator.
func AdminActor(schoolID string) models.Actor {
	return models.Actor{ID: models.NewID(), Name: "Test Admin", Role: models.RoleAdmin, SchoolID: schoolID}
}

// TeacherActor returns a teacher.
func TeacherActor(schoolID string) models.Actor {
	return models.Actor{ID: models.NewID(), Name: "Test Teacher", Role: models.RoleTeacher, SchoolID: schoolID}
}

// ParentActor returns a parent with the given user id.
func ParentActor(schoolID, userID string) models.Actor {
	return models.Actor{ID: userID, Name: "Test Parent", Role: models.RoleParent, SchoolID: schoolID}
}

// StudentActor returns the actor for a signed-in student.
func StudentActor(schoolID, studentID string) models.Actor {
	return models.Actor{ID: models.NewID(), Name: "Test Student", Role: models.RoleStudent, SchoolID: schoolID, StudentID: studentID}
}

// WithActor puts actor on the request context, bypassing the session
// middleware.
func WithActor(r *http.Request, actor models.Actor) *http.Request {
	return r.WithContext(auth.WithActor(r.Context(), actor))
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request whose body is body encoded as JSON.
func NewJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	r := httptest.NewRequest(method, target, rd)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// DecodeJSON decodes the recorded response body into v.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response body %q: %v", rec.Body.String(), err)
	}
}
