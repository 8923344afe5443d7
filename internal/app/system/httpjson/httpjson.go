// Package httpjson writes JSON responses and maps apperr kinds to HTTP
// status codes.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"go.uber.org/zap"
)

// MaxBodyBytes bounds request bodies read by Decode.
const MaxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields []apperr.FieldError `json:"fields,omitempty"`
}

// Write encodes v with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Status returns the HTTP status for err.
func Status(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as an ErrorBody. Unclassified errors are logged and
// reported with a generic message.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	status := Status(err)
	body := ErrorBody{Error: err.Error(), Code: apperr.KindOf(err).String(), Fields: apperr.FieldsOf(err)}
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		body = ErrorBody{Error: "internal error", Code: "internal"}
	}
	Write(w, status, body)
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, msg string) {
	Write(w, http.StatusUnauthorized, ErrorBody{Error: msg, Code: "unauthorized"})
}

// Decode reads a JSON body into v, rejecting unknown fields and trailing
// data. Failures are apperr validation errors.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.Validation("request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("malformed JSON: " + err.Error())
	}
	if dec.More() {
		return apperr.Validation("request body must hold a single JSON object")
	}
	return nil
}
