// internal/app/features/ledger/handler.go
package ledger

import (
	"context"
	"net/http"

	"github.com/dalemusser/mwanacheck/internal/app/ledger"
	"github.com/dalemusser/mwanacheck/internal/app/roster"
	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/app/system/authz"
	"github.com/dalemusser/mwanacheck/internal/app/system/httpjson"
	"github.com/dalemusser/mwanacheck/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler accepts discipline records, merits and fee payments. The acting
// school and staff member always come from the session, never the body.
type Handler struct {
	Ledger *ledger.Service
	Roster *roster.Service
	Log    *zap.Logger
}

func NewHandler(l *ledger.Service, ro *roster.Service, logger *zap.Logger) *Handler {
	return &Handler{Ledger: l, Roster: ro, Log: logger}
}

type issueRequest struct {
	StudentID string `json:"student_id"`
	OffenceID string `json:"offence_id"`
}

// HandleIssue handles POST /discipline.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)
	var req issueRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	rec, err := h.Ledger.IssueDisciplineRecord(r.Context(), ledger.IssueRequest{
		SchoolID:    actor.SchoolID,
		StudentID:   req.StudentID,
		OffenceID:   req.OffenceID,
		TeacherID:   actor.ID,
		TeacherName: actor.Name,
		TeacherRole: actor.Role,
	})
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, rec)
}

type meritRequest struct {
	StudentID   string `json:"student_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`
}

// HandleAward handles POST /merits.
func (h *Handler) HandleAward(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)
	var req meritRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	m, err := h.Ledger.AwardMerit(r.Context(), ledger.MeritRequest{
		SchoolID:      actor.SchoolID,
		StudentID:     req.StudentID,
		Title:         req.Title,
		Description:   req.Description,
		Points:        req.Points,
		AwardedBy:     actor.ID,
		AwardedByName: actor.Name,
		AwardedByRole: actor.Role,
	})
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, m)
}

type paymentRequest struct {
	StudentID string `json:"student_id"`
	Amount    int64  `json:"amount"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

// HandlePayment handles POST /payments. Parents may only pay for their own
// children.
func (h *Handler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)
	var req paymentRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	st, err := h.Roster.GetStudentInSchool(ctx, actor.SchoolID, req.StudentID)
	cancel()
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if !authz.CanRecordPayment(actor, st) {
		httpjson.Error(w, h.Log, apperr.Forbidden("not allowed to pay for this student"))
		return
	}

	p, err := h.Ledger.RecordPayment(r.Context(), ledger.PaymentRequest{
		SchoolID:       actor.SchoolID,
		StudentID:      st.ID,
		Amount:         req.Amount,
		Method:         req.Method,
		Reference:      req.Reference,
		RecordedBy:     actor.ID,
		RecordedByName: actor.Name,
		RecordedByRole: actor.Role,
	})
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, p)
}
