// internal/app/features/students/handler.go
package students

import (
	"context"
	"net/http"

	"github.com/dalemusser/mwanacheck/internal/app/ledger"
	"github.com/dalemusser/mwanacheck/internal/app/roster"
	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/app/system/authz"
	"github.com/dalemusser/mwanacheck/internal/app/system/httpjson"
	"github.com/dalemusser/mwanacheck/internal/app/system/paging"
	"github.com/dalemusser/mwanacheck/internal/app/system/timeouts"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Roster *roster.Service
	Ledger *ledger.Service
	Log    *zap.Logger
}

func NewHandler(ro *roster.Service, l *ledger.Service, logger *zap.Logger) *Handler {
	return &Handler{Roster: ro, Ledger: l, Log: logger}
}

// studentResponse always reports the effective discipline balance.
type studentResponse struct {
	models.Student
	DisciplinePoints int `json:"discipline_points"`
}

func toResponse(st models.Student) studentResponse {
	return studentResponse{Student: st, DisciplinePoints: st.Points()}
}

// ServeList handles GET /students?class=&status=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Roster.ListStudents(ctx, authz.SchoolID(r), roster.StudentFilter{
		Class:  query.Get(r, "class"),
		Status: query.Get(r, "status"),
	})
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	out := make([]studentResponse, 0, len(list))
	for _, st := range list {
		out = append(out, toResponse(st))
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"students": out})
}

// HandleCreate handles POST /students.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in roster.StudentInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := h.Roster.CreateStudent(ctx, authz.SchoolID(r), in)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, toResponse(st))
}

// visibleStudent loads {id} and checks the actor may see it. Students of
// other schools are reported as missing.
func (h *Handler) visibleStudent(w http.ResponseWriter, r *http.Request) (models.Student, bool) {
	actor, _ := authz.Actor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := h.Roster.GetStudentInSchool(ctx, actor.SchoolID, chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return models.Student{}, false
	}
	if !authz.CanViewStudent(actor, st) {
		httpjson.Error(w, h.Log, apperr.Forbidden("not allowed to view this student"))
		return models.Student{}, false
	}
	return st, true
}

// ServeOne handles GET /students/{id}.
func (h *Handler) ServeOne(w http.ResponseWriter, r *http.Request) {
	st, ok := h.visibleStudent(w, r)
	if !ok {
		return
	}
	httpjson.Write(w, http.StatusOK, toResponse(st))
}

// ServeDiscipline handles GET /students/{id}/discipline?cursor=&limit=.
func (h *Handler) ServeDiscipline(w http.ResponseWriter, r *http.Request) {
	st, ok := h.visibleStudent(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pg, err := h.Ledger.History(ctx, st.ID, query.Get(r, "cursor"), historyLimit(r))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, pg)
}

// ServeMerits handles GET /students/{id}/merits.
func (h *Handler) ServeMerits(w http.ResponseWriter, r *http.Request) {
	st, ok := h.visibleStudent(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pg, err := h.Ledger.MeritsByStudent(ctx, st.ID, query.Get(r, "cursor"), historyLimit(r))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, pg)
}

// ServePayments handles GET /students/{id}/payments.
func (h *Handler) ServePayments(w http.ResponseWriter, r *http.Request) {
	st, ok := h.visibleStudent(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pg, err := h.Ledger.PaymentsByStudent(ctx, st.ID, query.Get(r, "cursor"), historyLimit(r))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, pg)
}

func historyLimit(r *http.Request) int {
	return paging.ParseLimit(r, paging.DefaultHistoryLimit, paging.MaxHistoryLimit)
}
