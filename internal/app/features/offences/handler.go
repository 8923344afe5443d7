// internal/app/features/offences/handler.go
package offences

import (
	"context"
	"net/http"

	"github.com/dalemusser/mwanacheck/internal/app/catalog"
	"github.com/dalemusser/mwanacheck/internal/app/store/audit"
	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/app/system/auditlog"
	"github.com/dalemusser/mwanacheck/internal/app/system/authz"
	"github.com/dalemusser/mwanacheck/internal/app/system/httpjson"
	"github.com/dalemusser/mwanacheck/internal/app/system/timeouts"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves a school's offence catalog.
type Handler struct {
	Catalog *catalog.Service
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

func NewHandler(cat *catalog.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Catalog: cat, Audit: audit, Log: logger}
}

type offenceRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	PointsToDeduct int    `json:"points_to_deduct"`
}

type offenceResponse struct {
	models.Offence
	Severity string `json:"severity"`
}

func respond(o models.Offence) offenceResponse {
	return offenceResponse{Offence: o, Severity: o.Severity()}
}

// ServeList handles GET /offences.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Catalog.ListOffencesBySchool(ctx, actor.SchoolID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	out := make([]offenceResponse, 0, len(list))
	for _, o := range list {
		out = append(out, respond(o))
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"offences": out})
}

// HandleCreate handles POST /offences.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)
	var req offenceRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	o, err := h.Catalog.CreateOffence(ctx, actor.SchoolID, req.Name, req.Description, req.PointsToDeduct)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	h.Audit.OffenceChanged(ctx, actor, audit.EventOffenceCreated, o.ID)
	httpjson.Write(w, http.StatusCreated, respond(o))
}

// ownOffence loads the offence named in the URL, hiding other schools' offences.
func (h *Handler) ownOffence(ctx context.Context, r *http.Request, schoolID string) (models.Offence, error) {
	o, err := h.Catalog.GetOffence(ctx, chi.URLParam(r, "id"))
	if err != nil {
		return models.Offence{}, err
	}
	if o.SchoolID != schoolID {
		return models.Offence{}, apperr.NotFound("offence")
	}
	return o, nil
}

// ServeOne handles GET /offences/{id}.
func (h *Handler) ServeOne(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	o, err := h.ownOffence(ctx, r, actor.SchoolID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, respond(o))
}

type updateRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	PointsToDeduct *int    `json:"points_to_deduct"`
}

// HandleUpdate handles PATCH /offences/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)
	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	cur, err := h.ownOffence(ctx, r, actor.SchoolID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	o, err := h.Catalog.UpdateOffence(ctx, cur.ID, models.OffenceUpdate{
		Name:           req.Name,
		Description:    req.Description,
		PointsToDeduct: req.PointsToDeduct,
	})
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	h.Audit.OffenceChanged(ctx, actor, audit.EventOffenceUpdated, o.ID)
	httpjson.Write(w, http.StatusOK, respond(o))
}

// HandleDelete handles DELETE /offences/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	cur, err := h.ownOffence(ctx, r, actor.SchoolID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if err := h.Catalog.DeleteOffence(ctx, cur.ID); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	h.Audit.OffenceChanged(ctx, actor, audit.EventOffenceDeleted, cur.ID)
	w.WriteHeader(http.StatusNoContent)
}
