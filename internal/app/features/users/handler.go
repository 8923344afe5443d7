// internal/app/features/users/handler.go
package users

import (
	"context"
	"net/http"

	"github.com/dalemusser/mwanacheck/internal/app/roster"
	"github.com/dalemusser/mwanacheck/internal/app/system/authz"
	"github.com/dalemusser/mwanacheck/internal/app/system/httpjson"
	"github.com/dalemusser/mwanacheck/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

type Handler struct {
	Roster *roster.Service
	Log    *zap.Logger
}

func NewHandler(ro *roster.Service, logger *zap.Logger) *Handler {
	return &Handler{Roster: ro, Log: logger}
}

// ServeList handles GET /users?role=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Roster.ListUsers(ctx, authz.SchoolID(r))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if role := query.Get(r, "role"); role != "" {
		kept := list[:0:0]
		for _, u := range list {
			if u.Role == role {
				kept = append(kept, u)
			}
		}
		list = kept
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"users": list})
}

// HandleCreate handles POST /users.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in roster.UserInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Roster.CreateUser(ctx, authz.SchoolID(r), in)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, u)
}
