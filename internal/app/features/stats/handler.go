// internal/app/features/stats/handler.go
package stats

import (
	"net/http"

	"github.com/dalemusser/mwanacheck/internal/app/ledger"
	"github.com/dalemusser/mwanacheck/internal/app/system/authz"
	"github.com/dalemusser/mwanacheck/internal/app/system/httpjson"
	"go.uber.org/zap"
)

type Handler struct {
	Ledger *ledger.Service
	Log    *zap.Logger
}

func NewHandler(l *ledger.Service, logger *zap.Logger) *Handler {
	return &Handler{Ledger: l, Log: logger}
}

// ServeStats handles GET /stats for the actor's school.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Ledger.SchoolStats(r.Context(), authz.SchoolID(r))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, st)
}
