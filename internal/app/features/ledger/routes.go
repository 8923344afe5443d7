// internal/app/features/ledger/routes.go
package ledger

import (
	"github.com/dalemusser/mwanacheck/internal/app/system/auth"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// DisciplineRoutes mounts at /discipline.
func DisciplineRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.With(auth.RequireRole(models.RoleTeacher, models.RoleAdmin)).Post("/", h.HandleIssue)
	return r
}

// MeritRoutes mounts at /merits.
func MeritRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.With(auth.RequireRole(models.RoleTeacher, models.RoleAdmin)).Post("/", h.HandleAward)
	return r
}

// PaymentRoutes mounts at /payments.
func PaymentRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.With(auth.RequireRole(models.RoleAdmin, models.RoleParent)).Post("/", h.HandlePayment)
	return r
}
