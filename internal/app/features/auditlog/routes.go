// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/mwanacheck/internal/app/system/auth"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all audit log routes under the path where this
// router is mounted (typically "/audit" from bootstrap).
//
// Access is restricted to admins, who see their own school's events.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleAdmin))
	r.Get("/", h.ServeList)
	return r
}
