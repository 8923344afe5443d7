// internal/app/features/students/routes.go
package students

import (
	"github.com/dalemusser/mwanacheck/internal/app/system/auth"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts at /students. Single-student reads are open to any signed
// in actor; the handler decides visibility.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin, models.RoleTeacher))
		pr.Get("/", h.ServeList)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin))
		pr.Post("/", h.HandleCreate)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/{id}", h.ServeOne)
		pr.Get("/{id}/discipline", h.ServeDiscipline)
		pr.Get("/{id}/merits", h.ServeMerits)
		pr.Get("/{id}/payments", h.ServePayments)
	})

	return r
}
