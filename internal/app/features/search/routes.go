// internal/app/features/search/routes.go
package search

import (
	"github.com/dalemusser/mwanacheck/internal/app/system/auth"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts at /search. Only staff browse the directory.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleAdmin, models.RoleTeacher))
	r.Get("/", h.ServeSearch)
	r.Get("/suggest", h.ServeSuggest)
	return r
}
