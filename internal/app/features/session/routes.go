// internal/app/features/session/routes.go
package session

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleStart)
	r.Get("/", h.ServeCurrent)
	r.Delete("/", h.HandleEnd)
	return r
}
