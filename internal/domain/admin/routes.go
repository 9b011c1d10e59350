package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the admin mutation router. Every route requires a session.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/uploads", h.Upload)
	r.Patch("/media/{key}", h.SaveAlt)
	r.Delete("/media/{key}", h.Delete)

	return r
}
