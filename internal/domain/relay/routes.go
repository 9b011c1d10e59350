package relay

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the relay router. mws guard both endpoints (rate limit, and the
// session check when relays require auth).
func (h *Handler) Routes(mws ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(mws...)

	r.Get("/imagekit-auth", h.Auth)
	r.Post("/imagekit-auth", h.Auth)
	r.Post("/imagekit-delete", h.Delete)

	return r
}
