package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/flowersdz/gallery-admin/internal/domain/auth"
	"github.com/flowersdz/gallery-admin/internal/domain/media"
	"github.com/flowersdz/gallery-admin/internal/middleware"
	"github.com/flowersdz/gallery-admin/internal/pkg/errorhandler"
	"github.com/flowersdz/gallery-admin/internal/pkg/response"
	"github.com/flowersdz/gallery-admin/internal/pkg/validator"
)

// uploadMemory is the part of a multipart upload kept in memory; the rest spills to
// temporary files.
const uploadMemory = 32 << 20

// Handler handles gallery and admin HTTP requests
type Handler struct {
	app      *App
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates admin handler
func NewHandler(app *App, hub *Hub, allowedOrigins []string) *Handler {
	return &Handler{
		app: app,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")

				// Allow all in development
				if len(allowedOrigins) == 0 {
					return true
				}

				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}

				log.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
				return false
			},
		},
	}
}

// Gallery handles GET /media
func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	snap, err := h.app.Store.Snapshot(r.Context())
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "GALLERY_FAILED", "Failed to load gallery", err)
		return
	}
	response.OK(w, h.app.Render(snap))
}

// WebSocket handles GET /ws. A valid token signs the session in; without one the
// session shows the sign-in form and the live gallery.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	var resumed *auth.Session
	if claims := middleware.GetClaims(r.Context()); claims != nil {
		resumed = auth.SessionFromClaims(middleware.TokenFromRequest(r), claims)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	NewSession(context.WithoutCancel(r.Context()), h.app, h.hub, conn, r.Host, resumed).Start()
}

// Upload handles POST /admin/uploads (multipart "files", optional "defaultAlt")
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	view := NewRequestView(false)
	c := h.controller(r, MultiView(view, NewHubView(h.hub, middleware.GetUID(r.Context()))))

	report, err := c.UploadFiles(r.Context(), files, r.FormValue("defaultAlt"))
	if err != nil {
		writeActionError(w, r, err)
		return
	}

	response.OK(w, UploadResponse{UploadReport: report, Events: view.Events()})
}

// SaveAlt handles PATCH /admin/media/{key}
func (h *Handler) SaveAlt(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := validator.ValidateVar(key, "required,nopath"); err != nil {
		response.BadRequest(w, "Invalid media key")
		return
	}

	var req UpdateAltRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	c := h.controller(r, NewHubView(h.hub, middleware.GetUID(r.Context())))
	out := c.SaveAlt(r.Context(), key, *req.Alt)
	if errors.Is(out.Err, ErrSignInRequired) {
		writeActionError(w, r, out.Err)
		return
	}

	response.OK(w, out)
}

// Delete handles DELETE /admin/media/{key}?confirm=true. The file id comes from
// the stored record.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := validator.ValidateVar(key, "required,nopath"); err != nil {
		response.BadRequest(w, "Invalid media key")
		return
	}

	view := NewRequestView(r.URL.Query().Get("confirm") == "true")
	c := h.controller(r, view)
	if err := c.Delete(r.Context(), key); err != nil {
		writeActionError(w, r, err)
		return
	}

	response.OK(w, DeleteResponse{Key: key, Deleted: true})
}

// controller builds a controller for one request, signed in as the caller.
func (h *Handler) controller(r *http.Request, view View) *Controller {
	gateway := auth.NewGateway(h.app.Provider)
	if claims := middleware.GetClaims(r.Context()); claims != nil {
		gateway.Restore(auth.Identity{UID: claims.UID, Email: claims.Email, Provider: claims.Provider})
	}
	return NewController(h.app, gateway, view, r.Host)
}

func writeActionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrSignInRequired):
		response.Unauthorized(w, err.Error())
	case errors.Is(err, ErrNoFiles):
		response.BadRequest(w, err.Error())
	case errors.Is(err, media.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotConfirmed):
		response.Error(w, http.StatusConflict, "CONFIRMATION_REQUIRED", err.Error())
	case errors.Is(err, ErrDeleteFailed):
		response.Error(w, http.StatusBadGateway, "DELETE_FAILED", ErrDeleteFailed.Error())
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Request failed", err)
	}
}
