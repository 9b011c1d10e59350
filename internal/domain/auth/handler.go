package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/flowersdz/gallery-admin/internal/middleware"
	"github.com/flowersdz/gallery-admin/internal/pkg/errorhandler"
	"github.com/flowersdz/gallery-admin/internal/pkg/firebase"
	"github.com/flowersdz/gallery-admin/internal/pkg/response"
	"github.com/flowersdz/gallery-admin/internal/pkg/upstream"
	"github.com/flowersdz/gallery-admin/internal/pkg/validator"
)

const (
	flowCookie   = "gallery_auth_flow"
	flowLifetime = 10 * time.Minute
)

// Handler handles auth HTTP requests
type Handler struct {
	provider   Provider
	sessions   *Sessions
	returnPath string
}

// NewHandler creates auth handler. returnPath is where the provider callback sends
// the browser, with the session token in the fragment.
func NewHandler(provider Provider, sessions *Sessions, returnPath string) *Handler {
	if returnPath == "" {
		returnPath = "/"
	}
	return &Handler{provider: provider, sessions: sessions, returnPath: returnPath}
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	id, err := NewGateway(h.provider).SignInWithEmailPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Unauthorized(w, ErrInvalidCredentials.Error())
		return
	}

	h.issue(w, r, *id)
}

// StartProvider handles POST /auth/provider
func (h *Handler) StartProvider(w http.ResponseWriter, r *http.Request) {
	var req ProviderRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid JSON body")
			return
		}
		if errors := validator.Validate(&req); errors != nil {
			response.ValidationError(w, errors)
			return
		}
	}
	if req.ContinueURI == "" {
		req.ContinueURI = absoluteURL(r, "/api/auth/callback")
	}

	flow, err := NewGateway(h.provider).SignInWithPopupOrRedirect(r.Context(), r.Host, req.ContinueURI)
	if err != nil {
		writeProviderError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flowCookie,
		Value:    flow.SessionID,
		Path:     "/api/auth",
		MaxAge:   int(flowLifetime.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	response.OK(w, flow)
}

// Callback handles GET /auth/callback, the provider's redirect target
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		if c, err := r.Cookie(flowCookie); err == nil {
			sessionID = c.Value
		}
	}
	if sessionID == "" {
		response.BadRequest(w, "Sign-in session expired, start again")
		return
	}

	id, err := NewGateway(h.provider).CompleteProviderSignIn(r.Context(), absoluteURL(r, r.URL.RequestURI()), sessionID)
	if err != nil {
		writeProviderError(w, r, err)
		return
	}

	session, err := h.sessions.Issue(*id)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "SESSION_FAILED", "Failed to issue session", err)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: flowCookie, Path: "/api/auth", MaxAge: -1})
	http.Redirect(w, r, h.returnPath+"#token="+url.QueryEscape(session.Token), http.StatusFound)
}

// CompleteProvider handles POST /auth/provider/complete for clients that catch the
// provider redirect themselves
func (h *Handler) CompleteProvider(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	id, err := NewGateway(h.provider).CompleteProviderSignIn(r.Context(), req.RequestURI, req.SessionID)
	if err != nil {
		writeProviderError(w, r, err)
		return
	}

	h.issue(w, r, *id)
}

// Logout handles POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		response.Unauthorized(w, ErrNotSignedIn.Error())
		return
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := h.sessions.Revoke(r.Context(), claims.ID, expiresAt); err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "SIGN_OUT_FAILED", "Failed to sign out", err)
		return
	}

	response.OK(w, map[string]bool{"signedOut": true})
}

// Me handles GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		response.Unauthorized(w, ErrNotSignedIn.Error())
		return
	}

	resp := MeResponse{User: Identity{UID: claims.UID, Email: claims.Email, Provider: claims.Provider}}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Unix()
	}
	response.OK(w, resp)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, id Identity) {
	session, err := h.sessions.Issue(id)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "SESSION_FAILED", "Failed to issue session", err)
		return
	}
	response.OK(w, session)
}

// writeProviderError shows provider errors verbatim, e.g. a denied consent.
func writeProviderError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *firebase.APIError
	switch {
	case errors.Is(err, ErrProviderUnavailable):
		response.Error(w, http.StatusNotImplemented, "PROVIDER_UNAVAILABLE", err.Error())
	case errors.As(err, &apiErr):
		response.Error(w, http.StatusBadRequest, "PROVIDER_ERROR", apiErr.Message)
	case upstream.IsTransport(err):
		errorhandler.LogExternalServiceError(r.Context(), "identity provider", err)
		response.BadGateway(w, "Identity provider unreachable")
	default:
		log.Error().Err(err).Msg("Provider sign-in failed")
		response.Error(w, http.StatusBadGateway, "PROVIDER_ERROR", err.Error())
	}
}

func absoluteURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + path
}
