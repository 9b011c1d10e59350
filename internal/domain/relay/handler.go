package relay

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flowersdz/gallery-admin/internal/pkg/errorhandler"
	"github.com/flowersdz/gallery-admin/internal/pkg/logger"
	"github.com/flowersdz/gallery-admin/internal/pkg/response"
	"github.com/flowersdz/gallery-admin/internal/pkg/upstream"
	"github.com/flowersdz/gallery-admin/internal/pkg/validator"
)

// DeleteRequest for POST imagekit-delete
type DeleteRequest struct {
	FileID string `json:"fileId" validate:"required,fileid,max=1024"`
}

// DeleteResponse is the success body of imagekit-delete
type DeleteResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the failure body of both relay endpoints
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler handles relay HTTP requests. Bodies are unenveloped because the media
// SDK reads them directly.
type Handler struct {
	service *Service
}

// NewHandler creates relay handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Auth handles GET/POST /imagekit-auth
func (h *Handler) Auth(w http.ResponseWriter, r *http.Request) {
	params, err := h.service.Sign(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("Failed to sign upload parameters")
		response.Raw(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	response.Raw(w, http.StatusOK, params)
}

// Delete handles POST /imagekit-delete
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Raw(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.Raw(w, http.StatusBadRequest, ErrorResponse{Error: "fileId: " + errs["fileId"]})
		return
	}

	if err := h.service.Delete(r.Context(), req.FileID); err != nil {
		errorhandler.LogExternalServiceError(r.Context(), "media delete", err)
		response.Raw(w, StatusFor(err), ErrorResponse{Error: upstreamMessage(err)})
		return
	}

	response.Raw(w, http.StatusOK, DeleteResponse{Success: true})
}

// upstreamMessage prefers the media API's own message, e.g. "The requested file does not exist."
func upstreamMessage(err error) string {
	var se *upstream.StatusError
	if errors.As(err, &se) {
		var body struct {
			Message string `json:"message"`
		}
		if json.Unmarshal([]byte(se.Body), &body) == nil && body.Message != "" {
			return body.Message
		}
		return http.StatusText(se.Status)
	}
	if upstream.IsTransport(err) {
		return "media API unreachable"
	}
	return err.Error()
}
