package errorhandler

import (
	"context"
	"net/http"

	"github.com/flowersdz/gallery-admin/internal/pkg/logger"
	"github.com/flowersdz/gallery-admin/internal/pkg/response"
	"github.com/flowersdz/gallery-admin/internal/pkg/upstream"
)

// HandleError logs err with the request id and sends the error envelope.
// The client only sees code and message.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := logger.FromContext(ctx).Error().
		Str("error_code", code).
		Int("status_code", status)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(message)

	response.Error(w, status, code, message)
}

// LogExternalServiceError logs a failed call to a third-party API
func LogExternalServiceError(ctx context.Context, service string, err error) {
	logger.FromContext(ctx).Error().
		Str("external_service", service).
		Int("status_code", upstream.Status(err)).
		Bool("transport", upstream.IsTransport(err)).
		Err(err).
		Msg("External service error")
}
