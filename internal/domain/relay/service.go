// Package relay holds the two server-side endpoints that use the media API private
// key: signed upload parameters and file deletion.
package relay

import (
	"context"
	"errors"
	"net/http"

	"github.com/flowersdz/gallery-admin/internal/pkg/imagekit"
	"github.com/flowersdz/gallery-admin/internal/pkg/upload"
	"github.com/flowersdz/gallery-admin/internal/pkg/upstream"
)

// ErrMissingFileID is returned for a delete without a file id
var ErrMissingFileID = errors.New("fileId is required")

// Signer produces signed upload parameters
type Signer interface {
	AuthenticationParameters(ctx context.Context) (imagekit.AuthParams, error)
}

// Service runs the relay operations
type Service struct {
	signer  Signer
	deleter upload.Deleter
}

// NewService creates relay service
func NewService(signer Signer, deleter upload.Deleter) *Service {
	return &Service{signer: signer, deleter: deleter}
}

// Sign returns fresh signed upload parameters
func (s *Service) Sign(ctx context.Context) (imagekit.AuthParams, error) {
	return s.signer.AuthenticationParameters(ctx)
}

// Delete removes a media file by id
func (s *Service) Delete(ctx context.Context, fileID string) error {
	if fileID == "" {
		return ErrMissingFileID
	}
	return s.deleter.DeleteFile(ctx, fileID)
}

// StatusFor maps a relay error to the HTTP status the relay answers with: the
// upstream status when there is one, 502 for transport failures, 500 otherwise.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrMissingFileID):
		return http.StatusBadRequest
	case upstream.Status(err) != 0:
		return upstream.Status(err)
	case upstream.IsTransport(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
