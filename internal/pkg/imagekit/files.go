package imagekit

import (
	"context"
	"net/http"

	"github.com/flowersdz/gallery-admin/internal/pkg/upstream"
)

// DeleteFile removes a file by id. A 404 from the API is returned like any other
// status error so callers can mirror it.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.PrivateKey, "").
		SetPathParam("fileId", fileID).
		Delete(c.cfg.APIURL + "/files/{fileId}")
	if err != nil {
		return upstream.Classify(ctx, "imagekit delete", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
		return nil
	default:
		return upstream.NewStatusError("imagekit delete", resp.StatusCode(), resp.Body())
	}
}
