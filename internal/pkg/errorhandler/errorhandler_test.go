package errorhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/flowersdz/gallery-admin/internal/pkg/logger"
	"github.com/flowersdz/gallery-admin/internal/pkg/response"
)

func TestHandleErrorHidesCause(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	ctx := logger.WithContext(context.Background(), &l)

	rec := httptest.NewRecorder()
	HandleError(ctx, rec, http.StatusInternalServerError, "STORE_FAILED", "Failed to update record", errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body response.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error == nil || body.Error.Code != "STORE_FAILED" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "pq:") {
		t.Fatalf("cause leaked to client: %s", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "pq: connection refused") {
		t.Fatalf("cause not logged: %s", buf.String())
	}
}
