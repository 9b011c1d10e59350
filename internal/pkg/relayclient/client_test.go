package relayclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flowersdz/gallery-admin/internal/pkg/upstream"
)

func TestAuthenticationParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != AuthPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer session" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok","expire":1700001800,"signature":"sig"}`))
	}))
	t.Cleanup(server.Close)

	params, err := NewClient(server.URL, "session", time.Second).AuthenticationParameters(context.Background())
	if err != nil {
		t.Fatalf("AuthenticationParameters: %v", err)
	}
	if params.Token != "tok" || params.Expire != 1700001800 || params.Signature != "sig" {
		t.Fatalf("unexpected params: %+v", params)
	}
}

func TestDeleteFileMirrorsRelayStatus(t *testing.T) {
	var gotFileID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotFileID = body["fileId"]
		if gotFileID == "missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"The requested file does not exist."}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "", time.Second)
	if err := client.DeleteFile(context.Background(), "abc"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if gotFileID != "abc" {
		t.Fatalf("fileId = %q", gotFileID)
	}

	err := client.DeleteFile(context.Background(), "missing")
	if upstream.Status(err) != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
	if !strings.Contains(err.Error(), "body=") {
		t.Fatalf("expected body in error, got %v", err)
	}
}

func TestTimeoutClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	err := NewClient(server.URL, "", 20*time.Millisecond).DeleteFile(context.Background(), "abc")
	if !errors.Is(err, upstream.ErrTimeout) {
		t.Fatalf("expected timeout classification, got %v", err)
	}
}
