package imagekit

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flowersdz/gallery-admin/internal/pkg/upload"
	"github.com/flowersdz/gallery-admin/internal/pkg/upstream"
)

func TestSignMatchesHMACSHA1(t *testing.T) {
	mac := hmac.New(sha1.New, []byte("private_key_test"))
	mac.Write([]byte("your_token1655379249"))
	want := hex.EncodeToString(mac.Sum(nil))

	if got := Sign("private_key_test", "your_token", 1655379249); got != want {
		t.Fatalf("Sign = %q, want %q", got, want)
	}
}

func TestAuthenticationParameters(t *testing.T) {
	c := NewClient(Config{PrivateKey: "secret"})
	fixed := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return fixed }

	params, err := c.AuthenticationParameters(context.Background())
	if err != nil {
		t.Fatalf("AuthenticationParameters: %v", err)
	}
	if params.Token == "" {
		t.Fatal("missing token")
	}
	if params.Expire != fixed.Add(SignatureTTL).Unix() {
		t.Fatalf("Expire = %d", params.Expire)
	}
	if params.Signature != Sign("secret", params.Token, params.Expire) {
		t.Fatal("signature does not match token+expire")
	}

	if _, err := NewClient(Config{}).AuthenticationParameters(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestDeleteFile(t *testing.T) {
	var gotPath, gotUser string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		if r.URL.Path == "/files/missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"The requested file does not exist."}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	c := NewClient(Config{PrivateKey: "secret", APIURL: server.URL, Timeout: time.Second})
	if err := c.DeleteFile(context.Background(), "abc123"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if gotPath != "/files/abc123" || gotUser != "secret" {
		t.Fatalf("unexpected request: path=%q user=%q", gotPath, gotUser)
	}

	err := c.DeleteFile(context.Background(), "missing")
	if upstream.Status(err) != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
}

type staticAuth struct{ params AuthParams }

func (s staticAuth) AuthenticationParameters(context.Context) (AuthParams, error) {
	return s.params, nil
}

func TestUploaderSendsSignedMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		want := map[string]string{
			"fileName":          "rose.jpg",
			"publicKey":         "public_abc",
			"signature":         "sig",
			"expire":            "1700001800",
			"token":             "tok",
			"useUniqueFileName": "true",
			"tags":              "flowersdz",
			"folder":            "/flowersdz",
		}
		for k, v := range want {
			if got := r.FormValue(k); got != v {
				t.Errorf("field %s = %q, want %q", k, got, v)
			}
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
		} else {
			body, _ := io.ReadAll(f)
			if string(body) != "jpeg-bytes" {
				t.Errorf("file body = %q", body)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fileId":"f1","name":"rose_x.jpg","url":"https://ik.imagekit.io/demo/flowersdz/rose_x.jpg","fileType":"image"}`))
	}))
	t.Cleanup(server.Close)

	u := NewUploader("public_abc", server.URL, staticAuth{AuthParams{Token: "tok", Expire: 1700001800, Signature: "sig"}}, time.Second)

	var progressed bool
	res, err := u.Upload(context.Background(), &upload.Request{
		File:              bytes.NewReader([]byte("jpeg-bytes")),
		Size:              10,
		FileName:          "rose.jpg",
		ContentType:       "image/jpeg",
		Folder:            "/flowersdz",
		Tags:              []string{"flowersdz"},
		UseUniqueFileName: true,
		OnProgress:        func(loaded, total int64) { progressed = true },
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.FileID != "f1" || res.URL != "https://ik.imagekit.io/demo/flowersdz/rose_x.jpg" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !progressed {
		t.Fatal("progress callback never fired")
	}
}

func TestUploaderReportsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Your request contains expired signature"}`))
	}))
	t.Cleanup(server.Close)

	u := NewUploader("public_abc", server.URL, staticAuth{}, time.Second)
	_, err := u.Upload(context.Background(), &upload.Request{File: bytes.NewReader([]byte("x")), FileName: "a.jpg"})
	if upstream.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403 status error, got %v", err)
	}
}
