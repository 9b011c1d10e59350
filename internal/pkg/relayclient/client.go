// Package relayclient calls the upload-signing and delete relays when they are
// deployed separately from the admin (RELAY_BASE_URL).
package relayclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/flowersdz/gallery-admin/internal/pkg/imagekit"
	"github.com/flowersdz/gallery-admin/internal/pkg/upstream"
)

const (
	defaultTimeout = 60 * time.Second

	AuthPath   = "/.netlify/functions/imagekit-auth"
	DeletePath = "/.netlify/functions/imagekit-delete"
)

// Client is an HTTP client for the relay endpoints
type Client struct {
	baseURL string
	http    *resty.Client
}

// NewClient creates a relay client. token is sent as a bearer credential when set.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if token != "" {
		httpClient.SetAuthToken(token)
	}

	return &Client{baseURL: baseURL, http: httpClient}
}

// AuthenticationParameters fetches signed upload parameters from the auth relay.
func (c *Client) AuthenticationParameters(ctx context.Context) (imagekit.AuthParams, error) {
	var params imagekit.AuthParams
	if err := c.post(ctx, AuthPath, nil, &params, "relay auth"); err != nil {
		return imagekit.AuthParams{}, err
	}
	if params.Token == "" || params.Signature == "" {
		return imagekit.AuthParams{}, fmt.Errorf("relay auth: incomplete parameters")
	}
	return params, nil
}

// DeleteFile asks the delete relay to remove the file.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	return c.post(ctx, DeletePath, map[string]string{"fileId": fileID}, nil, "relay delete")
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}, service string) error {
	if c.baseURL == "" {
		return fmt.Errorf("%s config error: base_url is empty", service)
	}

	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Post(path)
	if err != nil {
		return upstream.Classify(ctx, service, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return upstream.NewStatusError(service, resp.StatusCode(), resp.Body())
	}
	return nil
}
