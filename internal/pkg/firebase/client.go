// Package firebase calls the Firebase Identity Toolkit REST API.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/flowersdz/gallery-admin/internal/pkg/upstream"
)

const DefaultBaseURL = "https://identitytoolkit.googleapis.com/v1"

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("firebase api key is not configured")

// APIError is the error body returned by Identity Toolkit, e.g. INVALID_PASSWORD.
type APIError struct {
	Status  int
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("firebase: %s (status=%d)", e.Message, e.Status)
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

// Client is an Identity Toolkit client bound to one project API key
type Client struct {
	apiKey string
	http   *resty.Client
}

// NewClient creates a client. baseURL defaults to DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey: apiKey,
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

// AuthURI is the provider consent URL plus the session that must accompany completion
type AuthURI struct {
	AuthURI    string `json:"authUri"`
	SessionID  string `json:"sessionId"`
	ProviderID string `json:"providerId"`
}

// Account is a signed-in Identity Toolkit user
type Account struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	ProviderID   string `json:"providerId"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// CreateAuthURI starts a federated sign-in with providerID (e.g. google.com).
func (c *Client) CreateAuthURI(ctx context.Context, providerID, continueURI string) (*AuthURI, error) {
	var out AuthURI
	err := c.post(ctx, "accounts:createAuthUri", map[string]interface{}{
		"providerId":  providerID,
		"continueUri": continueURI,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.AuthURI == "" {
		return nil, errors.New("firebase: createAuthUri returned no authUri")
	}
	return &out, nil
}

// SignInWithIdp completes a federated sign-in. requestURI is the callback URL the
// provider redirected to, including its query.
func (c *Client) SignInWithIdp(ctx context.Context, requestURI, sessionID string) (*Account, error) {
	var out Account
	err := c.post(ctx, "accounts:signInWithIdp", map[string]interface{}{
		"requestUri":          requestURI,
		"sessionId":           sessionID,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SignInWithPassword signs in an email/password account.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Account, error) {
	var out Account
	err := c.post(ctx, "accounts:signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, method string, body, out interface{}) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	var apiErr errorEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(body).
		SetResult(out).
		SetError(&apiErr).
		Post("/" + method)
	if err != nil {
		return upstream.Classify(ctx, "firebase "+method, err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			apiErr.Error.Status = resp.StatusCode()
			return &apiErr.Error
		}
		return upstream.NewStatusError("firebase "+method, resp.StatusCode(), resp.Body())
	}
	return nil
}
