// Package imagekit is a small client for the ImageKit media API: signed upload
// parameters, multipart upload and file deletion.
package imagekit

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	DefaultUploadURL = "https://upload.imagekit.io/api/v1/files/upload"
	DefaultAPIURL    = "https://api.imagekit.io/v1"

	// SignatureTTL is how long signed upload parameters stay valid
	SignatureTTL = 30 * time.Minute

	defaultTimeout = 60 * time.Second
)

// ErrNotConfigured is returned when the private key is missing
var ErrNotConfigured = errors.New("imagekit private key is not configured")

// Config holds ImageKit account settings
type Config struct {
	PublicKey   string
	PrivateKey  string
	URLEndpoint string
	UploadURL   string
	APIURL      string
	Timeout     time.Duration
}

// AuthParams are the signed upload parameters the upload API expects
type AuthParams struct {
	Token     string `json:"token"`
	Expire    int64  `json:"expire"`
	Signature string `json:"signature"`
}

// Client talks to the ImageKit API with the private key. It never exposes the key.
type Client struct {
	cfg  Config
	http *resty.Client
	now  func() time.Time
}

// NewClient creates an ImageKit client
func NewClient(cfg Config) *Client {
	if cfg.UploadURL == "" {
		cfg.UploadURL = DefaultUploadURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		cfg:  cfg,
		http: resty.New().SetTimeout(cfg.Timeout),
		now:  time.Now,
	}
}

// PublicKey returns the account public key
func (c *Client) PublicKey() string { return c.cfg.PublicKey }

// Configured reports whether the private key is set
func (c *Client) Configured() bool { return c.cfg.PrivateKey != "" }

// AuthenticationParameters signs a fresh token that expires in SignatureTTL.
func (c *Client) AuthenticationParameters(ctx context.Context) (AuthParams, error) {
	return c.SignToken(uuid.NewString(), c.now().Add(SignatureTTL).Unix())
}

// SignToken signs the given token and expiry. Empty token or zero expire get defaults.
func (c *Client) SignToken(token string, expire int64) (AuthParams, error) {
	if !c.Configured() {
		return AuthParams{}, ErrNotConfigured
	}
	if token == "" {
		token = uuid.NewString()
	}
	if expire == 0 {
		expire = c.now().Add(SignatureTTL).Unix()
	}
	return AuthParams{
		Token:     token,
		Expire:    expire,
		Signature: Sign(c.cfg.PrivateKey, token, expire),
	}, nil
}

// Sign computes hex(HMAC-SHA1(privateKey, token+expire)).
func Sign(privateKey, token string, expire int64) string {
	mac := hmac.New(sha1.New, []byte(privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
