package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/flowersdz/gallery-admin/internal/pkg/firebase"
	"github.com/flowersdz/gallery-admin/internal/pkg/password"
)

// Provider is the identity provider behind a Gateway
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Identity, error)
	StartProviderSignIn(ctx context.Context, continueURI string) (*ProviderFlow, error)
	CompleteProviderSignIn(ctx context.Context, requestURI, sessionID string) (*Identity, error)
}

// GoogleProviderID is the federated provider offered on the sign-in form
const GoogleProviderID = "google.com"

// FirebaseProvider signs operators in through Firebase Identity Toolkit
type FirebaseProvider struct {
	client     *firebase.Client
	providerID string
}

// NewFirebaseProvider creates a Firebase-backed provider
func NewFirebaseProvider(client *firebase.Client) *FirebaseProvider {
	return &FirebaseProvider{client: client, providerID: GoogleProviderID}
}

func (p *FirebaseProvider) SignInWithPassword(ctx context.Context, email, password string) (*Identity, error) {
	acct, err := p.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return &Identity{UID: acct.LocalID, Email: acct.Email, Provider: "password"}, nil
}

func (p *FirebaseProvider) StartProviderSignIn(ctx context.Context, continueURI string) (*ProviderFlow, error) {
	uri, err := p.client.CreateAuthURI(ctx, p.providerID, continueURI)
	if err != nil {
		return nil, err
	}
	return &ProviderFlow{AuthURI: uri.AuthURI, SessionID: uri.SessionID, ProviderID: p.providerID}, nil
}

func (p *FirebaseProvider) CompleteProviderSignIn(ctx context.Context, requestURI, sessionID string) (*Identity, error) {
	acct, err := p.client.SignInWithIdp(ctx, requestURI, sessionID)
	if err != nil {
		return nil, err
	}
	provider := acct.ProviderID
	if provider == "" {
		provider = p.providerID
	}
	return &Identity{UID: acct.LocalID, Email: acct.Email, Provider: provider}, nil
}

// LocalProvider is the development fallback: one operator account from config.
type LocalProvider struct {
	email        string
	passwordHash string
	uid          string
	compare      func(hash, secret string) error
}

// NewLocalProvider creates a provider for a single bcrypt-hashed account
func NewLocalProvider(email, passwordHash, uid string) *LocalProvider {
	return &LocalProvider{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: passwordHash,
		uid:          uid,
		compare:      password.Compare,
	}
}

func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, secret string) (*Identity, error) {
	if p.email == "" || p.passwordHash == "" {
		return nil, ErrProviderUnavailable
	}
	// The hash is checked even for an unknown email so both failures take as long
	err := p.compare(p.passwordHash, secret)
	if strings.ToLower(strings.TrimSpace(email)) != p.email {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &Identity{UID: p.uid, Email: p.email, Provider: "password"}, nil
}

func (p *LocalProvider) StartProviderSignIn(ctx context.Context, continueURI string) (*ProviderFlow, error) {
	return nil, ErrProviderUnavailable
}

func (p *LocalProvider) CompleteProviderSignIn(ctx context.Context, requestURI, sessionID string) (*Identity, error) {
	return nil, ErrProviderUnavailable
}
