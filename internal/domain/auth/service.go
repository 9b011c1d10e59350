package auth

import (
	"context"
	"errors"
	"time"

	"github.com/flowersdz/gallery-admin/internal/pkg/jwt"
)

// Session is an issued session token
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	JTI       string    `json:"-"`
	Identity  Identity  `json:"user"`
}

// Sessions issues and resolves operator session tokens
type Sessions struct {
	jwt         *jwt.Service
	revocations Revocations
}

// NewSessions creates the session service
func NewSessions(jwtService *jwt.Service, revocations Revocations) *Sessions {
	return &Sessions{jwt: jwtService, revocations: revocations}
}

// Issue signs a session token for id
func (s *Sessions) Issue(id Identity) (*Session, error) {
	token, jti, expiresAt, err := s.jwt.Issue(id.UID, id.Email, id.Provider)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, JTI: jti, Identity: id}, nil
}

// Resolve validates token and checks it was not signed out
func (s *Sessions) Resolve(ctx context.Context, token string) (*Session, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrSessionRevoked
	}

	return SessionFromClaims(token, claims), nil
}

// SessionFromClaims rebuilds a session from validated token claims
func SessionFromClaims(token string, claims *jwt.Claims) *Session {
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		JTI:       claims.ID,
		Identity:  Identity{UID: claims.UID, Email: claims.Email, Provider: claims.Provider},
	}
}

// Revoke signs the session out for the rest of its lifetime
func (s *Sessions) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return errors.New("session has no id")
	}
	return s.revocations.Revoke(ctx, jti, time.Until(expiresAt))
}

// IsRevoked lets Sessions serve as the auth middleware's revocation checker
func (s *Sessions) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.revocations.IsRevoked(ctx, jti)
}
