package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/flowersdz/gallery-admin/internal/pkg/jwt"
	"github.com/flowersdz/gallery-admin/internal/pkg/response"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// RevocationChecker reports whether a session id was signed out
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Auth returns middleware that requires a valid, unrevoked session token
func Auth(jwtService *jwt.Service, revocations RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			claims, err := authenticate(r.Context(), jwtService, revocations, token)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrExpiredToken):
					response.Unauthorized(w, "Token expired")
				case errors.Is(err, errRevoked):
					response.Unauthorized(w, "Session signed out")
				default:
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ClaimsKey, claims)))
		})
	}
}

// OptionalAuth attaches the session claims when a valid token is present and
// passes anonymous requests through unchanged.
func OptionalAuth(jwtService *jwt.Service, revocations RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := TokenFromRequest(r); token != "" {
				if claims, err := authenticate(r.Context(), jwtService, revocations, token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), ClaimsKey, claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

var errRevoked = errors.New("session revoked")

func authenticate(ctx context.Context, jwtService *jwt.Service, revocations RevocationChecker, token string) (*jwt.Claims, error) {
	claims, err := jwtService.Validate(token)
	if err != nil {
		return nil, err
	}
	if revocations != nil {
		revoked, err := revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			// Fail closed: a session we cannot check is not trusted
			log.Error().Err(err).Msg("Revocation check failed")
			return nil, err
		}
		if revoked {
			return nil, errRevoked
		}
	}
	return claims, nil
}

// TokenFromRequest reads a bearer token from the Authorization header, falling back
// to the token query parameter that browser websockets have to use.
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// GetClaims extracts the session claims from context
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

// GetUID extracts the operator id from context
func GetUID(ctx context.Context) string {
	if claims := GetClaims(ctx); claims != nil {
		return claims.UID
	}
	return ""
}
