package auth

import (
	"context"
	"net"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Gateway holds one operator session's identity state on top of a Provider.
type Gateway struct {
	provider Provider

	mu        sync.Mutex
	current   *Identity
	next      int
	listeners map[int]func(*Identity)
}

// NewGateway creates a signed-out gateway
func NewGateway(provider Provider) *Gateway {
	return &Gateway{provider: provider, listeners: make(map[int]func(*Identity))}
}

// IsLocalHost reports whether host (optionally with port) is a local development host
func IsLocalHost(host string) bool {
	h := host
	if hp, _, err := net.SplitHostPort(host); err == nil {
		h = hp
	}
	h = strings.Trim(strings.ToLower(h), "[]")
	return h == "localhost" || h == "127.0.0.1" || h == "::1"
}

// SignInWithPopupOrRedirect starts a provider sign-in: redirect on local hosts
// where popups tend to be blocked, popup everywhere else. Provider errors are
// returned as is for display.
func (g *Gateway) SignInWithPopupOrRedirect(ctx context.Context, host, continueURI string) (*ProviderFlow, error) {
	flow, err := g.provider.StartProviderSignIn(ctx, continueURI)
	if err != nil {
		return nil, err
	}
	if IsLocalHost(host) {
		flow.Mode = FlowRedirect
	} else {
		flow.Mode = FlowPopup
	}
	return flow, nil
}

// CompleteProviderSignIn finishes a provider sign-in and signs the session in
func (g *Gateway) CompleteProviderSignIn(ctx context.Context, requestURI, sessionID string) (*Identity, error) {
	id, err := g.provider.CompleteProviderSignIn(ctx, requestURI, sessionID)
	if err != nil {
		return nil, err
	}
	g.set(id)
	return id, nil
}

// SignInWithEmailPassword signs in with credentials. Every failure is reported as
// ErrInvalidCredentials; the cause is only logged.
func (g *Gateway) SignInWithEmailPassword(ctx context.Context, email, password string) (*Identity, error) {
	id, err := g.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		log.Warn().Err(err).Msg("Email sign-in failed")
		return nil, ErrInvalidCredentials
	}
	g.set(id)
	return id, nil
}

// Restore signs the session in with an identity recovered from a session token
func (g *Gateway) Restore(id Identity) {
	g.set(&id)
}

// SignOut ends the session
func (g *Gateway) SignOut(ctx context.Context) error {
	g.set(nil)
	return nil
}

// CurrentUser returns the signed-in identity or nil
func (g *Gateway) CurrentUser() *Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.copyCurrent()
}

// OnAuthStateChange calls fn with the current identity (nil when signed out) now
// and after every change. The returned func unsubscribes.
func (g *Gateway) OnAuthStateChange(fn func(*Identity)) func() {
	g.mu.Lock()
	id := g.next
	g.next++
	g.listeners[id] = fn
	current := g.copyCurrent()
	g.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.listeners, id)
			g.mu.Unlock()
		})
	}
}

func (g *Gateway) set(id *Identity) {
	g.mu.Lock()
	if sameIdentity(g.current, id) {
		g.mu.Unlock()
		return
	}
	if id != nil {
		copied := *id
		id = &copied
	}
	g.current = id
	fns := make([]func(*Identity), 0, len(g.listeners))
	for _, fn := range g.listeners {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(g.CurrentUser())
	}
}

func (g *Gateway) copyCurrent() *Identity {
	if g.current == nil {
		return nil
	}
	id := *g.current
	return &id
}

func sameIdentity(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.UID == b.UID
}
