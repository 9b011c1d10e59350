package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flowersdz/gallery-admin/internal/domain/auth"
	"github.com/flowersdz/gallery-admin/internal/domain/media"
	"github.com/flowersdz/gallery-admin/internal/pkg/logger"
)

const deleteConfirmMessage = "Delete this media?"

// Controller runs one operator session against the App
type Controller struct {
	app     *App
	gateway *auth.Gateway
	view    View
	host    string

	mu         sync.Mutex
	session    *auth.Session
	unsubAuth  func()
	unsubStore func()
}

// NewController creates a controller. host is the browser-facing host and picks
// the provider sign-in mode.
func NewController(app *App, gateway *auth.Gateway, view View, host string) *Controller {
	return &Controller{app: app, gateway: gateway, view: view, host: host}
}

// Start shows the auth state and the gallery, and keeps both current until Close.
func (c *Controller) Start(ctx context.Context) error {
	unsubAuth := c.gateway.OnAuthStateChange(c.view.ShowAuthState)

	unsubStore, err := c.app.Store.Subscribe(ctx, func(snap media.Snapshot) {
		c.view.RenderGallery(c.app.Render(snap))
	})
	if err != nil {
		unsubAuth()
		return fmt.Errorf("subscribe to media: %w", err)
	}

	c.mu.Lock()
	c.unsubAuth, c.unsubStore = unsubAuth, unsubStore
	c.mu.Unlock()
	return nil
}

// Close stops the subscriptions
func (c *Controller) Close() {
	c.mu.Lock()
	unsubAuth, unsubStore := c.unsubAuth, c.unsubStore
	c.unsubAuth, c.unsubStore = nil, nil
	c.mu.Unlock()

	if unsubAuth != nil {
		unsubAuth()
	}
	if unsubStore != nil {
		unsubStore()
	}
}

// User returns the signed-in operator or nil
func (c *Controller) User() *auth.Identity {
	return c.gateway.CurrentUser()
}

// Resume signs the controller in with an existing session
func (c *Controller) Resume(session *auth.Session) {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	c.gateway.Restore(session.Identity)
}

// SaveOutcome reports what happened to an alt save. The view never shows Err.
type SaveOutcome struct {
	Key    string `json:"key"`
	Stored bool   `json:"stored"`
	Err    error  `json:"-"`
}

// SaveAlt replaces a record's alt text. The "saved" feedback shows at once and
// reverts after the feedback delay whatever the store answers.
func (c *Controller) SaveAlt(ctx context.Context, key, alt string) SaveOutcome {
	if c.User() == nil {
		c.view.Alert(ErrSignInRequired.Error())
		return SaveOutcome{Key: key, Err: ErrSignInRequired}
	}

	c.view.SaveFeedback(key, true)
	time.AfterFunc(c.app.feedbackDelay(), func() { c.view.SaveFeedback(key, false) })

	if err := c.app.Store.Update(ctx, key, media.AltPatch(alt)); err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("key", key).Msg("Failed to save alt text")
		return SaveOutcome{Key: key, Err: err}
	}
	return SaveOutcome{Key: key, Stored: true}
}

// Delete removes a record after the view confirms. A record with a stored file id
// has that file deleted first and is kept when that fails.
func (c *Controller) Delete(ctx context.Context, key string) error {
	if c.User() == nil {
		c.view.Alert(ErrSignInRequired.Error())
		return ErrSignInRequired
	}

	log := logger.FromContext(ctx)
	rec, err := c.app.Store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, media.ErrNotFound) {
			log.Error().Err(err).Str("key", key).Msg("Failed to load media record")
		}
		return err
	}

	if !c.view.Confirm(ctx, deleteConfirmMessage) {
		return ErrNotConfirmed
	}

	if rec.FileID != "" {
		if err := c.app.Deleter.DeleteFile(ctx, rec.FileID); err != nil {
			log.Error().Err(err).Str("key", key).Str("file_id", rec.FileID).Msg("Delete relay failed")
			c.view.Alert(ErrDeleteFailed.Error())
			return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
		}
	}

	if err := c.app.Store.Remove(ctx, key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to remove media record")
		c.view.Alert(ErrDeleteFailed.Error())
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	return nil
}

// SignInWithEmail signs in with credentials and issues a session
func (c *Controller) SignInWithEmail(ctx context.Context, email, password string) (*auth.Session, error) {
	id, err := c.gateway.SignInWithEmailPassword(ctx, email, password)
	if err != nil {
		c.view.ShowAuthError(err.Error())
		return nil, err
	}
	return c.issue(*id)
}

// StartProviderSignIn begins a provider sign-in in the mode the host calls for
func (c *Controller) StartProviderSignIn(ctx context.Context, continueURI string) (*auth.ProviderFlow, error) {
	flow, err := c.gateway.SignInWithPopupOrRedirect(ctx, c.host, continueURI)
	if err != nil {
		c.view.ShowAuthError(err.Error())
		return nil, err
	}
	return flow, nil
}

// CompleteProviderSignIn finishes a provider sign-in and issues a session
func (c *Controller) CompleteProviderSignIn(ctx context.Context, requestURI, sessionID string) (*auth.Session, error) {
	id, err := c.gateway.CompleteProviderSignIn(ctx, requestURI, sessionID)
	if err != nil {
		c.view.ShowAuthError(err.Error())
		return nil, err
	}
	return c.issue(*id)
}

// SignOut ends the operator session and revokes its token
func (c *Controller) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()

	if err := c.gateway.SignOut(ctx); err != nil {
		return err
	}
	if session == nil || c.app.Sessions == nil {
		return nil
	}
	if err := c.app.Sessions.Revoke(ctx, session.JTI, session.ExpiresAt); err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("Failed to revoke session")
		return err
	}
	return nil
}

func (c *Controller) issue(id auth.Identity) (*auth.Session, error) {
	if c.app.Sessions == nil {
		return nil, errors.New("sessions are not configured")
	}
	session, err := c.app.Sessions.Issue(id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	return session, nil
}
