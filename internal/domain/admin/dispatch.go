package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/flowersdz/gallery-admin/internal/pkg/validator"
)

// ActionFunc runs one named action for a controller
type ActionFunc func(ctx context.Context, c *Controller, payload json.RawMessage) (interface{}, error)

// Actions is the dispatch table keyed by action name
var Actions = map[string]ActionFunc{
	"save":            saveAction,
	"delete":          deleteAction,
	"signin.email":    signInEmailAction,
	"signin.provider": signInProviderAction,
	"signin.complete": signInCompleteAction,
	"signout":         signOutAction,
	"resume":          resumeAction,
}

// Dispatch runs the named action
func (c *Controller) Dispatch(ctx context.Context, action string, payload json.RawMessage) (interface{}, error) {
	fn, ok := Actions[action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return fn(ctx, c, payload)
}

type savePayload struct {
	Key string `json:"key" validate:"required,nopath"`
	Alt string `json:"alt" validate:"max=500"`
}

type deletePayload struct {
	Key string `json:"key" validate:"required,nopath"`
}

type emailPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type providerPayload struct {
	ContinueURI string `json:"continueUri" validate:"required,url"`
}

type completePayload struct {
	RequestURI string `json:"requestUri" validate:"required,url"`
	SessionID  string `json:"sessionId" validate:"required"`
}

type resumePayload struct {
	Token string `json:"token" validate:"required"`
}

// decode unmarshals and validates an action payload
func decode(payload json.RawMessage, v interface{}) error {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if errs := validator.Validate(v); errs != nil {
		for field, msg := range errs {
			return fmt.Errorf("%w: %s: %s", ErrInvalidPayload, field, msg)
		}
	}
	return nil
}

func saveAction(ctx context.Context, c *Controller, payload json.RawMessage) (interface{}, error) {
	var p savePayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	out := c.SaveAlt(ctx, p.Key, p.Alt)
	if errors.Is(out.Err, ErrSignInRequired) {
		return nil, out.Err
	}
	return out, nil
}

func deleteAction(ctx context.Context, c *Controller, payload json.RawMessage) (interface{}, error) {
	var p deletePayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	if err := c.Delete(ctx, p.Key); err != nil {
		return nil, err
	}
	return map[string]string{"key": p.Key}, nil
}

func signInEmailAction(ctx context.Context, c *Controller, payload json.RawMessage) (interface{}, error) {
	var p emailPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	return c.SignInWithEmail(ctx, p.Email, p.Password)
}

func signInProviderAction(ctx context.Context, c *Controller, payload json.RawMessage) (interface{}, error) {
	var p providerPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	return c.StartProviderSignIn(ctx, p.ContinueURI)
}

func signInCompleteAction(ctx context.Context, c *Controller, payload json.RawMessage) (interface{}, error) {
	var p completePayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	return c.CompleteProviderSignIn(ctx, p.RequestURI, p.SessionID)
}

func signOutAction(ctx context.Context, c *Controller, _ json.RawMessage) (interface{}, error) {
	if err := c.SignOut(ctx); err != nil {
		return nil, err
	}
	return map[string]bool{"signedOut": true}, nil
}

func resumeAction(ctx context.Context, c *Controller, payload json.RawMessage) (interface{}, error) {
	var p resumePayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	if c.app.Sessions == nil {
		return nil, errors.New("sessions are not configured")
	}
	session, err := c.app.Sessions.Resolve(ctx, p.Token)
	if err != nil {
		c.view.ShowAuthError("Session expired, sign in again")
		return nil, err
	}
	c.Resume(session)
	return session.Identity, nil
}
