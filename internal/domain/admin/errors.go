package admin

import "errors"

var (
	ErrSignInRequired = errors.New("sign-in required")
	ErrNoFiles        = errors.New("choose files first")
	ErrNotConfirmed   = errors.New("delete not confirmed")
	ErrDeleteFailed   = errors.New("could not delete")
	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidPayload = errors.New("invalid action payload")
)
