package media

import "errors"

var (
	ErrNotFound    = errors.New("media record not found")
	ErrMissingURL  = errors.New("media record has no url")
	ErrInvalidType = errors.New("media record type must be image or video")
	ErrEmptyPatch  = errors.New("patch changes nothing")
)
