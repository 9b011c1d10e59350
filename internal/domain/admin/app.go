// Package admin is the gallery admin controller: auth-gated upload, alt text and
// delete operations driven by websocket sessions and the admin HTTP API.
package admin

import (
	"time"

	"github.com/flowersdz/gallery-admin/internal/domain/auth"
	"github.com/flowersdz/gallery-admin/internal/domain/media"
	"github.com/flowersdz/gallery-admin/internal/pkg/upload"
)

// DefaultFeedbackDelay is how long the "saved" feedback stays on
const DefaultFeedbackDelay = 800 * time.Millisecond

// App is the process-wide context shared by every controller. It is built once in
// main; tests build their own with fakes.
type App struct {
	Store     media.Store
	Uploader  upload.Uploader
	Deleter   upload.Deleter
	Thumbnail media.ThumbnailFunc

	Provider auth.Provider
	Sessions *auth.Sessions

	Folder       string
	Tag          string
	Concurrency  int
	MaxFileBytes int64

	FeedbackDelay time.Duration
	Now           func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) feedbackDelay() time.Duration {
	if a.FeedbackDelay > 0 {
		return a.FeedbackDelay
	}
	return DefaultFeedbackDelay
}

func (a *App) concurrency() int {
	if a.Concurrency > 0 {
		return a.Concurrency
	}
	return 1
}

// Render builds the gallery cards for a snapshot with the app's thumbnail convention
func (a *App) Render(snap media.Snapshot) []media.Card {
	return media.Render(snap, a.Thumbnail)
}
