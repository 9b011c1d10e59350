package admin

import (
	"context"
	"sync"

	"github.com/flowersdz/gallery-admin/internal/domain/auth"
	"github.com/flowersdz/gallery-admin/internal/domain/media"
)

// UploadRow is one file in the upload list
type UploadRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// View is the rendering layer a controller drives
type View interface {
	ShowAuthState(user *auth.Identity)
	ShowAuthError(message string)
	RenderGallery(cards []media.Card)
	UploadRowAdded(row UploadRow)
	UploadProgress(rowID string, percent int)
	UploadFailed(rowID, message string)
	SelectionCleared()
	SaveFeedback(key string, saved bool)
	Alert(message string)
	Confirm(ctx context.Context, message string) bool
}

// EventView turns view calls into events for a sink. Confirm always declines;
// views that can ask embed it and override Confirm.
type EventView struct {
	emit func(Event)
}

// NewEventView creates a view writing to emit
func NewEventView(emit func(Event)) *EventView {
	return &EventView{emit: emit}
}

func (v *EventView) ShowAuthState(user *auth.Identity) {
	v.emit(Event{Type: EventAuthState, Data: AuthState{SignedIn: user != nil, User: user}})
}

func (v *EventView) ShowAuthError(message string) {
	v.emit(Event{Type: EventAuthError, Data: Message{Message: message}})
}

func (v *EventView) RenderGallery(cards []media.Card) {
	v.emit(Event{Type: EventGallery, Data: cards})
}

func (v *EventView) UploadRowAdded(row UploadRow) {
	v.emit(Event{Type: EventUploadRow, Data: row})
}

func (v *EventView) UploadProgress(rowID string, percent int) {
	v.emit(Event{Type: EventUploadProgress, Data: Progress{Row: rowID, Percent: percent}})
}

func (v *EventView) UploadFailed(rowID, message string) {
	v.emit(Event{Type: EventUploadFailed, Data: Progress{Row: rowID, Message: message}})
}

func (v *EventView) SelectionCleared() {
	v.emit(Event{Type: EventSelectionCleared})
}

func (v *EventView) SaveFeedback(key string, saved bool) {
	v.emit(Event{Type: EventSaveFeedback, Data: SaveFeedback{Key: key, Saved: saved}})
}

func (v *EventView) Alert(message string) {
	v.emit(Event{Type: EventAlert, Data: Message{Message: message}})
}

func (v *EventView) Confirm(ctx context.Context, message string) bool {
	return false
}

// RequestView records the events of one HTTP request. The request answers the
// delete confirmation up front with ?confirm=true.
type RequestView struct {
	*EventView
	confirmed bool

	mu     sync.Mutex
	events []Event
}

// NewRequestView creates a request view
func NewRequestView(confirmed bool) *RequestView {
	v := &RequestView{confirmed: confirmed}
	v.EventView = NewEventView(v.record)
	return v
}

func (v *RequestView) record(e Event) {
	v.mu.Lock()
	v.events = append(v.events, e)
	v.mu.Unlock()
}

// Confirm returns the request's up-front answer
func (v *RequestView) Confirm(ctx context.Context, message string) bool {
	return v.confirmed
}

// Events returns the recorded events in order
func (v *RequestView) Events() []Event {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Event, len(v.events))
	copy(out, v.events)
	return out
}

// multiView fans every call out to all views; the first one answers Confirm.
type multiView []View

// MultiView combines views
func MultiView(views ...View) View {
	return multiView(views)
}

func (m multiView) ShowAuthState(user *auth.Identity) {
	for _, v := range m {
		v.ShowAuthState(user)
	}
}

func (m multiView) ShowAuthError(message string) {
	for _, v := range m {
		v.ShowAuthError(message)
	}
}

func (m multiView) RenderGallery(cards []media.Card) {
	for _, v := range m {
		v.RenderGallery(cards)
	}
}

func (m multiView) UploadRowAdded(row UploadRow) {
	for _, v := range m {
		v.UploadRowAdded(row)
	}
}

func (m multiView) UploadProgress(rowID string, percent int) {
	for _, v := range m {
		v.UploadProgress(rowID, percent)
	}
}

func (m multiView) UploadFailed(rowID, message string) {
	for _, v := range m {
		v.UploadFailed(rowID, message)
	}
}

func (m multiView) SelectionCleared() {
	for _, v := range m {
		v.SelectionCleared()
	}
}

func (m multiView) SaveFeedback(key string, saved bool) {
	for _, v := range m {
		v.SaveFeedback(key, saved)
	}
}

func (m multiView) Alert(message string) {
	for _, v := range m {
		v.Alert(message)
	}
}

func (m multiView) Confirm(ctx context.Context, message string) bool {
	if len(m) == 0 {
		return false
	}
	return m[0].Confirm(ctx, message)
}
