package admin

import (
	"encoding/json"

	"github.com/flowersdz/gallery-admin/internal/domain/auth"
)

// EventType for websocket messages
type EventType string

const (
	EventAuthState        EventType = "auth_state"
	EventAuthError        EventType = "auth_error"
	EventGallery          EventType = "gallery"
	EventUploadRow        EventType = "upload_row"
	EventUploadProgress   EventType = "upload_progress"
	EventUploadFailed     EventType = "upload_failed"
	EventSelectionCleared EventType = "selection_cleared"
	EventSaveFeedback     EventType = "save_feedback"
	EventAlert            EventType = "alert"
	EventConfirm          EventType = "confirm"
	EventResult           EventType = "result"
)

// Event is a server to client message
type Event struct {
	Type EventType   `json:"type"`
	ID   string      `json:"id,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// AuthState is the EventAuthState payload
type AuthState struct {
	SignedIn bool           `json:"signedIn"`
	User     *auth.Identity `json:"user,omitempty"`
}

// Message carries a user-facing text
type Message struct {
	Message string `json:"message"`
}

// Progress is the payload of upload row updates
type Progress struct {
	Row     string `json:"row"`
	Percent int    `json:"percent"`
	Message string `json:"message,omitempty"`
}

// SaveFeedback is the EventSaveFeedback payload
type SaveFeedback struct {
	Key   string `json:"key"`
	Saved bool   `json:"saved"`
}

// Command is a client to server message
type Command struct {
	ID      string          `json:"id"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Result answers a Command
type Result struct {
	Type   EventType   `json:"type"`
	ID     string      `json:"id,omitempty"`
	Action string      `json:"action"`
	OK     bool        `json:"ok"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}
