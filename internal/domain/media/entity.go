package media

import (
	"strings"

	"github.com/google/uuid"
)

// Type is the media kind shown in the gallery badge
type Type string

const (
	TypeImage Type = "image"
	TypeVideo Type = "video"
)

// Record is one gallery media item. Order is the creation time in epoch
// milliseconds and is never changed after creation.
type Record struct {
	URL    string `json:"url" db:"url"`
	FileID string `json:"fileId" db:"file_id"`
	Type   Type   `json:"type" db:"type"`
	Alt    string `json:"alt" db:"alt"`
	Order  int64  `json:"order" db:"sort_order"`
	UID    string `json:"uid" db:"uid"`
}

// Validate checks the fields every stored record must have
func (r Record) Validate() error {
	if r.URL == "" {
		return ErrMissingURL
	}
	if r.Type != TypeImage && r.Type != TypeVideo {
		return ErrInvalidType
	}
	return nil
}

// Patch is a partial update. Only non-nil fields change.
type Patch struct {
	Alt *string `json:"alt,omitempty"`
}

// AltPatch builds the patch that replaces the alt text
func AltPatch(alt string) Patch {
	return Patch{Alt: &alt}
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool { return p.Alt == nil }

// Apply returns r with the patch applied
func (p Patch) Apply(r Record) Record {
	if p.Alt != nil {
		r.Alt = *p.Alt
	}
	return r
}

// Entry is a keyed record
type Entry struct {
	Key    string `json:"key"`
	Record Record `json:"record"`
}

// Snapshot is the full collection in key (creation) order
type Snapshot []Entry

// Get returns the record stored under key
func (s Snapshot) Get(key string) (Record, bool) {
	for _, e := range s {
		if e.Key == key {
			return e.Record, true
		}
	}
	return Record{}, false
}

// TypeFor derives the media type from a declared content type.
func TypeFor(contentType string) Type {
	if strings.HasPrefix(contentType, "video") {
		return TypeVideo
	}
	return TypeImage
}

// DefaultAlt picks the default alt text, else the file name, and strips the last
// extension: "rose.jpg" -> "rose", "a.b.png" -> "a.b", "name." is kept.
func DefaultAlt(defaultAlt, fileName string) string {
	s := defaultAlt
	if s == "" {
		s = fileName
	}
	if idx := strings.LastIndex(s, "."); idx >= 0 && idx < len(s)-1 {
		return s[:idx]
	}
	return s
}

// NewKey returns a time-ordered record key
func NewKey() string {
	return uuid.Must(uuid.NewV7()).String()
}
