package storage

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type Kind string

const (
	KindResearch Kind = "research"
	KindDraft    Kind = "draft"
	KindImage    Kind = "image"
	KindPublish  Kind = "publish"
	KindAuth     Kind = "auth"
)

// Event is one journal line: an outcome of a user-visible step.
// Events are appended in chronological order.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"user_id"`
	Kind      Kind      `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	OK        bool      `json:"ok"`
}

// Recorder persists journal events. Load returns them in append order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	Append(event Event) error
	Load() ([]Event, error)
}

// NewEvent stamps an event with a sortable id and the current UTC time.
func NewEvent(userID int64, kind Kind, ok bool, detail string) Event {
	now := time.Now().UTC()
	return Event{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Timestamp: now,
		UserID:    userID,
		Kind:      kind,
		Detail:    detail,
		OK:        ok,
	}
}
