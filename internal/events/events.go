package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/dream-diary/internal/domain"
)

// Event types
const (
	// TypeEntryDeleted is published after a dream or life event is removed.
	TypeEntryDeleted = "entry.deleted"
)

// Event is a notification published on the bus.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type selects how Payload is interpreted
	Type string `json:"type"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EntryDeletedPayload identifies the removed entry.
type EntryDeletedPayload struct {
	Kind    domain.Kind `json:"kind"`
	EntryID int64       `json:"entryId"`
}

// NewEntryDeletedEvent creates the event published after an entry is removed.
func NewEntryDeletedEvent(kind domain.Kind, entryID int64) (*Event, error) {
	return NewEvent(TypeEntryDeleted, EntryDeletedPayload{Kind: kind, EntryID: entryID})
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Handlers ignore event types they do not know.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers and
	// returns once every handler has run.
	EmitEvent(ctx context.Context, event *Event) error
}
