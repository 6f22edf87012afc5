package domain

import (
	"encoding/json"
	"time"
)

// Connection links one dream to one life event.
type Connection struct {
	ID          int64     `json:"id"`
	DreamID     int64     `json:"dreamId"`
	LifeEventID int64     `json:"lifeEventId"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`

	// Extra holds fields this version does not know about.
	Extra map[string]json.RawMessage `json:"-"`
}

// NewConnection builds a validated connection. The caller assigns the ID.
func NewConnection(dreamID, lifeEventID int64, notes string, now time.Time) (*Connection, error) {
	c := &Connection{
		DreamID:     dreamID,
		LifeEventID: lifeEventID,
		Notes:       notes,
		CreatedAt:   now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that both ends of the connection are set.
func (c *Connection) Validate() error {
	if c.DreamID == 0 {
		return NewValidationError("dreamId", "is required", ErrValidation)
	}
	if c.LifeEventID == 0 {
		return NewValidationError("lifeEventId", "is required", ErrValidation)
	}
	return nil
}

// Pair is the (dream, life event) key that must be unique across connections.
type Pair struct {
	DreamID     int64
	LifeEventID int64
}

// Pair returns the connection's uniqueness key.
func (c *Connection) Pair() Pair {
	return Pair{DreamID: c.DreamID, LifeEventID: c.LifeEventID}
}

// References reports whether the connection points at the entry id of
// the given kind.
func (c *Connection) References(kind Kind, id int64) bool {
	switch kind {
	case KindDream:
		return c.DreamID == id
	case KindEvent:
		return c.LifeEventID == id
	default:
		return false
	}
}

var connectionFields = []string{"id", "dreamId", "lifeEventId", "notes", "createdAt"}

// MarshalJSON writes the known fields followed by any preserved unknown ones.
func (c Connection) MarshalJSON() ([]byte, error) {
	type plain Connection
	data, err := json.Marshal(plain(c))
	if err != nil {
		return nil, err
	}
	return appendExtra(data, connectionFields, c.Extra)
}

// UnmarshalJSON reads the known fields and keeps the rest in Extra.
func (c *Connection) UnmarshalJSON(data []byte) error {
	type plain Connection
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		// Keep what fits and carry mistyped members through verbatim.
		p = plain{}
		extra, lerr := decodeLenient(data, connectionFields, &p)
		if lerr != nil {
			return err
		}
		p.Extra = extra
		*c = Connection(p)
		return nil
	}
	extra, err := collectExtra(data, connectionFields)
	if err != nil {
		return err
	}
	p.Extra = extra
	*c = Connection(p)
	return nil
}

// Clone returns a deep copy.
func (c *Connection) Clone() *Connection {
	out := *c
	out.Extra = cloneExtra(c.Extra)
	return &out
}

// ResolvedConnection is a connection together with both entries it links.
type ResolvedConnection struct {
	Connection *Connection `json:"connection"`
	Dream      *Entry      `json:"dream"`
	LifeEvent  *Entry      `json:"lifeEvent"`
}
