package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Kind is the entry discriminator.
type Kind string

// Possible entry kinds
const (
	KindDream Kind = "dream"
	KindEvent Kind = "event"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindDream || k == KindEvent
}

// ParseKind accepts the singular kinds plus the plural collection names
// used in URLs ("dreams", "events").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dream", "dreams":
		return KindDream, nil
	case "event", "events", "lifeevent", "lifeevents":
		return KindEvent, nil
	default:
		return "", NewValidationError("type", "must be dream or event", ErrInvalidKind)
	}
}

// Mood is how the user felt about an entry.
type Mood string

// Possible mood values
const (
	MoodHappy    Mood = "happy"
	MoodNeutral  Mood = "neutral"
	MoodSad      Mood = "sad"
	MoodAnxious  Mood = "anxious"
	MoodExcited  Mood = "excited"
	MoodPeaceful Mood = "peaceful"
)

// Moods lists every mood in display order.
var Moods = []Mood{MoodHappy, MoodNeutral, MoodSad, MoodAnxious, MoodExcited, MoodPeaceful}

// Valid reports whether m is part of the mood enumeration.
func (m Mood) Valid() bool {
	switch m {
	case MoodHappy, MoodNeutral, MoodSad, MoodAnxious, MoodExcited, MoodPeaceful:
		return true
	default:
		return false
	}
}

// Layouts for the date and time fields of an entry.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Entry is a dream or a life event. Both share one record shape; Type
// tells them apart.
type Entry struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Date      string    `json:"date"`
	Time      string    `json:"time,omitempty"`
	Mood      Mood      `json:"mood"`
	Tags      []string  `json:"tags"`
	Type      Kind      `json:"type"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`

	// Extra holds fields this version does not know about. They are
	// written back untouched.
	Extra map[string]json.RawMessage `json:"-"`
}

// EntryFields is the full set of user-editable entry fields, as submitted
// by the entry form. Tags is the raw comma-separated string.
type EntryFields struct {
	Title   string
	Content string
	Date    string
	Time    string
	Mood    Mood
	Tags    string
}

// NewEntry builds a validated entry of the given kind. The caller assigns
// the ID; timestamps are set to now.
func NewEntry(kind Kind, fields EntryFields, now time.Time) (*Entry, error) {
	if !kind.Valid() {
		return nil, NewValidationError("type", "must be dream or event", ErrInvalidKind)
	}

	entry := &Entry{
		Type:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := entry.apply(fields, now); err != nil {
		return nil, err
	}
	return entry, nil
}

// Replace overwrites every mutable field with fields and bumps UpdatedAt.
// ID, Type, CreatedAt and unknown fields are preserved; raw values kept
// for mistyped known fields are dropped. The entry is left untouched when
// validation fails.
func (e *Entry) Replace(fields EntryFields, now time.Time) error {
	next := *e
	if err := next.apply(fields, now); err != nil {
		return err
	}
	next.Extra = withoutMembers(e.Extra, entryFields)
	if now.Before(next.CreatedAt) {
		now = next.CreatedAt
	}
	if now.Before(e.UpdatedAt) {
		now = e.UpdatedAt
	}
	next.UpdatedAt = now
	*e = next
	return nil
}

// apply normalizes and validates fields onto e.
func (e *Entry) apply(fields EntryFields, now time.Time) error {
	title := strings.TrimSpace(fields.Title)
	if title == "" {
		return NewValidationError("title", "is required", ErrValidation)
	}
	content := strings.TrimSpace(fields.Content)
	if content == "" {
		return NewValidationError("content", "is required", ErrValidation)
	}

	date := strings.TrimSpace(fields.Date)
	if date == "" {
		date = now.Format(DateLayout)
	} else if _, err := time.Parse(DateLayout, date); err != nil {
		return NewValidationError("date", "must be YYYY-MM-DD", ErrInvalidDate)
	}

	clock := strings.TrimSpace(fields.Time)
	if clock != "" {
		if _, err := time.Parse(TimeLayout, clock); err != nil {
			return NewValidationError("time", "must be HH:MM", ErrInvalidTime)
		}
	}
	if e.Type != KindDream {
		clock = ""
	}

	mood := Mood(strings.ToLower(strings.TrimSpace(string(fields.Mood))))
	if mood == "" {
		mood = MoodNeutral
	}
	if !mood.Valid() {
		return NewValidationError("mood", "is not a known mood", ErrInvalidMood)
	}

	// Original field values are kept; only emptiness is judged on the
	// trimmed form.
	e.Title = fields.Title
	e.Content = fields.Content
	e.Date = date
	e.Time = clock
	e.Mood = mood
	e.Tags = ParseTags(fields.Tags)
	return nil
}

// Fields returns the editable fields of e, with tags joined the way the
// entry form shows them.
func (e *Entry) Fields() EntryFields {
	return EntryFields{
		Title:   e.Title,
		Content: e.Content,
		Date:    e.Date,
		Time:    e.Time,
		Mood:    e.Mood,
		Tags:    strings.Join(e.Tags, ", "),
	}
}

// ParsedDate returns the entry date as midnight in loc.
func (e *Entry) ParsedDate(loc *time.Location) (time.Time, bool) {
	d, err := time.ParseInLocation(DateLayout, e.Date, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// ParseTags splits a comma-separated string into trimmed, non-empty tags.
// Order is preserved and duplicates are kept.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

var entryFields = []string{
	"id", "title", "content", "date", "time", "mood", "tags", "type", "createdAt", "updatedAt",
}

// MarshalJSON writes the known fields followed by any preserved unknown ones.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	p := plain(e)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return appendExtra(data, entryFields, e.Extra)
}

// UnmarshalJSON reads the known fields and keeps the rest in Extra.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		// Keep what fits and carry mistyped members through verbatim.
		p = plain{}
		extra, lerr := decodeLenient(data, entryFields, &p)
		if lerr != nil {
			return err
		}
		p.Extra = extra
		*e = Entry(p)
		return nil
	}
	extra, err := collectExtra(data, entryFields)
	if err != nil {
		return err
	}
	p.Extra = extra
	*e = Entry(p)
	return nil
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (e *Entry) Clone() *Entry {
	c := *e
	if e.Tags != nil {
		c.Tags = append([]string(nil), e.Tags...)
	}
	c.Extra = cloneExtra(e.Extra)
	return &c
}
