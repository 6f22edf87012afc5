package api

import (
	"github.com/phrazzld/dream-diary/internal/domain"
)

// EntryRequest is the body of a dream or life event create/update. Tags is
// the raw comma-separated string typed into the entry form.
type EntryRequest struct {
	Title   string `json:"title"   validate:"required,max=500"`
	Content string `json:"content" validate:"required"`
	Date    string `json:"date"    validate:"omitempty,max=10"`
	Time    string `json:"time"    validate:"omitempty,max=5"`
	Mood    string `json:"mood"    validate:"omitempty,max=32"`
	Tags    string `json:"tags"    validate:"max=2000"`
}

// Fields converts the request into domain entry fields.
func (r EntryRequest) Fields() domain.EntryFields {
	return domain.EntryFields{
		Title:   r.Title,
		Content: r.Content,
		Date:    r.Date,
		Time:    r.Time,
		Mood:    domain.Mood(r.Mood),
		Tags:    r.Tags,
	}
}

// ConnectionRequest is the body of a connection create.
type ConnectionRequest struct {
	DreamID     int64  `json:"dreamId"     validate:"required,gt=0"`
	LifeEventID int64  `json:"lifeEventId" validate:"required,gt=0"`
	Notes       string `json:"notes"       validate:"max=5000"`
}

// DeleteResponse reports which record a delete removed.
type DeleteResponse struct {
	ID      int64  `json:"id"`
	Deleted bool   `json:"deleted"`
	Type    string `json:"type"`
}

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status string `json:"status"`
}
