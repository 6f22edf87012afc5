package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExportVersion is written into every export document.
const ExportVersion = "1.0"

// ExportDocument is a complete snapshot of the journal.
type ExportDocument struct {
	Dreams      []*Entry      `json:"dreams"`
	LifeEvents  []*Entry      `json:"lifeEvents"`
	Connections []*Connection `json:"connections"`
	ExportDate  time.Time     `json:"exportDate"`
	Version     string        `json:"version"`
}

// ImportDocument is a decoded export document. A nil collection was absent
// (or null) in the input and must leave the current collection untouched.
type ImportDocument struct {
	Dreams      []*Entry        `json:"dreams"`
	LifeEvents  []*Entry        `json:"lifeEvents"`
	Connections []*Connection   `json:"connections"`
	ExportDate  json.RawMessage `json:"exportDate,omitempty"`
	Version     json.RawMessage `json:"version,omitempty"`
}

// DecodeImportDocument parses data as an export document. Any decoding
// failure is reported as a *ParseError.
func DecodeImportDocument(data []byte) (*ImportDocument, error) {
	var doc ImportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}
	// json.Unmarshal accepts a bare null as "nothing to do".
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &ParseError{Err: err}
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, &ParseError{Err: fmt.Errorf("expected a JSON object, got %T", probe)}
	}
	return &doc, nil
}

// BackupFileName is the suggested file name for an export taken at t.
func BackupFileName(t time.Time) string {
	return "dream-diary-backup-" + t.Format(DateLayout) + ".json"
}

// Stats is the derived read-only view over the journal.
type Stats struct {
	TotalDreams      int          `json:"totalDreams"`
	TotalEvents      int          `json:"totalEvents"`
	TotalConnections int          `json:"totalConnections"`
	DreamsByMood     map[Mood]int `json:"dreamsByMood"`
	RecentActivity   int          `json:"recentActivity"`
}
