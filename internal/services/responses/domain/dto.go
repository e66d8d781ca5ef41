// Package domain holds DTOs for the responses http and service contracts
package domain

import (
	"fmt"

	"likert/internal/core/aggregate"
	"likert/internal/core/schema"
)

// SubmitInput is what the form posts. Answers stay loosely typed so a non integer
// reaches the schema and is reported per field instead of failing the whole body
type SubmitInput struct {
	Answers map[string]any    `json:"answers" validate:"required"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// ToSchema formats answers the way the form would have posted them
func (in SubmitInput) ToSchema() schema.Input {
	out := schema.Input{Answers: make(map[string]string, len(in.Answers)), Meta: in.Meta}
	for id, v := range in.Answers {
		if v == nil {
			continue
		}
		out.Answers[id] = fmt.Sprint(v)
	}
	return out
}

// Ack confirms a stored submission
type Ack struct {
	ResponseID  string `json:"response_id" example:"7d0c0f5e-3a3e-4d0b-9d53-2f6b1e0b9c11"`
	SubmittedAt string `json:"submitted_at" example:"2025-03-01T12:00:00.000000Z"`
}

// Listing is every readable record, oldest first
type Listing struct {
	Records        []schema.Record `json:"records"`
	MalformedCount int             `json:"malformed_count"`
}

// Stats is the aggregate snapshot plus a warning when the store could not be read
type Stats struct {
	aggregate.Snapshot
	Warning string `json:"warning,omitempty"`
}

// RepairReport summarises a schema repair rewrite
type RepairReport struct {
	Rows      int               `json:"rows"`
	Malformed int               `json:"malformed"`
	Header    []string          `json:"header"`
	Renamed   map[string]string `json:"renamed,omitempty"`
	Extra     []string          `json:"extra,omitempty"`
}

// Download is a rendered export
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}
