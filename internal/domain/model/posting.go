// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Posting represents a single job listing. The URL is the posting's identity:
// two postings with the same URL are the same entity regardless of other
// fields. Nothing mutates a Posting after it is handed to the store; the
// notified transition lives in the store, not on the value.
type Posting struct {
	Company     string    `json:"company"`
	Title       string    `json:"title"`
	URL         string    `json:"url"` // unique identity, never rewritten
	Location    string    `json:"location,omitempty"`
	JobType     string    `json:"job_type,omitempty"`
	Description string    `json:"description,omitempty"`
	FirstSeen   time.Time `json:"first_seen,omitempty"`
	Notified    bool      `json:"notified"`
}

// Valid reports whether the posting carries the minimum fields the pipeline
// requires. Producers may yield partially-populated records; anything without
// an identity or a title is dropped at the collection boundary.
func (p Posting) Valid() bool {
	return strings.TrimSpace(p.URL) != "" && strings.TrimSpace(p.Title) != ""
}

// ProbeText returns the text the matching engine evaluates include and
// exclude keywords against.
func (p Posting) ProbeText() string {
	return p.Title + " " + p.Description
}
