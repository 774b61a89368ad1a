// Package types contains common types used across the application
package types

import "time"

// SourceResult summarizes one producer's contribution to a cycle.
type SourceResult struct {
	Source  string `json:"source"`
	Scraped int    `json:"scraped"`
	Err     string `json:"error,omitempty"`
}

// ChannelResult summarizes one delivery channel's outcome for a cycle.
type ChannelResult struct {
	Channel   string `json:"channel"`
	Attempted int    `json:"attempted"`
	Delivered int    `json:"delivered"`
	Err       string `json:"error,omitempty"`
}

// CycleReport is the outcome of one collect->filter->dedup->notify cycle.
type CycleReport struct {
	CycleID  string          `json:"cycle_id"`
	Started  time.Time       `json:"started"`
	Duration time.Duration   `json:"duration"`
	Sources  []SourceResult  `json:"sources"`
	Scraped  int             `json:"scraped"`
	Matched  int             `json:"matched"`
	New      int             `json:"new"`
	Channels []ChannelResult `json:"channels"`
	Notified int             `json:"notified"`
}
