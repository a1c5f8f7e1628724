package storage

import "time"

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run is one recorded filter-and-copy invocation.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Request info
	Prompt     string `json:"prompt"`
	BaseDir    string `json:"base_dir"`
	OutputDir  string `json:"output_dir"`
	FilterJSON string `json:"filter"`

	// Outcome
	Status             string `json:"status"` // ok | failed
	Error              string `json:"error,omitempty"`
	Scanned            int    `json:"scanned"`
	Matched            int    `json:"matched"`
	SkippedMissingMeta int    `json:"skipped_missing_meta"`

	// Files is only populated by GetRun.
	Files []string `json:"files,omitempty"`
}

// ListOptions controls selection when listing runs.
type ListOptions struct {
	Limit  int
	Since  time.Time
	Status string
}

// StatusStats aggregates runs sharing a status.
type StatusStats struct {
	Status             string `json:"status"`
	RunCount           int    `json:"runs"`
	Scanned            int    `json:"scanned"`
	Matched            int    `json:"matched"`
	SkippedMissingMeta int    `json:"skipped_missing_meta"`
}
