package storage

import "time"

// RunRow is the lightweight listing shape for stored runs; the full run
// (corpus, context, issues) lives in run_json and comes back via LoadRun.
type RunRow struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	Sources       string    `json:"sources,omitempty"`
	SchemaVersion string    `json:"schema_version,omitempty"`
	Issues        int       `json:"issues"`
	Critical      int       `json:"critical"`
}
