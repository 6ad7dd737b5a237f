package model

import "time"

// RunStatus is the outcome of a crawl run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is one invocation of the crawl loop as kept in the history database.
type Run struct {
	ID         int64     `json:"id"`
	RootURL    string    `json:"root_url"`
	OutputFile string    `json:"output_file"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Status     RunStatus `json:"status"`

	Discovered   int `json:"discovered"`
	Skipped      int `json:"skipped"`
	Fetched      int `json:"fetched"`
	NewRecords   int `json:"new_records"`
	TotalRecords int `json:"total_records"`

	// Error is the message of the error that ended the run, if any.
	Error string `json:"error,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FetchRecord describes one category page fetch.
type FetchRecord struct {
	ID          int64         `json:"id"`
	RunID       int64         `json:"run_id"`
	Category    string        `json:"category"`
	PageID      string        `json:"page_id"`
	URL         string        `json:"url"`
	Referer     string        `json:"referer"`
	UserAgent   string        `json:"user_agent"`
	StatusCode  int           `json:"status_code"`
	ContentHash string        `json:"content_hash"`
	Snippets    int           `json:"snippets"`
	Duration    time.Duration `json:"duration"`
	FetchedAt   time.Time     `json:"fetched_at"`
}
