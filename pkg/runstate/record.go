package runstate

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies which pipeline stage a run belongs to.
type Kind string

const (
	KindFetch   Kind = "fetch"
	KindConvert Kind = "convert"
)

// Status is the outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Record describes one pipeline run.
type Record struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	// Date is the sales date partition the run worked on.
	Date string `json:"date"`

	RawDir string `json:"raw_dir,omitempty"`
	StgDir string `json:"stg_dir,omitempty"`

	Status Status `json:"status"`

	// Pages is the number of sales pages fetched. Convert runs leave it 0.
	Pages int `json:"pages,omitempty"`

	// Files is the number of files the run wrote (raw pages or Avro files).
	Files int `json:"files"`

	// Records is the number of sales records converted. Fetch runs leave it 0.
	Records int `json:"records,omitempty"`

	Error string `json:"error,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewRecord starts a record for a run of kind on date with a fresh ID.
func NewRecord(kind Kind, date string) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Kind:      kind,
		Date:      date,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the end time and sets the status from err.
func (r *Record) Finish(err error) {
	r.FinishedAt = time.Now().UTC()
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = StatusSucceeded
	r.Error = ""
}

// Duration returns how long the run took, or 0 while it is still running.
func (r *Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
