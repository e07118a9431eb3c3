package models

import (
	"time"
)

// JobStatus enumerates lifecycle states persisted in Postgres.
const (
	StatusActive    = "ACTIVE"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Job is the persisted record for one submitted job. A job is created ACTIVE,
// moves to COMPLETED exactly once when its completion signal arrives, or to
// FAILED if dispatch could not be acknowledged after the record was written.
type Job struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	LastError   *string   `json:"last_error,omitempty"`
}

// Dispatch is the envelope handed to the runner: the job id plus the delay
// (seconds) requested by the submitter, forwarded verbatim.
type Dispatch struct {
	ID    string `json:"id"`
	Delay int    `json:"delay"`
}
