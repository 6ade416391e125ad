package job

import (
	"encoding/json"
	"errors"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Kind string

const (
	KindReadme        Kind = "readme"
	KindCommitSummary Kind = "commit_summary"
)

func (k Kind) Valid() bool {
	return k == KindReadme || k == KindCommitSummary
}

// Inputs are the generation inputs captured when a job is submitted.
type Inputs map[string]string

// Job is one persisted generation job.
type Job struct {
	ID          string
	Kind        Kind
	Status      Status
	Inputs      Inputs
	Result      *string
	Error       *string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// MarshalInputs encodes inputs for storage; nil encodes as an empty object.
func MarshalInputs(in Inputs) ([]byte, error) {
	if in == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(in)
}

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrInvalidJobState = errors.New("invalid job state")
	ErrInvalidKind     = errors.New("invalid job kind")
	ErrMissingInput    = errors.New("missing required input")
)
