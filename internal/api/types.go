package api

import (
	"time"

	"github.com/mattjoyce/scribe-gw/internal/job"
)

// CreateReadmeRequest is the JSON body for POST /jobs/create.
type CreateReadmeRequest struct {
	ProjectName string `json:"project_name"`
	TechStack   string `json:"tech_stack"`
	Languages   string `json:"languages"`
	Description string `json:"description"`
}

// Inputs maps the request onto readme job inputs.
func (r CreateReadmeRequest) Inputs() job.Inputs {
	return job.Inputs{
		"project_name": r.ProjectName,
		"tech_stack":   r.TechStack,
		"languages":    r.Languages,
		"description":  r.Description,
	}
}

// SubmitJobRequest is the JSON body for POST /jobs.
type SubmitJobRequest struct {
	Kind   job.Kind   `json:"kind"`
	Inputs job.Inputs `json:"inputs"`
}

// JobResponse is the wire form of a job.
type JobResponse struct {
	JobID       string     `json:"job_id"`
	Kind        job.Kind   `json:"kind"`
	Status      job.Status `json:"status"`
	Result      *string    `json:"result"`
	Error       *string    `json:"error"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

func newJobResponse(j *job.Job) JobResponse {
	return JobResponse{
		JobID:       j.ID,
		Kind:        j.Kind,
		Status:      j.Status,
		Result:      j.Result,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	PendingJobs   int    `json:"pending_jobs"`
}
