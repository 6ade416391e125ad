package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattjoyce/scribe-gw/internal/job"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	pending, err := s.store.CountByStatus(r.Context(), job.StatusPending)
	if err != nil {
		s.logger.Error("failed to count pending jobs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to count pending jobs")
		return
	}

	s.writeJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		PendingJobs:   pending,
	})
}

// handleCreateReadme handles POST /jobs/create.
func (s *Server) handleCreateReadme(w http.ResponseWriter, r *http.Request) {
	var req CreateReadmeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.submit(w, r, job.KindReadme, req.Inputs())
}

// handleSubmitJob handles POST /jobs.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if !req.Kind.Valid() {
		s.writeError(w, http.StatusBadRequest, "unknown job kind")
		return
	}
	s.submit(w, r, req.Kind, req.Inputs)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, kind job.Kind, in job.Inputs) {
	if err := job.ValidateInputs(kind, in); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	j, err := s.store.Create(r.Context(), kind, in)
	if err != nil {
		s.logger.Error("failed to create job", "kind", kind, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	s.logger.Info("job submitted", "job_id", j.ID, "kind", kind)
	s.events.Publish("job.created", map[string]any{
		"at":     j.CreatedAt.Format(time.RFC3339Nano),
		"job_id": j.ID,
		"kind":   kind,
	})
	if s.waker != nil {
		s.waker.Wake()
	}

	s.writeJSON(w, http.StatusAccepted, newJobResponse(j))
}

// handleGetJob handles GET /jobs/{jobID}.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	j, err := s.store.Get(r.Context(), jobID)
	if errors.Is(err, job.ErrJobNotFound) {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load job", "job_id", jobID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	s.writeJSON(w, http.StatusOK, newJobResponse(j))
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, buildOpenAPIDoc())
}

// decodeBody decodes a bounded JSON body, writing a 400/413 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
