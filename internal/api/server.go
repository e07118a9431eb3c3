package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"async-job-dispatcher/internal/config"
	"async-job-dispatcher/internal/lifecycle"
	"async-job-dispatcher/internal/models"
	"async-job-dispatcher/internal/telemetry"
)

// Lifecycle is the submission/completion surface the handlers orchestrate.
type Lifecycle interface {
	Submit(ctx context.Context, delay int) (models.Job, error)
	Complete(ctx context.Context, jobID string) (lifecycle.CompleteResult, error)
}

// JobReader serves record lookups for the read-only endpoint.
type JobReader interface {
	GetJob(ctx context.Context, id string) (models.Job, bool, error)
}

// Server wires HTTP handlers for the job dispatcher API.
type Server struct {
	cfg     config.Config
	manager Lifecycle
	jobs    JobReader
	log     *logrus.Logger
}

// New constructs the API server.
func New(cfg config.Config, manager Lifecycle, jobs JobReader, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		cfg:     cfg,
		manager: manager,
		jobs:    jobs,
		log:     log,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/metrics", telemetry.Handler())

	r.Post("/jobs", s.handleSubmit)
	r.Post("/jobs/{id}/complete", s.handleComplete)
	r.Get("/jobs/{id}", s.handleGetJob)
	return r
}

type submitRequest struct {
	Delay *int `json:"delay"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Delay == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "payload sent is unexpected, expects: {'delay': int}",
		})
		return
	}

	job, err := s.manager.Submit(r.Context(), *req.Delay)
	if err != nil {
		if errors.Is(err, lifecycle.ErrLimitReached) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"message": "Too many concurrent requests. Try again later.",
			})
			return
		}
		s.log.WithError(err).Error("Submission failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "something went wrong",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Job submitted successfully",
		"id":      job.ID,
	})
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := s.manager.Complete(r.Context(), id)
	if err != nil {
		if errors.Is(err, lifecycle.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"message": "Invalid id parameter",
			})
			return
		}
		s.log.WithError(err).WithFields(logrus.Fields{"job_id": id}).Error("Completion failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "something went wrong",
		})
		return
	}
	if !res.Found {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"message": "job not found",
		})
		return
	}

	// Duplicate signals land here with res.Updated == false; the response is
	// identical so at-least-once delivery stays idempotent for the caller.
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Job status updated to COMPLETED",
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, found, err := s.jobs.GetJob(r.Context(), id)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"job_id": id}).Error("Lookup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "something went wrong",
		})
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"message": "job not found",
		})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
