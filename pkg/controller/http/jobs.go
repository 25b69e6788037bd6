package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/interfaces"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
)

const (
	defaultJobListLimit = 50
	maxJobListLimit     = 500
)

// JobHandler serves job records
type JobHandler struct {
	repo interfaces.JobRepository
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(repo interfaces.JobRepository) *JobHandler {
	return &JobHandler{repo: repo}
}

type jobListResponse struct {
	Jobs []*model.Job `json:"jobs"`
}

// List returns the most recent jobs. The limit query parameter bounds the result.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultJobListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, goerr.New("limit must be a positive integer", goerr.V("limit", v)), http.StatusBadRequest)
			return
		}
		limit = min(n, maxJobListLimit)
	}

	jobs, err := h.repo.List(ctx, limit)
	if err != nil {
		ctxlog.From(ctx).Error("Failed to list jobs", "error", err)
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []*model.Job{}
	}

	writeJSON(ctx, w, http.StatusOK, &jobListResponse{Jobs: jobs})
}

// Get returns a single job
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := types.JobID(chi.URLParam(r, "id"))

	job, err := h.repo.Get(ctx, id)
	if err != nil {
		ctxlog.From(ctx).Error("Failed to get job", "job_id", id, "error", err)
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if job == nil {
		writeError(w, goerr.New("job not found", goerr.V("job_id", id)), http.StatusNotFound)
		return
	}

	writeJSON(ctx, w, http.StatusOK, job)
}
