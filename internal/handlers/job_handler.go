package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "exitprotocol/internal/errors"
	"exitprotocol/internal/jobs"
)

// JobHandler reports on recalculation jobs.
type JobHandler struct {
	store jobs.Store
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(store jobs.Store) *JobHandler {
	return &JobHandler{store: store}
}

// GetJob handles the retrieval of a recalculation job
// @Summary     Get job
// @Tags        jobs
// @Produce     json
// @Param       id path string true "Job ID"
// @Success     200 {object} jobs.Job "Job status"
// @Failure     400 {object} ErrorResponse "Invalid job ID"
// @Failure     404 {object} ErrorResponse "Job not found"
// @Router      /jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	job, err := h.store.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			respondWithError(c, apperrors.ErrJobNotFound)
			return
		}
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": job})
}

// ListJobs handles listing recent recalculation jobs
// @Summary     List jobs
// @Description List recent recalculation jobs, newest first
// @Tags        jobs
// @Produce     json
// @Param       kind      query string false "claim or account"
// @Param       target_id query string false "Claim or account ID"
// @Param       status    query string false "pending, running, completed or failed"
// @Param       limit     query int    false "Maximum number of jobs (default 50)"
// @Success     200 {object} map[string][]jobs.Job "Jobs"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	filter := jobs.Filter{
		Kind:     jobs.Kind(c.Query("kind")),
		TargetID: c.Query("target_id"),
		Status:   jobs.Status(c.Query("status")),
		Limit:    50,
	}
	switch filter.Kind {
	case "", jobs.KindClaim, jobs.KindAccount:
	default:
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "kind must be claim or account"))
		return
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be between 1 and 500"))
			return
		}
		filter.Limit = n
	}

	list, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": list})
}
