package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

type jobSearchService interface {
	Search(ctx context.Context, identity models.Identity, filter models.JobSearchFilter) (*dto.JobSearchResult, error)
	Get(ctx context.Context, jobID string) (*models.Job, error)
}

type applyService interface {
	Preview(ctx context.Context, identity models.Identity, jobID string) (*dto.ApplyPreview, error)
	Apply(ctx context.Context, identity models.Identity, jobID string, req models.ApplyRequest) (*models.Application, string, error)
}

// JobHandler serves job search and applications for students.
type JobHandler struct {
	jobs        jobSearchService
	apply       applyService
	routePrefix string
}

// NewJobHandler constructs the handler.
func NewJobHandler(jobs jobSearchService, apply applyService, routePrefix string) *JobHandler {
	return &JobHandler{jobs: jobs, apply: apply, routePrefix: routePrefix}
}

// Search godoc
// @Summary Search open jobs
// @Tags Jobs
// @Produce json
// @Param search query string false "Matches title, position, description or company"
// @Param location query string false "Exact location"
// @Param selection_type query string false "normal or fast_track"
// @Param page query int false "Page number"
// @Success 200 {object} response.Envelope
// @Router /jobs [get]
func (h *JobHandler) Search(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))
	result, err := h.jobs.Search(c.Request.Context(), identity, models.JobSearchFilter{
		Search:        c.Query("search"),
		Location:      c.Query("location"),
		SelectionType: c.Query("selection_type"),
		Page:          page,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := result.Pagination
	response.JSON(c, http.StatusOK, result, &pagination)
}

// Get godoc
// @Summary Job detail
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id} [get]
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// ApplyPreview godoc
// @Summary Check whether the caller can apply
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /jobs/{id}/apply [get]
func (h *JobHandler) ApplyPreview(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	preview, err := h.apply.Preview(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// Apply godoc
// @Summary Apply to a job
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param payload body models.ApplyRequest false "Preference order (1-10, default 1)"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /jobs/{id}/apply [post]
func (h *JobHandler) Apply(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}

	var req models.ApplyRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&req); err != nil {
			response.Error(c, appErrors.Validation("invalid application payload", map[string]string{"preference_order": "Enter a whole number."}))
			return
		}
	}

	app, message, err := h.apply.Apply(requestContext(c), identity, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{
		"application": app,
		"redirect":    h.routePrefix + "/student/dashboard",
	}, map[string]interface{}{"message": message})
}
