package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/middleware"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/service"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

type recruiterDashboardService interface {
	Recruiter(ctx context.Context, identity models.Identity, status string) (*dto.RecruiterDashboard, bool, error)
}

type jobPostingService interface {
	Create(ctx context.Context, identity models.Identity, req models.JobRequest) (*models.Job, error)
	Update(ctx context.Context, identity models.Identity, jobID string, req models.JobRequest) (*models.Job, error)
	ListOwn(ctx context.Context, identity models.Identity) ([]models.Job, error)
}

type pipelineService interface {
	ListForRecruiter(ctx context.Context, identity models.Identity, filter models.ApplicationFilter) (*dto.ApplicationList, error)
	UpdateStatus(ctx context.Context, identity models.Identity, applicationID, status string, filter models.ApplicationFilter) (*dto.ApplicationList, error)
	OpenCV(ctx context.Context, identity models.Identity, applicationID string) (*service.CVDownload, error)
}

type exportService interface {
	Applications(ctx context.Context, identity models.Identity, filter models.ApplicationFilter, format string) (*service.ExportFile, error)
}

// RecruiterHandler serves the recruiter area.
type RecruiterHandler struct {
	dashboard recruiterDashboardService
	jobs      jobPostingService
	pipeline  pipelineService
	exports   exportService
}

// NewRecruiterHandler constructs the handler.
func NewRecruiterHandler(dashboard recruiterDashboardService, jobs jobPostingService, pipeline pipelineService, exports exportService) *RecruiterHandler {
	return &RecruiterHandler{dashboard: dashboard, jobs: jobs, pipeline: pipeline, exports: exports}
}

// Dashboard godoc
// @Summary Recruiter dashboard
// @Tags Recruiter
// @Produce json
// @Param status query string false "Filter recent applications by status"
// @Success 200 {object} response.Envelope
// @Router /recruiter/dashboard [get]
func (h *RecruiterHandler) Dashboard(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	dashboard, cacheHit, err := h.dashboard.Recruiter(c.Request.Context(), identity, strings.TrimSpace(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, dashboard, nil, middleware.ExtractMeta(c))
}

// CreateJob godoc
// @Summary Post a job
// @Tags Recruiter
// @Accept json
// @Produce json
// @Param payload body models.JobRequest true "Job"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /recruiter/jobs [post]
func (h *RecruiterHandler) CreateJob(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req models.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid job payload"))
		return
	}
	job, err := h.jobs.Create(requestContext(c), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job, map[string]interface{}{"message": "Job posted successfully!"})
}

// ListJobs godoc
// @Summary Own job postings
// @Tags Recruiter
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /recruiter/jobs [get]
func (h *RecruiterHandler) ListJobs(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	jobs, err := h.jobs.ListOwn(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	response.JSON(c, http.StatusOK, jobs, nil)
}

// UpdateJob godoc
// @Summary Edit an owned job
// @Tags Recruiter
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param payload body models.JobRequest true "Job"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /recruiter/jobs/{id} [put]
func (h *RecruiterHandler) UpdateJob(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req models.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid job payload"))
		return
	}
	job, err := h.jobs.Update(requestContext(c), identity, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil, map[string]interface{}{"message": "Job updated successfully!"})
}

// Applications godoc
// @Summary Applications to own jobs
// @Tags Recruiter
// @Produce json
// @Param status query string false "Status filter"
// @Param job query string false "Job filter"
// @Success 200 {object} response.Envelope
// @Router /recruiter/applications [get]
func (h *RecruiterHandler) Applications(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	list, err := h.pipeline.ListForRecruiter(c.Request.Context(), identity, applicationFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// UpdateStatus godoc
// @Summary Move an application to another status
// @Description An unknown status answers 400 with the unchanged list.
// @Tags Recruiter
// @Produce json
// @Param id path string true "Application ID"
// @Param status path string true "Target status"
// @Param job query string false "Job filter"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /recruiter/applications/{id}/status/{status} [post]
func (h *RecruiterHandler) UpdateStatus(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	list, err := h.pipeline.UpdateStatus(requestContext(c), identity, c.Param("id"), c.Param("status"), applicationFilter(c))
	if err != nil {
		if list != nil {
			response.ErrorWithData(c, err, list)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil, map[string]interface{}{"message": list.Message})
}

// DownloadCV godoc
// @Summary Download an applicant's CV
// @Tags Recruiter
// @Produce application/octet-stream
// @Param id path string true "Application ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /recruiter/applications/{id}/cv [get]
func (h *RecruiterHandler) DownloadCV(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	download, err := h.pipeline.OpenCV(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, download.Size, download.ContentType, download.File, nil)
}

// Export godoc
// @Summary Export applications
// @Tags Recruiter
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param status query string false "Status filter"
// @Param job query string false "Job filter"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /recruiter/applications/export [get]
func (h *RecruiterHandler) Export(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	file, err := h.exports.Applications(c.Request.Context(), identity, applicationFilter(c), strings.ToLower(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func applicationFilter(c *gin.Context) models.ApplicationFilter {
	return models.ApplicationFilter{
		Status: models.ApplicationStatus(strings.TrimSpace(c.Query("status"))),
		JobID:  strings.TrimSpace(c.Query("job")),
	}
}
