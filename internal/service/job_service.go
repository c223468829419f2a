package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

const msgDeadlineInPast = "Last date to apply cannot be in the past."

type jobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	Update(ctx context.Context, job *models.Job) error
	FindOwned(ctx context.Context, id, recruiterID string) (*models.Job, error)
	FindActive(ctx context.Context, id string) (*models.Job, error)
	ListByRecruiter(ctx context.Context, recruiterID string) ([]models.Job, error)
	CountSearch(ctx context.Context, filter models.JobSearchFilter, now time.Time) (int, error)
	Search(ctx context.Context, filter models.JobSearchFilter, now time.Time, limit, offset int) ([]models.Job, error)
	Locations(ctx context.Context) ([]string, error)
}

type appliedJobsRepository interface {
	AppliedJobIDs(ctx context.Context, studentID string) ([]string, error)
}

// JobService manages recruiter postings and the student job search.
type JobService struct {
	jobs         jobRepository
	applied      appliedJobsRepository
	cache        *CacheService
	audit        auditTrail
	validator    *validator.Validate
	logger       *zap.Logger
	locationsTTL time.Duration
	now          func() time.Time
}

// NewJobService constructs a JobService.
func NewJobService(jobs jobRepository, applied appliedJobsRepository, cache *CacheService, audit auditRepository, validate *validator.Validate, logger *zap.Logger, locationsTTL time.Duration) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &JobService{
		jobs:         jobs,
		applied:      applied,
		cache:        cache,
		audit:        newAuditTrail(audit, logger),
		validator:    validate,
		logger:       logger,
		locationsTTL: locationsTTL,
		now:          time.Now,
	}
}

// Create posts a job owned by the calling recruiter.
func (s *JobService) Create(ctx context.Context, identity models.Identity, req models.JobRequest) (*models.Job, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	job := &models.Job{RecruiterID: identity.UserID}
	applyJobRequest(job, req)
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create job")
	}

	s.invalidate(ctx, identity.UserID)
	s.audit.record(ctx, identity.UserID, models.AuditActionJobCreate, "job", job.ID, map[string]string{"title": job.Title})
	return job, nil
}

// Update edits a job owned by the caller; foreign or unknown ids are not found.
func (s *JobService) Update(ctx context.Context, identity models.Identity, jobID string, req models.JobRequest) (*models.Job, error) {
	job, err := s.ownedJob(ctx, identity, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	applyJobRequest(job, req)
	if err := s.jobs.Update(ctx, job); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update job")
	}

	s.invalidate(ctx, identity.UserID)
	s.audit.record(ctx, identity.UserID, models.AuditActionJobUpdate, "job", job.ID, map[string]string{"title": job.Title})
	return job, nil
}

// ListOwn returns every job the recruiter posted.
func (s *JobService) ListOwn(ctx context.Context, identity models.Identity) ([]models.Job, error) {
	jobs, err := s.jobs.ListByRecruiter(ctx, identity.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list jobs")
	}
	return jobs, nil
}

// Get returns an active job.
func (s *JobService) Get(ctx context.Context, jobID string) (*models.Job, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	job, err := s.jobs.FindActive(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	return job, nil
}

// Search returns a page of open jobs for a student. Out-of-range pages are
// clamped into [1, last].
func (s *JobService) Search(ctx context.Context, identity models.Identity, filter models.JobSearchFilter) (*dto.JobSearchResult, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Location = strings.TrimSpace(filter.Location)
	filter.SelectionType = strings.TrimSpace(filter.SelectionType)
	now := s.now().UTC()

	total, err := s.jobs.CountSearch(ctx, filter, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count jobs")
	}
	page := models.NewPagination(filter.Page, models.JobsPageSize, total)

	jobs, err := s.jobs.Search(ctx, filter, now, page.PageSize, page.Offset())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search jobs")
	}

	locations, err := s.Locations(ctx)
	if err != nil {
		return nil, err
	}

	applied, err := s.applied.AppliedJobIDs(ctx, identity.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load applied jobs")
	}

	if jobs == nil {
		jobs = []models.Job{}
	}
	if applied == nil {
		applied = []string{}
	}
	return &dto.JobSearchResult{
		Jobs:          jobs,
		Pagination:    page,
		Locations:     locations,
		AppliedJobIDs: applied,
		Search:        filter.Search,
		Location:      filter.Location,
		SelectionType: filter.SelectionType,
	}, nil
}

// Locations returns every distinct job location, served from cache when possible.
func (s *JobService) Locations(ctx context.Context) ([]string, error) {
	var locations []string
	if s.cache.Get(ctx, cacheKeyJobLocations, &locations) {
		return locations, nil
	}
	locations, err := s.jobs.Locations(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locations")
	}
	if locations == nil {
		locations = []string{}
	}
	s.cache.Set(ctx, cacheKeyJobLocations, locations, s.locationsTTL)
	return locations, nil
}

func (s *JobService) ownedJob(ctx context.Context, identity models.Identity, jobID string) (*models.Job, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	job, err := s.jobs.FindOwned(ctx, jobID, identity.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	return job, nil
}

func (s *JobService) validate(req models.JobRequest) error {
	var extra map[string]string
	if !req.LastDateToApply.IsZero() && !req.LastDateToApply.After(s.now()) {
		extra = map[string]string{"last_date_to_apply": msgDeadlineInPast}
	}
	return validationFailure("invalid job payload", s.validator.Struct(req), extra)
}

func (s *JobService) invalidate(ctx context.Context, recruiterID string) {
	s.cache.Invalidate(ctx, cacheKeyJobLocations)
	s.cache.Invalidate(ctx, fmt.Sprintf(cacheKeyRecruiterDashAll, recruiterID))
}

func applyJobRequest(job *models.Job, req models.JobRequest) {
	job.Title = strings.TrimSpace(req.Title)
	job.Description = req.Description
	job.Criteria = req.Criteria
	job.SelectionType = req.SelectionType
	if job.SelectionType == "" {
		job.SelectionType = models.SelectionNormal
	}
	job.LastDateToApply = req.LastDateToApply.UTC()
	job.IsActive = true
	if req.IsActive != nil {
		job.IsActive = *req.IsActive
	}
	job.Position = strings.TrimSpace(req.Position)
	job.Location = strings.TrimSpace(req.Location)
	job.SalaryRange = nil
	if salary := strings.TrimSpace(req.SalaryRange); salary != "" {
		job.SalaryRange = &salary
	}
}
