package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

const recentApplicationsLimit = 10

type dashboardJobRepository interface {
	ListActiveWithCounts(ctx context.Context, recruiterID string, now time.Time) ([]models.JobWithCount, error)
}

type dashboardApplicationRepository interface {
	RecruiterStats(ctx context.Context, recruiterID string, now time.Time) (*models.RecruiterStats, error)
	ListForRecruiter(ctx context.Context, recruiterID string, filter models.ApplicationFilter) ([]models.ApplicationDetail, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Students     studentProfileRepository
	Jobs         dashboardJobRepository
	Applications dashboardApplicationRepository
	Cache        *CacheService
	Logger       *zap.Logger
	Config       DashboardServiceConfig
}

// DashboardService composes the student and recruiter dashboards.
type DashboardService struct {
	students studentProfileRepository
	jobs     dashboardJobRepository
	apps     dashboardApplicationRepository
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
	cfg      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students: params.Students,
		jobs:     params.Jobs,
		apps:     params.Applications,
		cache:    params.Cache,
		logger:   logger,
		now:      time.Now,
		cfg:      cfg,
	}
}

// Student projects the caller's own placement flags.
func (s *DashboardService) Student(ctx context.Context, identity models.Identity) (*dto.StudentDashboard, error) {
	student, err := s.students.FindStudentProfile(ctx, identity.UserID)
	if err != nil {
		return nil, profileLookupError(err, "student")
	}
	return &dto.StudentDashboard{
		CVApprovedStatus: student.CVApprovedStatus,
		JobStatus:        student.JobStatus,
		HasCV:            student.HasCV(),
	}, nil
}

// Recruiter returns the recruiter dashboard and whether it came from cache.
func (s *DashboardService) Recruiter(ctx context.Context, identity models.Identity, status string) (*dto.RecruiterDashboard, bool, error) {
	scope := status
	if scope == "" {
		scope = "all"
	}
	cacheKey := fmt.Sprintf(cacheKeyRecruiterDashFmt, identity.UserID, scope)

	cacheable := status == "" || models.ApplicationStatus(status).Valid()

	var cached dto.RecruiterDashboard
	if cacheable && s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	now := s.now().UTC()
	stats, err := s.apps.RecruiterStats(ctx, identity.UserID, now)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard stats")
	}

	jobs, err := s.jobs.ListActiveWithCounts(ctx, identity.UserID, now)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active jobs")
	}
	if jobs == nil {
		jobs = []models.JobWithCount{}
	}

	recent, err := s.apps.ListForRecruiter(ctx, identity.UserID, models.ApplicationFilter{
		Status: models.ApplicationStatus(status),
		Limit:  recentApplicationsLimit,
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent applications")
	}
	if recent == nil {
		recent = []models.ApplicationDetail{}
	}

	dashboard := &dto.RecruiterDashboard{
		Stats:              *stats,
		ActiveJobs:         jobs,
		RecentApplications: recent,
		StatusFilter:       status,
		Statuses:           dto.StatusChoices(),
	}
	if cacheable {
		s.cache.Set(ctx, cacheKey, dashboard, s.cfg.CacheTTL)
	}
	return dashboard, false, nil
}
