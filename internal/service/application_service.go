package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/storage"
)

const (
	msgNoCV            = "This student has not uploaded a CV."
	msgDownloadFailed  = "Error downloading CV"
	msgPreferenceRange = "Ensure this value is between 1 and 10."
)

var cvContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type applicationJobRepository interface {
	FindActive(ctx context.Context, id string) (*models.Job, error)
	ListByRecruiter(ctx context.Context, recruiterID string) ([]models.Job, error)
}

type applicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	Exists(ctx context.Context, studentID, jobID string) (bool, error)
	FindForRecruiter(ctx context.Context, id, recruiterID string) (*models.ApplicationDetail, error)
	UpdateStatus(ctx context.Context, id, recruiterID string, status models.ApplicationStatus) error
	ListForRecruiter(ctx context.Context, recruiterID string, filter models.ApplicationFilter) ([]models.ApplicationDetail, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.ApplicationDetail, error)
}

type studentProfileRepository interface {
	FindStudentProfile(ctx context.Context, userID string) (*models.StudentProfile, error)
}

// ApplicationConfig tunes the application pipeline.
type ApplicationConfig struct {
	// LockTerminalStatus forbids moving an application out of selected or rejected.
	LockTerminalStatus bool
	// RoutePrefix is prepended to redirect targets.
	RoutePrefix string
}

// CVDownload is an opened CV ready to be streamed as an attachment.
type CVDownload struct {
	Filename    string
	ContentType string
	Size        int64
	File        *os.File
}

// ApplicationService runs the apply flow and the recruiter pipeline.
type ApplicationService struct {
	jobs     applicationJobRepository
	apps     applicationRepository
	students studentProfileRepository
	storage  fileStorage
	cache    *CacheService
	metrics  *MetricsService
	audit    auditTrail
	logger   *zap.Logger
	cfg      ApplicationConfig
	now      func() time.Time
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(jobs applicationJobRepository, apps applicationRepository, students studentProfileRepository, storage fileStorage, cache *CacheService, metrics *MetricsService, audit auditRepository, logger *zap.Logger, cfg ApplicationConfig) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{
		jobs:     jobs,
		apps:     apps,
		students: students,
		storage:  storage,
		cache:    cache,
		metrics:  metrics,
		audit:    newAuditTrail(audit, logger),
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Preview reports whether the student may apply to jobID.
func (s *ApplicationService) Preview(ctx context.Context, identity models.Identity, jobID string) (*dto.ApplyPreview, error) {
	job, student, err := s.applyChecks(ctx, identity, jobID)
	if err != nil {
		return nil, err
	}
	hasCV := student.HasCV()
	return &dto.ApplyPreview{
		Job:        *job,
		HasCV:      hasCV,
		CVApproved: hasCV && student.CVApprovedStatus,
		CanApply:   hasCV,
	}, nil
}

// Apply creates a pending application after the ordered precondition checks.
func (s *ApplicationService) Apply(ctx context.Context, identity models.Identity, jobID string, req models.ApplyRequest) (*models.Application, string, error) {
	job, student, err := s.applyChecks(ctx, identity, jobID)
	if err != nil {
		return nil, "", err
	}
	if !student.HasCV() {
		return nil, "", appErrors.WithRedirect(appErrors.ErrCVRequired, s.route("/profile"))
	}

	preference := models.MinPreferenceOrder
	if req.PreferenceOrder != nil {
		preference = *req.PreferenceOrder
	}
	if preference < models.MinPreferenceOrder || preference > models.MaxPreferenceOrder {
		return nil, "", appErrors.Validation("invalid application payload", map[string]string{"preference_order": msgPreferenceRange})
	}

	app := &models.Application{
		StudentID:       identity.UserID,
		JobID:           job.ID,
		Status:          models.StatusPending,
		PreferenceOrder: preference,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		if uv, ok := repository.AsUniqueViolation(err); ok && uv.Constraint == repository.ConstraintStudentApplication {
			return nil, "", s.alreadyApplied()
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}

	s.metrics.RecordApplication()
	s.cache.Invalidate(ctx, fmt.Sprintf(cacheKeyRecruiterDashAll, job.RecruiterID))
	s.audit.record(ctx, identity.UserID, models.AuditActionApply, "application", app.ID, map[string]string{"job_id": job.ID})
	return app, fmt.Sprintf("Applied successfully for %s!", job.Title), nil
}

// applyChecks runs not found, already applied and deadline checks in order.
func (s *ApplicationService) applyChecks(ctx context.Context, identity models.Identity, jobID string) (*models.Job, *models.StudentProfile, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	job, err := s.jobs.FindActive(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}

	exists, err := s.apps.Exists(ctx, identity.UserID, job.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check application")
	}
	if exists {
		return nil, nil, s.alreadyApplied()
	}

	if !job.LastDateToApply.After(s.now()) {
		return nil, nil, appErrors.WithRedirect(appErrors.ErrDeadlinePassed, s.route("/jobs"))
	}

	student, err := s.students.FindStudentProfile(ctx, identity.UserID)
	if err != nil {
		return nil, nil, profileLookupError(err, "student")
	}
	return job, student, nil
}

// UpdateStatus moves an owned application to rawStatus and returns the
// refreshed list under filter. An unknown status returns the unchanged list
// together with the error.
func (s *ApplicationService) UpdateStatus(ctx context.Context, identity models.Identity, applicationID, rawStatus string, filter models.ApplicationFilter) (*dto.ApplicationList, error) {
	app, err := s.ownedApplication(ctx, identity, applicationID)
	if err != nil {
		return nil, err
	}

	status := models.ApplicationStatus(rawStatus)
	if !status.Valid() {
		list, listErr := s.ListForRecruiter(ctx, identity, filter)
		if listErr != nil {
			return nil, listErr
		}
		return list, appErrors.ErrInvalidStatus
	}
	if s.cfg.LockTerminalStatus && app.Status.Terminal() && status != app.Status {
		return nil, appErrors.Clone(appErrors.ErrStatusFinal, fmt.Sprintf("Application is already %s.", strings.ToLower(app.Status.Label())))
	}

	if err := s.apps.UpdateStatus(ctx, app.ID, identity.UserID, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application status")
	}

	s.metrics.RecordStatusUpdate(status)
	s.cache.Invalidate(ctx, fmt.Sprintf(cacheKeyRecruiterDashAll, identity.UserID))
	s.audit.record(ctx, identity.UserID, models.AuditActionStatusUpdate, "application", app.ID, map[string]string{
		"from": string(app.Status),
		"to":   string(status),
	})

	list, err := s.ListForRecruiter(ctx, identity, filter)
	if err != nil {
		return nil, err
	}
	list.Message = fmt.Sprintf("Application status updated to %s.", status.Label())
	return list, nil
}

// ListForRecruiter returns the recruiter's applications under filter together
// with the recruiter's jobs.
func (s *ApplicationService) ListForRecruiter(ctx context.Context, identity models.Identity, filter models.ApplicationFilter) (*dto.ApplicationList, error) {
	apps := []models.ApplicationDetail{}
	if filter.JobID == "" || isUUID(filter.JobID) {
		found, err := s.apps.ListForRecruiter(ctx, identity.UserID, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
		}
		if found != nil {
			apps = found
		}
	}

	jobs, err := s.jobs.ListByRecruiter(ctx, identity.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list jobs")
	}
	if jobs == nil {
		jobs = []models.Job{}
	}

	return &dto.ApplicationList{
		Applications: apps,
		Jobs:         jobs,
		Statuses:     dto.StatusChoices(),
		StatusFilter: string(filter.Status),
		JobFilter:    filter.JobID,
	}, nil
}

// ListForStudent returns the caller's own applications.
func (s *ApplicationService) ListForStudent(ctx context.Context, identity models.Identity) ([]models.ApplicationDetail, error) {
	apps, err := s.apps.ListForStudent(ctx, identity.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	if apps == nil {
		apps = []models.ApplicationDetail{}
	}
	return apps, nil
}

// OpenCV opens the CV of an applicant to one of the recruiter's jobs. The
// attachment keeps the stored file's extension.
func (s *ApplicationService) OpenCV(ctx context.Context, identity models.Identity, applicationID string) (*CVDownload, error) {
	app, err := s.ownedApplication(ctx, identity, applicationID)
	if err != nil {
		return nil, err
	}

	back := s.route("/recruiter/applications")
	if !app.HasCV() {
		return nil, appErrors.WithRedirect(appErrors.Clone(appErrors.ErrNotFound, msgNoCV), back)
	}

	file, err := s.storage.Open(*app.CVPath)
	if err != nil {
		s.logger.Warn("failed to open cv", zap.String("application_id", app.ID), zap.Error(err))
		failure := appErrors.Clone(appErrors.ErrFileUnavailable, msgDownloadFailed)
		if errors.Is(err, storage.ErrNotFound) {
			failure.Message = msgDownloadFailed + ": file is missing from storage"
		}
		failure.Err = err
		return nil, appErrors.WithRedirect(failure, back)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		failure := appErrors.Clone(appErrors.ErrFileUnavailable, msgDownloadFailed)
		failure.Err = err
		return nil, appErrors.WithRedirect(failure, back)
	}

	ext := cvExtension(*app.CVPath)
	contentType, ok := cvContentTypes[ext]
	if !ok {
		contentType = "application/octet-stream"
	}
	return &CVDownload{
		Filename:    cvAttachmentName(app.StudentDisplayName(), ext),
		ContentType: contentType,
		Size:        info.Size(),
		File:        file,
	}, nil
}

func (s *ApplicationService) ownedApplication(ctx context.Context, identity models.Identity, applicationID string) (*models.ApplicationDetail, error) {
	if !isUUID(applicationID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	app, err := s.apps.FindForRecruiter(ctx, applicationID, identity.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return app, nil
}

func (s *ApplicationService) alreadyApplied() error {
	return appErrors.WithRedirect(appErrors.ErrAlreadyApplied, s.route("/jobs"))
}

func (s *ApplicationService) route(path string) string {
	return s.cfg.RoutePrefix + path
}

func cvAttachmentName(displayName, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', '\r', '\n':
			return '_'
		}
		return r
	}, strings.TrimSpace(displayName))
	if name == "" {
		name = "applicant"
	}
	return name + "_CV" + ext
}

func isUUID(raw string) bool {
	_, err := uuid.Parse(raw)
	return err == nil
}
