package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

const msgProfileUnavailable = "Profile editing not available for your role."

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindStudentProfile(ctx context.Context, userID string) (*models.StudentProfile, error)
	FindRecruiterProfile(ctx context.Context, userID string) (*models.RecruiterProfile, error)
	UpdateProfile(ctx context.Context, account *models.Account, student *models.StudentProfile, recruiter *models.RecruiterProfile) error
	UpdateStudentCV(ctx context.Context, userID, cvPath string) error
}

// fileStorage is the CV file backend.
type fileStorage interface {
	SaveStream(name string, r io.Reader) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

// ProfileUpdate is the combined profile edit form.
type ProfileUpdate struct {
	Account     models.AccountUpdate
	CompanyName string
	CV          *Upload
}

// ProfileService reads and edits the caller's account and role profile.
type ProfileService struct {
	repo      profileRepository
	storage   fileStorage
	cv        *CVValidator
	audit     auditTrail
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(repo profileRepository, storage fileStorage, cv *CVValidator, audit auditRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if cv == nil {
		cv = NewCVValidator(0, nil)
	}
	return &ProfileService{
		repo:      repo,
		storage:   storage,
		cv:        cv,
		audit:     newAuditTrail(audit, logger),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Get returns the caller's account together with its role profile.
func (s *ProfileService) Get(ctx context.Context, identity models.Identity) (*models.Profile, error) {
	account, err := s.repo.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}

	profile := &models.Profile{Account: *account}
	switch account.Role {
	case models.RoleStudent:
		student, err := s.studentProfile(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		profile.Student = student
	case models.RoleRecruiter:
		recruiter, err := s.repo.FindRecruiterProfile(ctx, account.ID)
		if err != nil {
			return nil, profileLookupError(err, "recruiter")
		}
		profile.Recruiter = recruiter
	case models.RoleAdmin:
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, msgProfileUnavailable)
	}
	return profile, nil
}

// Update validates the account and role sub-forms together and persists
// both atomically. A CV attached by a student always resets approval.
func (s *ProfileService) Update(ctx context.Context, identity models.Identity, req ProfileUpdate) (*models.Profile, error) {
	req.Account.Username = strings.TrimSpace(req.Account.Username)
	req.Account.Email = strings.TrimSpace(req.Account.Email)
	req.Account.FullName = strings.TrimSpace(req.Account.FullName)

	account, err := s.repo.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}

	accountErr := s.validator.Struct(req.Account)

	var (
		student      *models.StudentProfile
		recruiter    *models.RecruiterProfile
		profileIssue map[string]string
	)
	switch account.Role {
	case models.RoleStudent:
		current, err := s.studentProfile(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		student = current
		if cvErr := s.cv.Check(req.CV, false); cvErr != nil {
			profileIssue = appErrors.FromError(cvErr).Fields
		}
	case models.RoleRecruiter:
		form := models.RecruiterProfileUpdate{CompanyName: strings.TrimSpace(req.CompanyName)}
		profileIssue = fieldErrors(s.validator.Struct(form))
		recruiter = &models.RecruiterProfile{UserID: account.ID, CompanyName: form.CompanyName}
	case models.RoleAdmin:
		return nil, appErrors.Clone(appErrors.ErrForbidden, msgProfileUnavailable)
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, msgProfileUnavailable)
	}

	if err := validationFailure("invalid profile payload", accountErr, profileIssue); err != nil {
		return nil, err
	}

	account.Username = req.Account.Username
	account.Email = req.Account.Email
	account.FullName = req.Account.FullName

	var previousCV, storedCV string
	if student != nil && req.CV != nil {
		if student.CVPath != nil {
			previousCV = *student.CVPath
		}
		storedCV, err = s.storeCV(account.ID, req.CV)
		if err != nil {
			return nil, err
		}
		student.CVPath = &storedCV
		student.CVApprovedStatus = false
	}

	if err := s.repo.UpdateProfile(ctx, account, student, recruiter); err != nil {
		if storedCV != "" {
			s.discard(storedCV)
		}
		if conflict := accountConflict(err); conflict != nil {
			return nil, conflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	if previousCV != "" && previousCV != storedCV {
		s.discard(previousCV)
	}

	s.audit.record(ctx, account.ID, models.AuditActionProfileUpdate, "profile", account.ID, map[string]bool{"cv_replaced": storedCV != ""})

	profile := &models.Profile{Account: *account, Student: student, Recruiter: recruiter}
	return profile, nil
}

// UploadCV stores a CV from the dedicated upload flow. Approval is untouched.
func (s *ProfileService) UploadCV(ctx context.Context, identity models.Identity, upload *Upload) (*models.StudentProfile, error) {
	if identity.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can upload a CV")
	}
	if err := s.cv.Check(upload, true); err != nil {
		return nil, err
	}

	student, err := s.studentProfile(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	stored, err := s.storeCV(identity.UserID, upload)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStudentCV(ctx, identity.UserID, stored); err != nil {
		s.discard(stored)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save cv")
	}
	if student.CVPath != nil && *student.CVPath != "" {
		s.discard(*student.CVPath)
	}

	s.audit.record(ctx, identity.UserID, models.AuditActionCVUpload, "student", identity.UserID, nil)
	student.CVPath = &stored
	return student, nil
}

func (s *ProfileService) studentProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	student, err := s.repo.FindStudentProfile(ctx, userID)
	if err != nil {
		return nil, profileLookupError(err, "student")
	}
	return student, nil
}

func (s *ProfileService) storeCV(userID string, upload *Upload) (string, error) {
	name := fmt.Sprintf("cvs/%s/%s%s", userID, uuid.NewString(), cvExtension(upload.Filename))
	if _, err := s.storage.SaveStream(name, upload.Content); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store cv")
	}
	s.metrics.RecordCVUpload()
	return name, nil
}

func (s *ProfileService) discard(name string) {
	if err := s.storage.Delete(name); err != nil {
		s.logger.Warn("failed to remove cv file", zap.String("file", name), zap.Error(err))
	}
}

func profileLookupError(err error, kind string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, kind+" profile not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+kind+" profile")
}
