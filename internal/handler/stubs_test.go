package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/middleware"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/service"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// asIdentity injects claims the way the JWT middleware does.
func asIdentity(identity models.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: identity.UserID, Username: identity.Username, Role: identity.Role})
		c.Next()
	}
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

var (
	studentIdentity   = models.Identity{UserID: "student-1", Username: "asha", Role: models.RoleStudent}
	recruiterIdentity = models.Identity{UserID: "recruiter-1", Username: "hr-lead", Role: models.RoleRecruiter}
)

type stubAuth struct {
	session  *models.Session
	err      error
	lastSign models.SignupRequest
}

func (s *stubAuth) Signup(_ context.Context, req models.SignupRequest) (*models.Session, error) {
	s.lastSign = req
	return s.session, s.err
}

func (s *stubAuth) Login(context.Context, models.LoginRequest) (*models.Session, error) {
	return s.session, s.err
}

func (s *stubAuth) Refresh(context.Context, models.RefreshTokenRequest) (*models.Session, error) {
	return s.session, s.err
}

func (s *stubAuth) Logout(context.Context, models.Identity, models.LogoutRequest) error {
	return s.err
}

func (s *stubAuth) Me(_ context.Context, identity models.Identity) (*models.Account, error) {
	return &models.Account{ID: identity.UserID, Username: identity.Username, Role: identity.Role}, s.err
}

type stubProfiles struct {
	lastUpdate service.ProfileUpdate
	cvBody     string
	err        error
}

func (s *stubProfiles) Get(_ context.Context, identity models.Identity) (*models.Profile, error) {
	return &models.Profile{Account: models.Account{ID: identity.UserID, Role: identity.Role}}, s.err
}

func (s *stubProfiles) Update(_ context.Context, identity models.Identity, req service.ProfileUpdate) (*models.Profile, error) {
	s.lastUpdate = req
	if req.CV != nil {
		body, _ := io.ReadAll(req.CV.Content)
		s.cvBody = string(body)
	}
	return &models.Profile{Account: models.Account{ID: identity.UserID, Role: identity.Role}}, s.err
}

func (s *stubProfiles) UploadCV(_ context.Context, identity models.Identity, upload *service.Upload) (*models.StudentProfile, error) {
	if upload == nil {
		return nil, appErrors.Validation("invalid CV", map[string]string{"cv": "Please select a file to upload."})
	}
	body, _ := io.ReadAll(upload.Content)
	s.cvBody = string(body)
	return &models.StudentProfile{UserID: identity.UserID}, s.err
}

type stubDashboards struct {
	recruiter  *dto.RecruiterDashboard
	hit        bool
	lastStatus string
}

func (s *stubDashboards) Student(context.Context, models.Identity) (*dto.StudentDashboard, error) {
	return &dto.StudentDashboard{HasCV: true}, nil
}

func (s *stubDashboards) Recruiter(_ context.Context, _ models.Identity, status string) (*dto.RecruiterDashboard, bool, error) {
	s.lastStatus = status
	if s.recruiter == nil {
		return &dto.RecruiterDashboard{}, s.hit, nil
	}
	return s.recruiter, s.hit, nil
}

type stubJobs struct {
	lastFilter models.JobSearchFilter
	job        *models.Job
	err        error
}

func (s *stubJobs) Search(_ context.Context, _ models.Identity, filter models.JobSearchFilter) (*dto.JobSearchResult, error) {
	s.lastFilter = filter
	return &dto.JobSearchResult{
		Jobs:          []models.Job{},
		Pagination:    models.Pagination{Page: 2, PageSize: models.JobsPageSize, TotalCount: 25, TotalPages: 3},
		Locations:     []string{"Pune"},
		AppliedJobIDs: []string{},
	}, s.err
}

func (s *stubJobs) Get(context.Context, string) (*models.Job, error) {
	return s.job, s.err
}

func (s *stubJobs) Create(_ context.Context, identity models.Identity, req models.JobRequest) (*models.Job, error) {
	return &models.Job{ID: "job-1", RecruiterID: identity.UserID, Title: req.Title}, s.err
}

func (s *stubJobs) Update(_ context.Context, identity models.Identity, jobID string, req models.JobRequest) (*models.Job, error) {
	return &models.Job{ID: jobID, RecruiterID: identity.UserID, Title: req.Title}, s.err
}

func (s *stubJobs) ListOwn(context.Context, models.Identity) ([]models.Job, error) {
	return nil, s.err
}

type stubApplications struct {
	applyErr   error
	lastApply  models.ApplyRequest
	list       *dto.ApplicationList
	statusErr  error
	dropList   bool
	lastFilter models.ApplicationFilter
	download   *service.CVDownload
	cvErr      error
}

func (s *stubApplications) Preview(context.Context, models.Identity, string) (*dto.ApplyPreview, error) {
	return &dto.ApplyPreview{CanApply: true}, nil
}

func (s *stubApplications) Apply(_ context.Context, identity models.Identity, jobID string, req models.ApplyRequest) (*models.Application, string, error) {
	s.lastApply = req
	if s.applyErr != nil {
		return nil, "", s.applyErr
	}
	return &models.Application{ID: "app-1", JobID: jobID, StudentID: identity.UserID}, "Your application has been submitted successfully!", nil
}

func (s *stubApplications) ListForStudent(context.Context, models.Identity) ([]models.ApplicationDetail, error) {
	return []models.ApplicationDetail{}, nil
}

func (s *stubApplications) ListForRecruiter(_ context.Context, _ models.Identity, filter models.ApplicationFilter) (*dto.ApplicationList, error) {
	s.lastFilter = filter
	return s.currentList(), nil
}

func (s *stubApplications) UpdateStatus(_ context.Context, _ models.Identity, _, _ string, filter models.ApplicationFilter) (*dto.ApplicationList, error) {
	s.lastFilter = filter
	if s.dropList {
		return nil, s.statusErr
	}
	return s.currentList(), s.statusErr
}

func (s *stubApplications) OpenCV(context.Context, models.Identity, string) (*service.CVDownload, error) {
	return s.download, s.cvErr
}

func (s *stubApplications) currentList() *dto.ApplicationList {
	if s.list == nil {
		return &dto.ApplicationList{Applications: []models.ApplicationDetail{}}
	}
	return s.list
}

type stubExports struct {
	file       *service.ExportFile
	err        error
	lastFormat string
}

func (s *stubExports) Applications(_ context.Context, _ models.Identity, _ models.ApplicationFilter, format string) (*service.ExportFile, error) {
	s.lastFormat = format
	return s.file, s.err
}

type stubTokens map[string]models.Identity

func (s stubTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	identity, ok := s[token]
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return &models.JWTClaims{UserID: identity.UserID, Username: identity.Username, Role: identity.Role}, nil
}
