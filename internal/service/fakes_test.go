package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

type fakeAccounts struct {
	accounts   map[string]*models.Account
	students   map[string]*models.StudentProfile
	recruiters map[string]*models.RecruiterProfile
	createErr  error
	updateErr  error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		accounts:   map[string]*models.Account{},
		students:   map[string]*models.StudentProfile{},
		recruiters: map[string]*models.RecruiterProfile{},
	}
}

func (f *fakeAccounts) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	for _, acc := range f.accounts {
		if acc.Username == username {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAccounts) FindByID(ctx context.Context, id string) (*models.Account, error) {
	acc, ok := f.accounts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeAccounts) FindStudentProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	p, ok := f.students[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakeAccounts) FindRecruiterProfile(ctx context.Context, userID string) (*models.RecruiterProfile, error) {
	p, ok := f.recruiters[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakeAccounts) CreateAccount(ctx context.Context, account *models.Account, student *models.StudentProfile, recruiter *models.RecruiterProfile) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, acc := range f.accounts {
		if acc.Username == account.Username {
			return &repository.UniqueViolationError{Constraint: repository.ConstraintUsername}
		}
		if acc.Email == account.Email {
			return &repository.UniqueViolationError{Constraint: repository.ConstraintEmail}
		}
	}
	cp := *account
	f.accounts[account.ID] = &cp
	if student != nil {
		sp := *student
		sp.UserID = account.ID
		f.students[account.ID] = &sp
	}
	if recruiter != nil {
		rp := *recruiter
		rp.UserID = account.ID
		f.recruiters[account.ID] = &rp
	}
	return nil
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, account *models.Account, student *models.StudentProfile, recruiter *models.RecruiterProfile) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	cp := *account
	f.accounts[account.ID] = &cp
	if student != nil && student.CVPath != nil {
		sp := *student
		f.students[account.ID] = &sp
	}
	if recruiter != nil {
		rp := *recruiter
		f.recruiters[account.ID] = &rp
	}
	return nil
}

func (f *fakeAccounts) UpdateStudentCV(ctx context.Context, userID, cvPath string) error {
	p, ok := f.students[userID]
	if !ok {
		return sql.ErrNoRows
	}
	p.CVPath = &cvPath
	return nil
}

func (f *fakeAccounts) addStudent(username string, cvPath string, approved bool) models.Identity {
	id := uuid.NewString()
	f.accounts[id] = &models.Account{ID: id, Username: username, Email: username + "@campus.test", Role: models.RoleStudent}
	profile := &models.StudentProfile{UserID: id, CVApprovedStatus: approved}
	if cvPath != "" {
		profile.CVPath = &cvPath
	}
	f.students[id] = profile
	return models.Identity{UserID: id, Username: username, Role: models.RoleStudent}
}

func (f *fakeAccounts) addRecruiter(username, company string) models.Identity {
	id := uuid.NewString()
	f.accounts[id] = &models.Account{ID: id, Username: username, Email: username + "@corp.test", Role: models.RoleRecruiter}
	f.recruiters[id] = &models.RecruiterProfile{UserID: id, CompanyName: company}
	return models.Identity{UserID: id, Username: username, Role: models.RoleRecruiter}
}

type fakeTokens struct {
	tokens map[string]*models.RefreshToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[string]*models.RefreshToken{}}
}

func (f *fakeTokens) Create(ctx context.Context, token *models.RefreshToken) error {
	cp := *token
	f.tokens[token.TokenHash] = &cp
	return nil
}

func (f *fakeTokens) FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	tok, ok := f.tokens[hash]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *tok
	return &cp, nil
}

func (f *fakeTokens) Revoke(ctx context.Context, id string, revokedAt time.Time) error {
	for _, tok := range f.tokens {
		if tok.ID == id {
			tok.Revoked = true
			tok.RevokedAt = &revokedAt
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeAudit struct {
	entries []*models.AuditLog
}

func (f *fakeAudit) Create(ctx context.Context, log *models.AuditLog) error {
	f.entries = append(f.entries, log)
	return nil
}

func (f *fakeAudit) actions() []string {
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeJobs struct {
	jobs        map[string]*models.Job
	locations   []string
	locCalls    int
	searchTotal int
	lastOffset  int
	lastLimit   int
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: map[string]*models.Job{}}
}

func (f *fakeJobs) add(recruiterID, title string, deadline time.Time) *models.Job {
	job := &models.Job{
		ID:              uuid.NewString(),
		RecruiterID:     recruiterID,
		Title:           title,
		SelectionType:   models.SelectionNormal,
		LastDateToApply: deadline,
		IsActive:        true,
	}
	f.jobs[job.ID] = job
	return job
}

func (f *fakeJobs) Create(ctx context.Context, job *models.Job) error {
	job.ID = uuid.NewString()
	cp := *job
	f.jobs[job.ID] = &cp
	return nil
}

func (f *fakeJobs) Update(ctx context.Context, job *models.Job) error {
	existing, ok := f.jobs[job.ID]
	if !ok || existing.RecruiterID != job.RecruiterID {
		return sql.ErrNoRows
	}
	cp := *job
	f.jobs[job.ID] = &cp
	return nil
}

func (f *fakeJobs) FindOwned(ctx context.Context, id, recruiterID string) (*models.Job, error) {
	job, ok := f.jobs[id]
	if !ok || job.RecruiterID != recruiterID {
		return nil, sql.ErrNoRows
	}
	cp := *job
	return &cp, nil
}

func (f *fakeJobs) FindActive(ctx context.Context, id string) (*models.Job, error) {
	job, ok := f.jobs[id]
	if !ok || !job.IsActive {
		return nil, sql.ErrNoRows
	}
	cp := *job
	return &cp, nil
}

func (f *fakeJobs) ListByRecruiter(ctx context.Context, recruiterID string) ([]models.Job, error) {
	var out []models.Job
	for _, job := range f.jobs {
		if job.RecruiterID == recruiterID {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (f *fakeJobs) ListActiveWithCounts(ctx context.Context, recruiterID string, now time.Time) ([]models.JobWithCount, error) {
	var out []models.JobWithCount
	for _, job := range f.jobs {
		if job.RecruiterID == recruiterID && job.AcceptingApplications(now) {
			out = append(out, models.JobWithCount{Job: *job})
		}
	}
	return out, nil
}

func (f *fakeJobs) CountSearch(ctx context.Context, filter models.JobSearchFilter, now time.Time) (int, error) {
	return f.searchTotal, nil
}

func (f *fakeJobs) Search(ctx context.Context, filter models.JobSearchFilter, now time.Time, limit, offset int) ([]models.Job, error) {
	f.lastLimit = limit
	f.lastOffset = offset
	return []models.Job{}, nil
}

func (f *fakeJobs) Locations(ctx context.Context) ([]string, error) {
	f.locCalls++
	return f.locations, nil
}

type fakeApps struct {
	jobs      *fakeJobs
	accounts  *fakeAccounts
	apps      map[string]*models.Application
	createErr error
}

func newFakeApps(jobs *fakeJobs, accounts *fakeAccounts) *fakeApps {
	return &fakeApps{jobs: jobs, accounts: accounts, apps: map[string]*models.Application{}}
}

func (f *fakeApps) add(studentID, jobID string, status models.ApplicationStatus) *models.Application {
	app := &models.Application{
		ID:              uuid.NewString(),
		StudentID:       studentID,
		JobID:           jobID,
		Status:          status,
		PreferenceOrder: 1,
		AppliedDate:     time.Now().UTC(),
	}
	f.apps[app.ID] = app
	return app
}

func (f *fakeApps) Create(ctx context.Context, app *models.Application) error {
	if f.createErr != nil {
		return f.createErr
	}
	app.ID = uuid.NewString()
	app.AppliedDate = time.Now().UTC()
	cp := *app
	f.apps[app.ID] = &cp
	return nil
}

func (f *fakeApps) Exists(ctx context.Context, studentID, jobID string) (bool, error) {
	for _, app := range f.apps {
		if app.StudentID == studentID && app.JobID == jobID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeApps) AppliedJobIDs(ctx context.Context, studentID string) ([]string, error) {
	var ids []string
	for _, app := range f.apps {
		if app.StudentID == studentID {
			ids = append(ids, app.JobID)
		}
	}
	return ids, nil
}

func (f *fakeApps) detail(app *models.Application) models.ApplicationDetail {
	d := models.ApplicationDetail{Application: *app}
	if job, ok := f.jobs.jobs[app.JobID]; ok {
		d.JobTitle = job.Title
		d.RecruiterID = job.RecruiterID
	}
	if acc, ok := f.accounts.accounts[app.StudentID]; ok {
		d.StudentUsername = acc.Username
		d.StudentFullName = acc.FullName
		d.StudentEmail = acc.Email
	}
	if sp, ok := f.accounts.students[app.StudentID]; ok {
		d.CVPath = sp.CVPath
		d.CVApprovedStatus = sp.CVApprovedStatus
	}
	return d
}

func (f *fakeApps) FindForRecruiter(ctx context.Context, id, recruiterID string) (*models.ApplicationDetail, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	d := f.detail(app)
	if d.RecruiterID != recruiterID {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (f *fakeApps) UpdateStatus(ctx context.Context, id, recruiterID string, status models.ApplicationStatus) error {
	if _, err := f.FindForRecruiter(ctx, id, recruiterID); err != nil {
		return err
	}
	f.apps[id].Status = status
	return nil
}

func (f *fakeApps) ListForRecruiter(ctx context.Context, recruiterID string, filter models.ApplicationFilter) ([]models.ApplicationDetail, error) {
	var out []models.ApplicationDetail
	for _, app := range f.apps {
		d := f.detail(app)
		if d.RecruiterID != recruiterID {
			continue
		}
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		if filter.JobID != "" && app.JobID != filter.JobID {
			continue
		}
		out = append(out, d)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeApps) ListForStudent(ctx context.Context, studentID string) ([]models.ApplicationDetail, error) {
	var out []models.ApplicationDetail
	for _, app := range f.apps {
		if app.StudentID == studentID {
			out = append(out, f.detail(app))
		}
	}
	return out, nil
}

func (f *fakeApps) RecruiterStats(ctx context.Context, recruiterID string, now time.Time) (*models.RecruiterStats, error) {
	stats := &models.RecruiterStats{}
	for _, job := range f.jobs.jobs {
		if job.RecruiterID == recruiterID && job.AcceptingApplications(now) {
			stats.ActiveJobs++
		}
	}
	for _, app := range f.apps {
		if f.detail(app).RecruiterID != recruiterID {
			continue
		}
		stats.TotalApplications++
		if app.Status == models.StatusSelected {
			stats.Selected++
		}
		for _, s := range models.InProcessStatuses {
			if app.Status == s {
				stats.InProcess++
			}
		}
	}
	return stats, nil
}

type memoryCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	getErr  error
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, pattern)
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *memoryCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}
