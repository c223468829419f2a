package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

func newDashboardFixture() (*DashboardService, *fakeAccounts, *fakeJobs, *fakeApps, *memoryCache) {
	accounts := newFakeAccounts()
	jobs := newFakeJobs()
	apps := newFakeApps(jobs, accounts)
	cache := newMemoryCache()
	svc := NewDashboardService(DashboardServiceParams{
		Students:     accounts,
		Jobs:         jobs,
		Applications: apps,
		Cache:        NewCacheService(cache, nil, time.Minute, nil, true),
	})
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, accounts, jobs, apps, cache
}

func TestStudentDashboard(t *testing.T) {
	svc, accounts, _, _, _ := newDashboardFixture()
	student := accounts.addStudent("asha", "cvs/a.pdf", true)
	accounts.students[student.UserID].JobStatus = true

	dash, err := svc.Student(context.Background(), student)
	require.NoError(t, err)
	assert.True(t, dash.HasCV)
	assert.True(t, dash.CVApprovedStatus)
	assert.True(t, dash.JobStatus)
}

func TestRecruiterDashboardStatsAndCache(t *testing.T) {
	svc, accounts, jobs, apps, cache := newDashboardFixture()
	recruiter := accounts.addRecruiter("hr-lead", "Acme")
	open := jobs.add(recruiter.UserID, "Open", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	jobs.add(recruiter.UserID, "Expired", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	s1 := accounts.addStudent("s1", "", false)
	s2 := accounts.addStudent("s2", "", false)
	s3 := accounts.addStudent("s3", "", false)
	apps.add(s1.UserID, open.ID, models.StatusPending)
	apps.add(s2.UserID, open.ID, models.StatusShortlistedInterview)
	apps.add(s3.UserID, open.ID, models.StatusSelected)

	dash, hit, err := svc.Recruiter(context.Background(), recruiter, "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.RecruiterStats{ActiveJobs: 1, TotalApplications: 3, InProcess: 1, Selected: 1}, dash.Stats)
	assert.Len(t, dash.ActiveJobs, 1)
	assert.Len(t, dash.RecentApplications, 3)
	assert.True(t, cache.has("dash:recruiter:"+recruiter.UserID+":all"))

	cached, hit, err := svc.Recruiter(context.Background(), recruiter, "")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, dash.Stats, cached.Stats)

	filtered, hit, err := svc.Recruiter(context.Background(), recruiter, "selected")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, filtered.RecentApplications, 1)
	assert.Equal(t, "selected", filtered.StatusFilter)
}

func TestRecruiterDashboardUnknownStatusIsNotCached(t *testing.T) {
	svc, accounts, _, _, cache := newDashboardFixture()
	recruiter := accounts.addRecruiter("hr-lead", "Acme")

	dash, _, err := svc.Recruiter(context.Background(), recruiter, "bogus")
	require.NoError(t, err)
	assert.Empty(t, dash.RecentApplications)
	assert.False(t, cache.has("dash:recruiter:"+recruiter.UserID+":bogus"))
}

func TestRecruiterDashboardSurvivesCacheOutage(t *testing.T) {
	svc, accounts, _, _, cache := newDashboardFixture()
	recruiter := accounts.addRecruiter("hr-lead", "Acme")
	cache.getErr = errors.New("redis: connection refused")

	dash, hit, err := svc.Recruiter(context.Background(), recruiter, "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotNil(t, dash)
}
