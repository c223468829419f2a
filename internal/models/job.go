package models

import "time"

// SelectionType describes how a job's hiring round is run.
type SelectionType string

const (
	SelectionNormal    SelectionType = "normal"
	SelectionFastTrack SelectionType = "fast_track"
)

// JobsPageSize is the fixed page size of job search results.
const JobsPageSize = 10

// Job is a recruiter-owned posting.
type Job struct {
	ID              string        `db:"id" json:"id"`
	RecruiterID     string        `db:"recruiter_id" json:"recruiter_id"`
	CompanyName     string        `db:"company_name" json:"company_name"`
	Title           string        `db:"title" json:"title"`
	Description     string        `db:"description" json:"description"`
	Criteria        string        `db:"criteria" json:"criteria"`
	SelectionType   SelectionType `db:"selection_type" json:"selection_type"`
	PostedDate      time.Time     `db:"posted_date" json:"posted_date"`
	LastDateToApply time.Time     `db:"last_date_to_apply" json:"last_date_to_apply"`
	IsActive        bool          `db:"is_active" json:"is_active"`
	Position        string        `db:"position" json:"position"`
	Location        string        `db:"location" json:"location"`
	SalaryRange     *string       `db:"salary_range" json:"salary_range,omitempty"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// AcceptingApplications reports whether the job is open at now.
func (j Job) AcceptingApplications(now time.Time) bool {
	return j.IsActive && j.LastDateToApply.After(now)
}

// JobRequest is the create/edit payload.
type JobRequest struct {
	Title           string        `json:"title" validate:"required,max=200"`
	Description     string        `json:"description" validate:"required"`
	Criteria        string        `json:"criteria" validate:"required"`
	SelectionType   SelectionType `json:"selection_type" validate:"omitempty,oneof=normal fast_track"`
	LastDateToApply time.Time     `json:"last_date_to_apply" validate:"required"`
	IsActive        *bool         `json:"is_active"`
	Position        string        `json:"position" validate:"required,max=100"`
	Location        string        `json:"location" validate:"required,max=100"`
	SalaryRange     string        `json:"salary_range" validate:"omitempty,max=100"`
}

// JobSearchFilter narrows the student job search.
type JobSearchFilter struct {
	Search        string
	Location      string
	SelectionType string
	Page          int
}

// JobWithCount annotates a job with its number of applications.
type JobWithCount struct {
	Job
	ApplicationCount int `db:"application_count" json:"application_count"`
}
