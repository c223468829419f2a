package dto

import "github.com/noah-isme/campus-placement-api/internal/models"

// JobSearchResult is one page of the student job search.
type JobSearchResult struct {
	Jobs          []models.Job      `json:"jobs"`
	Pagination    models.Pagination `json:"-"`
	Locations     []string          `json:"locations"`
	AppliedJobIDs []string          `json:"applied_job_ids"`
	Search        string            `json:"search,omitempty"`
	Location      string            `json:"location,omitempty"`
	SelectionType string            `json:"selection_type,omitempty"`
}

// ApplyPreview tells a student whether they can apply to a job.
type ApplyPreview struct {
	Job        models.Job `json:"job"`
	HasCV      bool       `json:"has_cv"`
	CVApproved bool       `json:"cv_approved"`
	CanApply   bool       `json:"can_apply"`
}
