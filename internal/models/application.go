package models

import "time"

// ApplicationStatus is a stage of the hiring pipeline.
type ApplicationStatus string

const (
	StatusPending              ApplicationStatus = "pending"
	StatusUnderReview          ApplicationStatus = "under_review"
	StatusShortlistedOA        ApplicationStatus = "shortlisted_oa"
	StatusCompletedOA          ApplicationStatus = "completed_oa"
	StatusShortlistedInterview ApplicationStatus = "shortlisted_interview"
	StatusSelected             ApplicationStatus = "selected"
	StatusRejected             ApplicationStatus = "rejected"
)

var statusLabels = map[ApplicationStatus]string{
	StatusPending:              "Pending",
	StatusUnderReview:          "Under Review",
	StatusShortlistedOA:        "Shortlisted for OA",
	StatusCompletedOA:          "Completed OA",
	StatusShortlistedInterview: "Shortlisted for Interview",
	StatusSelected:             "Selected",
	StatusRejected:             "Rejected",
}

// ApplicationStatuses lists the pipeline in order.
var ApplicationStatuses = []ApplicationStatus{
	StatusPending,
	StatusUnderReview,
	StatusShortlistedOA,
	StatusCompletedOA,
	StatusShortlistedInterview,
	StatusSelected,
	StatusRejected,
}

// InProcessStatuses are counted as "in process" on the recruiter dashboard.
var InProcessStatuses = []ApplicationStatus{
	StatusUnderReview,
	StatusShortlistedOA,
	StatusCompletedOA,
	StatusShortlistedInterview,
}

// Valid reports whether s is a declared status.
func (s ApplicationStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the human readable status name.
func (s ApplicationStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Terminal reports whether s ends the pipeline.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusSelected || s == StatusRejected
}

const (
	MinPreferenceOrder = 1
	MaxPreferenceOrder = 10
)

// Application links a student to a job.
type Application struct {
	ID              string            `db:"id" json:"id"`
	StudentID       string            `db:"student_id" json:"student_id"`
	JobID           string            `db:"job_id" json:"job_id"`
	Status          ApplicationStatus `db:"status" json:"status"`
	PreferenceOrder int               `db:"preference_order" json:"preference_order"`
	AppliedDate     time.Time         `db:"applied_date" json:"applied_date"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// ApplicationDetail is an application joined with its job and student.
type ApplicationDetail struct {
	Application
	JobTitle         string  `db:"job_title" json:"job_title"`
	CompanyName      string  `db:"company_name" json:"company_name"`
	RecruiterID      string  `db:"recruiter_id" json:"-"`
	StudentUsername  string  `db:"student_username" json:"student_username"`
	StudentFullName  string  `db:"student_full_name" json:"student_full_name"`
	StudentEmail     string  `db:"student_email" json:"student_email"`
	CVPath           *string `db:"cv_path" json:"-"`
	CVApprovedStatus bool    `db:"cv_approved_status" json:"cv_approved_status"`
}

// StudentDisplayName prefers the student's full name.
func (d ApplicationDetail) StudentDisplayName() string {
	if d.StudentFullName != "" {
		return d.StudentFullName
	}
	return d.StudentUsername
}

// HasCV reports whether the applicant has a stored CV.
func (d ApplicationDetail) HasCV() bool {
	return d.CVPath != nil && *d.CVPath != ""
}

// ApplyRequest is the apply form.
type ApplyRequest struct {
	PreferenceOrder *int `json:"preference_order" form:"preference_order"`
}

// ApplicationFilter narrows recruiter application listings.
type ApplicationFilter struct {
	Status ApplicationStatus
	JobID  string
	Limit  int
}

// RecruiterStats are the aggregate counters of the recruiter dashboard.
type RecruiterStats struct {
	ActiveJobs        int `db:"active_jobs" json:"active_jobs"`
	TotalApplications int `db:"total_applications" json:"total_applications"`
	InProcess         int `db:"in_process" json:"in_process"`
	Selected          int `db:"selected" json:"selected"`
}
