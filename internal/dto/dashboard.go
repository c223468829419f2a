package dto

import "github.com/noah-isme/campus-placement-api/internal/models"

// StudentDashboard is the student's own placement state.
type StudentDashboard struct {
	CVApprovedStatus bool `json:"cv_approved_status"`
	JobStatus        bool `json:"job_status"`
	HasCV            bool `json:"has_cv"`
}

// RecruiterDashboard aggregates a recruiter's pipeline.
type RecruiterDashboard struct {
	Stats              models.RecruiterStats      `json:"stats"`
	ActiveJobs         []models.JobWithCount      `json:"active_jobs"`
	RecentApplications []models.ApplicationDetail `json:"recent_applications"`
	StatusFilter       string                     `json:"status_filter,omitempty"`
	Statuses           []StatusChoice             `json:"statuses"`
}

// StatusChoice is one selectable application status.
type StatusChoice struct {
	Value models.ApplicationStatus `json:"value"`
	Label string                   `json:"label"`
}

// StatusChoices lists every status with its label.
func StatusChoices() []StatusChoice {
	choices := make([]StatusChoice, 0, len(models.ApplicationStatuses))
	for _, status := range models.ApplicationStatuses {
		choices = append(choices, StatusChoice{Value: status, Label: status.Label()})
	}
	return choices
}
