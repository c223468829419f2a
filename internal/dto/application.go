package dto

import "github.com/noah-isme/campus-placement-api/internal/models"

// ApplicationList is the recruiter application view with its filters.
type ApplicationList struct {
	Applications []models.ApplicationDetail `json:"applications"`
	Jobs         []models.Job               `json:"jobs"`
	Statuses     []StatusChoice             `json:"statuses"`
	StatusFilter string                     `json:"status_filter,omitempty"`
	JobFilter    string                     `json:"job_filter,omitempty"`
	Message      string                     `json:"message,omitempty"`
}
