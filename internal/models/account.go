package models

import (
	"fmt"
	"time"
)

// Role is the closed set of account kinds.
type Role string

const (
	RoleStudent   Role = "student"
	RoleRecruiter Role = "recruiter"
	RoleAdmin     Role = "admin"
)

// ParseRole converts raw input into a Role.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleStudent, RoleRecruiter, RoleAdmin:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// DashboardPath is the route a freshly authenticated account lands on.
func (r Role) DashboardPath() (string, error) {
	switch r {
	case RoleStudent:
		return "/student/dashboard", nil
	case RoleRecruiter:
		return "/recruiter/dashboard", nil
	case RoleAdmin:
		return "/admin", nil
	default:
		return "", fmt.Errorf("unknown role %q", r)
	}
}

// Identity is the authenticated caller as resolved from the access token.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Account represents a row of the users table.
type Account struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName prefers the full name and falls back to the username.
func (a Account) DisplayName() string {
	if a.FullName != "" {
		return a.FullName
	}
	return a.Username
}

// StudentProfile extends a student account.
type StudentProfile struct {
	UserID           string  `db:"user_id" json:"user_id"`
	CVPath           *string `db:"cv_path" json:"cv_path,omitempty"`
	CVApprovedStatus bool    `db:"cv_approved_status" json:"cv_approved_status"`
	JobStatus        bool    `db:"job_status" json:"job_status"`
}

// HasCV reports whether a CV file is on record.
func (p StudentProfile) HasCV() bool {
	return p.CVPath != nil && *p.CVPath != ""
}

// RecruiterProfile extends a recruiter account.
type RecruiterProfile struct {
	UserID      string `db:"user_id" json:"user_id"`
	CompanyName string `db:"company_name" json:"company_name"`
}

// SignupRequest is the registration payload.
type SignupRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=150"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	FullName    string `json:"full_name" validate:"omitempty,max=150"`
	Role        Role   `json:"role" validate:"required,oneof=student recruiter"`
	CompanyName string `json:"company_name" validate:"required_if=Role recruiter,max=50"`
	IP          string `json:"-"`
	UserAgent   string `json:"-"`
}

// AccountUpdate is the account half of the profile edit form.
type AccountUpdate struct {
	Username string `form:"username" validate:"required,min=3,max=150"`
	Email    string `form:"email" validate:"required,email,max=254"`
	FullName string `form:"full_name" validate:"omitempty,max=150"`
}

// RecruiterProfileUpdate is the recruiter half of the profile edit form.
type RecruiterProfileUpdate struct {
	CompanyName string `form:"company_name" validate:"required,max=50"`
}

// Profile is the read model returned for the caller's own profile.
type Profile struct {
	Account   Account           `json:"account"`
	Student   *StudentProfile   `json:"student,omitempty"`
	Recruiter *RecruiterProfile `json:"recruiter,omitempty"`
}
