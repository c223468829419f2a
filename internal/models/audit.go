package models

import "time"

// Audit actions recorded by the portal.
const (
	AuditActionSignup        = "SIGNUP"
	AuditActionLogin         = "LOGIN"
	AuditActionLogout        = "LOGOUT"
	AuditActionProfileUpdate = "PROFILE_UPDATE"
	AuditActionCVUpload      = "CV_UPLOAD"
	AuditActionJobCreate     = "JOB_CREATE"
	AuditActionJobUpdate     = "JOB_UPDATE"
	AuditActionApply         = "APPLICATION_CREATE"
	AuditActionStatusUpdate  = "APPLICATION_STATUS_UPDATE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
