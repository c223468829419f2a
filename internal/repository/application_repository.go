package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

const applicationDetailSelect = `SELECT a.id, a.student_id, a.job_id, a.status, a.preference_order, a.applied_date, a.updated_at,
j.title AS job_title, r.company_name, j.recruiter_id,
u.username AS student_username, u.full_name AS student_full_name, u.email AS student_email,
s.cv_path, s.cv_approved_status
FROM applications a
JOIN jobs j ON j.id = a.job_id
JOIN recruiters r ON r.user_id = j.recruiter_id
JOIN students s ON s.user_id = a.student_id
JOIN users u ON u.id = a.student_id`

// ApplicationRepository provides access to the application ledger.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository creates an ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application. A duplicate (student, job) pair yields
// a *UniqueViolationError.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	app.AppliedDate = now
	app.UpdatedAt = now

	const query = `INSERT INTO applications (id, student_id, job_id, status, preference_order, applied_date, updated_at) VALUES (:id, :student_id, :job_id, :status, :preference_order, :applied_date, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create application: %w", translateUnique(err))
	}
	return nil
}

// Exists reports whether studentID already applied to jobID.
func (r *ApplicationRepository) Exists(ctx context.Context, studentID, jobID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM applications WHERE student_id = $1 AND job_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, jobID); err != nil {
		return false, fmt.Errorf("check application exists: %w", err)
	}
	return exists, nil
}

// AppliedJobIDs returns the ids of jobs studentID applied to.
func (r *ApplicationRepository) AppliedJobIDs(ctx context.Context, studentID string) ([]string, error) {
	const query = `SELECT job_id FROM applications WHERE student_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID); err != nil {
		return nil, fmt.Errorf("list applied job ids: %w", err)
	}
	return ids, nil
}

// FindForRecruiter returns an application only if its job belongs to recruiterID.
func (r *ApplicationRepository) FindForRecruiter(ctx context.Context, id, recruiterID string) (*models.ApplicationDetail, error) {
	query := applicationDetailSelect + ` WHERE a.id = $1 AND j.recruiter_id = $2`
	var detail models.ApplicationDetail
	if err := r.db.GetContext(ctx, &detail, query, id, recruiterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return &detail, nil
}

// UpdateStatus sets the status of an application owned by recruiterID.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id, recruiterID string, status models.ApplicationStatus) error {
	const query = `UPDATE applications a SET status = $3, updated_at = $4 FROM jobs j WHERE a.id = $1 AND j.id = a.job_id AND j.recruiter_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, recruiterID, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListForRecruiter returns applications to recruiterID's jobs, newest first.
func (r *ApplicationRepository) ListForRecruiter(ctx context.Context, recruiterID string, filter models.ApplicationFilter) ([]models.ApplicationDetail, error) {
	conditions := []string{"j.recruiter_id = $1"}
	args := []interface{}{recruiterID}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.JobID != "" {
		conditions = append(conditions, fmt.Sprintf("a.job_id = $%d", len(args)+1))
		args = append(args, filter.JobID)
	}

	query := applicationDetailSelect + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY a.applied_date DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var apps []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, fmt.Errorf("list recruiter applications: %w", err)
	}
	return apps, nil
}

// ListForStudent returns studentID's own applications, newest first.
func (r *ApplicationRepository) ListForStudent(ctx context.Context, studentID string) ([]models.ApplicationDetail, error) {
	query := applicationDetailSelect + ` WHERE a.student_id = $1 ORDER BY a.applied_date DESC`
	var apps []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &apps, query, studentID); err != nil {
		return nil, fmt.Errorf("list student applications: %w", err)
	}
	return apps, nil
}

// RecruiterStats aggregates the dashboard counters for recruiterID.
func (r *ApplicationRepository) RecruiterStats(ctx context.Context, recruiterID string, now time.Time) (*models.RecruiterStats, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM jobs WHERE recruiter_id = $1 AND is_active = TRUE AND last_date_to_apply > $2) AS active_jobs,
COUNT(a.id) AS total_applications,
COUNT(a.id) FILTER (WHERE a.status IN ('under_review', 'shortlisted_oa', 'completed_oa', 'shortlisted_interview')) AS in_process,
COUNT(a.id) FILTER (WHERE a.status = 'selected') AS selected
FROM applications a JOIN jobs j ON j.id = a.job_id WHERE j.recruiter_id = $1`
	var stats models.RecruiterStats
	if err := r.db.GetContext(ctx, &stats, query, recruiterID, now); err != nil {
		return nil, fmt.Errorf("recruiter stats: %w", err)
	}
	return &stats, nil
}
