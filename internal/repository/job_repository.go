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

const jobColumns = `j.id, j.recruiter_id, r.company_name, j.title, j.description, j.criteria, j.selection_type, j.posted_date, j.last_date_to_apply, j.is_active, j.position, j.location, j.salary_range, j.updated_at`

const jobFrom = ` FROM jobs j JOIN recruiters r ON r.user_id = j.recruiter_id`

// JobRepository provides access to job postings.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a JobRepository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a job. ID and timestamps are filled when empty.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if job.PostedDate.IsZero() {
		job.PostedDate = now
	}
	job.UpdatedAt = now

	const query = `INSERT INTO jobs (id, recruiter_id, title, description, criteria, selection_type, posted_date, last_date_to_apply, is_active, position, location, salary_range, updated_at) VALUES (:id, :recruiter_id, :title, :description, :criteria, :selection_type, :posted_date, :last_date_to_apply, :is_active, :position, :location, :salary_range, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// Update rewrites the editable fields of a job owned by job.RecruiterID.
// It returns sql.ErrNoRows when no owned row matched.
func (r *JobRepository) Update(ctx context.Context, job *models.Job) error {
	job.UpdatedAt = time.Now().UTC()
	const query = `UPDATE jobs SET title = :title, description = :description, criteria = :criteria, selection_type = :selection_type, last_date_to_apply = :last_date_to_apply, is_active = :is_active, position = :position, location = :location, salary_range = :salary_range, updated_at = :updated_at WHERE id = :id AND recruiter_id = :recruiter_id`
	res, err := r.db.NamedExecContext(ctx, query, job)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindOwned returns a job only when it belongs to recruiterID.
func (r *JobRepository) FindOwned(ctx context.Context, id, recruiterID string) (*models.Job, error) {
	query := `SELECT ` + jobColumns + jobFrom + ` WHERE j.id = $1 AND j.recruiter_id = $2`
	return r.get(ctx, "find owned job", query, id, recruiterID)
}

// FindActive returns a job that is flagged active. The deadline is not
// checked here so callers can distinguish an expired posting.
func (r *JobRepository) FindActive(ctx context.Context, id string) (*models.Job, error) {
	query := `SELECT ` + jobColumns + jobFrom + ` WHERE j.id = $1 AND j.is_active = TRUE`
	return r.get(ctx, "find active job", query, id)
}

func (r *JobRepository) get(ctx context.Context, op, query string, args ...interface{}) (*models.Job, error) {
	var job models.Job
	if err := r.db.GetContext(ctx, &job, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &job, nil
}

// ListByRecruiter returns every job of a recruiter, newest first.
func (r *JobRepository) ListByRecruiter(ctx context.Context, recruiterID string) ([]models.Job, error) {
	query := `SELECT ` + jobColumns + jobFrom + ` WHERE j.recruiter_id = $1 ORDER BY j.posted_date DESC`
	var jobs []models.Job
	if err := r.db.SelectContext(ctx, &jobs, query, recruiterID); err != nil {
		return nil, fmt.Errorf("list recruiter jobs: %w", err)
	}
	return jobs, nil
}

// ListActiveWithCounts returns the recruiter's open jobs with application counts.
func (r *JobRepository) ListActiveWithCounts(ctx context.Context, recruiterID string, now time.Time) ([]models.JobWithCount, error) {
	query := `SELECT ` + jobColumns + `, COUNT(a.id) AS application_count` + jobFrom +
		` LEFT JOIN applications a ON a.job_id = j.id WHERE j.recruiter_id = $1 AND j.is_active = TRUE AND j.last_date_to_apply > $2 GROUP BY j.id, r.company_name ORDER BY j.posted_date DESC`
	var jobs []models.JobWithCount
	if err := r.db.SelectContext(ctx, &jobs, query, recruiterID, now); err != nil {
		return nil, fmt.Errorf("list active jobs with counts: %w", err)
	}
	return jobs, nil
}

// CountSearch returns how many open jobs match filter.
func (r *JobRepository) CountSearch(ctx context.Context, filter models.JobSearchFilter, now time.Time) (int, error) {
	where, args := searchWhere(filter, now)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*)`+jobFrom+where, args...); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return total, nil
}

// Search returns one page of open jobs matching filter, newest first.
func (r *JobRepository) Search(ctx context.Context, filter models.JobSearchFilter, now time.Time, limit, offset int) ([]models.Job, error) {
	where, args := searchWhere(filter, now)
	query := fmt.Sprintf(`SELECT %s%s%s ORDER BY j.posted_date DESC LIMIT %d OFFSET %d`, jobColumns, jobFrom, where, limit, offset)
	var jobs []models.Job
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("search jobs: %w", err)
	}
	return jobs, nil
}

func searchWhere(filter models.JobSearchFilter, now time.Time) (string, []interface{}) {
	conditions := []string{"j.is_active = TRUE", "j.last_date_to_apply > $1"}
	args := []interface{}{now}

	if filter.Search != "" {
		placeholder := fmt.Sprintf("$%d", len(args)+1)
		conditions = append(conditions, fmt.Sprintf("(j.title ILIKE %[1]s OR j.position ILIKE %[1]s OR j.description ILIKE %[1]s OR r.company_name ILIKE %[1]s)", placeholder))
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}
	if filter.Location != "" {
		conditions = append(conditions, fmt.Sprintf("j.location = $%d", len(args)+1))
		args = append(args, filter.Location)
	}
	if filter.SelectionType != "" {
		conditions = append(conditions, fmt.Sprintf("j.selection_type = $%d", len(args)+1))
		args = append(args, filter.SelectionType)
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Locations returns every distinct location across all jobs.
func (r *JobRepository) Locations(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT location FROM jobs ORDER BY location`
	var locations []string
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("list job locations: %w", err)
	}
	return locations, nil
}

func escapeLike(raw string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(raw)
}
