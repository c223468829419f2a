package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

const accountColumns = `id, username, email, full_name, password_hash, role, created_at, updated_at`

// AccountRepository stores accounts together with their role profile.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByUsername returns the account registered under username.
func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM users WHERE username = $1 LIMIT 1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find account by username: %w", err)
	}
	return &account, nil
}

// FindByID returns an account by identifier.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &account, nil
}

// FindStudentProfile returns the student extension of userID.
func (r *AccountRepository) FindStudentProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	const query = `SELECT user_id, cv_path, cv_approved_status, job_status FROM students WHERE user_id = $1`
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student profile: %w", err)
	}
	return &profile, nil
}

// FindRecruiterProfile returns the recruiter extension of userID.
func (r *AccountRepository) FindRecruiterProfile(ctx context.Context, userID string) (*models.RecruiterProfile, error) {
	const query = `SELECT user_id, company_name FROM recruiters WHERE user_id = $1`
	var profile models.RecruiterProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find recruiter profile: %w", err)
	}
	return &profile, nil
}

// CreateAccount inserts the account and its single role profile in one
// transaction. Exactly one of student or recruiter must be set for those roles.
func (r *AccountRepository) CreateAccount(ctx context.Context, account *models.Account, student *models.StudentProfile, recruiter *models.RecruiterProfile) (err error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create account: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertUser = `INSERT INTO users (id, username, email, full_name, password_hash, role, created_at, updated_at) VALUES (:id, :username, :email, :full_name, :password_hash, :role, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertUser, account); err != nil {
		return fmt.Errorf("create account: %w", translateUnique(err))
	}

	switch {
	case student != nil:
		student.UserID = account.ID
		const insertStudent = `INSERT INTO students (user_id, cv_path, cv_approved_status, job_status) VALUES (:user_id, :cv_path, :cv_approved_status, :job_status)`
		if _, err = tx.NamedExecContext(ctx, insertStudent, student); err != nil {
			return fmt.Errorf("create student profile: %w", err)
		}
	case recruiter != nil:
		recruiter.UserID = account.ID
		const insertRecruiter = `INSERT INTO recruiters (user_id, company_name) VALUES (:user_id, :company_name)`
		if _, err = tx.NamedExecContext(ctx, insertRecruiter, recruiter); err != nil {
			return fmt.Errorf("create recruiter profile: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create account: %w", err)
	}
	return nil
}

// UpdateProfile writes the account fields and the provided profile in one
// transaction. A nil student cvPath keeps the stored CV.
func (r *AccountRepository) UpdateProfile(ctx context.Context, account *models.Account, student *models.StudentProfile, recruiter *models.RecruiterProfile) (err error) {
	account.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update profile: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateUser = `UPDATE users SET username = :username, email = :email, full_name = :full_name, updated_at = :updated_at WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, updateUser, account); err != nil {
		return fmt.Errorf("update account: %w", translateUnique(err))
	}

	switch {
	case student != nil && student.CVPath != nil:
		const query = `UPDATE students SET cv_path = $2, cv_approved_status = $3 WHERE user_id = $1`
		if _, err = tx.ExecContext(ctx, query, account.ID, *student.CVPath, student.CVApprovedStatus); err != nil {
			return fmt.Errorf("update student profile: %w", err)
		}
	case recruiter != nil:
		const query = `UPDATE recruiters SET company_name = $2 WHERE user_id = $1`
		if _, err = tx.ExecContext(ctx, query, account.ID, recruiter.CompanyName); err != nil {
			return fmt.Errorf("update recruiter profile: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update profile: %w", err)
	}
	return nil
}

// UpdateStudentCV replaces the stored CV reference without touching approval.
func (r *AccountRepository) UpdateStudentCV(ctx context.Context, userID, cvPath string) error {
	const query = `UPDATE students SET cv_path = $2 WHERE user_id = $1`
	res, err := r.db.ExecContext(ctx, query, userID, cvPath)
	if err != nil {
		return fmt.Errorf("update student cv: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
