package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

var accountRowColumns = []string{"id", "username", "email", "full_name", "password_hash", "role", "created_at", "updated_at"}

func TestFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(accountRowColumns).
		AddRow("u1", "ana", "ana@example.edu", "Ana Putri", "hash", string(models.RoleStudent), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, email, full_name, password_hash, role, created_at, updated_at FROM users WHERE username = $1 LIMIT 1")).
		WithArgs("ana").
		WillReturnRows(rows)

	account, err := repo.FindByUsername(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.Equal(t, "Ana Putri", account.DisplayName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByUsernameNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery("FROM users WHERE username").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsername(context.Background(), "ghost")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestCreateAccountRecruiterCommitsBothRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO recruiters").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	account := &models.Account{Username: "hr", Email: "hr@acme.io", Role: models.RoleRecruiter, PasswordHash: "hash"}
	recruiter := &models.RecruiterProfile{CompanyName: "Acme"}
	err := repo.CreateAccount(context.Background(), account, nil, recruiter)
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	assert.Equal(t, account.ID, recruiter.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccountRollsBackWhenProfileFails(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO students").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.CreateAccount(context.Background(), &models.Account{Username: "ana", Role: models.RoleStudent}, &models.StudentProfile{}, nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccountDuplicateUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505", Constraint: ConstraintUsername})
	mock.ExpectRollback()

	err := repo.CreateAccount(context.Background(), &models.Account{Username: "ana", Role: models.RoleStudent}, &models.StudentProfile{}, nil)
	uv, ok := AsUniqueViolation(err)
	require.True(t, ok)
	assert.Equal(t, ConstraintUsername, uv.Constraint)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileStudentWithCV(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	path := "cvs/u1/new.pdf"
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET username").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET cv_path = $2, cv_approved_status = $3 WHERE user_id = $1")).
		WithArgs("u1", path, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateProfile(context.Background(), &models.Account{ID: "u1", Username: "ana", Email: "a@x.io"}, &models.StudentProfile{CVPath: &path}, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileStudentWithoutCVSkipsProfileRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET username").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateProfile(context.Background(), &models.Account{ID: "u1"}, &models.StudentProfile{}, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStudentCVMissingProfile(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET cv_path = $2 WHERE user_id = $1")).
		WithArgs("u1", "cvs/u1/a.pdf").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStudentCV(context.Background(), "u1", "cvs/u1/a.pdf")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
