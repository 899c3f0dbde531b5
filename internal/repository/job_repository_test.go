package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/careers-admin-api/internal/models"
)

func TestJobRepositoryListActiveByDepartment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewJobRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "department", "location", "employment_type", "description", "active", "created_at", "updated_at"}).
		AddRow("j1", "Backend Engineer", "Engineering", "Remote", "full_time", "", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM jobs WHERE active = TRUE AND LOWER(department) = $1 ORDER BY created_at DESC")).
		WithArgs("engineering").
		WillReturnRows(rows)

	jobs, err := repo.List(context.Background(), models.JobFilter{ActiveOnly: true, Department: " Engineering "})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.EmploymentFullTime, jobs[0].EmploymentType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepositoryCreateAndDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewJobRepository(db)

	mock.ExpectExec("INSERT INTO jobs").WillReturnResult(sqlmock.NewResult(1, 1))
	job := &models.JobPosting{Title: "Designer", EmploymentType: models.EmploymentContract, Active: true}
	require.NoError(t, repo.Create(context.Background(), job))
	assert.NotEmpty(t, job.ID)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM jobs WHERE id = $1")).WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), "missing"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
