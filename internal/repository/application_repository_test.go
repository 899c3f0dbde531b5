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

	"github.com/noah-isme/careers-admin-api/internal/models"
)

var applicationRowColumns = []string{"id", "job_id", "job_title", "full_name", "email", "phone", "years_of_experience", "status", "rating", "cover_letter", "linkedin_url", "portfolio_url", "resume_file_name", "resume_mime_type", "resume_size_bytes", "resume_path", "admin_notes", "applied_at", "updated_at"}

func TestApplicationRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(applicationRowColumns).
		AddRow("a1", "j1", "Backend Engineer", "Ann", "ann@example.com", "1", 3, "reviewing", 4, "", "", "", "cv.pdf", "application/pdf", 10, "", "", now, now).
		AddRow("a2", nil, nil, "Bob", "bob@example.com", "2", 6, "submitted", nil, "", "", "", "", "", 0, "", "", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM applications a LEFT JOIN jobs j ON j.id = a.job_id ORDER BY a.applied_at DESC")).WillReturnRows(rows)

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Backend Engineer", records[0].JobTitleValue())
	assert.Equal(t, 4, records[0].RatingValue())
	assert.True(t, records[0].HasResume())
	assert.Nil(t, records[1].JobTitle)
	assert.Equal(t, 0, records[1].RatingValue())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.id = $1")).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryInsertDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO applications").WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.ApplicationRecord{FullName: "Ann", Email: "ann@example.com", YearsOfExperience: 2}
	require.NoError(t, repo.Insert(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, models.ApplicationStatusSubmitted, record.Status)
	assert.False(t, record.AppliedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryInsertRejectsInvalid(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	err := repo.Insert(context.Background(), &models.ApplicationRecord{FullName: "Ann", YearsOfExperience: -1})
	require.Error(t, err)
}

func TestApplicationRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	status := models.ApplicationStatusHired
	notes := "great"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET status = $2, admin_notes = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("a1", "hired", "great", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), "a1", models.ApplicationPatch{Status: &status, AdminNotes: &notes}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	rating := 3
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET rating = $2, updated_at = $3 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "gone", models.ApplicationPatch{Rating: &rating})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestApplicationRepositoryUpdateRejectsInvalidPatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	require.Error(t, repo.Update(context.Background(), "a1", models.ApplicationPatch{}))

	rating := 9
	require.Error(t, repo.Update(context.Background(), "a1", models.ApplicationPatch{Rating: &rating}))

	status := models.ApplicationStatus("archived")
	_, err := repo.UpdateMany(context.Background(), []string{"a1"}, models.ApplicationPatch{Status: &status})
	require.Error(t, err)

	_, err = repo.UpdateMany(context.Background(), []string{"a1"}, models.ApplicationPatch{})
	require.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateMany(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	status := models.ApplicationStatusRejected
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE applications SET status = $2, updated_at = $3 WHERE id = ANY($1) RETURNING id")).
		WithArgs(pq.Array([]string{"a1", "a2"}), "rejected", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a1"))

	updated, err := repo.UpdateMany(context.Background(), []string{"a1", "a2"}, models.ApplicationPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryDeleteManyError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM applications WHERE id = ANY($1) RETURNING id")).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.DeleteMany(context.Background(), []string{"a1"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryDeleteManyEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	deleted, err := repo.DeleteMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM applications WHERE id = $1")).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "a1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM applications WHERE id = $1")).WithArgs("a2").WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), "a2"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
