package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/careers-admin-api/internal/models"
)

const jobColumns = `id, title, department, location, employment_type, description, active, created_at, updated_at`

// JobRepository stores job postings.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a new repository instance.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// List returns postings newest first.
func (r *JobRepository) List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, error) {
	var conditions []string
	var args []interface{}
	if filter.ActiveOnly {
		conditions = append(conditions, "active = TRUE")
	}
	if dept := strings.TrimSpace(filter.Department); dept != "" {
		args = append(args, strings.ToLower(dept))
		conditions = append(conditions, fmt.Sprintf("LOWER(department) = $%d", len(args)))
	}
	query := fmt.Sprintf("SELECT %s FROM jobs", jobColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var jobs []models.JobPosting
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// GetByID returns one posting.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.JobPosting, error) {
	query := fmt.Sprintf("SELECT %s FROM jobs WHERE id = $1", jobColumns)
	var job models.JobPosting
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// Create inserts a posting.
func (r *JobRepository) Create(ctx context.Context, job *models.JobPosting) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	const query = `INSERT INTO jobs (id, title, department, location, employment_type, description, active, created_at, updated_at) VALUES (:id, :title, :department, :location, :employment_type, :description, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// Update replaces the mutable columns of a posting.
func (r *JobRepository) Update(ctx context.Context, job *models.JobPosting) error {
	job.UpdatedAt = time.Now().UTC()
	const query = `UPDATE jobs SET title = :title, department = :department, location = :location, employment_type = :employment_type, description = :description, active = :active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, job)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a posting. Applications keep their job_id and lose the title.
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
