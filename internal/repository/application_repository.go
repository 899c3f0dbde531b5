package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/careers-admin-api/internal/models"
)

const applicationColumns = `a.id, a.job_id, j.title AS job_title, a.full_name, a.email, a.phone, a.years_of_experience, a.status, a.rating, a.cover_letter, a.linkedin_url, a.portfolio_url, a.resume_file_name, a.resume_mime_type, a.resume_size_bytes, a.resume_path, a.admin_notes, a.applied_at, a.updated_at`

// ApplicationRepository is the storage collaborator for application records.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository creates a new repository instance.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// List returns every application with its posting title. Resume payloads are not loaded.
func (r *ApplicationRepository) List(ctx context.Context) ([]models.ApplicationRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications a LEFT JOIN jobs j ON j.id = a.job_id ORDER BY a.applied_at DESC`, applicationColumns)
	var records []models.ApplicationRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return records, nil
}

// GetByID returns one application including the inline resume payload.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*models.ApplicationRecord, error) {
	query := fmt.Sprintf(`SELECT %s, a.resume_data FROM applications a LEFT JOIN jobs j ON j.id = a.job_id WHERE a.id = $1`, applicationColumns)
	var record models.ApplicationRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return &record, nil
}

// Insert stores a new application. AppliedAt is set here and never updated.
func (r *ApplicationRepository) Insert(ctx context.Context, record *models.ApplicationRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.AppliedAt.IsZero() {
		record.AppliedAt = now
	}
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = models.ApplicationStatusSubmitted
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("insert application: %w", err)
	}

	const query = `INSERT INTO applications (id, job_id, full_name, email, phone, years_of_experience, status, rating, cover_letter, linkedin_url, portfolio_url, resume_file_name, resume_mime_type, resume_size_bytes, resume_data, resume_path, admin_notes, applied_at, updated_at) VALUES (:id, :job_id, :full_name, :email, :phone, :years_of_experience, :status, :rating, :cover_letter, :linkedin_url, :portfolio_url, :resume_file_name, :resume_mime_type, :resume_size_bytes, :resume_data, :resume_path, :admin_notes, :applied_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// Update applies patch to one application. A missing id yields sql.ErrNoRows.
func (r *ApplicationRepository) Update(ctx context.Context, id string, patch models.ApplicationPatch) error {
	if err := patch.Validate(); err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	set, args := patchAssignments(patch, 2)
	query := fmt.Sprintf(`UPDATE applications SET %s WHERE id = $1`, set)
	res, err := r.db.ExecContext(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateMany applies patch to every id in one statement and returns the ids that existed.
func (r *ApplicationRepository) UpdateMany(ctx context.Context, ids []string, patch models.ApplicationPatch) ([]string, error) {
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("update applications: %w", err)
	}
	if len(ids) == 0 {
		return []string{}, nil
	}
	set, args := patchAssignments(patch, 2)
	query := fmt.Sprintf(`UPDATE applications SET %s WHERE id = ANY($1) RETURNING id`, set)
	updated := make([]string, 0, len(ids))
	if err := r.db.SelectContext(ctx, &updated, query, append([]interface{}{pq.Array(ids)}, args...)...); err != nil {
		return nil, fmt.Errorf("update applications: %w", err)
	}
	return updated, nil
}

// Delete removes one application. A missing id yields sql.ErrNoRows.
func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete application rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteMany removes every id in one statement and returns the ids that existed.
func (r *ApplicationRepository) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	deleted := make([]string, 0, len(ids))
	if err := r.db.SelectContext(ctx, &deleted, `DELETE FROM applications WHERE id = ANY($1) RETURNING id`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("delete applications: %w", err)
	}
	return deleted, nil
}

// patchAssignments renders the SET clause with placeholders starting at $start.
func patchAssignments(patch models.ApplicationPatch, start int) (string, []interface{}) {
	var sets []string
	var args []interface{}
	next := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, start+len(args)))
		args = append(args, value)
	}
	if patch.Status != nil {
		next("status", string(*patch.Status))
	}
	if patch.Rating != nil {
		next("rating", *patch.Rating)
	}
	if patch.AdminNotes != nil {
		next("admin_notes", *patch.AdminNotes)
	}
	next("updated_at", time.Now().UTC())
	return strings.Join(sets, ", "), args
}
