package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements bootstraps the tables the API reads and writes. They are idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	full_name TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'REVIEWER',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	last_login TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS jobs (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	department TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	employment_type TEXT NOT NULL DEFAULT 'full_time',
	description TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS applications (
	id UUID PRIMARY KEY,
	job_id UUID,
	full_name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	years_of_experience INTEGER NOT NULL DEFAULT 0 CHECK (years_of_experience >= 0),
	status TEXT NOT NULL DEFAULT 'submitted' CHECK (status IN ('submitted','reviewing','interview','rejected','hired')),
	rating INTEGER CHECK (rating BETWEEN 0 AND 5),
	cover_letter TEXT NOT NULL DEFAULT '',
	linkedin_url TEXT NOT NULL DEFAULT '',
	portfolio_url TEXT NOT NULL DEFAULT '',
	resume_file_name TEXT NOT NULL DEFAULT '',
	resume_mime_type TEXT NOT NULL DEFAULT '',
	resume_size_bytes BIGINT NOT NULL DEFAULT 0,
	resume_data TEXT NOT NULL DEFAULT '',
	resume_path TEXT NOT NULL DEFAULT '',
	admin_notes TEXT NOT NULL DEFAULT '',
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_job ON applications(job_id)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
	id UUID PRIMARY KEY,
	user_id UUID,
	action TEXT NOT NULL,
	resource TEXT NOT NULL,
	resource_id TEXT,
	old_values JSONB,
	new_values JSONB,
	ip_address TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
