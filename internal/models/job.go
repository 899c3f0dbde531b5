package models

import "time"

// EmploymentType classifies a posting.
type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "full_time"
	EmploymentPartTime   EmploymentType = "part_time"
	EmploymentContract   EmploymentType = "contract"
	EmploymentInternship EmploymentType = "internship"
)

// JobPosting is an open (or closed) position listed on the careers site.
type JobPosting struct {
	ID             string         `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	Department     string         `db:"department" json:"department"`
	Location       string         `db:"location" json:"location"`
	EmploymentType EmploymentType `db:"employment_type" json:"employmentType"`
	Description    string         `db:"description" json:"description"`
	Active         bool           `db:"active" json:"active"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// JobFilter narrows posting listings.
type JobFilter struct {
	ActiveOnly bool
	Department string
}

// JobRequest is the admin payload for creating or replacing a posting.
type JobRequest struct {
	Title          string         `json:"title" validate:"required,max=200"`
	Department     string         `json:"department" validate:"required,max=100"`
	Location       string         `json:"location" validate:"required,max=100"`
	EmploymentType EmploymentType `json:"employmentType" validate:"required,oneof=full_time part_time contract internship"`
	Description    string         `json:"description" validate:"max=20000"`
	Active         *bool          `json:"active"`
}
