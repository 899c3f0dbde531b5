package models

import (
	"fmt"
	"time"
)

// ApplicationStatus is the reviewer-facing lifecycle label. Any status may follow any other.
type ApplicationStatus string

const (
	ApplicationStatusSubmitted ApplicationStatus = "submitted"
	ApplicationStatusReviewing ApplicationStatus = "reviewing"
	ApplicationStatusInterview ApplicationStatus = "interview"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusHired     ApplicationStatus = "hired"
)

// ApplicationStatuses lists every valid status in display order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationStatusSubmitted,
	ApplicationStatusReviewing,
	ApplicationStatusInterview,
	ApplicationStatusRejected,
	ApplicationStatusHired,
}

// Valid reports whether the status belongs to the fixed enum.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusSubmitted, ApplicationStatusReviewing, ApplicationStatusInterview,
		ApplicationStatusRejected, ApplicationStatusHired:
		return true
	default:
		return false
	}
}

const (
	MinRating = 0
	MaxRating = 5
)

// ApplicationRecord is one candidate's submission for one posting.
type ApplicationRecord struct {
	ID                string            `db:"id" json:"id"`
	JobID             *string           `db:"job_id" json:"jobId,omitempty"`
	JobTitle          *string           `db:"job_title" json:"jobTitle,omitempty"`
	FullName          string            `db:"full_name" json:"fullName"`
	Email             string            `db:"email" json:"email"`
	Phone             string            `db:"phone" json:"phone"`
	YearsOfExperience int               `db:"years_of_experience" json:"yearsOfExperience"`
	Status            ApplicationStatus `db:"status" json:"status"`
	Rating            *int              `db:"rating" json:"rating,omitempty"`
	CoverLetter       string            `db:"cover_letter" json:"coverLetter,omitempty"`
	LinkedInURL       string            `db:"linkedin_url" json:"linkedinUrl,omitempty"`
	PortfolioURL      string            `db:"portfolio_url" json:"portfolioUrl,omitempty"`
	ResumeFileName    string            `db:"resume_file_name" json:"resumeFileName,omitempty"`
	ResumeMimeType    string            `db:"resume_mime_type" json:"resumeMimeType,omitempty"`
	ResumeSizeBytes   int64             `db:"resume_size_bytes" json:"resumeSizeBytes,omitempty"`
	ResumeData        string            `db:"resume_data" json:"-"`
	ResumePath        string            `db:"resume_path" json:"-"`
	AdminNotes        string            `db:"admin_notes" json:"adminNotes"`
	AppliedAt         time.Time         `db:"applied_at" json:"appliedAt"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updatedAt"`
}

// RatingValue returns the rating, treating an absent rating as 0 (unrated).
func (r ApplicationRecord) RatingValue() int {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

// JobTitleValue returns the posting title or an empty string when the posting is gone.
func (r ApplicationRecord) JobTitleValue() string {
	if r.JobTitle == nil {
		return ""
	}
	return *r.JobTitle
}

// HasResume reports whether an attachment was stored with the application.
func (r ApplicationRecord) HasResume() bool {
	return r.ResumeFileName != ""
}

// Validate checks the record invariants enforced before any write.
func (r ApplicationRecord) Validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("invalid status %q", r.Status)
	}
	if v := r.RatingValue(); v < MinRating || v > MaxRating {
		return fmt.Errorf("rating %d out of range", v)
	}
	if r.YearsOfExperience < 0 {
		return fmt.Errorf("years of experience must not be negative")
	}
	return nil
}

// ApplicationPatch carries the reviewer-mutable columns. Nil fields are left untouched.
type ApplicationPatch struct {
	Status     *ApplicationStatus
	Rating     *int
	AdminNotes *string
}

// Empty reports whether the patch changes nothing.
func (p ApplicationPatch) Empty() bool {
	return p.Status == nil && p.Rating == nil && p.AdminNotes == nil
}

// Validate applies the record invariants to the patched columns.
func (p ApplicationPatch) Validate() error {
	if p.Empty() {
		return fmt.Errorf("patch has no changes")
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("invalid status %q", *p.Status)
	}
	if p.Rating != nil && (*p.Rating < MinRating || *p.Rating > MaxRating) {
		return fmt.Errorf("rating %d out of range", *p.Rating)
	}
	return nil
}
