// Package wizard implements the multi-step application form: per-step
// required-field validation, debounced draft persistence and resume attachments.
package wizard

import (
	"net/http"
	"strings"

	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
)

// Field names shared by the steps, the draft and the submission.
const (
	FieldFullName    = "full_name"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldYears       = "years_of_experience"
	FieldLinkedIn    = "linkedin_url"
	FieldPortfolio   = "portfolio_url"
	FieldResume      = "resume"
	FieldCoverLetter = "cover_letter"
)

// Step is one form section and the fields it requires.
type Step struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Fields   []string `json:"fields"`
	Required []string `json:"required"`
}

// DefaultSteps is the careers application form.
func DefaultSteps() []Step {
	return []Step{
		{Name: "personal", Title: "Personal information", Fields: []string{FieldFullName, FieldEmail, FieldPhone}, Required: []string{FieldFullName, FieldEmail, FieldPhone}},
		{Name: "experience", Title: "Experience", Fields: []string{FieldYears, FieldLinkedIn, FieldPortfolio}, Required: []string{FieldYears}},
		{Name: "documents", Title: "Resume", Fields: []string{FieldResume}, Required: []string{FieldResume}},
		{Name: "motivation", Title: "Cover letter", Fields: []string{FieldCoverLetter}, Required: []string{FieldCoverLetter}},
	}
}

// Session errors.
var (
	ErrSessionClosed = appErrors.New("SESSION_CLOSED", http.StatusConflict, "application session is closed")
	ErrNotLastStep   = appErrors.New("NOT_LAST_STEP", http.StatusConflict, "submit is only allowed from the last step")
	ErrLastStep      = appErrors.New("LAST_STEP", http.StatusConflict, "already on the last step")
)

// missingFields returns the required fields of step that have no value.
// The resume field is satisfied by an attachment rather than a text value.
func missingFields(step Step, fields map[string]string, hasResume bool) []string {
	missing := make([]string, 0)
	for _, name := range step.Required {
		if name == FieldResume {
			if !hasResume {
				missing = append(missing, name)
			}
			continue
		}
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
