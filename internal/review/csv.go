package review

import (
	"strconv"

	"github.com/noah-isme/careers-admin-api/internal/models"
	"github.com/noah-isme/careers-admin-api/pkg/export"
)

// CSV column headers in output order.
const (
	ColumnName       = "Name"
	ColumnEmail      = "Email"
	ColumnPhone      = "Phone"
	ColumnPosition   = "Position"
	ColumnExperience = "Experience"
	ColumnStatus     = "Status"
	ColumnRating     = "Rating"
	ColumnApplied    = "Applied Date"
)

// ExportHeaders lists the export columns in order.
var ExportHeaders = []string{
	ColumnName, ColumnEmail, ColumnPhone, ColumnPosition,
	ColumnExperience, ColumnStatus, ColumnRating, ColumnApplied,
}

// ExportDataset lays records out as export rows, one per record in the given order.
func ExportDataset(records []models.ApplicationRecord) export.Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, map[string]string{
			ColumnName:       r.FullName,
			ColumnEmail:      r.Email,
			ColumnPhone:      r.Phone,
			ColumnPosition:   r.JobTitleValue(),
			ColumnExperience: strconv.Itoa(r.YearsOfExperience),
			ColumnStatus:     string(r.Status),
			ColumnRating:     strconv.Itoa(r.RatingValue()),
			ColumnApplied:    r.AppliedAt.UTC().Format("2006-01-02"),
		})
	}
	return export.Dataset{Headers: ExportHeaders, Rows: rows}
}

// ToCSV renders records as RFC 4180 CSV with a header row.
// Values with commas, quotes or line breaks are quoted so they parse back unchanged.
func ToCSV(records []models.ApplicationRecord) (string, error) {
	out, err := export.NewCSVExporter().Render(ExportDataset(records))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
