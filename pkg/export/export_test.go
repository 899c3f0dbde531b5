package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVExporterQuotesAndRoundTrips(t *testing.T) {
	data := Dataset{
		Headers: []string{"Name", "Notes"},
		Rows: []map[string]string{
			{"Name": "Doe, Jane", "Notes": `said "hi"`},
			{"Name": "Line", "Notes": "a\nb"},
		},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	require.Contains(t, string(out), "Name,Notes\r\n")
	require.Contains(t, string(out), `"Doe, Jane","said ""hi"""`)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{{"Name", "Notes"}, {"Doe, Jane", `said "hi"`}, {"Line", "a\nb"}}, records)
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Name", "Status"},
		Rows:    []map[string]string{{"Name": "Ana", "Status": "hired"}},
	}
	out, err := NewPDFExporter().Render(data, "Applications")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
