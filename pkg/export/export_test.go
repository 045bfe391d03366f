package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduleDataset() Dataset {
	return Dataset{
		Title:    "Fall plan",
		Subtitle: "Semester 20259",
		Headers:  []string{"Course", "Day", "Start", "End", "Location"},
		Rows: []map[string]string{
			{"Course": "CSC108H1", "Day": "Monday", "Start": "10:00", "End": "11:00", "Location": "BA 1130"},
			{"Course": "MAT137Y1", "Day": "Tuesday", "Start": "09:00", "End": "10:00"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	body, err := NewCSVExporter().Render(scheduleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Course,Day,Start,End,Location", lines[0])
	assert.Equal(t, "CSC108H1,Monday,10:00,11:00,BA 1130", lines[1])
	assert.Equal(t, "MAT137Y1,Tuesday,09:00,10:00,", lines[2])
}

func TestCSVExporterQuotesCells(t *testing.T) {
	body, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"Instructor"},
		Rows:    []map[string]string{{"Instructor": "A Smith, B Jones"}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"A Smith, B Jones"`)
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := scheduleDataset()
	for i := 0; i < 60; i++ {
		data.Rows = append(data.Rows, map[string]string{"Course": "ABC100H1", "Day": "Friday"})
	}
	body, err := NewPDFExporter().Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
}

func TestColumnWidthsFollowContent(t *testing.T) {
	widths := columnWidths(scheduleDataset())
	require.Len(t, widths, 5)
	total := 0.0
	for _, w := range widths {
		assert.GreaterOrEqual(t, w, pdfMinColWidth)
		total += w
	}
	assert.Greater(t, widths[0], widths[2])
	assert.InDelta(t, pdfPageWidth, total, 40)
}
