package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterTable() Table {
	return Table{
		Title:       "Appointments",
		Headers:     []string{"Appointment", "Patient", "Status"},
		Rows:        [][]string{{"a-1", "Asha, R", "PENDING"}, {"a-2", "Ben", "CONFIRMED"}},
		GeneratedAt: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestCSVRenderer(t *testing.T) {
	out, err := CSVRenderer{}.Render(rosterTable())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Appointment,Patient,Status", lines[0])
	assert.Equal(t, `a-1,"Asha, R",PENDING`, lines[1])
}

func TestCSVRendererRejectsRaggedRows(t *testing.T) {
	table := rosterTable()
	table.Rows = append(table.Rows, []string{"only-one"})
	_, err := CSVRenderer{}.Render(table)
	require.Error(t, err)
}

func TestPDFRenderer(t *testing.T) {
	out, err := PDFRenderer{}.Render(rosterTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderersRequireHeaders(t *testing.T) {
	_, err := CSVRenderer{}.Render(Table{})
	require.Error(t, err)
	_, err = PDFRenderer{}.Render(Table{})
	require.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())
	assert.IsType(t, PDFRenderer{}, RendererFor(f))

	_, err = ParseFormat("xlsx")
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd~", truncate("abcdefgh", 5))
}
