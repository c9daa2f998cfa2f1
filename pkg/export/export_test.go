package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title:   "Roster Math 7A",
		Columns: []string{"Name", "Email", "Parent Code", "Joined"},
		Rows: [][]string{
			{"Ana Marin", "ana@example.com", "PAR-7Q2K9X", "2026-01-12"},
			{"Luis Pop", "luis@example.com", "PAR-3M8T1B", "2026-01-14"},
		},
	}
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Email,Parent Code,Joined", string(bytes.TrimSpace(lines[0])))
	assert.Contains(t, string(lines[1]), "PAR-7Q2K9X")
}

func TestCSVRenderShortRowPadded(t *testing.T) {
	table := sampleTable()
	table.Rows = [][]string{{"Ana Marin"}}

	out, err := NewCSVExporter().Render(table)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, "Ana Marin,,,", string(bytes.TrimSpace(lines[1])))
}

func TestCSVRenderNoColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{})
	assert.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleTable())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Greater(t, len(out), 500)
}

func TestPDFRenderNoColumns(t *testing.T) {
	_, err := NewPDFExporter().Render(Table{Title: "Empty"})
	assert.Error(t, err)
}
