package xlsx

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func sheetRows(t *testing.T, content []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	return rows
}

func TestBuildQAFilesSingle(t *testing.T) {
	pairs := [][2]string{{"q1", "a1"}, {"q2", "a2"}}

	files, err := BuildQAFiles(pairs, testTime, "qa_sync", 1000)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "qa_sync_20260102_030405.xlsx", files[0].Name)

	// Headerless: the first row is already data.
	rows := sheetRows(t, files[0].Content)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"q1", "a1"}, rows[0])
	assert.Equal(t, []string{"q2", "a2"}, rows[1])
}

func TestBuildQAFilesSpill(t *testing.T) {
	var pairs [][2]string
	for i := 0; i < 7; i++ {
		pairs = append(pairs, [2]string{fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)})
	}

	files, err := BuildQAFiles(pairs, testTime, "qa_sync", 3)
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "qa_sync_20260102_030405_1.xlsx", files[0].Name)
	assert.Equal(t, "qa_sync_20260102_030405_2.xlsx", files[1].Name)
	assert.Equal(t, "qa_sync_20260102_030405_3.xlsx", files[2].Name)

	assert.Len(t, sheetRows(t, files[0].Content), 3)
	assert.Len(t, sheetRows(t, files[1].Content), 3)
	assert.Len(t, sheetRows(t, files[2].Content), 1)

	// Row order is preserved across the split.
	last := sheetRows(t, files[2].Content)
	assert.Equal(t, []string{"q6", "a6"}, last[0])
}

func TestBuildQAFilesEmpty(t *testing.T) {
	files, err := BuildQAFiles(nil, testTime, "qa_sync", 1000)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestParseQARows(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	data := [][]any{
		{"Question", "Answer"},
		{"q1", "a1"},
		{"  padded q  ", "  padded a  "},
		{"missing answer", ""},
		{"", "missing question"},
		{"q2", "a2"},
	}
	for i, row := range data {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	pairs, err := ParseQARows(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, [][2]string{
		{"q1", "a1"},
		{"padded q", "padded a"},
		{"q2", "a2"},
	}, pairs)
}

func TestParseQARowsRejectsGarbage(t *testing.T) {
	_, err := ParseQARows([]byte("not a spreadsheet"))
	require.Error(t, err)
}

func TestBuildTemplateRoundTrips(t *testing.T) {
	content, err := BuildTemplate()
	require.NoError(t, err)

	rows := sheetRows(t, content)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Question", "Answer"}, rows[0])

	// An untouched template parses to zero pairs.
	pairs, err := ParseQARows(content)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
