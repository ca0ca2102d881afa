// Package xlsx builds and parses the two-column QA spreadsheets exchanged
// with the remote engine's QA parsing mode.
package xlsx

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

type File struct {
	Name    string
	Content []byte
}

// BuildQAFiles serializes pairs into headerless two-column spreadsheets, at
// most maxPerFile rows each; overflow spills into additional files with an
// incrementing suffix on the name.
func BuildQAFiles(pairs [][2]string, now time.Time, prefix string, maxPerFile int) ([]File, error) {
	timestamp := now.Format("20060102_150405")
	totalBatches := (len(pairs) + maxPerFile - 1) / maxPerFile

	var files []File
	for start := 0; start < len(pairs); start += maxPerFile {
		end := start + maxPerFile
		if end > len(pairs) {
			end = len(pairs)
		}
		batch := pairs[start:end]

		f := excelize.NewFile()
		sheet := f.GetSheetName(0)
		for row, pair := range batch {
			cell, err := excelize.CoordinatesToCellName(1, row+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(sheet, cell, &[]any{pair[0], pair[1]}); err != nil {
				return nil, err
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return nil, fmt.Errorf("write spreadsheet: %w", err)
		}
		_ = f.Close()

		suffix := ""
		if totalBatches > 1 {
			suffix = fmt.Sprintf("_%d", start/maxPerFile+1)
		}
		files = append(files, File{
			Name:    fmt.Sprintf("%s_%s%s.xlsx", prefix, timestamp, suffix),
			Content: buf.Bytes(),
		})
	}
	return files, nil
}

// BuildTemplate produces an empty import workbook carrying only the header
// row ParseQARows expects.
func BuildTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Question", "Answer"}); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseQARows reads (question, answer) pairs from an uploaded spreadsheet,
// skipping the header row and rows missing either column.
func ParseQARows(content []byte) ([][2]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}

	var pairs [][2]string
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 2 {
			continue
		}
		q := strings.TrimSpace(row[0])
		a := strings.TrimSpace(row[1])
		if q == "" || a == "" {
			continue
		}
		pairs = append(pairs, [2]string{q, a})
	}
	return pairs, nil
}
