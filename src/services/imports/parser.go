package imports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"formhive-backend/src/models"

	"github.com/xuri/excelize/v2"
)

// MaxFileSize is the upload ceiling for import spreadsheets (10MB).
var MaxFileSize int64 = 10 * 1024 * 1024

// PreviewRows is how many data rows the analyzer surfaces as a preview.
const PreviewRows = 5

// ParseError means the source file is unreadable or the wrong
// format/type/size. It is fatal to an import job.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Reason
}

// ParseUpload reads a CSV or Excel upload into the normalized row shape.
// The first non-empty row is the header; empty rows are skipped.
func ParseUpload(fileName string, data []byte) (*models.ParsedFileData, error) {
	if int64(len(data)) > MaxFileSize {
		return nil, &ParseError{Reason: fmt.Sprintf("file exceeds %dMB limit", MaxFileSize/(1024*1024))}
	}
	if len(data) == 0 {
		return nil, &ParseError{Reason: "file is empty"}
	}

	var records [][]string
	var err error
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		records, err = readCSV(data)
	case ".xlsx", ".xls":
		records, err = readExcel(data)
	default:
		return nil, &ParseError{Reason: fmt.Sprintf("unsupported file type %q, expected .csv, .xls or .xlsx", filepath.Ext(fileName))}
	}
	if err != nil {
		return nil, err
	}

	return buildParsedData(records)
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")) // UTF-8 BOM

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid CSV: %v", err)}
	}
	return records, nil
}

func readExcel(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid Excel file: %v", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Reason: "workbook has no sheets"}
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("could not read sheet %q: %v", sheets[0], err)}
	}
	return records, nil
}

func buildParsedData(records [][]string) (*models.ParsedFileData, error) {
	// skip leading empty rows, first remaining row is the header
	start := 0
	for start < len(records) && isEmptyRow(records[start]) {
		start++
	}
	if start >= len(records) {
		return nil, &ParseError{Reason: "no header row found"}
	}

	// duplicate headers get a numeric suffix so row maps and the positional
	// column mapping stay one entry per column
	header := records[start]
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		base := h
		for seen[h] > 0 {
			seen[base]++
			h = fmt.Sprintf("%s (%d)", base, seen[base])
		}
		seen[h]++
		columns[i] = h
	}

	var rows []map[string]string
	for _, record := range records[start+1:] {
		if isEmptyRow(record) {
			continue
		}
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	preview := rows
	if len(preview) > PreviewRows {
		preview = preview[:PreviewRows]
	}

	return &models.ParsedFileData{
		Columns:  columns,
		Rows:     rows,
		RowCount: len(rows),
		Preview:  preview,
	}, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
