package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"pos-backoffice/pkg/apperrors"
)

// Row maps a header name to the raw string value of one CSV record.
type Row map[string]string

type ParseMeta struct {
	TotalRows int      `json:"total_rows"`
	EmptyRows int      `json:"empty_rows"`
	Errors    []string `json:"errors,omitempty"`
}

// ParsedData is the immutable result of parsing one uploaded file.
type ParsedData struct {
	Headers []string  `json:"headers"`
	Rows    []Row     `json:"rows"`
	Meta    ParseMeta `json:"meta"`
}

// DataStats is a quick quality assessment of parsed data.
type DataStats struct {
	TotalRows    int `json:"total_rows"`
	TotalColumns int `json:"total_columns"`
	EmptyRows    int `json:"empty_rows"`
	EmptyColumns int `json:"empty_columns"`
	DataQuality  int `json:"data_quality"`
}

// ValidateFile checks upload constraints before any parsing happens.
func ValidateFile(filename string, size, maxBytes int64) error {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return apperrors.FileError("file must be a CSV file (.csv)")
	}
	if size == 0 {
		return apperrors.FileError("file is empty")
	}
	if size > maxBytes {
		return apperrors.FileError("file too large, maximum size is %dMB", maxBytes/(1024*1024))
	}
	return nil
}

// Parse reads a whole CSV stream into ParsedData. There is no partial
// success: any structural error (bad quoting, duplicate headers, rows
// wider than the header) fails the parse as a whole.
func Parse(r io.Reader) (*ParsedData, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.ParseError("CSV file is empty or could not be parsed")
	}
	if err != nil {
		return nil, apperrors.ParseError("failed to read CSV header: %v", err)
	}

	headers := extractHeaders(header)
	if len(headers) == 0 {
		return nil, apperrors.ParseError("CSV file has no valid headers")
	}

	var structural []string
	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		key := strings.ToLower(h)
		if seen[key] {
			structural = append(structural, fmt.Sprintf("duplicate column header: %s", h))
		}
		seen[key] = true
	}

	var rows []Row
	emptyRows := 0
	lineNumber := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNumber++
		if err != nil {
			structural = append(structural, fmt.Sprintf("row %d: %v", lineNumber, err))
			continue
		}
		if len(record) > len(headers) {
			structural = append(structural, fmt.Sprintf("row %d: has %d columns, header has %d", lineNumber, len(record), len(headers)))
			continue
		}
		if isEmptyRecord(record) {
			emptyRows++
			continue
		}

		row := make(Row, len(headers))
		for i, h := range headers {
			value := ""
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			row[h] = value
		}
		rows = append(rows, row)
	}

	if len(structural) > 0 {
		return nil, apperrors.ParseError("CSV parse failed: %s", strings.Join(structural, "; "))
	}

	return &ParsedData{
		Headers: headers,
		Rows:    rows,
		Meta: ParseMeta{
			TotalRows: len(rows),
			EmptyRows: emptyRows,
		},
	}, nil
}

// Stats summarizes fill ratios for the preview screen.
func Stats(data *ParsedData) DataStats {
	totalRows := len(data.Rows)
	totalColumns := len(data.Headers)

	emptyColumns := 0
	for _, header := range data.Headers {
		empty := true
		for _, row := range data.Rows {
			if strings.TrimSpace(row[header]) != "" {
				empty = false
				break
			}
		}
		if empty {
			emptyColumns++
		}
	}

	filled := 0
	for _, row := range data.Rows {
		for _, value := range row {
			if strings.TrimSpace(value) != "" {
				filled++
			}
		}
	}

	quality := 0
	if totalCells := totalRows * totalColumns; totalCells > 0 {
		quality = (filled*100 + totalCells/2) / totalCells
	}

	return DataStats{
		TotalRows:    totalRows,
		TotalColumns: totalColumns,
		EmptyRows:    data.Meta.EmptyRows,
		EmptyColumns: emptyColumns,
		DataQuality:  quality,
	}
}

func extractHeaders(record []string) []string {
	headers := make([]string, 0, len(record))
	for _, h := range record {
		h = strings.TrimSpace(h)
		if h != "" {
			headers = append(headers, h)
		}
	}
	return headers
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
