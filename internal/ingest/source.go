package ingest

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/quantumexchange8/bankofgold/internal/dedupe"
	"github.com/quantumexchange8/bankofgold/internal/logger"
)

// Formats the upload surface accepts. Anything without a recognized
// extension is tried as a workbook, which matches how the uploads actually
// arrive (xlsx with the odd csv export).
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// DetectFormat maps a file name to a row-source format.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	default:
		return FormatXLSX
	}
}

// Open builds a RowSource for the spooled upload at path.
func Open(path string, log *logger.Logger) (dedupe.RowSource, error) {
	switch DetectFormat(path) {
	case FormatCSV:
		return NewCSVSource(path, log)
	default:
		return NewXLSXSource(path, log)
	}
}

var headingSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeHeading turns a spreadsheet heading into the snake_case row key
// the ingestor expects: "First Name" and "first-name" both become
// "first_name".
func normalizeHeading(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = headingSeparators.ReplaceAllString(h, "_")
	return strings.Trim(h, "_")
}

// rowFromRecord zips headers with one record's cells. Short records leave
// trailing columns absent rather than blank.
func rowFromRecord(headers []string, record []string) dedupe.Row {
	row := make(dedupe.Row, len(headers))
	for i, h := range headers {
		if h == "" || i >= len(record) {
			continue
		}
		row[h] = record[i]
	}
	return row
}
