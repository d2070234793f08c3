package ingest

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/quantumexchange8/bankofgold/internal/dedupe"
	"github.com/quantumexchange8/bankofgold/internal/logger"
)

// xlsxSource streams the first sheet of a workbook row by row. The first
// row is the heading row; Restart recreates the row iterator so a retried
// run re-reads the sheet from the top.
type xlsxSource struct {
	log     *logger.Logger
	file    *excelize.File
	sheet   string
	rows    *excelize.Rows
	headers []string
}

func NewXLSXSource(path string, log *logger.Logger) (dedupe.RowSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	sheet := f.GetSheetName(0)
	if sheet == "" {
		_ = f.Close()
		return nil, fmt.Errorf("workbook has no sheets")
	}
	s := &xlsxSource{
		log:   log.With("source", "xlsx", "sheet", sheet),
		file:  f,
		sheet: sheet,
	}
	if err := s.Restart(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

func (s *xlsxSource) Restart() error {
	if s.rows != nil {
		_ = s.rows.Close()
	}
	rows, err := s.file.Rows(s.sheet)
	if err != nil {
		return fmt.Errorf("iterate sheet: %w", err)
	}
	s.rows = rows
	s.headers = nil
	if !rows.Next() {
		return nil // empty sheet, Next will report exhaustion
	}
	heading, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("read heading row: %w", err)
	}
	s.headers = make([]string, len(heading))
	for i, h := range heading {
		s.headers[i] = normalizeHeading(h)
	}
	return nil
}

func (s *xlsxSource) Next() (dedupe.Row, bool, error) {
	if s.rows == nil || s.headers == nil {
		return nil, false, nil
	}
	if !s.rows.Next() {
		return nil, false, s.rows.Error()
	}
	record, err := s.rows.Columns()
	if err != nil {
		return nil, false, fmt.Errorf("read row: %w", err)
	}
	return rowFromRecord(s.headers, record), true, nil
}

func (s *xlsxSource) Close() error {
	if s.rows != nil {
		_ = s.rows.Close()
	}
	return s.file.Close()
}
