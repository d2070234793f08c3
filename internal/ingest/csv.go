package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/quantumexchange8/bankofgold/internal/dedupe"
	"github.com/quantumexchange8/bankofgold/internal/logger"
)

// csvSource streams a csv export with a heading row. Restart seeks back to
// the start of the file.
type csvSource struct {
	log     *logger.Logger
	file    *os.File
	reader  *csv.Reader
	headers []string
}

func NewCSVSource(path string, log *logger.Logger) (dedupe.RowSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	s := &csvSource{
		log:  log.With("source", "csv"),
		file: f,
	}
	if err := s.Restart(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

func (s *csvSource) Restart() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind csv: %w", err)
	}
	s.reader = csv.NewReader(s.file)
	s.reader.FieldsPerRecord = -1 // ragged exports happen, tolerate them
	s.headers = nil
	heading, err := s.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read heading row: %w", err)
	}
	s.headers = make([]string, len(heading))
	for i, h := range heading {
		s.headers[i] = normalizeHeading(h)
	}
	return nil
}

func (s *csvSource) Next() (dedupe.Row, bool, error) {
	if s.headers == nil {
		return nil, false, nil
	}
	record, err := s.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read csv row: %w", err)
	}
	return rowFromRecord(s.headers, record), true, nil
}

func (s *csvSource) Close() error {
	return s.file.Close()
}
