package dedupe

// Row is one already-mapped record from an upload: column name to raw cell
// value. Parsing file formats into Rows lives in internal/ingest.
type Row map[string]string

// RowSource is a finite, restartable sequence of rows. Restart rewinds to
// the first row so a retried run can re-read the same upload.
type RowSource interface {
	Restart() error
	// Next returns the next row, or ok=false once the source is exhausted.
	Next() (row Row, ok bool, err error)
	Close() error
}
