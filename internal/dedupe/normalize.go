package dedupe

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"
)

type FieldKind string

const (
	FieldText    FieldKind = "text"
	FieldDate    FieldKind = "date"
	FieldTime    FieldKind = "time"
	FieldBoolean FieldKind = "boolean"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Normalize converts a raw cell value into its canonical stored form.
// A blank or whitespace-only input is nil regardless of kind, and any parse
// failure is nil as well; callers decide whether that is worth a warning.
// Normalize never returns an error.
func Normalize(raw string, kind FieldKind) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	switch kind {
	case FieldDate:
		t := parseDateTime(trimmed)
		if t == nil {
			return nil
		}
		s := t.Format(dateLayout)
		return &s
	case FieldTime:
		t := parseClock(trimmed)
		if t == nil {
			return nil
		}
		s := t.Format(timeLayout)
		return &s
	case FieldBoolean:
		b := parseBool(trimmed)
		if b == nil {
			return nil
		}
		s := strconv.FormatBool(*b)
		return &s
	default:
		return &trimmed
	}
}

// NormalizeDate is Normalize for typed date columns.
func NormalizeDate(raw string) *time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	t := parseDateTime(trimmed)
	if t == nil {
		return nil
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}

// Numeric values are spreadsheet serial dates (days since the 1900 epoch),
// anything else goes through the permissive parser.
func parseDateTime(s string) *time.Time {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		t, convErr := excelize.ExcelDateToTime(f, false)
		if convErr != nil {
			return nil
		}
		return &t
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}
	return &t
}

func parseClock(s string) *time.Time {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		t, convErr := excelize.ExcelDateToTime(f, false)
		if convErr != nil {
			return nil
		}
		return &t
	}
	for _, layout := range []string{timeLayout, "15:04", "3:04 PM", "3:04:05 PM"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}
	return &t
}

func parseBool(s string) *bool {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "true", "t", "yes", "y", "1":
		b := true
		return &b
	case "false", "f", "no", "n", "0":
		b := false
		return &b
	default:
		return nil
	}
}
