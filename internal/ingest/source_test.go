package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quantumexchange8/bankofgold/internal/logger"
)

func TestDetectFormat(t *testing.T) {
	if got := DetectFormat("leads.CSV"); got != FormatCSV {
		t.Fatalf("DetectFormat(leads.CSV) = %s, want csv", got)
	}
	if got := DetectFormat("leads.xlsx"); got != FormatXLSX {
		t.Fatalf("DetectFormat(leads.xlsx) = %s, want xlsx", got)
	}
	if got := DetectFormat("upload-without-extension"); got != FormatXLSX {
		t.Fatalf("unknown extension should fall back to xlsx, got %s", got)
	}
}

func TestNormalizeHeading(t *testing.T) {
	cases := map[string]string{
		"First Name":        "first_name",
		"  first-name  ":    "first_name",
		"Private Email (1)": "private_email_1",
		"LEAD ID":           "lead_id",
	}
	for in, want := range cases {
		if got := normalizeHeading(in); got != want {
			t.Fatalf("normalizeHeading(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCSVSource_ReadAndRestart(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	path := filepath.Join(t.TempDir(), "leads.csv")
	data := "First Name,Private Email 1\nAna,a@example.com\nBen,b@example.com\nCam\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := Open(path, log)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	row, ok, err := src.Next()
	if err != nil || !ok {
		t.Fatalf("first Next: ok=%v err=%v", ok, err)
	}
	if row["first_name"] != "Ana" || row["private_email_1"] != "a@example.com" {
		t.Fatalf("unexpected first row: %v", row)
	}

	if _, ok, err = src.Next(); err != nil || !ok {
		t.Fatalf("second Next: ok=%v err=%v", ok, err)
	}

	// A short record leaves its trailing columns absent.
	row, ok, err = src.Next()
	if err != nil || !ok {
		t.Fatalf("third Next: ok=%v err=%v", ok, err)
	}
	if _, present := row["private_email_1"]; present {
		t.Fatalf("short record should omit trailing column, got %v", row)
	}

	if _, ok, _ = src.Next(); ok {
		t.Fatal("expected end of file")
	}

	if err := src.Restart(); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	row, ok, err = src.Next()
	if err != nil || !ok || row["first_name"] != "Ana" {
		t.Fatalf("after Restart expected first row again, got row=%v ok=%v err=%v", row, ok, err)
	}
}

func TestCSVSource_EmptyFile(t *testing.T) {
	log, _ := logger.New("development")
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := NewCSVSource(path, log)
	if err != nil {
		t.Fatalf("NewCSVSource: %v", err)
	}
	defer src.Close()
	if _, ok, err := src.Next(); ok || err != nil {
		t.Fatalf("empty file should yield no rows, ok=%v err=%v", ok, err)
	}
}
