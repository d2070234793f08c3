package dedupe

import "testing"

func TestNormalize_Text(t *testing.T) {
	if v := Normalize("  john@example.com  ", FieldText); v == nil || *v != "john@example.com" {
		t.Fatalf("expected trimmed value, got %v", v)
	}
	if v := Normalize("   ", FieldText); v != nil {
		t.Fatalf("whitespace-only input should normalize to nil, got %q", *v)
	}
	if v := Normalize("", FieldText); v != nil {
		t.Fatalf("empty input should normalize to nil, got %q", *v)
	}
}

func TestNormalize_Date(t *testing.T) {
	cases := map[string]string{
		"2024-03-05":  "2024-03-05",
		"03/05/2024":  "2024-03-05",
		"45356":       "2024-03-05", // spreadsheet serial date
		"May 1, 2023": "2023-05-01",
	}
	for in, want := range cases {
		v := Normalize(in, FieldDate)
		if v == nil {
			t.Fatalf("Normalize(%q) returned nil, want %q", in, want)
		}
		if *v != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, *v, want)
		}
	}
	if v := Normalize("not a date", FieldDate); v != nil {
		t.Fatalf("unparseable date should normalize to nil, got %q", *v)
	}
}

func TestNormalize_Time(t *testing.T) {
	cases := map[string]string{
		"09:30:00": "09:30:00",
		"09:30":    "09:30:00",
		"9:30 AM":  "09:30:00",
		"2:15 PM":  "14:15:00",
	}
	for in, want := range cases {
		v := Normalize(in, FieldTime)
		if v == nil {
			t.Fatalf("Normalize(%q) returned nil, want %q", in, want)
		}
		if *v != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, *v, want)
		}
	}
}

func TestNormalize_Boolean(t *testing.T) {
	truthy := []string{"true", "Yes", "y", "1", "T"}
	for _, in := range truthy {
		if v := Normalize(in, FieldBoolean); v == nil || *v != "true" {
			t.Fatalf("Normalize(%q) should be true, got %v", in, v)
		}
	}
	falsy := []string{"false", "No", "n", "0", "F"}
	for _, in := range falsy {
		if v := Normalize(in, FieldBoolean); v == nil || *v != "false" {
			t.Fatalf("Normalize(%q) should be false, got %v", in, v)
		}
	}
	if v := Normalize("maybe", FieldBoolean); v != nil {
		t.Fatalf("unparseable boolean should normalize to nil, got %q", *v)
	}
}

func TestNormalizeDate_TruncatesToDay(t *testing.T) {
	v := NormalizeDate("2024-03-05 14:22:10")
	if v == nil {
		t.Fatal("expected a date")
	}
	if v.Hour() != 0 || v.Minute() != 0 || v.Second() != 0 {
		t.Fatalf("expected midnight, got %v", v)
	}
	if got := v.Format("2006-01-02"); got != "2024-03-05" {
		t.Fatalf("got %s, want 2024-03-05", got)
	}
}
