package dedupe

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestIngestor_NormalizesTypedColumns(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	importID := uuid.New()

	src := &sliceSource{rows: []Row{
		{
			"lead_id":         "L-100",
			"first_name":      "  Ana  ",
			"date_added":      "45356",
			"decision_maker":  "Yes",
			"verified_time":   "9:30 AM",
			"private_email_1": " ana@example.com ",
		},
		{
			"first_name": "Ben",
			"date_added": "not a date",
		},
	}}

	total, err := env.engine.ingestor.Ingest(ctx, importID, uuid.New(), src)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}

	leads := env.leadsOfImport(t, importID)
	if len(leads) != 2 {
		t.Fatalf("leads = %d, want 2", len(leads))
	}

	ana := leads[0]
	if ana.SourceLeadID == nil || *ana.SourceLeadID != "L-100" {
		t.Fatalf("source_lead_id = %v, want L-100", ana.SourceLeadID)
	}
	if ana.FirstName == nil || *ana.FirstName != "Ana" {
		t.Fatalf("first_name = %v, want trimmed Ana", ana.FirstName)
	}
	if ana.PrivateEmail1 == nil || *ana.PrivateEmail1 != "ana@example.com" {
		t.Fatalf("private_email_1 = %v, want trimmed address", ana.PrivateEmail1)
	}
	if ana.DateAdded == nil || ana.DateAdded.Format("2006-01-02") != "2024-03-05" {
		t.Fatalf("date_added = %v, want 2024-03-05 from serial date", ana.DateAdded)
	}
	if ana.DecisionMaker == nil || !*ana.DecisionMaker {
		t.Fatalf("decision_maker = %v, want true", ana.DecisionMaker)
	}
	if ana.VerifiedTime == nil || *ana.VerifiedTime != "09:30:00" {
		t.Fatalf("verified_time = %v, want 09:30:00", ana.VerifiedTime)
	}

	// An unparseable date stores NULL instead of failing the run.
	ben := leads[1]
	if ben.DateAdded != nil {
		t.Fatalf("date_added = %v, want nil for unparseable input", ben.DateAdded)
	}
}
