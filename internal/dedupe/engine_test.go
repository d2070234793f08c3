package dedupe

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/repos"
	"github.com/quantumexchange8/bankofgold/internal/types"
)

type sliceSource struct {
	rows []Row
	pos  int
}

func (s *sliceSource) Restart() error { s.pos = 0; return nil }

func (s *sliceSource) Next() (Row, bool, error) {
	if s.pos >= len(s.rows) {
		return nil, false, nil
	}
	r := s.rows[s.pos]
	s.pos++
	return r, true, nil
}

func (s *sliceSource) Close() error { return nil }

type testEnv struct {
	db      *gorm.DB
	engine  *Engine
	leads   repos.LeadRepo
	records repos.DuplicateRecordRepo
	links   repos.DuplicateLinkRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "dedupe.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.ImportRun{}, &types.Lead{}, &types.DuplicateRecord{}, &types.DuplicateLink{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	leads := repos.NewLeadRepo(db, log)
	records := repos.NewDuplicateRecordRepo(db, log)
	links := repos.NewDuplicateLinkRepo(db, log)

	engine, err := NewEngine(db, log, DefaultConfig(), leads, records, links)
	if err != nil {
		t.Fatalf("init engine: %v", err)
	}
	return &testEnv{db: db, engine: engine, leads: leads, records: records, links: links}
}

func strPtr(s string) *string { return &s }

// seedLead plants a lead belonging to an earlier import directly in the
// store and returns its id.
func (e *testEnv) seedLead(t *testing.T, importID uuid.UUID, l *types.Lead) int64 {
	t.Helper()
	imp := importID
	l.ImportID = &imp
	if err := e.leads.CreateBatch(context.Background(), nil, []*types.Lead{l}); err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	return l.ID
}

func (e *testEnv) leadsOfImport(t *testing.T, importID uuid.UUID) []types.Lead {
	t.Helper()
	var out []types.Lead
	if err := e.db.Where("import_id = ?", importID).Order("id ASC").Find(&out).Error; err != nil {
		t.Fatalf("load leads: %v", err)
	}
	return out
}

func TestEngineRun_FlagsAllButEarliestHolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	importID := uuid.New()
	userID := uuid.New()

	src := &sliceSource{rows: []Row{
		{"first_name": "Ana", "private_email_1": "dup@example.com"},
		{"first_name": "Ben", "private_email_1": "dup@example.com"},
		{"first_name": "Cam", "company_email_2": "dup@example.com"},
	}}

	res, err := env.engine.Run(ctx, importID, userID, src, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalRows != 3 {
		t.Fatalf("TotalRows = %d, want 3", res.TotalRows)
	}
	if res.DuplicateCount != 2 {
		t.Fatalf("DuplicateCount = %d, want 2", res.DuplicateCount)
	}

	rec, err := env.records.GetByGroupValue(ctx, nil, types.EntityTypeLead, "email", "dup@example.com")
	if err != nil || rec == nil {
		t.Fatalf("expected ledger row, got rec=%v err=%v", rec, err)
	}
	if rec.Count != 3 {
		t.Fatalf("ledger count = %d, want 3", rec.Count)
	}

	linked, err := env.links.GetLeadIDsByRecord(ctx, nil, rec.ID)
	if err != nil {
		t.Fatalf("GetLeadIDsByRecord: %v", err)
	}
	if len(linked) != 3 {
		t.Fatalf("links = %d, want 3", len(linked))
	}

	leads := env.leadsOfImport(t, importID)
	if len(leads) != 3 {
		t.Fatalf("leads = %d, want 3", len(leads))
	}
	if leads[0].IsDuplicate {
		t.Fatal("earliest holder must not be flagged")
	}
	for _, l := range leads[1:] {
		if !l.IsDuplicate {
			t.Fatalf("lead %d should be flagged", l.ID)
		}
	}
}

func TestEngineRun_MatchesAcrossColumnsAndImports(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	oldImport := uuid.New()
	newImport := uuid.New()
	userID := uuid.New()

	existingID := env.seedLead(t, oldImport, &types.Lead{
		UserID:        userID,
		FirstName:     strPtr("Old"),
		CompanyEmail2: strPtr("shared@example.com"),
	})

	src := &sliceSource{rows: []Row{
		{"first_name": "New", "private_email_1": "shared@example.com"},
	}}
	res, err := env.engine.Run(ctx, newImport, userID, src, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.DuplicateCount != 1 {
		t.Fatalf("DuplicateCount = %d, want 1", res.DuplicateCount)
	}

	rec, err := env.records.GetByGroupValue(ctx, nil, types.EntityTypeLead, "email", "shared@example.com")
	if err != nil || rec == nil {
		t.Fatalf("expected ledger row, got rec=%v err=%v", rec, err)
	}
	if rec.Count != 2 {
		t.Fatalf("ledger count = %d, want 2", rec.Count)
	}

	linked, err := env.links.GetLeadIDsByRecord(ctx, nil, rec.ID)
	if err != nil {
		t.Fatalf("GetLeadIDsByRecord: %v", err)
	}
	if len(linked) != 2 || linked[0] != existingID {
		t.Fatalf("links = %v, want [%d, <new>]", linked, existingID)
	}

	var existing types.Lead
	if err := env.db.First(&existing, existingID).Error; err != nil {
		t.Fatalf("load existing lead: %v", err)
	}
	if existing.IsDuplicate {
		t.Fatal("pre-existing earliest holder must stay unflagged")
	}
	newLeads := env.leadsOfImport(t, newImport)
	if len(newLeads) != 1 || !newLeads[0].IsDuplicate {
		t.Fatalf("imported lead should be flagged, got %+v", newLeads)
	}
}

func TestEngineRun_DistinctValuesStayUnlinked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	importID := uuid.New()

	src := &sliceSource{rows: []Row{
		{"first_name": "Ana", "private_email_1": "a@example.com"},
		{"first_name": "Ben", "private_email_1": "b@example.com"},
		{"first_name": "Cam", "private_email_1": "   "},
		{"first_name": "Dee"},
	}}
	res, err := env.engine.Run(ctx, importID, uuid.New(), src, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalRows != 4 {
		t.Fatalf("TotalRows = %d, want 4", res.TotalRows)
	}
	if res.DuplicateCount != 0 {
		t.Fatalf("DuplicateCount = %d, want 0", res.DuplicateCount)
	}

	_, total, err := env.records.List(ctx, nil, "", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 0 {
		t.Fatalf("ledger rows = %d, want 0", total)
	}
}

// Blank cells must never match each other even when many leads leave the
// same column empty.
func TestEngineRun_BlanksNeverMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	importID := uuid.New()

	src := &sliceSource{rows: []Row{
		{"first_name": "Ana", "private_email_1": ""},
		{"first_name": "Ben", "private_email_1": ""},
		{"first_name": "Cam", "private_email_1": "  "},
	}}
	res, err := env.engine.Run(ctx, importID, uuid.New(), src, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.DuplicateCount != 0 {
		t.Fatalf("DuplicateCount = %d, want 0", res.DuplicateCount)
	}
}

func TestEngineRun_RerunIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	importID := uuid.New()
	userID := uuid.New()

	rows := []Row{
		{"first_name": "Ana", "private_email_1": "dup@example.com"},
		{"first_name": "Ben", "company_email_1": "dup@example.com"},
	}

	if _, err := env.engine.Run(ctx, importID, userID, &sliceSource{rows: rows}, nil); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	res, err := env.engine.Run(ctx, importID, userID, &sliceSource{rows: rows}, nil)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res.TotalRows != 2 || res.DuplicateCount != 1 {
		t.Fatalf("second run result = %+v, want 2 rows / 1 duplicate", res)
	}

	rec, err := env.records.GetByGroupValue(ctx, nil, types.EntityTypeLead, "email", "dup@example.com")
	if err != nil || rec == nil {
		t.Fatalf("expected ledger row, got rec=%v err=%v", rec, err)
	}
	if rec.Count != 2 {
		t.Fatalf("ledger count after rerun = %d, want 2", rec.Count)
	}
	linked, err := env.links.GetLeadIDsByRecord(ctx, nil, rec.ID)
	if err != nil {
		t.Fatalf("GetLeadIDsByRecord: %v", err)
	}
	if len(linked) != 2 {
		t.Fatalf("links after rerun = %d, want 2", len(linked))
	}

	// Only the replacement leads may remain live.
	live := env.leadsOfImport(t, importID)
	if len(live) != 2 {
		t.Fatalf("live leads after rerun = %d, want 2", len(live))
	}
}

// A ledger row whose links disagree with its count must fail the run, not
// be silently corrected. A stray link left by an outside writer makes the
// post-run verification see 3 links against a re-count of 2.
func TestEngineRun_LedgerMismatchFailsRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	importID := uuid.New()

	rec, err := env.records.Upsert(ctx, nil, &types.DuplicateRecord{
		EntityType: types.EntityTypeLead,
		GroupName:  "email",
		Value:      "dup@example.com",
		Count:      2,
	})
	if err != nil {
		t.Fatalf("seed ledger row: %v", err)
	}
	stray := &types.DuplicateLink{
		DuplicateRecordID: rec.ID,
		EntityType:        types.EntityTypeLead,
		LeadID:            9999,
	}
	if err := env.links.CreateBatchIgnore(ctx, nil, []*types.DuplicateLink{stray}); err != nil {
		t.Fatalf("seed stray link: %v", err)
	}

	src := &sliceSource{rows: []Row{
		{"first_name": "Ana", "private_email_1": "dup@example.com"},
		{"first_name": "Ben", "private_email_1": "dup@example.com"},
	}}
	_, err = env.engine.Run(ctx, importID, uuid.New(), src, nil)
	if err == nil {
		t.Fatal("expected Run to fail on ledger mismatch")
	}
	if !errors.Is(err, ErrConsistency) {
		t.Fatalf("error = %v, want ErrConsistency", err)
	}
}

func TestVerifyLedger_CorruptedCountSurfacesErrConsistency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	importID := uuid.New()

	src := &sliceSource{rows: []Row{
		{"first_name": "Ana", "private_email_1": "dup@example.com"},
		{"first_name": "Ben", "private_email_1": "dup@example.com"},
	}}
	if _, err := env.engine.Run(ctx, importID, uuid.New(), src, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec, err := env.records.GetByGroupValue(ctx, nil, types.EntityTypeLead, "email", "dup@example.com")
	if err != nil || rec == nil {
		t.Fatalf("expected ledger row, got rec=%v err=%v", rec, err)
	}

	err = env.db.Model(&types.DuplicateRecord{}).
		Where("id = ?", rec.ID).
		Update("count", 7).Error
	if err != nil {
		t.Fatalf("corrupt count: %v", err)
	}

	err = env.engine.verifyLedger(ctx, map[uuid.UUID]bool{rec.ID: true})
	if !errors.Is(err, ErrConsistency) {
		t.Fatalf("error = %v, want ErrConsistency", err)
	}
}

func TestEngineCleanup_DecrementsSharedLedgerRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	oldImport := uuid.New()
	newImport := uuid.New()
	userID := uuid.New()

	env.seedLead(t, oldImport, &types.Lead{
		UserID:        userID,
		CompanyEmail1: strPtr("shared@example.com"),
	})
	src := &sliceSource{rows: []Row{
		{"first_name": "New", "private_email_1": "shared@example.com"},
	}}
	if _, err := env.engine.Run(ctx, newImport, userID, src, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if err := env.engine.Cleanup(ctx, newImport); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	// The imported lead is gone, the pre-existing holder keeps its ledger
	// row at the reduced count.
	if live := env.leadsOfImport(t, newImport); len(live) != 0 {
		t.Fatalf("expected imported leads removed, got %d", len(live))
	}
	rec, err := env.records.GetByGroupValue(ctx, nil, types.EntityTypeLead, "email", "shared@example.com")
	if err != nil {
		t.Fatalf("GetByGroupValue: %v", err)
	}
	if rec == nil || rec.Count != 1 {
		t.Fatalf("ledger row after cleanup = %+v, want count 1", rec)
	}
	linked, err := env.links.GetLeadIDsByRecord(ctx, nil, rec.ID)
	if err != nil {
		t.Fatalf("GetLeadIDsByRecord: %v", err)
	}
	if len(linked) != 1 {
		t.Fatalf("links after cleanup = %d, want 1", len(linked))
	}

	// A second cleanup finds nothing and changes nothing.
	if err := env.engine.Cleanup(ctx, newImport); err != nil {
		t.Fatalf("second Cleanup: %v", err)
	}
	rec, err = env.records.GetByGroupValue(ctx, nil, types.EntityTypeLead, "email", "shared@example.com")
	if err != nil || rec == nil || rec.Count != 1 {
		t.Fatalf("ledger row after second cleanup = %+v err=%v, want count 1", rec, err)
	}
}

func TestEngineCleanup_RemovesDrainedLedgerRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	importID := uuid.New()

	src := &sliceSource{rows: []Row{
		{"first_name": "Ana", "private_email_1": "dup@example.com"},
		{"first_name": "Ben", "private_email_1": "dup@example.com"},
	}}
	if _, err := env.engine.Run(ctx, importID, uuid.New(), src, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if err := env.engine.Cleanup(ctx, importID); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	rec, err := env.records.GetByGroupValue(ctx, nil, types.EntityTypeLead, "email", "dup@example.com")
	if err != nil {
		t.Fatalf("GetByGroupValue: %v", err)
	}
	if rec != nil {
		t.Fatalf("drained ledger row should be gone, got %+v", rec)
	}
}
