package dedupe

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/repos"
)

// ErrConsistency means a ledger row's count no longer matches its live
// links. Under atomic upserts this cannot happen; when it does the run is
// failed and rolled back rather than silently corrected.
var ErrConsistency = errors.New("dedupe: ledger count does not match live links")

// ProgressFunc receives coarse stage updates during a run.
type ProgressFunc func(stage string, pct int, msg string)

type RunResult struct {
	TotalRows      int
	DuplicateCount int
}

// Engine runs one import end to end: defensive rollback, ingest, then per
// field group detect → reconcile → link → mark, and a final ledger check.
// Long scans are chunked outside any transaction; only the per-candidate
// ledger writes and the rollback are transactional.
type Engine struct {
	db  *gorm.DB
	log *logger.Logger
	cfg Config

	leads   repos.LeadRepo
	records repos.DuplicateRecordRepo
	links   repos.DuplicateLinkRepo

	ingestor   *Ingestor
	detector   *Detector
	reconciler *Reconciler
	linker     *Linker
	marker     *Marker
	cleaner    *Cleaner
}

func NewEngine(db *gorm.DB, baseLog *logger.Logger, cfg Config, leads repos.LeadRepo, records repos.DuplicateRecordRepo, links repos.DuplicateLinkRepo) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := baseLog.With("component", "DedupeEngine")
	return &Engine{
		db:         db,
		log:        log,
		cfg:        cfg,
		leads:      leads,
		records:    records,
		links:      links,
		ingestor:   NewIngestor(db, baseLog, cfg, leads),
		detector:   NewDetector(baseLog, cfg, leads),
		reconciler: NewReconciler(baseLog, records),
		linker:     NewLinker(baseLog, links),
		marker:     NewMarker(baseLog, leads),
		cleaner:    NewCleaner(db, baseLog, leads, records, links),
	}, nil
}

func (e *Engine) Run(ctx context.Context, importID, userID uuid.UUID, src RowSource, progress ProgressFunc) (*RunResult, error) {
	if progress == nil {
		progress = func(string, int, string) {}
	}
	log := e.log.With("import_id", importID)

	// A forced re-run of a previously failed import may have left rows
	// behind; start from a clean slate.
	progress("cleanup", 5, "removing rows from prior attempts")
	if err := e.cleaner.Cleanup(ctx, importID); err != nil {
		return nil, fmt.Errorf("pre-run cleanup: %w", err)
	}

	progress("ingest", 10, "ingesting rows")
	if err := src.Restart(); err != nil {
		return nil, fmt.Errorf("restart row source: %w", err)
	}
	total, err := e.ingestor.Ingest(ctx, importID, userID, src)
	if err != nil {
		return nil, err
	}
	progress("ingest", 40, fmt.Sprintf("%d rows ingested", total))

	touched := make(map[uuid.UUID]bool)
	for i, group := range e.cfg.Groups {
		pct := 40 + (50*(i+1))/len(e.cfg.Groups)
		progress("detect", pct, fmt.Sprintf("matching group %s", group.Name))
		err := e.detector.DetectGroup(ctx, importID, group, func(c Candidate) error {
			return e.processCandidate(ctx, importID, c, touched)
		})
		if err != nil {
			return nil, fmt.Errorf("detect group %s: %w", group.Name, err)
		}
	}

	if err := e.verifyLedger(ctx, touched); err != nil {
		return nil, err
	}

	dupCount, err := e.leads.CountDuplicatesByImport(ctx, nil, importID)
	if err != nil {
		return nil, fmt.Errorf("count duplicates: %w", err)
	}

	progress("done", 100, "import finished")
	log.Info("Import run finished", "total_rows", total, "duplicate_count", dupCount, "ledger_rows", len(touched))
	return &RunResult{TotalRows: total, DuplicateCount: int(dupCount)}, nil
}

// processCandidate lands one duplicated value: ledger upsert, links for all
// holders, duplicate flags for the current import's non-earliest holders.
// One short transaction per candidate keeps writes narrow.
func (e *Engine) processCandidate(ctx context.Context, importID uuid.UUID, c Candidate, touched map[uuid.UUID]bool) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recordID, err := e.reconciler.Reconcile(ctx, tx, c.Group, c.Value, c.Count)
		if err != nil {
			return err
		}
		leadIDs := make([]int64, 0, len(c.Holders))
		for _, h := range c.Holders {
			leadIDs = append(leadIDs, h.LeadID)
		}
		if err := e.linker.Link(ctx, tx, recordID, leadIDs); err != nil {
			return err
		}
		if _, err := e.marker.Mark(ctx, tx, importID, c.Holders); err != nil {
			return fmt.Errorf("mark duplicates: %w", err)
		}
		touched[recordID] = true
		return nil
	})
}

// verifyLedger compares each touched ledger row's count against its live
// link count. A mismatch is surfaced as ErrConsistency and fails the run.
func (e *Engine) verifyLedger(ctx context.Context, touched map[uuid.UUID]bool) error {
	if len(touched) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	recs, err := e.records.GetByIDs(ctx, nil, ids)
	if err != nil {
		return fmt.Errorf("load ledger rows: %w", err)
	}
	linkCounts, err := e.links.CountsByRecordIDs(ctx, nil, ids)
	if err != nil {
		return fmt.Errorf("count ledger links: %w", err)
	}
	for _, rec := range recs {
		if int64(rec.Count) != linkCounts[rec.ID] {
			e.log.Error("Ledger count mismatch",
				"record_id", rec.ID,
				"group", rec.GroupName,
				"value", rec.Value,
				"count", rec.Count,
				"links", linkCounts[rec.ID],
			)
			return fmt.Errorf("%w: record %s has count=%d links=%d", ErrConsistency, rec.ID, rec.Count, linkCounts[rec.ID])
		}
	}
	return nil
}

// Cleanup rolls back every side effect of the given import.
func (e *Engine) Cleanup(ctx context.Context, importID uuid.UUID) error {
	return e.cleaner.Cleanup(ctx, importID)
}

// Config returns the engine's group configuration.
func (e *Engine) Config() Config {
	return e.cfg
}
