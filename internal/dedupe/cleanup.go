package dedupe

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/repos"
)

// Cleaner reverses every side effect of an import run: link counts come off
// the ledger, links and drained ledger rows are deleted, the import's leads
// are soft-deleted. The whole rollback is one transaction so a crash cannot
// leave the ledger count invariant broken, and running it on an already
// clean or never-started import is a no-op.
type Cleaner struct {
	db      *gorm.DB
	log     *logger.Logger
	leads   repos.LeadRepo
	records repos.DuplicateRecordRepo
	links   repos.DuplicateLinkRepo
}

func NewCleaner(db *gorm.DB, baseLog *logger.Logger, leads repos.LeadRepo, records repos.DuplicateRecordRepo, links repos.DuplicateLinkRepo) *Cleaner {
	return &Cleaner{
		db:      db,
		log:     baseLog.With("component", "Cleaner"),
		leads:   leads,
		records: records,
		links:   links,
	}
}

func (c *Cleaner) Cleanup(ctx context.Context, importID uuid.UUID) error {
	if importID == uuid.Nil {
		return nil
	}
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		leadIDs, err := c.leads.GetIDsByImport(ctx, tx, importID)
		if err != nil {
			return fmt.Errorf("collect import leads: %w", err)
		}
		if len(leadIDs) == 0 {
			return nil
		}

		deltas, err := c.links.CountsByLeadIDs(ctx, tx, leadIDs)
		if err != nil {
			return fmt.Errorf("count links to remove: %w", err)
		}
		if err := c.records.DecrementCounts(ctx, tx, deltas); err != nil {
			return fmt.Errorf("decrement ledger counts: %w", err)
		}
		if err := c.links.DeleteByLeadIDs(ctx, tx, leadIDs); err != nil {
			return fmt.Errorf("delete links: %w", err)
		}
		if err := c.records.DeleteDrained(ctx, tx); err != nil {
			return fmt.Errorf("delete drained ledger rows: %w", err)
		}
		if err := c.leads.SoftDeleteByIDs(ctx, tx, leadIDs); err != nil {
			return fmt.Errorf("soft-delete leads: %w", err)
		}
		c.log.Info("Import rolled back", "import_id", importID, "leads", len(leadIDs), "ledger_rows_touched", len(deltas))
		return nil
	})
}
