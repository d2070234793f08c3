package dedupe

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/repos"
	"github.com/quantumexchange8/bankofgold/internal/types"
)

// Linker connects a ledger row to every lead holding its value. Existing
// links are skipped, not errors, so re-linking after a partial run is safe.
type Linker struct {
	log   *logger.Logger
	links repos.DuplicateLinkRepo
}

func NewLinker(baseLog *logger.Logger, links repos.DuplicateLinkRepo) *Linker {
	return &Linker{
		log:   baseLog.With("component", "Linker"),
		links: links,
	}
}

func (l *Linker) Link(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, leadIDs []int64) error {
	if recordID == uuid.Nil || len(leadIDs) == 0 {
		return nil
	}
	rows := make([]*types.DuplicateLink, 0, len(leadIDs))
	for _, id := range leadIDs {
		rows = append(rows, &types.DuplicateLink{
			DuplicateRecordID: recordID,
			EntityType:        types.EntityTypeLead,
			LeadID:            id,
		})
	}
	if err := l.links.CreateBatchIgnore(ctx, tx, rows); err != nil {
		return fmt.Errorf("insert duplicate links: %w", err)
	}
	return nil
}
