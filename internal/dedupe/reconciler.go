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

// Reconciler lands detected values in the duplicate ledger. The write is a
// single upsert statement, so two imports reconciling the same value at once
// cannot lose an update; the count stored is the authoritative re-count, not
// an increment, which keeps repeated runs from double-counting.
type Reconciler struct {
	log     *logger.Logger
	records repos.DuplicateRecordRepo
}

func NewReconciler(baseLog *logger.Logger, records repos.DuplicateRecordRepo) *Reconciler {
	return &Reconciler{
		log:     baseLog.With("component", "Reconciler"),
		records: records,
	}
}

func (r *Reconciler) Reconcile(ctx context.Context, tx *gorm.DB, groupName, value string, count int) (uuid.UUID, error) {
	if count < 2 {
		return uuid.Nil, fmt.Errorf("reconcile %s/%s: occurrence count %d is not a duplicate", groupName, value, count)
	}
	rec := &types.DuplicateRecord{
		EntityType: types.EntityTypeLead,
		GroupName:  groupName,
		Value:      value,
		Count:      count,
	}
	saved, err := r.records.Upsert(ctx, tx, rec)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert duplicate record: %w", err)
	}
	return saved.ID, nil
}
