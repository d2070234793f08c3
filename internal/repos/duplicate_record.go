package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/types"
)

type DuplicateRecordRepo interface {
	// Upsert writes the ledger row for (entity_type, group_name, value) in a
	// single atomic statement. On conflict the count is overwritten with the
	// fresh re-count, not incremented. Returns the row with its id populated.
	Upsert(ctx context.Context, tx *gorm.DB, rec *types.DuplicateRecord) (*types.DuplicateRecord, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.DuplicateRecord, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.DuplicateRecord, error)
	GetByGroupValue(ctx context.Context, tx *gorm.DB, entityType, groupName, value string) (*types.DuplicateRecord, error)
	List(ctx context.Context, tx *gorm.DB, groupName string, limit, offset int) ([]*types.DuplicateRecord, int64, error)
	// DecrementCounts subtracts per-ledger-row deltas in one statement per row.
	DecrementCounts(ctx context.Context, tx *gorm.DB, deltas map[uuid.UUID]int64) error
	// DeleteDrained hard-deletes ledger rows whose count has fallen to zero
	// or below.
	DeleteDrained(ctx context.Context, tx *gorm.DB) error
}

type duplicateRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDuplicateRecordRepo(db *gorm.DB, baseLog *logger.Logger) DuplicateRecordRepo {
	return &duplicateRecordRepo{
		db:  db,
		log: baseLog.With("repo", "DuplicateRecordRepo"),
	}
}

func (r *duplicateRecordRepo) Upsert(ctx context.Context, tx *gorm.DB, rec *types.DuplicateRecord) (*types.DuplicateRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "entity_type"}, {Name: "group_name"}, {Name: "value"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count":      rec.Count,
				"updated_at": now,
				"deleted_at": nil,
			}),
		}, clause.Returning{}).
		Create(rec).Error
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *duplicateRecordRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.DuplicateRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rec types.DuplicateRecord
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ID == uuid.Nil {
		return nil, nil
	}
	return &rec, nil
}

func (r *duplicateRecordRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.DuplicateRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var recs []*types.DuplicateRecord
	if len(ids) == 0 {
		return recs, nil
	}
	err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *duplicateRecordRepo) GetByGroupValue(ctx context.Context, tx *gorm.DB, entityType, groupName, value string) (*types.DuplicateRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rec types.DuplicateRecord
	err := transaction.WithContext(ctx).
		Where("entity_type = ? AND group_name = ? AND value = ?", entityType, groupName, value).
		Limit(1).
		Find(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ID == uuid.Nil {
		return nil, nil
	}
	return &rec, nil
}

func (r *duplicateRecordRepo) List(ctx context.Context, tx *gorm.DB, groupName string, limit, offset int) ([]*types.DuplicateRecord, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.DuplicateRecord{})
	if groupName != "" {
		q = q.Where("group_name = ?", groupName)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var recs []*types.DuplicateRecord
	err := q.Order("count DESC, value ASC").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

func (r *duplicateRecordRepo) DecrementCounts(ctx context.Context, tx *gorm.DB, deltas map[uuid.UUID]int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	for id, delta := range deltas {
		if delta <= 0 {
			continue
		}
		err := transaction.WithContext(ctx).
			Model(&types.DuplicateRecord{}).
			Where("id = ?", id).
			Update("count", gorm.Expr("count - ?", delta)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *duplicateRecordRepo) DeleteDrained(ctx context.Context, tx *gorm.DB) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("count <= ?", 0).
		Delete(&types.DuplicateRecord{}).Error
}
