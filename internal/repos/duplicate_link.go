package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/types"
)

// linkInsertBatch bounds the rows per INSERT so statement size stays fixed
// no matter how many holders a value has.
const linkInsertBatch = 1000

type DuplicateLinkRepo interface {
	// CreateBatchIgnore inserts links in bounded batches, silently skipping
	// rows whose (record, entity_type, lead) triple already exists.
	CreateBatchIgnore(ctx context.Context, tx *gorm.DB, links []*types.DuplicateLink) error
	// CountsByLeadIDs groups the links referencing the given leads by ledger
	// row and returns how many links each ledger row would lose.
	CountsByLeadIDs(ctx context.Context, tx *gorm.DB, leadIDs []int64) (map[uuid.UUID]int64, error)
	// CountsByRecordIDs returns the live link count per ledger row.
	CountsByRecordIDs(ctx context.Context, tx *gorm.DB, recordIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	DeleteByLeadIDs(ctx context.Context, tx *gorm.DB, leadIDs []int64) error
	GetLeadIDsByRecord(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) ([]int64, error)
}

type duplicateLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDuplicateLinkRepo(db *gorm.DB, baseLog *logger.Logger) DuplicateLinkRepo {
	return &duplicateLinkRepo{
		db:  db,
		log: baseLog.With("repo", "DuplicateLinkRepo"),
	}
}

func (r *duplicateLinkRepo) CreateBatchIgnore(ctx context.Context, tx *gorm.DB, links []*types.DuplicateLink) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(links) == 0 {
		return nil
	}
	for _, l := range links {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "duplicate_record_id"}, {Name: "entity_type"}, {Name: "lead_id"}},
			DoNothing: true,
		}).
		CreateInBatches(&links, linkInsertBatch).Error
}

func (r *duplicateLinkRepo) CountsByLeadIDs(ctx context.Context, tx *gorm.DB, leadIDs []int64) (map[uuid.UUID]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	out := make(map[uuid.UUID]int64)
	if len(leadIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		DuplicateRecordID uuid.UUID
		Total             int64
	}
	err := transaction.WithContext(ctx).
		Model(&types.DuplicateLink{}).
		Select("duplicate_record_id, COUNT(*) AS total").
		Where("entity_type = ? AND lead_id IN ?", types.EntityTypeLead, leadIDs).
		Group("duplicate_record_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.DuplicateRecordID] = row.Total
	}
	return out, nil
}

func (r *duplicateLinkRepo) CountsByRecordIDs(ctx context.Context, tx *gorm.DB, recordIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	out := make(map[uuid.UUID]int64)
	if len(recordIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		DuplicateRecordID uuid.UUID
		Total             int64
	}
	err := transaction.WithContext(ctx).
		Model(&types.DuplicateLink{}).
		Select("duplicate_record_id, COUNT(*) AS total").
		Where("duplicate_record_id IN ?", recordIDs).
		Group("duplicate_record_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.DuplicateRecordID] = row.Total
	}
	return out, nil
}

func (r *duplicateLinkRepo) DeleteByLeadIDs(ctx context.Context, tx *gorm.DB, leadIDs []int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(leadIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("entity_type = ? AND lead_id IN ?", types.EntityTypeLead, leadIDs).
		Delete(&types.DuplicateLink{}).Error
}

func (r *duplicateLinkRepo) GetLeadIDsByRecord(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) ([]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []int64
	if recordID == uuid.Nil {
		return ids, nil
	}
	err := transaction.WithContext(ctx).
		Model(&types.DuplicateLink{}).
		Where("duplicate_record_id = ?", recordID).
		Order("lead_id ASC").
		Pluck("lead_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
