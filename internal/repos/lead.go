package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/types"
)

// ValueHolder is one (lead, value) hit from a group-field scan. The same lead
// shows up once per field that holds the value.
type ValueHolder struct {
	LeadID   int64
	ImportID *uuid.UUID
	Value    string
}

type LeadRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, leads []*types.Lead) error
	GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Lead, error)
	GetIDsByImport(ctx context.Context, tx *gorm.DB, importID uuid.UUID) ([]int64, error)
	// ChunkByImport pages the import's live leads by ascending id, selecting
	// only id plus the given columns, and hands each page to fn.
	ChunkByImport(ctx context.Context, tx *gorm.DB, importID uuid.UUID, columns []string, chunkSize int, fn func(leads []*types.Lead) error) error
	// GetHoldersForValues scans the whole live store for leads holding any of
	// the values in any of the columns.
	GetHoldersForValues(ctx context.Context, tx *gorm.DB, columns []string, values []string) ([]ValueHolder, error)
	MarkDuplicates(ctx context.Context, tx *gorm.DB, ids []int64) error
	CountDuplicatesByImport(ctx context.Context, tx *gorm.DB, importID uuid.UUID) (int64, error)
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []int64) error
}

type leadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLeadRepo(db *gorm.DB, baseLog *logger.Logger) LeadRepo {
	return &leadRepo{
		db:  db,
		log: baseLog.With("repo", "LeadRepo"),
	}
}

func (r *leadRepo) CreateBatch(ctx context.Context, tx *gorm.DB, leads []*types.Lead) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(leads) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&leads).Error
}

func (r *leadRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Lead, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var lead types.Lead
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&lead).Error
	if err != nil {
		return nil, err
	}
	if lead.ID == 0 {
		return nil, nil
	}
	return &lead, nil
}

func (r *leadRepo) GetIDsByImport(ctx context.Context, tx *gorm.DB, importID uuid.UUID) ([]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []int64
	if importID == uuid.Nil {
		return ids, nil
	}
	err := transaction.WithContext(ctx).
		Model(&types.Lead{}).
		Where("import_id = ?", importID).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *leadRepo) ChunkByImport(ctx context.Context, tx *gorm.DB, importID uuid.UUID, columns []string, chunkSize int, fn func(leads []*types.Lead) error) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if chunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	selected := append([]string{"id", "import_id"}, columns...)
	lastID := int64(0)
	for {
		var page []*types.Lead
		err := transaction.WithContext(ctx).
			Select(selected).
			Where("import_id = ? AND id > ?", importID, lastID).
			Order("id ASC").
			Limit(chunkSize).
			Find(&page).Error
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		if err := fn(page); err != nil {
			return err
		}
		lastID = page[len(page)-1].ID
		if len(page) < chunkSize {
			return nil
		}
	}
}

func (r *leadRepo) GetHoldersForValues(ctx context.Context, tx *gorm.DB, columns []string, values []string) ([]ValueHolder, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []ValueHolder
	if len(columns) == 0 || len(values) == 0 {
		return out, nil
	}
	// One scan per column; column names come from the validated group config,
	// never from user input.
	for _, col := range columns {
		var hits []ValueHolder
		err := transaction.WithContext(ctx).
			Model(&types.Lead{}).
			Select(fmt.Sprintf("id AS lead_id, import_id, %s AS value", col)).
			Where(fmt.Sprintf("%s IN ?", col), values).
			Scan(&hits).Error
		if err != nil {
			return nil, err
		}
		out = append(out, hits...)
	}
	return out, nil
}

func (r *leadRepo) MarkDuplicates(ctx context.Context, tx *gorm.DB, ids []int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Lead{}).
		Where("id IN ?", ids).
		Update("is_duplicate", true).Error
}

func (r *leadRepo) CountDuplicatesByImport(ctx context.Context, tx *gorm.DB, importID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(ctx).
		Model(&types.Lead{}).
		Where("import_id = ? AND is_duplicate = ?", importID, true).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *leadRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Lead{}).Error
}
