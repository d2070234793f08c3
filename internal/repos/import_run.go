package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/types"
)

type ImportRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, run *types.ImportRun) (*types.ImportRun, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ImportRun, error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.ImportRun, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.ImportRun, int64, error)
	// ClaimNextRunnable picks one runnable run with FOR UPDATE SKIP LOCKED and
	// flips it to processing. Runnable: queued, or failed with attempts left
	// past the retry delay, or processing with a stale heartbeat. Two workers
	// can never claim the same run, which keeps one active run per import id.
	ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, retryDelay, staleRunning time.Duration) (*types.ImportRun, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type importRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewImportRunRepo(db *gorm.DB, baseLog *logger.Logger) ImportRunRepo {
	return &importRunRepo{
		db:  db,
		log: baseLog.With("repo", "ImportRunRepo"),
	}
}

func (r *importRunRepo) Create(ctx context.Context, tx *gorm.DB, run *types.ImportRun) (*types.ImportRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *importRunRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ImportRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var run types.ImportRun
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&run).Error
	if err != nil {
		return nil, err
	}
	if run.ID == uuid.Nil {
		return nil, nil
	}
	return &run, nil
}

func (r *importRunRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.ImportRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var run types.ImportRun
	err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Limit(1).
		Find(&run).Error
	if err != nil {
		return nil, err
	}
	if run.ID == uuid.Nil {
		return nil, nil
	}
	return &run, nil
}

func (r *importRunRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.ImportRun, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Model(&types.ImportRun{}).
		Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var runs []*types.ImportRun
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func (r *importRunRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, retryDelay, staleRunning time.Duration) (*types.ImportRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	retryCutoff := now.Add(-retryDelay)
	staleCutoff := now.Add(-staleRunning)
	var claimed *types.ImportRun
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var run types.ImportRun
		q := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where(`
				(
					status = ?
					OR (
						status = ?
						AND attempts < ?
						AND (last_error_at IS NULL OR last_error_at < ?)
					)
					OR (
						status = ?
						AND heartbeat_at IS NOT NULL
						AND heartbeat_at < ?
					)
				)
			`, types.ImportStatusQueued, types.ImportStatusFailed, maxAttempts, retryCutoff, types.ImportStatusProcessing, staleCutoff).
			Order("created_at ASC")
		qErr := q.First(&run).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		uErr := txx.Model(&types.ImportRun{}).
			Where("id = ?", run.ID).
			Updates(map[string]interface{}{
				"status":       types.ImportStatusProcessing,
				"attempts":     gorm.Expr("attempts + 1"),
				"locked_at":    now,
				"heartbeat_at": now,
				"updated_at":   now,
			}).Error
		if uErr != nil {
			return uErr
		}
		run.Status = types.ImportStatusProcessing
		run.Attempts++
		run.LockedAt = &now
		run.HeartbeatAt = &now
		claimed = &run
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *importRunRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(ctx).
		Model(&types.ImportRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *importRunRepo) Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	return transaction.WithContext(ctx).
		Model(&types.ImportRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"heartbeat_at": now,
			"updated_at":   now,
		}).Error
}
