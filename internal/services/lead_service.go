package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/repos"
)

var ErrLeadNotFound = errors.New("lead not found")

type LeadService interface {
	// DeleteLead soft-deletes one lead and unwinds its duplicate
	// bookkeeping: its links are removed, the affected ledger rows lose one
	// count each, and rows drained to zero are deleted. One transaction, so
	// the ledger count invariant holds across a crash.
	DeleteLead(ctx context.Context, leadID int64) error
}

type leadService struct {
	db      *gorm.DB
	log     *logger.Logger
	leads   repos.LeadRepo
	records repos.DuplicateRecordRepo
	links   repos.DuplicateLinkRepo
}

func NewLeadService(db *gorm.DB, baseLog *logger.Logger, leads repos.LeadRepo, records repos.DuplicateRecordRepo, links repos.DuplicateLinkRepo) LeadService {
	return &leadService{
		db:      db,
		log:     baseLog.With("service", "LeadService"),
		leads:   leads,
		records: records,
		links:   links,
	}
}

func (s *leadService) DeleteLead(ctx context.Context, leadID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lead, err := s.leads.GetByID(ctx, tx, leadID)
		if err != nil {
			return fmt.Errorf("load lead: %w", err)
		}
		if lead == nil {
			return ErrLeadNotFound
		}

		deltas, err := s.links.CountsByLeadIDs(ctx, tx, []int64{leadID})
		if err != nil {
			return fmt.Errorf("count links to remove: %w", err)
		}
		if err := s.records.DecrementCounts(ctx, tx, deltas); err != nil {
			return fmt.Errorf("decrement ledger counts: %w", err)
		}
		if err := s.links.DeleteByLeadIDs(ctx, tx, []int64{leadID}); err != nil {
			return fmt.Errorf("delete links: %w", err)
		}
		if err := s.records.DeleteDrained(ctx, tx); err != nil {
			return fmt.Errorf("delete drained ledger rows: %w", err)
		}
		if err := s.leads.SoftDeleteByIDs(ctx, tx, []int64{leadID}); err != nil {
			return fmt.Errorf("soft-delete lead: %w", err)
		}
		s.log.Info("Lead deleted", "lead_id", leadID, "ledger_rows_touched", len(deltas))
		return nil
	})
}
