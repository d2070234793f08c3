package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/repos"
	"github.com/quantumexchange8/bankofgold/internal/types"
)

type DuplicateService interface {
	List(ctx context.Context, groupName string, limit, offset int) ([]*types.DuplicateRecord, int64, error)
	// LinkedLeads returns the ledger row plus the ids of every lead linked
	// to it, lowest id (earliest holder) first.
	LinkedLeads(ctx context.Context, recordID uuid.UUID) (*types.DuplicateRecord, []int64, error)
}

type duplicateService struct {
	log     *logger.Logger
	records repos.DuplicateRecordRepo
	links   repos.DuplicateLinkRepo
}

func NewDuplicateService(baseLog *logger.Logger, records repos.DuplicateRecordRepo, links repos.DuplicateLinkRepo) DuplicateService {
	return &duplicateService{
		log:     baseLog.With("service", "DuplicateService"),
		records: records,
		links:   links,
	}
}

func (s *duplicateService) List(ctx context.Context, groupName string, limit, offset int) ([]*types.DuplicateRecord, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.records.List(ctx, nil, groupName, limit, offset)
}

func (s *duplicateService) LinkedLeads(ctx context.Context, recordID uuid.UUID) (*types.DuplicateRecord, []int64, error) {
	rec, err := s.records.GetByID(ctx, nil, recordID)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, fmt.Errorf("duplicate record not found")
	}
	leadIDs, err := s.links.GetLeadIDsByRecord(ctx, nil, recordID)
	if err != nil {
		return nil, nil, err
	}
	return rec, leadIDs, nil
}
