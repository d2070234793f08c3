package dedupe

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/repos"
)

// Marker flips is_duplicate on the current import's leads. The earliest
// holder of a value keeps its flag untouched: lowest lead id wins across
// the whole store, regardless of which import created it. Leads from other
// imports are never re-flagged here; their flag was settled when they were
// imported.
type Marker struct {
	log   *logger.Logger
	leads repos.LeadRepo
}

func NewMarker(baseLog *logger.Logger, leads repos.LeadRepo) *Marker {
	return &Marker{
		log:   baseLog.With("component", "Marker"),
		leads: leads,
	}
}

// Mark returns the lead ids it flagged. If the value's holders all sit
// outside the current import there is nothing to flag.
func (m *Marker) Mark(ctx context.Context, tx *gorm.DB, importID uuid.UUID, holders []repos.ValueHolder) ([]int64, error) {
	if len(holders) < 2 {
		return nil, nil
	}
	earliest := holders[0].LeadID
	for _, h := range holders[1:] {
		if h.LeadID < earliest {
			earliest = h.LeadID
		}
	}
	var flag []int64
	for _, h := range holders {
		if h.LeadID == earliest {
			continue
		}
		if h.ImportID == nil || *h.ImportID != importID {
			continue
		}
		flag = append(flag, h.LeadID)
	}
	if len(flag) == 0 {
		return nil, nil
	}
	if err := m.leads.MarkDuplicates(ctx, tx, flag); err != nil {
		return nil, err
	}
	return flag, nil
}
