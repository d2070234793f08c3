package dedupe

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/repos"
	"github.com/quantumexchange8/bankofgold/internal/types"
)

// Ingestor drains a RowSource into core_lead in fixed-size chunks. Each chunk
// is one insert inside its own short transaction; any storage error aborts
// the whole run and the orchestrator rolls the import back.
type Ingestor struct {
	db    *gorm.DB
	log   *logger.Logger
	cfg   Config
	leads repos.LeadRepo
}

func NewIngestor(db *gorm.DB, baseLog *logger.Logger, cfg Config, leads repos.LeadRepo) *Ingestor {
	return &Ingestor{
		db:    db,
		log:   baseLog.With("component", "Ingestor"),
		cfg:   cfg,
		leads: leads,
	}
}

func (ing *Ingestor) Ingest(ctx context.Context, importID, userID uuid.UUID, src RowSource) (int, error) {
	total := 0
	chunk := make([]*types.Lead, 0, ing.cfg.ChunkSize)

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		err := ing.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return ing.leads.CreateBatch(ctx, tx, chunk)
		})
		if err != nil {
			ing.log.Error("Lead chunk insert failed", "import_id", importID, "rows", len(chunk), "error", err)
			return fmt.Errorf("insert lead chunk: %w", err)
		}
		total += len(chunk)
		chunk = chunk[:0]
		return nil
	}

	for {
		row, ok, err := src.Next()
		if err != nil {
			return total, fmt.Errorf("read row: %w", err)
		}
		if !ok {
			break
		}
		chunk = append(chunk, ing.buildLead(importID, userID, row))
		if len(chunk) >= ing.cfg.ChunkSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	ing.log.Info("Ingest finished", "import_id", importID, "total_rows", total)
	return total, nil
}

func (ing *Ingestor) buildLead(importID, userID uuid.UUID, row Row) *types.Lead {
	imp := importID
	l := &types.Lead{
		UserID:      userID,
		ImportID:    &imp,
		IsDuplicate: false,
	}
	// Spreadsheets call the source's own identifier "lead_id".
	l.SourceLeadID = ing.normColumn(row, "lead_id", "source_lead_id")
	l.Categories = ing.normColumn(row, "categories", "categories")
	l.Referrer = ing.normColumn(row, "referrer", "referrer")
	l.FirstName = ing.normColumn(row, "first_name", "first_name")
	l.Surname = ing.normColumn(row, "surname", "surname")
	l.Country = ing.normColumn(row, "country", "country")
	l.PrivateEmail1 = ing.normColumn(row, "private_email_1", "private_email_1")
	l.PrivateEmail2 = ing.normColumn(row, "private_email_2", "private_email_2")
	l.CompanyEmail1 = ing.normColumn(row, "company_email_1", "company_email_1")
	l.CompanyEmail2 = ing.normColumn(row, "company_email_2", "company_email_2")
	l.HomeTelephone1 = ing.normColumn(row, "home_telephone_1", "home_telephone_1")
	l.HomeTelephone2 = ing.normColumn(row, "home_telephone_2", "home_telephone_2")
	l.MobileTelephone1 = ing.normColumn(row, "mobile_telephone_1", "mobile_telephone_1")
	l.MobileTelephone2 = ing.normColumn(row, "mobile_telephone_2", "mobile_telephone_2")
	l.OfficePhone1 = ing.normColumn(row, "office_phone_1", "office_phone_1")
	l.OfficePhone2 = ing.normColumn(row, "office_phone_2", "office_phone_2")
	l.VerifiedTime = ing.normColumn(row, "verified_time", "verified_time")

	if v := ing.normColumn(row, "decision_maker", "decision_maker"); v != nil {
		if b, err := strconv.ParseBool(*v); err == nil {
			l.DecisionMaker = &b
		}
	}
	if raw, ok := row["date_added"]; ok {
		l.DateAdded = NormalizeDate(raw)
		if l.DateAdded == nil && strings.TrimSpace(raw) != "" {
			ing.log.Warn("Unparseable date_added, storing NULL", "value", raw)
		}
	}
	return l
}

// normColumn normalizes one cell by the column's configured kind. A non-blank
// value that fails to parse is stored as NULL with a warning; the run keeps
// going.
func (ing *Ingestor) normColumn(row Row, rowKey, column string) *string {
	raw, ok := row[rowKey]
	if !ok {
		return nil
	}
	v := Normalize(raw, ing.cfg.KindOf(column))
	if v == nil && strings.TrimSpace(raw) != "" {
		ing.log.Warn("Unparseable field value, storing NULL", "column", column, "value", raw)
	}
	return v
}
