package dedupe

import (
	"context"

	"github.com/google/uuid"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/repos"
	"github.com/quantumexchange8/bankofgold/internal/types"
)

// Candidate is one duplicated value found by a group scan: the value, how
// many live leads hold it store-wide, and the holders themselves (deduped
// per lead, every import included).
type Candidate struct {
	Group   string
	Value   string
	Count   int
	Holders []repos.ValueHolder
}

// Detector scans one import's leads group by group and resolves their values
// against the whole store. Emission order is unspecified.
type Detector struct {
	log   *logger.Logger
	cfg   Config
	leads repos.LeadRepo
}

func NewDetector(baseLog *logger.Logger, cfg Config, leads repos.LeadRepo) *Detector {
	return &Detector{
		log:   baseLog.With("component", "Detector"),
		cfg:   cfg,
		leads: leads,
	}
}

// DetectGroup streams the import's leads in chunks, accumulates distinct
// non-null values for the group's columns, and on every accumulator flush
// counts holders across the entire store. Values occurring on 2+ leads are
// emitted exactly once per run.
func (d *Detector) DetectGroup(ctx context.Context, importID uuid.UUID, group FieldGroup, emit func(Candidate) error) error {
	acc := newValueAccumulator(d.cfg.FlushEvery)

	flush := func() error {
		values := acc.take()
		if len(values) == 0 {
			return nil
		}
		holders, err := d.leads.GetHoldersForValues(ctx, nil, group.Keys, values)
		if err != nil {
			return err
		}
		byValue := make(map[string][]repos.ValueHolder, len(values))
		seenLead := make(map[string]map[int64]bool, len(values))
		for _, h := range holders {
			if seenLead[h.Value] == nil {
				seenLead[h.Value] = make(map[int64]bool)
			}
			if seenLead[h.Value][h.LeadID] {
				continue
			}
			seenLead[h.Value][h.LeadID] = true
			byValue[h.Value] = append(byValue[h.Value], h)
		}
		for value, hs := range byValue {
			if len(hs) < 2 {
				continue
			}
			c := Candidate{
				Group:   group.Name,
				Value:   value,
				Count:   len(hs),
				Holders: hs,
			}
			if err := emit(c); err != nil {
				return err
			}
		}
		return nil
	}

	err := d.leads.ChunkByImport(ctx, nil, importID, group.Keys, d.cfg.ChunkSize, func(leads []*types.Lead) error {
		for _, l := range leads {
			for _, col := range group.Keys {
				v := l.FieldValue(col)
				if v == nil {
					continue
				}
				acc.add(*v)
			}
		}
		if acc.full() {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	return flush()
}

// valueAccumulator is the streaming seen-set for one group scan: it
// remembers every value handled this run and holds the not-yet-flushed ones.
// It is reset per field group by constructing a fresh one.
type valueAccumulator struct {
	seen       map[string]bool
	pending    []string
	flushEvery int
}

func newValueAccumulator(flushEvery int) *valueAccumulator {
	if flushEvery <= 0 {
		flushEvery = DefaultFlushEvery
	}
	return &valueAccumulator{
		seen:       make(map[string]bool),
		flushEvery: flushEvery,
	}
}

func (a *valueAccumulator) add(v string) {
	if a.seen[v] {
		return
	}
	a.seen[v] = true
	a.pending = append(a.pending, v)
}

func (a *valueAccumulator) full() bool {
	return len(a.pending) >= a.flushEvery
}

// take hands back the pending values and clears them; the seen set stays so
// a value never flushes twice.
func (a *valueAccumulator) take() []string {
	out := a.pending
	a.pending = nil
	return out
}
