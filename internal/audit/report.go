package audit

import (
	"context"

	"restoran-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Report summarizes the counts of a cycle. TotalDiscrepancyValue is the sum of
// |discrepancy| over every entry, flagged or not; Discrepancies lists only the
// entries outside the tolerance.
type Report struct {
	Cycle                 models.AuditCycle
	TotalEntries          int
	ItemsWithDiscrepancy  int
	TotalDiscrepancyValue decimal.Decimal
	Discrepancies         []models.AuditEntry
}

func (s *Service) GenerateReport(ctx context.Context, tenantID uint, cycleID string) (*Report, error) {
	cycle, err := s.GetCycle(ctx, tenantID, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle.Entries == nil {
		cycle.Entries = []models.AuditEntry{}
	}

	r := &Report{
		Cycle:                 *cycle,
		TotalEntries:          len(cycle.Entries),
		TotalDiscrepancyValue: decimal.Zero,
		Discrepancies:         []models.AuditEntry{},
	}
	for _, e := range cycle.Entries {
		r.TotalDiscrepancyValue = r.TotalDiscrepancyValue.Add(e.Discrepancy.Abs())
		if HasDiscrepancy(e.Discrepancy) {
			r.ItemsWithDiscrepancy++
			r.Discrepancies = append(r.Discrepancies, e)
		}
	}
	return r, nil
}
