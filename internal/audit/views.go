package audit

import (
	"time"

	"restoran-backend/internal/models"
	"restoran-backend/internal/validation"
)

type CycleView struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Description     *string            `json:"description"`
	StartDate       string             `json:"startDate"`
	EndDate         string             `json:"endDate"`
	Status          models.CycleStatus `json:"status"`
	CreatedBy       uint               `json:"createdBy"`
	CompletedBy     *uint              `json:"completedBy"`
	CompletedAt     *string            `json:"completedAt"`
	CancelledBy     *uint              `json:"cancelledBy"`
	CancelledAt     *string            `json:"cancelledAt"`
	CancelledReason *string            `json:"cancelledReason"`
	CreatedAt       string             `json:"createdAt"`
	UpdatedAt       string             `json:"updatedAt"`
	EntryCount      *int64             `json:"entryCount,omitempty"`
	Entries         []EntryView        `json:"entries,omitempty"`
}

type ItemRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
}

type EntryView struct {
	ID                string   `json:"id"`
	AuditCycleID      string   `json:"auditCycleId"`
	ItemID            string   `json:"itemId"`
	Item              *ItemRef `json:"item,omitempty"`
	CountedQuantity   float64  `json:"countedQuantity"`
	SystemQuantity    float64  `json:"systemQuantity"`
	Discrepancy       float64  `json:"discrepancy"`
	Reason            *string  `json:"reason"`
	CorrectionApplied bool     `json:"correctionApplied"`
	CorrectionEntryID *uint    `json:"correctionEntryId"`
	CountedBy         uint     `json:"countedBy"`
	CountedAt         string   `json:"countedAt"`
}

type DiscrepancyView struct {
	EntryID           string  `json:"entryId"`
	ItemID            string  `json:"itemId"`
	ItemName          string  `json:"itemName"`
	Category          string  `json:"category"`
	Unit              string  `json:"unit"`
	CountedQuantity   float64 `json:"countedQuantity"`
	SystemQuantity    float64 `json:"systemQuantity"`
	Discrepancy       float64 `json:"discrepancy"`
	Reason            *string `json:"reason"`
	CorrectionApplied bool    `json:"correctionApplied"`
	CorrectionEntryID *uint   `json:"correctionEntryId"`
}

type ReportView struct {
	Cycle                 CycleView         `json:"cycle"`
	TotalEntries          int               `json:"totalEntries"`
	ItemsWithDiscrepancy  int               `json:"itemsWithDiscrepancy"`
	TotalDiscrepancyValue float64           `json:"totalDiscrepancyValue"`
	Discrepancies         []DiscrepancyView `json:"discrepancies"`
}

type BulkView struct {
	Created []EntryView     `json:"created"`
	Errors  []BulkItemError `json:"errors"`
}

type CorrectionView struct {
	Entry      EntryView `json:"entry"`
	MovementID uint      `json:"movementId"`
	Type       string    `json:"type"`
	Quantity   float64   `json:"quantity"`
}

func NewCycleView(c *models.AuditCycle) CycleView {
	return CycleView{
		ID:              c.ID,
		Name:            c.Name,
		Description:     c.Description,
		StartDate:       c.StartDate.Format(validation.DateLayout),
		EndDate:         c.EndDate.Format(validation.DateLayout),
		Status:          c.Status,
		CreatedBy:       c.CreatedBy,
		CompletedBy:     c.CompletedBy,
		CompletedAt:     formatTime(c.CompletedAt),
		CancelledBy:     c.CancelledBy,
		CancelledAt:     formatTime(c.CancelledAt),
		CancelledReason: c.CancelledReason,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       c.UpdatedAt.Format(time.RFC3339),
	}
}

// NewCycleDetailView includes the cycle's entries.
func NewCycleDetailView(c *models.AuditCycle) CycleView {
	v := NewCycleView(c)
	v.Entries = make([]EntryView, 0, len(c.Entries))
	for i := range c.Entries {
		v.Entries = append(v.Entries, NewEntryView(&c.Entries[i]))
	}
	n := int64(len(c.Entries))
	v.EntryCount = &n
	return v
}

func NewEntryView(e *models.AuditEntry) EntryView {
	v := EntryView{
		ID:                e.ID,
		AuditCycleID:      e.AuditCycleID,
		ItemID:            e.ItemID.String(),
		CountedQuantity:   e.CountedQuantity.InexactFloat64(),
		SystemQuantity:    e.SystemQuantity.InexactFloat64(),
		Discrepancy:       e.Discrepancy.InexactFloat64(),
		Reason:            e.Reason,
		CorrectionApplied: e.CorrectionApplied,
		CorrectionEntryID: e.CorrectionEntryID,
		CountedBy:         e.CountedBy,
		CountedAt:         e.CountedAt.Format(time.RFC3339),
	}
	if e.Item.Name != "" {
		v.Item = &ItemRef{
			ID:       e.Item.ID.String(),
			Name:     e.Item.Name,
			Category: e.Item.Category,
			Unit:     e.Item.Unit,
		}
	}
	return v
}

func NewReportView(r *Report) ReportView {
	v := ReportView{
		Cycle:                 NewCycleView(&r.Cycle),
		TotalEntries:          r.TotalEntries,
		ItemsWithDiscrepancy:  r.ItemsWithDiscrepancy,
		TotalDiscrepancyValue: r.TotalDiscrepancyValue.InexactFloat64(),
		Discrepancies:         make([]DiscrepancyView, 0, len(r.Discrepancies)),
	}
	for _, e := range r.Discrepancies {
		v.Discrepancies = append(v.Discrepancies, DiscrepancyView{
			EntryID:           e.ID,
			ItemID:            e.ItemID.String(),
			ItemName:          e.Item.Name,
			Category:          e.Item.Category,
			Unit:              e.Item.Unit,
			CountedQuantity:   e.CountedQuantity.InexactFloat64(),
			SystemQuantity:    e.SystemQuantity.InexactFloat64(),
			Discrepancy:       e.Discrepancy.InexactFloat64(),
			Reason:            e.Reason,
			CorrectionApplied: e.CorrectionApplied,
			CorrectionEntryID: e.CorrectionEntryID,
		})
	}
	return v
}

func newBulkView(r *BulkResult) BulkView {
	v := BulkView{
		Created: make([]EntryView, 0, len(r.Created)),
		Errors:  r.Errors,
	}
	for i := range r.Created {
		v.Created = append(v.Created, NewEntryView(&r.Created[i]))
	}
	return v
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
