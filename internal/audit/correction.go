package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"restoran-backend/internal/apperr"
	"restoran-backend/internal/models"

	"gorm.io/gorm"
)

// ApplyCorrection posts the discrepancy of an entry into the ledger so the
// system quantity matches the count. Each entry is corrected at most once.
func (s *Service) ApplyCorrection(ctx context.Context, actor Actor, entryID, reason string) (*models.AuditEntry, *models.StockMovement, error) {
	reason = strings.TrimSpace(reason)

	var (
		entry    models.AuditEntry
		movement models.StockMovement
	)
	err := s.db.WithTx(ctx, nil, func(tx *gorm.DB) error {
		err := tx.Preload("Item").Preload("AuditCycle").
			Where("id = ? AND tenant_id = ? AND correction_applied = ?", entryID, actor.TenantID, false).
			First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("شمارش اصلاح‌نشده‌ای با این شناسه یافت نشد").WithContext("entry_id", entryID)
		}
		if err != nil {
			return apperr.Internal(err, "")
		}

		if !HasDiscrepancy(entry.Discrepancy) {
			return apperr.Validation("مغایرتی برای اصلاح وجود ندارد").WithContext("entry_id", entryID)
		}

		if reason == "" && entry.Reason != nil {
			reason = *entry.Reason
		}

		movement = models.StockMovement{
			TenantID:  actor.TenantID,
			ItemID:    entry.ItemID,
			Type:      models.MovementIn,
			Quantity:  entry.Discrepancy.Abs(),
			Note:      correctionNote(&entry, reason),
			CreatedBy: actor.UserID,
		}
		if entry.Discrepancy.IsNegative() {
			movement.Type = models.MovementOut
		}
		if err := s.ledger.Append(ctx, tx, &movement); err != nil {
			return err
		}

		updates := map[string]any{
			"correction_applied":  true,
			"correction_entry_id": movement.ID,
			"updated_at":          s.now(),
		}
		if reason != "" {
			updates["reason"] = reason
		}
		res := tx.Model(&models.AuditEntry{}).
			Where("id = ? AND correction_applied = ?", entry.ID, false).
			Updates(updates)
		if res.Error != nil {
			return apperr.Internal(res.Error, "")
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("شمارش اصلاح‌نشده‌ای با این شناسه یافت نشد").WithContext("entry_id", entryID)
		}

		entry.CorrectionApplied = true
		entry.CorrectionEntryID = &movement.ID
		if reason != "" {
			entry.Reason = &reason
		}
		return nil
	})
	if err != nil {
		return nil, nil, normalizeTxError(err)
	}

	s.metrics.Correction(string(movement.Type))
	s.record(ctx, actor, "audit_entry", entry.ID, models.ActivityCorrect,
		fmt.Sprintf("اصلاح موجودی %s: %s %s", entry.Item.Name, movement.Type, movement.Quantity.String()),
		nil, NewEntryView(&entry))
	return &entry, &movement, nil
}

func correctionNote(e *models.AuditEntry, reason string) string {
	cycleName := e.AuditCycleID
	if e.AuditCycle != nil {
		cycleName = e.AuditCycle.Name
	}
	note := fmt.Sprintf("اصلاح شمارش دوره %s (%s)", cycleName, e.AuditCycleID)
	if reason != "" {
		note += ": " + reason
	}
	if r := []rune(note); len(r) > 500 {
		note = string(r[:500])
	}
	return note
}
