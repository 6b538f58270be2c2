package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"restoran-backend/internal/apperr"
	"restoran-backend/internal/database"
	"restoran-backend/internal/inventory"
	"restoran-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type EntryInput struct {
	CycleID         string
	ItemID          uuid.UUID
	CountedQuantity decimal.Decimal
	Reason          *string
}

// BulkItemError describes one rejected line of a bulk request.
type BulkItemError struct {
	Index   int    `json:"index"`
	ItemID  string `json:"itemId"`
	Message string `json:"message"`
}

type BulkResult struct {
	Created []models.AuditEntry
	Errors  []BulkItemError
}

// AddEntry records a count for one item, replacing an earlier count of the
// same item in the cycle.
func (s *Service) AddEntry(ctx context.Context, actor Actor, in EntryInput) (*models.AuditEntry, error) {
	var (
		entry   *models.AuditEntry
		created bool
	)
	err := s.db.WithTx(ctx, nil, func(tx *gorm.DB) error {
		if _, err := s.countableCycle(ctx, tx, actor.TenantID, in.CycleID); err != nil {
			return err
		}
		var err error
		entry, created, err = s.upsertEntry(ctx, tx, actor, in)
		return err
	})
	if err != nil {
		s.metrics.Entries("single", "failed", 1)
		return nil, normalizeTxError(err)
	}

	s.metrics.Entries("single", "ok", 1)
	action := models.ActivityUpdate
	if created {
		action = models.ActivityCreate
	}
	s.record(ctx, actor, "audit_entry", entry.ID, action,
		fmt.Sprintf("شمارش %s: %s", entry.Item.Name, entry.CountedQuantity.String()), nil, NewEntryView(entry))
	return entry, nil
}

// AddBulkEntries records many counts in one serializable transaction. The
// cycle of the first line is checked once; item-level problems are collected
// per line while anything else aborts the whole batch.
func (s *Service) AddBulkEntries(ctx context.Context, actor Actor, inputs []EntryInput) (*BulkResult, error) {
	if len(inputs) == 0 {
		return nil, apperr.Validation("حداقل یک شمارش لازم است").WithField("entries", "حداقل ۱ مورد لازم است")
	}

	ctx, cancel := context.WithTimeout(ctx, s.bulkTimeout)
	defer cancel()

	started := time.Now()
	var result BulkResult
	err := s.db.WithTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(tx *gorm.DB) error {
		result = BulkResult{Created: []models.AuditEntry{}, Errors: []BulkItemError{}}

		cycle, err := s.countableCycle(ctx, tx, actor.TenantID, inputs[0].CycleID)
		if err != nil {
			return err
		}

		// a repeated item overwrites its own entry; keep only the latest copy
		createdAt := make(map[string]int, len(inputs))
		for i, in := range inputs {
			if in.CycleID != cycle.ID {
				result.Errors = append(result.Errors, BulkItemError{
					Index:   i,
					ItemID:  in.ItemID.String(),
					Message: "همه شمارش‌ها باید متعلق به یک دوره باشند",
				})
				continue
			}

			entry, _, err := s.upsertEntry(ctx, tx, actor, in)
			if err != nil {
				if kind := apperr.KindOf(err); kind == apperr.KindNotFound || kind == apperr.KindValidation {
					result.Errors = append(result.Errors, BulkItemError{
						Index:   i,
						ItemID:  in.ItemID.String(),
						Message: apperr.As(err).Message(),
					})
					continue
				}
				return err
			}
			if j, seen := createdAt[entry.ID]; seen {
				result.Created[j] = *entry
				continue
			}
			createdAt[entry.ID] = len(result.Created)
			result.Created = append(result.Created, *entry)
		}
		return nil
	})
	s.metrics.ObserveBulk(time.Since(started))
	if err != nil {
		s.metrics.Entries("bulk", "failed", len(inputs))
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Internal(err, "زمان ثبت شمارش‌ها به پایان رسید")
		}
		return nil, normalizeTxError(err)
	}

	s.metrics.Entries("bulk", "ok", len(result.Created))
	s.metrics.Entries("bulk", "failed", len(result.Errors))
	s.record(ctx, actor, "audit_cycle", inputs[0].CycleID, models.ActivityUpdate,
		fmt.Sprintf("ثبت گروهی شمارش: %d موفق، %d ناموفق", len(result.Created), len(result.Errors)),
		nil, map[string]int{"created": len(result.Created), "errors": len(result.Errors)})
	return &result, nil
}

// countableCycle loads the tenant's cycle when it accepts counts.
func (s *Service) countableCycle(ctx context.Context, tx *gorm.DB, tenantID uint, id string) (*models.AuditCycle, error) {
	var cycle models.AuditCycle
	err := tx.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND status = ?", id, tenantID, models.CycleInProgress).
		First(&cycle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("دوره شمارش فعال یافت نشد").WithContext("cycle_id", id)
	}
	if err != nil {
		return nil, apperr.Internal(err, "")
	}
	return &cycle, nil
}

// upsertEntry snapshots the ledger and writes the count for (cycle, item).
// The caller has already checked the cycle.
func (s *Service) upsertEntry(ctx context.Context, tx *gorm.DB, actor Actor, in EntryInput) (*models.AuditEntry, bool, error) {
	counted := in.CountedQuantity.Round(inventory.QuantityScale)
	if counted.IsNegative() {
		return nil, false, apperr.Validation("مقدار شمارش نمی‌تواند منفی باشد").WithField("countedQuantity", "باید بزرگ‌تر یا مساوی 0 باشد")
	}
	if !inventory.QuantityInRange(counted) {
		return nil, false, apperr.Validation("مقدار شمارش بیش از حد بزرگ است").WithField("countedQuantity", "باید کمتر از 100000000000000 باشد")
	}

	item, err := s.ledger.ActiveItem(ctx, tx, actor.TenantID, in.ItemID)
	if err != nil {
		return nil, false, err
	}
	system, err := s.ledger.OnHand(ctx, tx, actor.TenantID, in.ItemID)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	reason := trimmed(in.Reason)
	discrepancy := counted.Sub(system)

	var existing models.AuditEntry
	err = tx.WithContext(ctx).
		Where("audit_cycle_id = ? AND item_id = ?", in.CycleID, in.ItemID).
		First(&existing).Error
	switch {
	case err == nil:
		if existing.CorrectionApplied {
			return nil, false, alreadyCorrected(existing.ID)
		}
		res := tx.WithContext(ctx).Model(&models.AuditEntry{}).
			Where("id = ? AND correction_applied = ?", existing.ID, false).
			Updates(map[string]any{
				"counted_quantity": counted,
				"system_quantity":  system,
				"discrepancy":      discrepancy,
				"reason":           reason,
				"counted_by":       actor.UserID,
				"counted_at":       now,
				"updated_at":       now,
			})
		if res.Error != nil {
			return nil, false, apperr.Internal(res.Error, "")
		}
		if res.RowsAffected == 0 {
			return nil, false, alreadyCorrected(existing.ID)
		}
		existing.CountedQuantity = counted
		existing.SystemQuantity = system
		existing.Discrepancy = discrepancy
		existing.Reason = reason
		existing.CountedBy = actor.UserID
		existing.CountedAt = now
		existing.UpdatedAt = now
		existing.Item = *item
		return &existing, false, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		entry := models.AuditEntry{
			ID:              s.newID(),
			AuditCycleID:    in.CycleID,
			TenantID:        actor.TenantID,
			ItemID:          in.ItemID,
			CountedQuantity: counted,
			SystemQuantity:  system,
			Discrepancy:     discrepancy,
			Reason:          reason,
			CountedBy:       actor.UserID,
			CountedAt:       now,
			CreatedBy:       actor.UserID,
		}
		if err := tx.WithContext(ctx).Omit("Item", "AuditCycle").Create(&entry).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return nil, false, apperr.Wrap(apperr.KindConflict, err, "این کالا هم‌زمان در حال ثبت است، دوباره تلاش کنید")
			}
			return nil, false, apperr.Internal(err, "")
		}
		entry.Item = *item
		return &entry, true, nil

	default:
		return nil, false, apperr.Internal(err, "")
	}
}

func alreadyCorrected(entryID string) error {
	return apperr.Validation("اصلاحیه این شمارش قبلا ثبت شده و قابل تغییر نیست").WithContext("entry_id", entryID)
}

// normalizeTxError maps driver level transaction failures to typed errors.
func normalizeTxError(err error) error {
	if database.IsSerializationFailure(err) {
		return apperr.Wrap(apperr.KindConflict, err, "تداخل با تراکنش دیگر، دوباره تلاش کنید")
	}
	if apperr.As(err) != nil {
		return err
	}
	return apperr.Internal(err, "")
}
