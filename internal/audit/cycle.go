package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"restoran-backend/internal/apperr"
	"restoran-backend/internal/models"

	"gorm.io/gorm"
)

type CreateCycleInput struct {
	Name        string
	Description *string
	StartDate   time.Time
	EndDate     time.Time
}

// CycleFilter narrows ListCycles. StartDate keeps cycles starting on or after
// it; EndDate keeps cycles ending on or before it.
type CycleFilter struct {
	Status    *models.CycleStatus
	StartDate *time.Time
	EndDate   *time.Time
}

// CycleSummary is a cycle together with the number of recorded counts.
type CycleSummary struct {
	models.AuditCycle
	EntryCount int64
}

func (s *Service) CreateCycle(ctx context.Context, actor Actor, in CreateCycleInput) (*models.AuditCycle, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("نام دوره الزامی است").WithField("name", "الزامی است")
	}
	if !in.StartDate.Before(in.EndDate) {
		return nil, apperr.Validation("تاریخ شروع باید قبل از تاریخ پایان باشد").
			WithField("endDate", "باید بعد از تاریخ شروع باشد")
	}

	cycle := models.AuditCycle{
		ID:          s.newID(),
		TenantID:    actor.TenantID,
		Name:        name,
		Description: trimmed(in.Description),
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		Status:      models.CycleDraft,
		CreatedBy:   actor.UserID,
	}
	if err := s.db.DB(ctx).Create(&cycle).Error; err != nil {
		return nil, apperr.Internal(err, "")
	}

	s.metrics.Transition(string(cycle.Status))
	s.record(ctx, actor, "audit_cycle", cycle.ID, models.ActivityCreate,
		"دوره شمارش جدید: "+cycle.Name, nil, NewCycleView(&cycle))
	return &cycle, nil
}

func (s *Service) StartCycle(ctx context.Context, actor Actor, id string) (*models.AuditCycle, error) {
	return s.transition(ctx, actor, id, models.EventStart, "")
}

func (s *Service) CompleteCycle(ctx context.Context, actor Actor, id string) (*models.AuditCycle, error) {
	return s.transition(ctx, actor, id, models.EventComplete, "")
}

func (s *Service) CancelCycle(ctx context.Context, actor Actor, id, reason string) (*models.AuditCycle, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("دلیل لغو الزامی است").WithField("cancelledReason", "الزامی است")
	}
	return s.transition(ctx, actor, id, models.EventCancel, reason)
}

// transition applies ev to the tenant's cycle. A cycle in a status that does
// not accept ev is reported as not found.
func (s *Service) transition(ctx context.Context, actor Actor, id string, ev models.CycleEvent, reason string) (*models.AuditCycle, error) {
	var before, after models.AuditCycle

	err := s.db.WithTx(ctx, nil, func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND tenant_id = ?", id, actor.TenantID).First(&before).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("دوره شمارش یافت نشد").WithContext("cycle_id", id)
			}
			return apperr.Internal(err, "")
		}

		next, err := before.Status.Next(ev)
		if err != nil {
			return apperr.Wrap(apperr.KindNotFound, err, "دوره شمارش در وضعیت مناسب یافت نشد").
				WithContext("cycle_id", id).
				WithContext("status", string(before.Status)).
				WithContext("event", string(ev))
		}

		now := s.now()
		updates := map[string]any{"status": next, "updated_at": now}
		switch ev {
		case models.EventComplete:
			updates["completed_by"] = actor.UserID
			updates["completed_at"] = now
		case models.EventCancel:
			updates["cancelled_by"] = actor.UserID
			updates["cancelled_at"] = now
			updates["cancelled_reason"] = reason
		}

		res := tx.Model(&models.AuditCycle{}).
			Where("id = ? AND tenant_id = ? AND status = ?", id, actor.TenantID, before.Status).
			Updates(updates)
		if res.Error != nil {
			return apperr.Internal(res.Error, "")
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("دوره شمارش در وضعیت مناسب یافت نشد").WithContext("cycle_id", id)
		}

		return tx.Where("id = ?", id).First(&after).Error
	})
	if err != nil {
		if apperr.As(err) == nil {
			err = apperr.Internal(err, "")
		}
		return nil, err
	}

	s.metrics.Transition(string(after.Status))
	s.record(ctx, actor, "audit_cycle", after.ID, actionFor(ev),
		"تغییر وضعیت دوره "+after.Name+": "+string(before.Status)+" → "+string(after.Status),
		NewCycleView(&before), NewCycleView(&after))
	return &after, nil
}

func actionFor(ev models.CycleEvent) models.ActivityAction {
	switch ev {
	case models.EventStart:
		return models.ActivityStart
	case models.EventComplete:
		return models.ActivityComplete
	case models.EventCancel:
		return models.ActivityCancel
	}
	return models.ActivityUpdate
}

func (s *Service) ListCycles(ctx context.Context, tenantID uint, f CycleFilter) ([]CycleSummary, error) {
	db := s.db.DB(ctx)
	dbq := db.Model(&models.AuditCycle{}).Where("tenant_id = ?", tenantID)
	if f.Status != nil {
		dbq = dbq.Where("status = ?", *f.Status)
	}
	if f.StartDate != nil {
		dbq = dbq.Where("start_date >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		dbq = dbq.Where("end_date <= ?", f.EndDate.UTC())
	}

	var cycles []models.AuditCycle
	if err := dbq.Order("start_date DESC, created_at DESC").Find(&cycles).Error; err != nil {
		return nil, apperr.Internal(err, "")
	}
	if len(cycles) == 0 {
		return []CycleSummary{}, nil
	}

	ids := make([]string, 0, len(cycles))
	for _, c := range cycles {
		ids = append(ids, c.ID)
	}
	var counts []struct {
		AuditCycleID string
		Total        int64
	}
	if err := db.Model(&models.AuditEntry{}).
		Select("audit_cycle_id, COUNT(*) AS total").
		Where("audit_cycle_id IN ?", ids).
		Group("audit_cycle_id").
		Scan(&counts).Error; err != nil {
		return nil, apperr.Internal(err, "")
	}
	byCycle := make(map[string]int64, len(counts))
	for _, c := range counts {
		byCycle[c.AuditCycleID] = c.Total
	}

	out := make([]CycleSummary, 0, len(cycles))
	for _, c := range cycles {
		out = append(out, CycleSummary{AuditCycle: c, EntryCount: byCycle[c.ID]})
	}
	return out, nil
}

// GetCycle loads a cycle with its entries and their items.
func (s *Service) GetCycle(ctx context.Context, tenantID uint, id string) (*models.AuditCycle, error) {
	var cycle models.AuditCycle
	err := s.db.DB(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("counted_at ASC, id ASC") }).
		Preload("Entries.Item").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&cycle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("دوره شمارش یافت نشد").WithContext("cycle_id", id)
	}
	if err != nil {
		return nil, apperr.Internal(err, "")
	}
	return &cycle, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
