package models

import (
	"fmt"
	"time"
)

type CycleStatus string

const (
	CycleDraft      CycleStatus = "DRAFT"
	CycleInProgress CycleStatus = "IN_PROGRESS"
	CycleCompleted  CycleStatus = "COMPLETED"
	CycleCancelled  CycleStatus = "CANCELLED"
)

// CycleStatuses lists every status in lifecycle order.
var CycleStatuses = []CycleStatus{CycleDraft, CycleInProgress, CycleCompleted, CycleCancelled}

type CycleEvent string

const (
	EventStart    CycleEvent = "start"
	EventComplete CycleEvent = "complete"
	EventCancel   CycleEvent = "cancel"
)

// TransitionError is returned when an event is not allowed from a status.
type TransitionError struct {
	From  CycleStatus
	Event CycleEvent
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cycle: %s not allowed from %s", e.Event, e.From)
}

func ParseCycleStatus(s string) (CycleStatus, bool) {
	for _, st := range CycleStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Next returns the status reached by applying ev to s.
//
//	DRAFT       --start-->    IN_PROGRESS
//	DRAFT       --cancel-->   CANCELLED
//	IN_PROGRESS --complete--> COMPLETED
//	IN_PROGRESS --cancel-->   CANCELLED
func (s CycleStatus) Next(ev CycleEvent) (CycleStatus, error) {
	switch s {
	case CycleDraft:
		switch ev {
		case EventStart:
			return CycleInProgress, nil
		case EventCancel:
			return CycleCancelled, nil
		}
	case CycleInProgress:
		switch ev {
		case EventComplete:
			return CycleCompleted, nil
		case EventCancel:
			return CycleCancelled, nil
		}
	case CycleCompleted, CycleCancelled:
	}
	return s, &TransitionError{From: s, Event: ev}
}

// SourcesOf lists the statuses from which ev is allowed.
func SourcesOf(ev CycleEvent) []CycleStatus {
	var out []CycleStatus
	for _, st := range CycleStatuses {
		if _, err := st.Next(ev); err == nil {
			out = append(out, st)
		}
	}
	return out
}

func (s CycleStatus) Terminal() bool {
	return s == CycleCompleted || s == CycleCancelled
}

// AcceptsCounts reports whether entries may be recorded against a cycle in s.
func (s CycleStatus) AcceptsCounts() bool {
	return s == CycleInProgress
}

type AuditCycle struct {
	ID          string      `gorm:"size:32;primaryKey"`
	TenantID    uint        `gorm:"index;not null"`
	Name        string      `gorm:"size:150;not null"`
	Description *string     `gorm:"size:1000"`
	StartDate   time.Time   `gorm:"not null"`
	EndDate     time.Time   `gorm:"not null"`
	Status      CycleStatus `gorm:"size:20;index;not null"`
	CreatedBy   uint        `gorm:"not null"`

	CompletedBy     *uint
	CompletedAt     *time.Time
	CancelledBy     *uint
	CancelledAt     *time.Time
	CancelledReason *string `gorm:"size:500"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Entries []AuditEntry `gorm:"foreignKey:AuditCycleID"`
}
