// Package activitylog keeps a best-effort trail of who changed what. Writing
// a row never blocks or fails the operation being logged.
package activitylog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"restoran-backend/internal/database"
	"restoran-backend/internal/logger"
	"restoran-backend/internal/metrics"
	"restoran-backend/internal/models"
)

var errBufferFull = errors.New("activity log buffer full")

type Entry struct {
	TenantID    uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    string
	Action      models.ActivityAction
	Description string
	Before      any
	After       any
}

// Recorder accepts activity entries. Implementations must not block.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// Discard drops every entry.
type Discard struct{}

func (Discard) Record(context.Context, Entry) {}

// Dispatcher queues entries on a buffered channel and writes them from a
// single worker goroutine. A full buffer drops the entry.
type Dispatcher struct {
	db      *database.Client
	log     *logger.Logger
	metrics *metrics.Audit

	queue chan models.ActivityLog
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(db *database.Client, log *logger.Logger, m *metrics.Audit, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	d := &Dispatcher{
		db:      db,
		log:     log,
		metrics: m,
		queue:   make(chan models.ActivityLog, buffer),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) Record(ctx context.Context, e Entry) {
	row := toRow(e)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(ctx, row, errors.New("activity log closed"))
		return
	}
	select {
	case d.queue <- row:
	default:
		d.drop(ctx, row, errBufferFull)
	}
}

// Close stops accepting entries and waits for queued ones to be written.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for row := range d.queue {
		if err := d.db.DB(context.Background()).Create(&row).Error; err != nil {
			d.drop(context.Background(), row, err)
		}
	}
}

func (d *Dispatcher) drop(ctx context.Context, row models.ActivityLog, err error) {
	d.metrics.ActivityDropped()
	if d.log == nil {
		return
	}
	ctx = d.log.WithFields(ctx, map[string]any{
		"entity_type": row.EntityType,
		"entity_id":   row.EntityID,
		"action":      string(row.Action),
	})
	d.log.Error(ctx, "activity_log.dropped", err)
}

func toRow(e Entry) models.ActivityLog {
	return models.ActivityLog{
		TenantID:    e.TenantID,
		UserID:      e.UserID,
		UserName:    e.UserName,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: truncate(e.Description, 255),
		BeforeData:  toJSON(e.Before),
		AfterData:   toJSON(e.After),
	}
}

// jsonb columns reject the empty string, so absent snapshots are stored as null.
func toJSON(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
