package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mind-engage/gradetracker/pkg/gradebook"
)

type Event struct {
	Seq       int64
	RunID     string
	Type      string
	Key       string
	DataJSON  string
	CreatedAt int64
}

// EventRepo appends tracker events to tracker_events and implements
// gradebook.AuditLog.
type EventRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db, now: time.Now} }

var _ gradebook.AuditLog = (*EventRepo)(nil)

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tracker_events (run_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.RunID, e.Type, e.Key, e.DataJSON, r.now().Unix())
	return err
}

// Record stores one reconcile outcome as a grade.<outcome> event keyed by
// course, user and column.
func (r *EventRepo) Record(ctx context.Context, a gradebook.AuditEvent) error {
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return r.Append(ctx, Event{
		RunID:    a.RunID,
		Type:     "grade." + string(a.Outcome),
		Key:      fmt.Sprintf("%d/%d/%s", a.CourseID, a.UserID, a.Column),
		DataJSON: string(b),
	})
}

// ListRun returns a run's events in append order.
func (r *EventRepo) ListRun(ctx context.Context, runID string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, run_id, typ, key, data, created_at
		FROM tracker_events WHERE run_id=$1 ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.RunID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
