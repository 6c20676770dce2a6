package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nilelabs/labs/internal/domain/activity"
	"github.com/nilelabs/labs/internal/repository"
)

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

var _ activity.Repository = (*ActivityRepository)(nil)

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append inserts a new event at the head of the log
func (r *ActivityRepository) Append(ctx context.Context, event *activity.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	query := `
		INSERT INTO activity_events (id, type, actor_id, experiment_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.conn(ctx).ExecContext(ctx, query,
		event.ID,
		event.Type,
		event.ActorID,
		event.ExperimentID,
		string(payload),
		event.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// List returns every event, most recently appended first
func (r *ActivityRepository) List(ctx context.Context) ([]activity.Event, error) {
	query := `
		SELECT id, type, actor_id, experiment_id, payload, created_at
		FROM activity_events
		ORDER BY seq DESC
	`
	rows, err := r.db.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	events := []activity.Event{}
	for rows.Next() {
		var (
			e       activity.Event
			payload string
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.ActorID, &e.ExperimentID, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		e.Payload, err = activity.DecodePayload(e.Type, []byte(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to decode activity %s: %w", e.ID, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity: %w", err)
	}
	return events, nil
}
