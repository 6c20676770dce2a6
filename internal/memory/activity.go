package memory

import (
	"context"

	"github.com/nilelabs/labs/internal/domain/activity"
)

// ActivityRepository implements activity.Repository. Events are kept most
// recent first.
type ActivityRepository struct {
	store *Store
}

var _ activity.Repository = (*ActivityRepository)(nil)

func (r *ActivityRepository) Append(ctx context.Context, event *activity.Event) error {
	return r.store.write(ctx, func(st *state) error {
		st.events = append([]activity.Event{*event}, st.events...)
		return nil
	})
}

func (r *ActivityRepository) List(ctx context.Context) ([]activity.Event, error) {
	var out []activity.Event
	r.store.read(func(st *state) {
		out = append([]activity.Event(nil), st.events...)
	})
	return out, nil
}
