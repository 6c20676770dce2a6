package activity

import (
	"context"

	"github.com/nilelabs/labs/internal/domain/user"
)

// Repository provides persistence operations for the activity log.
// List returns events most recent first.
type Repository interface {
	Append(ctx context.Context, event *Event) error
	List(ctx context.Context) ([]Event, error)
}

// UserDirectory resolves actors for enrichment.
type UserDirectory interface {
	Index(ctx context.Context) (map[string]user.User, error)
}
