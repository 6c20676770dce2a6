package experiment

import (
	"context"

	"github.com/nilelabs/labs/internal/domain/user"
)

// Repository persists experiments and their progress updates.
//
// List returns experiments in insertion order. Update replaces every
// mutable field except progress updates, which only grow via AppendProgress.
type Repository interface {
	Insert(ctx context.Context, exp *Experiment) error
	Get(ctx context.Context, id string) (*Experiment, error)
	Update(ctx context.Context, exp *Experiment) error
	List(ctx context.Context) ([]Experiment, error)
	AppendProgress(ctx context.Context, update *ProgressUpdate) error
}

// EventLog records the activity produced by experiment mutations.
type EventLog interface {
	ExperimentCreated(ctx context.Context, actorID string, exp *Experiment) error
	StatusChanged(ctx context.Context, actorID, experimentID string, from, to Status) error
	ProgressAdded(ctx context.Context, actorID string, update *ProgressUpdate) error
	ExperimentForked(ctx context.Context, actorID, parentID, forkID string) error
	CollaboratorAdded(ctx context.Context, actorID, experimentID, collaboratorID string) error
}

// UserDirectory resolves users for enrichment and collaborator checks.
type UserDirectory interface {
	Get(ctx context.Context, id string) (*user.User, error)
	Index(ctx context.Context) (map[string]user.User, error)
}
