package activity

import (
	"context"

	"github.com/nilelabs/labs/internal/domain/experiment"
)

var _ experiment.EventLog = (*Service)(nil)

// ExperimentCreated records a creation.
func (s *Service) ExperimentCreated(ctx context.Context, actorID string, exp *experiment.Experiment) error {
	return s.Append(ctx, &Event{ActorID: actorID, ExperimentID: exp.ID, Payload: Created{}})
}

// StatusChanged records a status transition.
func (s *Service) StatusChanged(ctx context.Context, actorID, experimentID string, from, to experiment.Status) error {
	return s.Append(ctx, &Event{
		ActorID:      actorID,
		ExperimentID: experimentID,
		Payload:      StatusChanged{Old: from, New: to},
	})
}

// ProgressAdded records a new progress update.
func (s *Service) ProgressAdded(ctx context.Context, actorID string, update *experiment.ProgressUpdate) error {
	return s.Append(ctx, &Event{
		ActorID:      actorID,
		ExperimentID: update.ExperimentID,
		CreatedAt:    update.CreatedAt,
		Payload:      ProgressAdded{Update: *update},
	})
}

// ExperimentForked records a fork against the parent experiment.
func (s *Service) ExperimentForked(ctx context.Context, actorID, parentID, forkID string) error {
	return s.Append(ctx, &Event{
		ActorID:      actorID,
		ExperimentID: parentID,
		Payload:      Forked{ForkID: forkID},
	})
}

// CollaboratorAdded records a collaborator joining.
func (s *Service) CollaboratorAdded(ctx context.Context, actorID, experimentID, collaboratorID string) error {
	return s.Append(ctx, &Event{
		ActorID:      actorID,
		ExperimentID: experimentID,
		Payload:      CollaboratorAdded{CollaboratorID: collaboratorID},
	})
}
