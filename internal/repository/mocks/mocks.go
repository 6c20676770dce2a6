package mocks

import (
	"context"

	"github.com/nilelabs/labs/internal/domain/activity"
	"github.com/nilelabs/labs/internal/domain/experiment"
	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/stretchr/testify/mock"
)

// ExperimentRepository is a mock for experiment.Repository.
type ExperimentRepository struct {
	mock.Mock
}

func (m *ExperimentRepository) Insert(ctx context.Context, exp *experiment.Experiment) error {
	args := m.Called(ctx, exp)
	return args.Error(0)
}

func (m *ExperimentRepository) Get(ctx context.Context, id string) (*experiment.Experiment, error) {
	args := m.Called(ctx, id)
	if exp, ok := args.Get(0).(*experiment.Experiment); ok {
		return exp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ExperimentRepository) Update(ctx context.Context, exp *experiment.Experiment) error {
	args := m.Called(ctx, exp)
	return args.Error(0)
}

func (m *ExperimentRepository) List(ctx context.Context) ([]experiment.Experiment, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]experiment.Experiment); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ExperimentRepository) AppendProgress(ctx context.Context, update *experiment.ProgressUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

// EventLog is a mock for experiment.EventLog.
type EventLog struct {
	mock.Mock
}

func (m *EventLog) ExperimentCreated(ctx context.Context, actorID string, exp *experiment.Experiment) error {
	args := m.Called(ctx, actorID, exp)
	return args.Error(0)
}

func (m *EventLog) StatusChanged(ctx context.Context, actorID, experimentID string, from, to experiment.Status) error {
	args := m.Called(ctx, actorID, experimentID, from, to)
	return args.Error(0)
}

func (m *EventLog) ProgressAdded(ctx context.Context, actorID string, update *experiment.ProgressUpdate) error {
	args := m.Called(ctx, actorID, update)
	return args.Error(0)
}

func (m *EventLog) ExperimentForked(ctx context.Context, actorID, parentID, forkID string) error {
	args := m.Called(ctx, actorID, parentID, forkID)
	return args.Error(0)
}

func (m *EventLog) CollaboratorAdded(ctx context.Context, actorID, experimentID, collaboratorID string) error {
	args := m.Called(ctx, actorID, experimentID, collaboratorID)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Append(ctx context.Context, event *activity.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context) ([]activity.Event, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]activity.Event); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// UserRepository is a mock for user.Repository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) List(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]user.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
