// Package memory provides an in-process storage engine. Transactions are
// serialized and roll back by restoring a snapshot taken at start.
package memory

import (
	"context"
	"sync"

	"github.com/nilelabs/labs/internal/domain/activity"
	"github.com/nilelabs/labs/internal/domain/experiment"
	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/nilelabs/labs/internal/repository"
)

type state struct {
	experiments []experiment.Experiment
	positions   map[string]int
	events      []activity.Event
	users       []user.User
}

func newState() state {
	return state{positions: make(map[string]int)}
}

func (s state) clone() state {
	out := state{
		experiments: make([]experiment.Experiment, len(s.experiments)),
		positions:   make(map[string]int, len(s.positions)),
		events:      append([]activity.Event(nil), s.events...),
		users:       append([]user.User(nil), s.users...),
	}
	for i, exp := range s.experiments {
		out.experiments[i] = exp.Clone()
	}
	for k, v := range s.positions {
		out.positions[k] = v
	}
	return out
}

// Store holds all data in memory.
type Store struct {
	txMu  sync.Mutex
	mu    sync.RWMutex
	state state
}

var _ repository.Transactor = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{state: newState()}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// RunInTx runs fn with exclusive write access. If fn fails, every change
// it made is discarded.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// write applies fn under the write lock, joining the caller's transaction
// if there is one.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.state)
}

// Experiments returns the experiment repository backed by s.
func (s *Store) Experiments() *ExperimentRepository {
	return &ExperimentRepository{store: s}
}

// Activity returns the activity repository backed by s.
func (s *Store) Activity() *ActivityRepository {
	return &ActivityRepository{store: s}
}

// Users returns the user repository backed by s.
func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}
