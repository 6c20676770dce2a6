package memory

import (
	"context"

	"github.com/nilelabs/labs/internal/domain/experiment"
	"github.com/nilelabs/labs/internal/repository"
)

// ExperimentRepository implements experiment.Repository.
type ExperimentRepository struct {
	store *Store
}

var _ experiment.Repository = (*ExperimentRepository)(nil)

func (r *ExperimentRepository) Insert(ctx context.Context, exp *experiment.Experiment) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.positions[exp.ID]; ok {
			return repository.ErrDuplicate
		}
		st.positions[exp.ID] = len(st.experiments)
		st.experiments = append(st.experiments, exp.Clone())
		return nil
	})
}

func (r *ExperimentRepository) Get(ctx context.Context, id string) (*experiment.Experiment, error) {
	var (
		out experiment.Experiment
		ok  bool
	)
	r.store.read(func(st *state) {
		var pos int
		if pos, ok = st.positions[id]; ok {
			out = st.experiments[pos].Clone()
		}
	})
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &out, nil
}

func (r *ExperimentRepository) Update(ctx context.Context, exp *experiment.Experiment) error {
	return r.store.write(ctx, func(st *state) error {
		pos, ok := st.positions[exp.ID]
		if !ok {
			return repository.ErrNotFound
		}
		progress := st.experiments[pos].ProgressUpdates
		next := exp.Clone()
		next.ProgressUpdates = progress
		st.experiments[pos] = next
		return nil
	})
}

func (r *ExperimentRepository) List(ctx context.Context) ([]experiment.Experiment, error) {
	var out []experiment.Experiment
	r.store.read(func(st *state) {
		out = make([]experiment.Experiment, len(st.experiments))
		for i, exp := range st.experiments {
			out[i] = exp.Clone()
		}
	})
	return out, nil
}

func (r *ExperimentRepository) AppendProgress(ctx context.Context, update *experiment.ProgressUpdate) error {
	return r.store.write(ctx, func(st *state) error {
		pos, ok := st.positions[update.ExperimentID]
		if !ok {
			return repository.ErrNotFound
		}
		exp := &st.experiments[pos]
		exp.ProgressUpdates = append(exp.ProgressUpdates, *update)
		return nil
	})
}
