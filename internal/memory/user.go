package memory

import (
	"context"

	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/nilelabs/labs/internal/repository"
)

// UserRepository implements user.Repository.
type UserRepository struct {
	store *Store
}

var _ user.Repository = (*UserRepository)(nil)

// Insert adds a user to the directory.
func (r *UserRepository) Insert(ctx context.Context, u *user.User) error {
	return r.store.write(ctx, func(st *state) error {
		for _, existing := range st.users {
			if existing.ID == u.ID {
				return repository.ErrDuplicate
			}
		}
		st.users = append(st.users, *u)
		return nil
	})
}

func (r *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	var (
		out user.User
		ok  bool
	)
	r.store.read(func(st *state) {
		for _, u := range st.users {
			if u.ID == id {
				out, ok = u, true
				return
			}
		}
	})
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &out, nil
}

func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	var out []user.User
	r.store.read(func(st *state) {
		out = append([]user.User(nil), st.users...)
	})
	return out, nil
}
