package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nilelabs/labs/internal/repository"
)

// Service exposes the user directory.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get fetches a user by ID.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Index returns every user keyed by ID.
func (s *Service) Index(ctx context.Context) (map[string]User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	index := make(map[string]User, len(users))
	for _, u := range users {
		index[u.ID] = u
	}
	return index, nil
}
