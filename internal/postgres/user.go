package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/nilelabs/labs/internal/repository"
)

// UserRepository implements user.Repository for PostgreSQL
type UserRepository struct {
	db *DB
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Insert adds a user to the directory
func (r *UserRepository) Insert(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (id, email, name, avatar_url, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.conn(ctx).Exec(ctx, query, u.ID, u.Email, u.Name, u.AvatarURL, u.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT id, email, name, avatar_url, created_at FROM users WHERE id = $1`
	u, err := scanUser(r.db.conn(ctx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// List returns all users ordered by ID
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `SELECT id, email, name, avatar_url, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
