package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/nilelabs/labs/internal/repository"
)

// UserRepository implements user.Repository for SQLite
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
	query := `INSERT INTO users (id, email, name, avatar_url, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.conn(ctx).ExecContext(ctx, query, u.ID, u.Email, u.Name, u.AvatarURL, u.CreatedAt.UTC())
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
	query := `SELECT id, email, name, avatar_url, created_at FROM users WHERE id = ?`
	u, err := scanUser(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// List returns all users ordered by ID
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, `SELECT id, email, name, avatar_url, created_at FROM users ORDER BY id`)
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

func scanUser(row scanner) (*user.User, error) {
	var (
		u      user.User
		avatar sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &avatar, &u.CreatedAt); err != nil {
		return nil, err
	}
	if avatar.Valid {
		u.AvatarURL = &avatar.String
	}
	return &u, nil
}
