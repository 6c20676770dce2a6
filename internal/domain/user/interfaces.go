package user

import "context"

// Repository provides read access to users.
type Repository interface {
	Get(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
}
