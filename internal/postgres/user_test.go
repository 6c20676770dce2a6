package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/nilelabs/labs/internal/repository"
	"github.com/stretchr/testify/require"
)

func testUser(id string) *user.User {
	avatar := "https://example.com/" + id + ".png"
	return &user.User{
		ID:        id,
		Email:     id + "@nile.com",
		Name:      "User " + id,
		AvatarURL: &avatar,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestUserRepository_InsertGetList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	require.NoError(t, repo.Insert(ctx, testUser("user-2")))
	require.NoError(t, repo.Insert(ctx, testUser("user-1")))

	u, err := repo.Get(ctx, "user-2")
	require.NoError(t, err)
	require.Equal(t, "user-2@nile.com", u.Email)
	require.NotNil(t, u.AvatarURL)
	require.True(t, u.CreatedAt.Equal(testUser("user-2").CreatedAt))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "user-1", list[0].ID)
}

func TestUserRepository_Errors(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	_, err := repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Insert(ctx, testUser("user-1")))
	require.ErrorIs(t, repo.Insert(ctx, testUser("user-1")), repository.ErrDuplicate)
}
