package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/nilelabs/labs/internal/repository"
	"github.com/stretchr/testify/require"
)

func testUser(id string) *user.User {
	return &user.User{
		ID:        id,
		Email:     id + "@nile.com",
		Name:      "User " + id,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestUserRepository_InsertGetList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	avatar := "https://example.com/a.png"
	u := testUser("user-2")
	u.AvatarURL = &avatar
	require.NoError(t, repo.Insert(ctx, u))
	require.NoError(t, repo.Insert(ctx, testUser("user-1")))

	loaded, err := repo.Get(ctx, "user-2")
	require.NoError(t, err)
	require.Equal(t, u.Email, loaded.Email)
	require.NotNil(t, loaded.AvatarURL)
	require.Equal(t, avatar, *loaded.AvatarURL)
	require.True(t, u.CreatedAt.Equal(loaded.CreatedAt))

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "user-1", users[0].ID)
	require.Nil(t, users[0].AvatarURL)
}

func TestUserRepository_Errors(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	_, err := repo.Get(ctx, "nobody")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Insert(ctx, testUser("user-1")))
	require.ErrorIs(t, repo.Insert(ctx, testUser("user-1")), repository.ErrDuplicate)
}
