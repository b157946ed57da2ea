package repositories

import (
	"context"
	"log/slog"
	"testing"

	"chat-relay/errors"

	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(setupDB(t), setupIndex(t), slog.Default())

	user, err := repo.Create("alice", "alice@example.com", "$argon2id$fake")
	req.NoError(err)
	req.NotEmpty(user.ID)

	byID, err := repo.GetByID(user.ID)
	req.NoError(err)
	req.Equal(user, byID)

	byEmail, err := repo.GetByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(user.ID, byEmail.ID)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(setupDB(t), setupIndex(t), slog.Default())

	_, err := repo.Create("alice", "alice@example.com", "hash")
	req.NoError(err)

	_, err = repo.Create("alice2", "alice@example.com", "hash")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	_, err = repo.Create("alice", "other@example.com", "hash")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserRepository_GetByID_Missing(t *testing.T) {
	repo := NewUserRepository(setupDB(t), setupIndex(t), slog.Default())
	_, err := repo.GetByID("nope")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestUserRepository_GetByIDs_DanglingID(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(setupDB(t), setupIndex(t), slog.Default())

	alice, err := repo.Create("alice", "alice@example.com", "hash")
	req.NoError(err)

	_, err = repo.GetByIDs([]string{alice.ID, "ghost"})
	req.ErrorIs(err, errors.ErrNotFound)

	users, err := repo.GetByIDs([]string{alice.ID})
	req.NoError(err)
	req.Len(users, 1)
	req.Equal("alice", users[0].Username)
}

func TestUserRepository_Search(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(setupDB(t), setupIndex(t), slog.Default())
	ctx := context.Background()

	_, err := repo.Create("alice", "alice@example.com", "hash")
	req.NoError(err)
	_, err = repo.Create("bob", "bob@example.com", "hash")
	req.NoError(err)
	_, err = repo.Create("carol", "carol@corp.io", "hash")
	req.NoError(err)

	// Match on username
	found, err := repo.Search(ctx, "alice", 10)
	req.NoError(err)
	req.Len(found, 1)
	req.Equal("alice", found[0].Username)

	// No match
	found, err = repo.Search(ctx, "zebra", 10)
	req.NoError(err)
	req.Empty(found)

	// Empty query lists everyone
	found, err = repo.Search(ctx, "", 10)
	req.NoError(err)
	req.Len(found, 3)
}

func TestUserRepository_PublicProjectionStripsHash(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(setupDB(t), setupIndex(t), slog.Default())

	user, err := repo.Create("alice", "alice@example.com", "super-secret-hash")
	req.NoError(err)

	public := user.Public()
	req.Equal(user.ID, public.ID)
	req.Equal("alice", public.Username)
}
