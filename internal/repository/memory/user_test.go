package memory_test

import (
	"context"
	"testing"

	"github.com/ashudevin/caremind/internal/domain"
	"github.com/ashudevin/caremind/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	u := &domain.User{Name: "Sam", Email: "Sam@Example.com", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)

	exists, err := repo.EmailExists(ctx, "sam@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.GetByEmail(ctx, "SAM@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sam", byID.Name)

	none, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, none)

	assert.ErrorIs(t, repo.Create(ctx, &domain.User{Name: "x", Email: "sam@example.com"}), domain.ErrEmailTaken)
}
