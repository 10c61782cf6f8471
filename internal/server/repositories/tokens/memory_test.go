package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_Lifecycle(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	rec := sampleToken()

	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.Find(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.UserID, got.UserID)
	require.Empty(t, got.Token, "signed string is not stored")

	got.Permissions[0] = "tampered"
	again, err := repo.Find(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.Permissions, again.Permissions)

	_, err = repo.Find(ctx, "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_DeleteExpired(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	live := sampleToken()
	dead := sampleToken()
	dead.ID = "dead"
	dead.ExpiresAt = live.CreatedAt.Add(time.Minute)
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, dead))

	n, err := repo.DeleteExpired(ctx, dead.ExpiresAt)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = repo.Find(ctx, "dead")
	require.ErrorIs(t, err, common.ErrorNotFound)
	_, err = repo.Find(ctx, live.ID)
	require.NoError(t, err)
}
