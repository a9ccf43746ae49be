package token

import (
	"context"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveKeepsRefreshWhenOmitted(t *testing.T) {
	ctx := context.Background()
	repo := NewSlots(storage.NewMemory())

	tok, err := repo.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, repo.Save(ctx, domain.Credential{AccessToken: "a1", RefreshToken: "r1"}))
	require.NoError(t, repo.Save(ctx, domain.Credential{AccessToken: "a2"}))

	access, err := repo.AccessToken(ctx)
	require.NoError(t, err)
	refresh, err := repo.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a2", access)
	assert.Equal(t, "r1", refresh)
}

func TestClearRemovesBoth(t *testing.T) {
	ctx := context.Background()
	repo := NewSlots(storage.NewMemory())
	require.NoError(t, repo.Save(ctx, domain.Credential{AccessToken: "a", RefreshToken: "r"}))

	require.NoError(t, repo.Clear(ctx))

	access, _ := repo.AccessToken(ctx)
	refresh, _ := repo.RefreshToken(ctx)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}
