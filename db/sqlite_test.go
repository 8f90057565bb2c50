package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Repository {
		repo, err := NewSQLRepository(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close(context.Background()) })
		return repo
	})
}

func TestSQLRepositoryPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "trips.db")

	repo, err := NewSQLRepository(path)
	require.NoError(t, err)
	id, err := repo.Create(ctx, sampleRecord("Asha", 500))
	require.NoError(t, err)
	require.NoError(t, repo.Close(ctx))

	reopened, err := NewSQLRepository(path)
	require.NoError(t, err)
	defer reopened.Close(ctx)

	got, err := reopened.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.CustomerName)
	assert.Len(t, got.Days, 2)
}
