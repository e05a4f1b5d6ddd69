package portfolio

import (
	"context"
	"testing"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/domain"
	testingpkg "github.com/aristath/tradebook/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionRepository_UpsertIsUniquePerSymbol(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, database.NameTradebook)
	defer cleanup()
	repo := NewPositionRepository(db.Conn(), testingpkg.NewTestLogger())
	ctx := context.Background()

	first := position("infy", 10, 100)
	require.NoError(t, repo.Upsert(ctx, &first))
	assert.Greater(t, first.ID, int64(0))
	assert.Equal(t, "INFY", first.Symbol)

	second := position("INFY", 6, 100)
	require.NoError(t, repo.Upsert(ctx, &second))
	assert.Equal(t, first.ID, second.ID)

	all, err := repo.GetAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(6), all[0].Quantity)
	assert.InDelta(t, 600.0, all[0].InvestedValue, 1e-9)
}

func TestPositionRepository_RejectsNonPositiveQuantity(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, database.NameTradebook)
	defer cleanup()
	repo := NewPositionRepository(db.Conn(), testingpkg.NewTestLogger())

	p := position("INFY", 0, 100)
	assert.Error(t, repo.Upsert(context.Background(), &p))
}

func TestPositionRepository_GetBySymbolAndDelete(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, database.NameTradebook)
	defer cleanup()
	repo := NewPositionRepository(db.Conn(), testingpkg.NewTestLogger())
	ctx := context.Background()

	missing, err := repo.GetBySymbol(ctx, "u1", "INFY")
	require.NoError(t, err)
	assert.Nil(t, missing)

	p := position("INFY", 10, 100)
	require.NoError(t, repo.Upsert(ctx, &p))
	other := position("INFY", 1, 1)
	other.OwnerID = "u2"
	require.NoError(t, repo.Upsert(ctx, &other))

	got, err := repo.GetBySymbol(ctx, "u1", "infy")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(10), got.Quantity)

	require.NoError(t, repo.Delete(ctx, domain.Position{OwnerID: "u1", Symbol: "INFY"}))
	got, err = repo.GetBySymbol(ctx, "u1", "INFY")
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := repo.DeleteAll(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
