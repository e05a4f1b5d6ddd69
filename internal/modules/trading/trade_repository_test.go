package trading

import (
	"context"
	"testing"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/domain"
	testingpkg "github.com/aristath/tradebook/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*TradeRepository, func()) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, database.NameTradebook)
	return NewTradeRepository(db.Conn(), testingpkg.NewTestLogger()), cleanup
}

func TestTradeRepository_CreateAndGet(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	trade := testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 10, 100, "2024-01-10")
	notes := "first lot"
	trade.Notes = &notes
	trade.Brokerage = 20

	id, err := repo.Create(ctx, &trade)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))
	assert.Equal(t, id, trade.ID)
	assert.False(t, trade.CreatedAt.IsZero())

	got, err := repo.Get(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "INFY", got.Symbol)
	assert.Equal(t, "NSE", got.Exchange)
	assert.Equal(t, domain.SideBuy, got.Side)
	assert.Equal(t, int64(10), got.Quantity)
	assert.InDelta(t, 100.0, got.Price, 1e-9)
	assert.InDelta(t, 20.0, got.Brokerage, 1e-9)
	assert.InDelta(t, trade.NetAmount, got.NetAmount, 1e-9)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "first lot", *got.Notes)
	assert.Nil(t, got.TradeTime)
	assert.Equal(t, domain.SourceManual, got.Source)
}

func TestTradeRepository_CreateRejectsInvalid(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	testCases := []struct {
		name   string
		mutate func(*domain.Trade)
	}{
		{"zero quantity", func(tr *domain.Trade) { tr.Quantity = 0 }},
		{"negative price", func(tr *domain.Trade) { tr.Price = -1 }},
		{"bad side", func(tr *domain.Trade) { tr.Side = "HOLD" }},
		{"bad date", func(tr *domain.Trade) { tr.TradeDate = "10/01/2024" }},
		{"missing owner", func(tr *domain.Trade) { tr.OwnerID = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			trade := testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 10, 100, "2024-01-10")
			tc.mutate(&trade)
			_, err := repo.Create(context.Background(), &trade)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestTradeRepository_GetWrongOwnerIsNotFound(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	trade := testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 10, 100, "2024-01-10")
	id, err := repo.Create(ctx, &trade)
	require.NoError(t, err)

	_, err = repo.Get(ctx, "u2", id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTradeRepository_GetAllIsChronological(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	late := "15:30"
	early := "09:15"

	trades := []domain.Trade{
		testingpkg.NewTrade("u1", "INFY", domain.SideSell, 5, 130, "2024-03-05"),
		testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 10, 100, "2024-01-10"),
		testingpkg.NewTrade("u1", "TCS", domain.SideBuy, 1, 3000, "2024-01-10"),
	}
	trades[1].TradeTime = &late
	trades[2].TradeTime = &early

	for i := range trades {
		_, err := repo.Create(ctx, &trades[i])
		require.NoError(t, err)
	}

	all, err := repo.GetAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "TCS", all[0].Symbol)
	assert.Equal(t, "INFY", all[1].Symbol)
	assert.Equal(t, domain.SideBuy, all[1].Side)
	assert.Equal(t, "2024-03-05", all[2].TradeDate)
}

func TestTradeRepository_Find(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	for _, tr := range testingpkg.NewTradeFixtures("u1") {
		tr := tr
		_, err := repo.Create(ctx, &tr)
		require.NoError(t, err)
	}
	other := testingpkg.NewTrade("u2", "INFY", domain.SideBuy, 1, 1, "2024-01-10")
	_, err := repo.Create(ctx, &other)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		filter domain.TradeFilter
		want   int
	}{
		{"no filter", domain.TradeFilter{}, 4},
		{"symbol", domain.TradeFilter{Symbol: "infy"}, 3},
		{"side", domain.TradeFilter{Side: domain.SideSell}, 1},
		{"inclusive range", domain.TradeFilter{From: "2024-01-12", To: "2024-02-01"}, 2},
		{"symbol and side", domain.TradeFilter{Symbol: "INFY", Side: domain.SideBuy}, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.Find(ctx, "u1", tc.filter)
			require.NoError(t, err)
			assert.Len(t, got, tc.want)
		})
	}
}

func TestTradeRepository_UpdateAndDelete(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	trade := testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 10, 100, "2024-01-10")
	_, err := repo.Create(ctx, &trade)
	require.NoError(t, err)

	trade.Quantity = 12
	trade.ComputeAmounts()
	require.NoError(t, repo.Update(ctx, &trade))

	got, err := repo.Get(ctx, "u1", trade.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.Quantity)
	assert.InDelta(t, 1200.0, got.Amount, 1e-9)

	require.NoError(t, repo.Delete(ctx, "u1", trade.ID))
	assert.ErrorIs(t, repo.Delete(ctx, "u1", trade.ID), domain.ErrNotFound)

	missing := trade
	missing.ID = 9999
	assert.ErrorIs(t, repo.Update(ctx, &missing), domain.ErrNotFound)
}

func TestTradeRepository_DeleteAllScopedToOwner(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	for _, owner := range []string{"u1", "u1", "u2"} {
		tr := testingpkg.NewTrade(owner, "INFY", domain.SideBuy, 1, 10, "2024-01-10")
		_, err := repo.Create(ctx, &tr)
		require.NoError(t, err)
	}

	n, err := repo.DeleteAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rest, err := repo.GetAll(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}
