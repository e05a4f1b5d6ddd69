package portfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/trading"
	testingpkg "github.com/aristath/tradebook/internal/testing"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	svc       *PortfolioService
	trades    *trading.TradeRepository
	positions *PositionRepository
	quotes    *testingpkg.StaticQuotes
}

func newServiceFixture(t *testing.T) (*serviceFixture, func()) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, database.NameTradebook)
	log := testingpkg.NewTestLogger()

	f := &serviceFixture{
		trades:    trading.NewTradeRepository(db.Conn(), log),
		positions: NewPositionRepository(db.Conn(), log),
		quotes:    testingpkg.NewStaticQuotes(map[string]float64{"NSE:INFY": 150}),
	}
	f.svc = NewPortfolioService(f.trades, f.positions, f.quotes, utils.NewOwnerLocks(), log)
	return f, cleanup
}

func (f *serviceFixture) addTrades(t *testing.T, trades ...domain.Trade) {
	t.Helper()
	for i := range trades {
		_, err := f.trades.Create(context.Background(), &trades[i])
		require.NoError(t, err)
	}
}

func TestPortfolioService_Recalculate(t *testing.T) {
	f, cleanup := newServiceFixture(t)
	defer cleanup()
	ctx := context.Background()

	f.addTrades(t, testingpkg.NewTradeFixtures("u1")...)

	result, err := f.svc.Recalculate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Upserted)
	assert.Equal(t, 0, result.Deleted)

	stored, err := f.positions.GetAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "INFY", stored[0].Symbol)
	assert.Equal(t, int64(15), stored[0].Quantity)
	assert.InDelta(t, 1650.0, stored[0].InvestedValue, 1e-9)
	assert.Equal(t, "TCS", stored[1].Symbol)
}

func TestPortfolioService_RecalculateRemovesClosedAndOrphaned(t *testing.T) {
	f, cleanup := newServiceFixture(t)
	defer cleanup()
	ctx := context.Background()

	orphan := domain.Position{OwnerID: "u1", Symbol: "WIPRO", Exchange: "NSE", Quantity: 3, AverageBuyPrice: 10, InvestedValue: 30}
	require.NoError(t, f.positions.Upsert(ctx, &orphan))

	f.addTrades(t,
		testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 10, 100, "2024-01-01"),
	)
	_, err := f.svc.Recalculate(ctx, "u1")
	require.NoError(t, err)

	f.addTrades(t,
		testingpkg.NewTrade("u1", "INFY", domain.SideSell, 10, 120, "2024-01-05"),
	)
	result, err := f.svc.Recalculate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Upserted)
	assert.Equal(t, 1, result.Deleted)

	stored, err := f.positions.GetAll(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestPortfolioService_RecalculateFoldsChronologically(t *testing.T) {
	f, cleanup := newServiceFixture(t)
	defer cleanup()
	ctx := context.Background()

	// Inserted out of order; the sell must still come after the buy
	f.addTrades(t,
		testingpkg.NewTrade("u1", "INFY", domain.SideSell, 4, 150, "2024-01-02"),
		testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 10, 100, "2024-01-01"),
	)

	require.NoError(t, f.svc.RecalculatePositions(ctx, "u1"))

	pos, err := f.positions.GetBySymbol(ctx, "u1", "INFY")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, int64(6), pos.Quantity)
	assert.InDelta(t, 100.0, pos.AverageBuyPrice, 1e-9)
	assert.InDelta(t, 600.0, pos.InvestedValue, 1e-9)
}

func TestPortfolioService_Valuation(t *testing.T) {
	f, cleanup := newServiceFixture(t)
	defer cleanup()
	ctx := context.Background()

	f.addTrades(t,
		testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 10, 100, "2024-01-01"),
		testingpkg.NewTrade("u1", "TCS", domain.SideBuy, 1, 3000, "2024-01-01"),
	)
	_, err := f.svc.Recalculate(ctx, "u1")
	require.NoError(t, err)

	v, err := f.svc.Valuation(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, v.Positions, 2)
	assert.True(t, v.Positions[0].Quoted)
	assert.InDelta(t, 500.0, v.Positions[0].UnrealizedPL, 1e-9)
	assert.False(t, v.Positions[1].Quoted)
	assert.InDelta(t, 4500.0, v.PortfolioValue, 1e-9)
	assert.InDelta(t, 500.0, v.TotalPL, 1e-9)

	// Valuation does not persist prices
	stored, err := f.positions.GetBySymbol(ctx, "u1", "INFY")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, stored.CurrentPrice, 1e-9)
}

func TestPortfolioService_ValuationQuoteFailureDegrades(t *testing.T) {
	f, cleanup := newServiceFixture(t)
	defer cleanup()
	ctx := context.Background()

	f.addTrades(t, testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 10, 100, "2024-01-01"))
	_, err := f.svc.Recalculate(ctx, "u1")
	require.NoError(t, err)

	f.quotes.SetError(errors.New("quote service down"))

	v, err := f.svc.Valuation(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, v.Positions[0].Quoted)
	assert.Zero(t, v.TotalPL)
}

func TestPortfolioService_RefreshPrices(t *testing.T) {
	f, cleanup := newServiceFixture(t)
	defer cleanup()
	ctx := context.Background()

	f.addTrades(t,
		testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 10, 100, "2024-01-01"),
		testingpkg.NewTrade("u1", "TCS", domain.SideBuy, 1, 3000, "2024-01-01"),
	)
	_, err := f.svc.Recalculate(ctx, "u1")
	require.NoError(t, err)

	_, err = f.svc.RefreshPrices(ctx, "u1")
	require.NoError(t, err)

	infy, err := f.positions.GetBySymbol(ctx, "u1", "INFY")
	require.NoError(t, err)
	assert.InDelta(t, 150.0, infy.CurrentPrice, 1e-9)
	assert.InDelta(t, 1500.0, infy.CurrentValue, 1e-9)
	assert.InDelta(t, 500.0, infy.UnrealizedPL, 1e-9)
	assert.InDelta(t, 50.0, infy.UnrealizedPLPercent, 1e-9)

	tcs, err := f.positions.GetBySymbol(ctx, "u1", "TCS")
	require.NoError(t, err)
	assert.InDelta(t, 3000.0, tcs.CurrentPrice, 1e-9)
}

func TestPortfolioService_NoQuoteSource(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, database.NameTradebook)
	defer cleanup()
	log := testingpkg.NewTestLogger()

	positions := NewPositionRepository(db.Conn(), log)
	svc := NewPortfolioService(trading.NewTradeRepository(db.Conn(), log), positions, nil, utils.NewOwnerLocks(), log)

	p := domain.Position{OwnerID: "u1", Symbol: "INFY", Quantity: 1, AverageBuyPrice: 10, InvestedValue: 10, CurrentPrice: 10, CurrentValue: 10}
	require.NoError(t, positions.Upsert(context.Background(), &p))

	v, err := svc.Valuation(context.Background(), "u1")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, v.PortfolioValue, 1e-9)
}

type recordingPositions struct {
	domain.PositionStore
	deleted []domain.Position
}

func (r *recordingPositions) Delete(ctx context.Context, position domain.Position) error {
	r.deleted = append(r.deleted, position)
	return r.PositionStore.Delete(ctx, position)
}

func TestPortfolioService_RecalculateMovesExchange(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, database.NameTradebook)
	defer cleanup()
	ctx := context.Background()
	log := testingpkg.NewTestLogger()

	trades := trading.NewTradeRepository(db.Conn(), log)
	positions := &recordingPositions{PositionStore: NewPositionRepository(db.Conn(), log)}
	svc := NewPortfolioService(trades, positions, nil, utils.NewOwnerLocks(), log)

	bse := testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 5, 100, "2024-01-01")
	bse.Exchange = "BSE"
	nse := testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 5, 110, "2024-01-02")
	for _, tr := range []*domain.Trade{&bse, &nse} {
		_, err := trades.Create(ctx, tr)
		require.NoError(t, err)
	}
	_, err := svc.Recalculate(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, positions.deleted)

	require.NoError(t, trades.Delete(ctx, "u1", bse.ID))
	result, err := svc.Recalculate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Upserted)
	assert.Equal(t, 0, result.Deleted)

	require.Len(t, positions.deleted, 1)
	assert.Equal(t, "BSE", positions.deleted[0].Exchange)

	stored, err := positions.GetAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "NSE", stored[0].Exchange)
	assert.Equal(t, int64(5), stored[0].Quantity)
}
