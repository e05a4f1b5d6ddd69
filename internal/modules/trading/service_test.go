package trading

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/tradebook/internal/domain"
	testingpkg "github.com/aristath/tradebook/internal/testing"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockRecalculator is a mock implementation of PositionRecalculator
type mockRecalculator struct {
	mock.Mock
}

func (m *mockRecalculator) RecalculatePositions(ctx context.Context, ownerID string) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

func newTestService(t *testing.T) (*TradingService, *TradeRepository, *mockRecalculator, func()) {
	t.Helper()
	repo, cleanup := newTestRepo(t)
	recalc := new(mockRecalculator)
	svc := NewTradingService(repo, recalc, utils.NewOwnerLocks(), testingpkg.NewTestLogger())
	return svc, repo, recalc, cleanup
}

func TestTradingService_AddTrade(t *testing.T) {
	svc, repo, recalc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	recalc.On("RecalculatePositions", mock.Anything, "u1").Return(nil).Once()

	trade, err := svc.AddTrade(ctx, domain.Trade{
		OwnerID:   "u1",
		Symbol:    " infy ",
		Exchange:  "nse",
		Side:      "buy",
		Quantity:  10,
		Price:     100,
		Brokerage: 15,
		Taxes:     5,
		TradeDate: "2024-01-10",
	})
	require.NoError(t, err)
	assert.Equal(t, "INFY", trade.Symbol)
	assert.Equal(t, "NSE", trade.Exchange)
	assert.InDelta(t, 1000.0, trade.Amount, 1e-9)
	assert.InDelta(t, 1020.0, trade.NetAmount, 1e-9)
	assert.Equal(t, domain.SourceManual, trade.Source)

	stored, err := repo.Get(ctx, "u1", trade.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1020.0, stored.NetAmount, 1e-9)

	recalc.AssertExpectations(t)
}

func TestTradingService_AddTradeSellNetAmount(t *testing.T) {
	svc, _, recalc, cleanup := newTestService(t)
	defer cleanup()

	recalc.On("RecalculatePositions", mock.Anything, "u1").Return(nil)

	trade, err := svc.AddTrade(context.Background(), domain.Trade{
		OwnerID: "u1", Symbol: "INFY", Side: domain.SideSell,
		Quantity: 4, Price: 150, Brokerage: 10, Taxes: 2, TradeDate: "2024-02-01",
	})
	require.NoError(t, err)
	assert.InDelta(t, 600.0, trade.Amount, 1e-9)
	assert.InDelta(t, 588.0, trade.NetAmount, 1e-9)
}

func TestTradingService_AddTradeInvalidSkipsRecalc(t *testing.T) {
	svc, _, recalc, cleanup := newTestService(t)
	defer cleanup()

	_, err := svc.AddTrade(context.Background(), domain.Trade{
		OwnerID: "u1", Symbol: "INFY", Side: domain.SideBuy,
		Quantity: 0, Price: 100, TradeDate: "2024-01-10",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	recalc.AssertNotCalled(t, "RecalculatePositions", mock.Anything, mock.Anything)
}

func TestTradingService_AddTradeRecalcFailure(t *testing.T) {
	svc, repo, recalc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	recalc.On("RecalculatePositions", mock.Anything, "u1").Return(errors.New("boom"))

	trade, err := svc.AddTrade(ctx, testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 1, 10, "2024-01-10"))
	require.Error(t, err)
	require.NotNil(t, trade)

	_, getErr := repo.Get(ctx, "u1", trade.ID)
	assert.NoError(t, getErr)
}

func TestTradingService_UpdateTrade(t *testing.T) {
	svc, _, recalc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	recalc.On("RecalculatePositions", mock.Anything, "u1").Return(nil)

	trade, err := svc.AddTrade(ctx, testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 10, 100, "2024-01-10"))
	require.NoError(t, err)

	qty := int64(20)
	fee := 40.0
	updated, err := svc.UpdateTrade(ctx, "u1", trade.ID, TradeUpdate{Quantity: &qty, Brokerage: &fee})
	require.NoError(t, err)
	assert.Equal(t, int64(20), updated.Quantity)
	assert.InDelta(t, 2000.0, updated.Amount, 1e-9)
	assert.InDelta(t, 2040.0, updated.NetAmount, 1e-9)
	assert.Equal(t, "2024-01-10", updated.TradeDate)

	recalc.AssertNumberOfCalls(t, "RecalculatePositions", 2)
}

func TestTradingService_UpdateTradeRejectsInvalid(t *testing.T) {
	svc, repo, recalc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	recalc.On("RecalculatePositions", mock.Anything, "u1").Return(nil)
	trade, err := svc.AddTrade(ctx, testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 10, 100, "2024-01-10"))
	require.NoError(t, err)

	price := 0.0
	_, err = svc.UpdateTrade(ctx, "u1", trade.ID, TradeUpdate{Price: &price})
	assert.ErrorIs(t, err, domain.ErrValidation)

	stored, err := repo.Get(ctx, "u1", trade.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, stored.Price, 1e-9)
}

func TestTradingService_DeleteTrade(t *testing.T) {
	svc, _, recalc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	recalc.On("RecalculatePositions", mock.Anything, "u1").Return(nil)
	trade, err := svc.AddTrade(ctx, testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 10, 100, "2024-01-10"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTrade(ctx, "u1", trade.ID))
	assert.ErrorIs(t, svc.DeleteTrade(ctx, "u1", trade.ID), domain.ErrNotFound)
	recalc.AssertNumberOfCalls(t, "RecalculatePositions", 2)
}

func TestTradingService_ImportBrokerTradesSkipsDuplicates(t *testing.T) {
	svc, repo, recalc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	recalc.On("RecalculatePositions", mock.Anything, "u1").Return(nil)

	_, err := svc.AddTrade(ctx, testingpkg.NewTrade("u1", "INFY", domain.SideBuy, 10, 100, "2024-01-10"))
	require.NoError(t, err)

	incoming := []domain.Trade{
		testingpkg.NewTrade("", "INFY", domain.SideBuy, 10, 100, "2024-01-10"),
		testingpkg.NewTrade("", "TCS", domain.SideBuy, 2, 3000, "2024-01-12"),
		testingpkg.NewTrade("", "TCS", domain.SideBuy, 2, 3000, "2024-01-12"),
	}

	result, err := svc.ImportBrokerTrades(ctx, "u1", incoming)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Skipped)

	all, err := repo.GetAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.SourceBrokerImport, all[1].Source)

	recalc.AssertNumberOfCalls(t, "RecalculatePositions", 2)
}

func TestTradingService_ImportBrokerTradesNothingNewSkipsRecalc(t *testing.T) {
	svc, _, recalc, cleanup := newTestService(t)
	defer cleanup()

	result, err := svc.ImportBrokerTrades(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	recalc.AssertNotCalled(t, "RecalculatePositions", mock.Anything, mock.Anything)
}

func TestTradingService_ImportBrokerTradesRejectsInvalidBatch(t *testing.T) {
	svc, repo, _, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	incoming := []domain.Trade{
		testingpkg.NewTrade("", "INFY", domain.SideBuy, 10, 100, "2024-01-10"),
		testingpkg.NewTrade("", "TCS", domain.SideBuy, 0, 3000, "2024-01-12"),
	}

	_, err := svc.ImportBrokerTrades(ctx, "u1", incoming)
	assert.ErrorIs(t, err, domain.ErrValidation)

	all, err := repo.GetAll(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, all)
}
