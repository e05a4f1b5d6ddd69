package snapshot

import (
	"bytes"
	"context"
	"testing"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/domain"
	testingpkg "github.com/aristath/tradebook/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, database.NameTradebook)
	return NewStore(db.Conn(), testingpkg.NewTestLogger()), cleanup
}

func seed(t *testing.T, s *Store, ownerID string) {
	t.Helper()
	ctx := context.Background()
	for _, tr := range testingpkg.NewTradeFixtures(ownerID) {
		tr := tr
		_, err := s.trades.Create(ctx, &tr)
		require.NoError(t, err)
	}
	pos := domain.Position{
		OwnerID: ownerID, Symbol: "INFY", Exchange: "NSE", Quantity: 15,
		AverageBuyPrice: 110, InvestedValue: 1650, CurrentPrice: 110, CurrentValue: 1650,
	}
	require.NoError(t, s.positions.Upsert(ctx, &pos))
	profile := testingpkg.NewBrokerProfileFixture(ownerID)
	_, err := s.profiles.Create(ctx, &profile)
	require.NoError(t, err)
	_, err = s.watchlist.Add(ctx, &domain.WatchlistItem{OwnerID: ownerID, Symbol: "WIPRO"})
	require.NoError(t, err)
}

func TestStore_Load(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	seed(t, s, "u1")

	data, err := s.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, data.Trades, 4)
	assert.Len(t, data.Positions, 1)
	assert.Len(t, data.BrokerProfiles, 1)
	assert.Len(t, data.Watchlist, 1)
	assert.True(t, data.HasSyncedData())

	empty, err := s.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, empty.HasSyncedData())
}

func TestStore_ReplaceKeepsWatchlist(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()
	seed(t, s, "u1")

	replacement := &domain.Dataset{
		Trades: []domain.Trade{testingpkg.NewTrade("someone-else", "TCS", domain.SideBuy, 3, 3000, "2024-05-01")},
	}

	counts, err := s.Replace(ctx, "u1", replacement, ReplaceOptions{KeepWatchlist: true})
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Trades)

	data, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, data.Trades, 1)
	assert.Equal(t, "u1", data.Trades[0].OwnerID)
	assert.Equal(t, "TCS", data.Trades[0].Symbol)
	assert.Empty(t, data.Positions)
	assert.Empty(t, data.BrokerProfiles)
	assert.Len(t, data.Watchlist, 1)
}

func TestStore_ReplaceIsAtomic(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()
	seed(t, s, "u1")

	bad := testingpkg.NewTrade("u1", "TCS", domain.SideBuy, 0, 3000, "2024-05-01")
	replacement := &domain.Dataset{
		Trades: []domain.Trade{
			testingpkg.NewTrade("u1", "TCS", domain.SideBuy, 3, 3000, "2024-05-01"),
			bad,
		},
	}

	_, err := s.Replace(ctx, "u1", replacement, ReplaceOptions{})
	require.Error(t, err)

	data, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, data.Trades, 4)
	assert.Len(t, data.Positions, 1)
	assert.Len(t, data.BrokerProfiles, 1)
	assert.Len(t, data.Watchlist, 1)
}

func TestStore_ExportImportRoundTrip(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()
	seed(t, s, "u1")

	doc, err := s.Export(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, DocumentVersion, doc.Version)
	assert.Equal(t, "u1", doc.OwnerID)
	assert.False(t, doc.ExportDate.IsZero())

	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, doc))
	assert.Contains(t, buf.String(), `"brokerProfiles"`)
	assert.Contains(t, buf.String(), `"exportDate"`)

	decoded, err := ReadDocument(&buf)
	require.NoError(t, err)

	counts, err := s.Import(ctx, "u2", decoded)
	require.NoError(t, err)
	assert.Equal(t, Counts{Trades: 4, Positions: 1, BrokerProfiles: 1, Watchlist: 1}, *counts)

	original, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	imported, err := s.Load(ctx, "u2")
	require.NoError(t, err)

	require.Len(t, imported.Trades, len(original.Trades))
	for i := range original.Trades {
		a, b := original.Trades[i], imported.Trades[i]
		assert.NotEqual(t, a.ID, b.ID)
		assert.Equal(t, "u2", b.OwnerID)
		assert.Equal(t, a.Symbol, b.Symbol)
		assert.Equal(t, a.Side, b.Side)
		assert.Equal(t, a.Quantity, b.Quantity)
		assert.InDelta(t, a.NetAmount, b.NetAmount, 1e-9)
		assert.Equal(t, a.TradeDate, b.TradeDate)
	}
	require.Len(t, imported.Positions, 1)
	assert.Equal(t, original.Positions[0].Quantity, imported.Positions[0].Quantity)
	assert.InDelta(t, original.Positions[0].InvestedValue, imported.Positions[0].InvestedValue, 1e-9)
}

func TestStore_ImportRejectsBadDocuments(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()

	_, err := s.Import(context.Background(), "u1", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.Import(context.Background(), "u1", &Document{Version: DocumentVersion + 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ReadDocument(bytes.NewBufferString("{not json"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
