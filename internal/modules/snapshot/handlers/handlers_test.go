package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/modules/snapshot"
	"github.com/aristath/tradebook/internal/modules/trading"
	testingpkg "github.com/aristath/tradebook/internal/testing"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportThenImport(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, database.NameTradebook)
	defer cleanup()

	log := testingpkg.NewTestLogger()
	trades := trading.NewTradeRepository(db.Conn(), log)
	for _, trade := range testingpkg.NewTradeFixtures("u1") {
		trade := trade
		_, err := trades.Create(context.Background(), &trade)
		require.NoError(t, err)
	}

	router := chi.NewRouter()
	router.Route("/api/owners/{ownerID}", NewHandler(snapshot.NewStore(db.Conn(), log), utils.NewOwnerLocks(), log).RegisterRoutes)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/owners/u1/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "tradebook-u1-")

	var doc snapshot.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, snapshot.DocumentVersion, doc.Version)
	assert.Len(t, doc.Trades, 4)

	body, err := json.Marshal(doc)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/owners/u2/import", strings.NewReader(string(body))))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var counts snapshot.Counts
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, 4, counts.Trades)

	imported, err := trades.GetAll(context.Background(), "u2")
	require.NoError(t, err)
	assert.Len(t, imported, 4)
}

func TestImport_RejectsBadDocument(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, database.NameTradebook)
	defer cleanup()

	log := testingpkg.NewTestLogger()
	router := chi.NewRouter()
	router.Route("/api/owners/{ownerID}", NewHandler(snapshot.NewStore(db.Conn(), log), utils.NewOwnerLocks(), log).RegisterRoutes)

	for _, body := range []string{`not json`, `{"version":99}`} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/owners/u1/import", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}
