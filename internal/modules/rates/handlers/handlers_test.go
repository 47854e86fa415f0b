package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fxrisk/internal/clientdata"
	"github.com/aristath/fxrisk/internal/clients/ratefeed"
	"github.com/aristath/fxrisk/internal/modules/rates"
	"github.com/aristath/fxrisk/internal/modules/settings"
	testhelpers "github.com/aristath/fxrisk/internal/testing"
)

// setupRouter wires a rates service whose feed client points at a closed
// port; only the from==to shortcut and the error paths touch GetRate.
func setupRouter(t *testing.T) (chi.Router, *rates.History) {
	t.Helper()

	cacheDB, cacheCleanup := testhelpers.NewTestDB(t, "client_data")
	t.Cleanup(cacheCleanup)

	cfgDB, cfgCleanup := testhelpers.NewTestDB(t, "config")
	t.Cleanup(cfgCleanup)

	history, err := rates.NewHistory(filepath.Join(t.TempDir(), "rate_history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	cacheRepo := clientdata.NewRepository(testhelpers.GetRawConnection(cacheDB))
	client := ratefeed.NewClient("http://127.0.0.1:1", "", cacheRepo, zerolog.Nop())

	service := rates.NewService(
		client,
		nil,
		history,
		rates.NewPairsRepository(testhelpers.GetRawConnection(cfgDB), zerolog.Nop()),
		settings.NewRepository(testhelpers.GetRawConnection(cfgDB), zerolog.Nop()),
		zerolog.Nop(),
	)

	router := chi.NewRouter()
	NewHandler(service, zerolog.Nop()).RegisterRoutes(router)

	return router, history
}

func do(t *testing.T, router chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlePairsLifecycle(t *testing.T) {
	router, _ := setupRouter(t)

	// Starts empty
	w := do(t, router, http.MethodGet, "/rates/pairs", "")
	require.Equal(t, http.StatusOK, w.Code)

	var listing map[string][]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&listing))
	assert.Empty(t, listing["pairs"])

	// Add normalizes the input
	w = do(t, router, http.MethodPost, "/rates/pairs", `{"pair": "eurusd"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var added map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&added))
	assert.Equal(t, "EUR/USD", added["pair"])

	w = do(t, router, http.MethodGet, "/rates/pairs", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&listing))
	assert.Equal(t, []string{"EUR/USD"}, listing["pairs"])

	// Remove accepts the dashed form used in URLs
	w = do(t, router, http.MethodDelete, "/rates/pairs/EUR-USD", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/rates/pairs", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&listing))
	assert.Empty(t, listing["pairs"])
}

func TestHandleAddPairRejectsInvalid(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"not a pair", `{"pair": "EURUSDX"}`},
		{"empty pair", `{"pair": ""}`},
		{"malformed body", `{oops`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/rates/pairs", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandleGetCurrentSameCurrency(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodGet, "/rates/current?from=USD&to=USD", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 1.0, body["rate"])
}

func TestHandleGetCurrentMissingParams(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodGet, "/rates/current?from=EUR", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetCurrentFeedDown(t *testing.T) {
	router, _ := setupRouter(t)

	// The client points at a closed port and the cache is empty
	w := do(t, router, http.MethodGet, "/rates/current?from=EUR&to=USD", "")
	require.Equal(t, http.StatusBadGateway, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Failed to get rate", body["error"])
}

func TestHandleGetHistory(t *testing.T) {
	router, history := setupRouter(t)

	now := time.Now().UTC()
	require.NoError(t, history.Record("EUR/USD", 1.0850, now.AddDate(0, 0, -2)))
	require.NoError(t, history.Record("EUR/USD", 1.0900, now.AddDate(0, 0, -1)))
	require.NoError(t, history.Record("GBP/USD", 1.2650, now))

	// The pair arrives compact because the canonical form contains a slash
	w := do(t, router, http.MethodGet, "/rates/history/EURUSD?days=7", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Pair   string            `json:"pair"`
		Days   int               `json:"days"`
		Points []rates.RatePoint `json:"points"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 7, body.Days)
	require.Len(t, body.Points, 2)
	assert.Equal(t, 1.0850, body.Points[0].Rate)
	assert.Equal(t, 1.0900, body.Points[1].Rate)
}

func TestHandleGetHistoryRejectsBadDays(t *testing.T) {
	router, _ := setupRouter(t)

	for _, days := range []string{"0", "-3", "soon"} {
		w := do(t, router, http.MethodGet, "/rates/history/EURUSD?days="+days, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "days=%s", days)
	}
}

func TestHandleStreamStatusWithoutStream(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodGet, "/rates/stream", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status rates.StreamStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.False(t, status.Enabled)
	assert.False(t, status.Connected)
	assert.True(t, status.CacheStale)
}
