package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/cryptocoins/internal/models"
)

func newPriceAPIStub(t *testing.T, hits *int64, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "inr", r.URL.Query().Get("vs_currencies"))
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func TestFetchPricesServesCacheWhileFresh(t *testing.T) {
	var hits int64
	server := newPriceAPIStub(t, &hits,
		`{"bitcoin":{"inr":3600000,"inr_24h_change":1.5}}`, http.StatusOK)
	defer server.Close()

	cache := NewPriceCache(5 * time.Minute)
	prices := NewPriceService(nil, server.URL, cache)
	ctx := context.Background()

	first, err := prices.FetchPrices(ctx, []string{"BTC"})
	require.NoError(t, err)
	require.Contains(t, first, "BTC")
	assert.True(t, first["BTC"].Price.Equal(decimal.NewFromInt(3600000)))
	assert.True(t, first["BTC"].Change24h.Equal(decimal.NewFromFloat(1.5)))

	second, err := prices.FetchPrices(ctx, []string{"BTC"})
	require.NoError(t, err)
	assert.True(t, second["BTC"].Price.Equal(decimal.NewFromInt(3600000)))
	assert.EqualValues(t, 1, atomic.LoadInt64(&hits), "fresh cache must short-circuit the fetch")
}

func TestFetchPricesServesStaleCacheOnUpstreamError(t *testing.T) {
	var hits int64
	server := newPriceAPIStub(t, &hits,
		`{"bitcoin":{"inr":3600000,"inr_24h_change":1.5}}`, http.StatusOK)

	cache := NewPriceCache(time.Nanosecond) // every entry is immediately stale
	prices := NewPriceService(nil, server.URL, cache)
	ctx := context.Background()

	_, err := prices.FetchPrices(ctx, []string{"BTC"})
	require.NoError(t, err)

	server.Close()

	quotes, err := prices.FetchPrices(ctx, []string{"BTC"})
	require.NoError(t, err)
	require.Contains(t, quotes, "BTC")
	assert.True(t, quotes["BTC"].Price.Equal(decimal.NewFromInt(3600000)),
		"stale cache beats the static fallback")
}

func TestFetchPricesFallsBackWithoutCache(t *testing.T) {
	var hits int64
	server := newPriceAPIStub(t, &hits, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	defer server.Close()

	cache := NewPriceCache(5 * time.Minute)
	prices := NewPriceService(nil, server.URL, cache)

	quotes, err := prices.FetchPrices(context.Background(), []string{"BTC", "ETH"})
	require.NoError(t, err)
	require.Contains(t, quotes, "BTC")
	require.Contains(t, quotes, "ETH")
	assert.True(t, quotes["BTC"].Price.Equal(decimal.NewFromInt(3500000)))
	assert.True(t, quotes["ETH"].Price.Equal(decimal.NewFromInt(250000)))
}

func TestFetchPricesRefetchesForUncachedSymbol(t *testing.T) {
	var hits int64
	server := newPriceAPIStub(t, &hits,
		`{"bitcoin":{"inr":3600000,"inr_24h_change":1.5},"ethereum":{"inr":260000,"inr_24h_change":-0.8}}`,
		http.StatusOK)
	defer server.Close()

	cache := NewPriceCache(5 * time.Minute)
	prices := NewPriceService(nil, server.URL, cache)
	ctx := context.Background()

	_, err := prices.FetchPrices(ctx, []string{"BTC"})
	require.NoError(t, err)

	// The cache is fresh but holds no ETH quote: it must not short-circuit.
	quote, err := prices.GetPrice(ctx, "ETH")
	require.NoError(t, err)
	assert.True(t, quote.Price.Equal(decimal.NewFromInt(260000)))
	assert.EqualValues(t, 2, atomic.LoadInt64(&hits))
}

func TestGetPriceUnknownSymbol(t *testing.T) {
	var hits int64
	server := newPriceAPIStub(t, &hits, `{}`, http.StatusOK)
	defer server.Close()

	cache := NewPriceCache(5 * time.Minute)
	prices := NewPriceService(nil, server.URL, cache)

	_, err := prices.GetPrice(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestRefreshCoinPrices(t *testing.T) {
	db := setupTestDB(t)

	var hits int64
	server := newPriceAPIStub(t, &hits,
		`{"bitcoin":{"inr":3600000,"inr_24h_change":1.5},"ethereum":{"inr":260000,"inr_24h_change":-0.8}}`,
		http.StatusOK)
	defer server.Close()

	btc := createTestCoin(t, db, "BTC", decimal.NewFromInt(1), true)
	eth := createTestCoin(t, db, "ETH", decimal.NewFromInt(1), true)
	dormant := createTestCoin(t, db, "LTC", decimal.NewFromInt(1), false)

	prices := NewPriceService(db, server.URL, NewPriceCache(5*time.Minute))
	updated, err := prices.RefreshCoinPrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	// Fresh destination per query: a populated primary key on the dest
	// struct would fold into the WHERE clause of the next lookup.
	var freshBTC models.Coin
	require.NoError(t, db.First(&freshBTC, "id = ?", btc.ID).Error)
	assert.True(t, freshBTC.CurrentPrice.Equal(decimal.NewFromInt(3600000)))
	assert.True(t, freshBTC.PriceChange24h.Equal(decimal.NewFromFloat(1.5)))

	var freshETH models.Coin
	require.NoError(t, db.First(&freshETH, "id = ?", eth.ID).Error)
	assert.True(t, freshETH.CurrentPrice.Equal(decimal.NewFromInt(260000)))

	// Inactive coins are left alone.
	var freshLTC models.Coin
	require.NoError(t, db.First(&freshLTC, "id = ?", dormant.ID).Error)
	assert.True(t, freshLTC.CurrentPrice.Equal(decimal.NewFromInt(1)))
}
