package pricer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBirdeye_FetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/public/token", r.URL.Path)
		assert.Equal(t, "mint111111111111111111111111111111111111111", r.URL.Query().Get("address"))
		w.Write([]byte(`{
			"success": true,
			"data": {
				"name": "Bonk",
				"symbol": "BONK",
				"price": 0.000025,
				"market_cap": 1500000,
				"volume24h": 250000,
				"liquidity": 90000,
				"priceChange24h": -3.5
			}
		}`))
	}))
	defer srv.Close()

	provider := NewBirdeye(srv.URL, "", time.Second)
	quote, err := provider.FetchQuote(context.Background(), "mint111111111111111111111111111111111111111")
	require.NoError(t, err)

	assert.Equal(t, "Bonk", quote.Name)
	assert.Equal(t, "BONK", quote.Symbol)
	assert.Equal(t, "birdeye", quote.Source)
	assert.True(t, quote.Price.Equal(decimal.NewFromFloat(0.000025)))
	assert.True(t, quote.MarketCap.Equal(decimal.NewFromInt(1500000)))
	assert.True(t, quote.PriceChange24h.Equal(decimal.NewFromFloat(-3.5)))
	assert.False(t, quote.IsPumpFun)
}

func TestBirdeye_FetchQuote_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false}`))
	}))
	defer srv.Close()

	provider := NewBirdeye(srv.URL, "", time.Second)
	_, err := provider.FetchQuote(context.Background(), "addr")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestBirdeye_FetchQuote_MissingFieldsDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": {"price": 0.5}}`))
	}))
	defer srv.Close()

	provider := NewBirdeye(srv.URL, "", time.Second)
	quote, err := provider.FetchQuote(context.Background(), "addr")
	require.NoError(t, err)

	assert.Equal(t, "Unknown", quote.Name)
	assert.Equal(t, "UNKNOWN", quote.Symbol)
	assert.True(t, quote.MarketCap.IsZero())
	assert.True(t, quote.Volume24h.IsZero())
	assert.True(t, quote.Liquidity.IsZero())
}

func TestBirdeye_FetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/public/price", r.URL.Path)
		w.Write([]byte(`{"success": true, "data": {"value": 1.25}}`))
	}))
	defer srv.Close()

	provider := NewBirdeye(srv.URL, "", time.Second)
	sample, err := provider.FetchPrice(context.Background(), "addr")
	require.NoError(t, err)

	assert.True(t, sample.Price.Equal(decimal.NewFromFloat(1.25)))
	assert.True(t, sample.MarketCap.IsZero())
	assert.Equal(t, "birdeye", sample.Source)
}

func TestDexScreener_FetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/mintaddr", r.URL.Path)
		w.Write([]byte(`{
			"pairs": [
				{
					"dexId": "raydium",
					"baseToken": {"name": "Dogwifhat", "symbol": "WIF"},
					"priceUsd": "2.35",
					"volume": {"h24": 1200000},
					"liquidity": {"usd": 340000},
					"priceChange": {"h24": 12.8},
					"marketCap": 2300000000
				},
				{
					"dexId": "orca",
					"baseToken": {"name": "Dogwifhat", "symbol": "WIF"},
					"priceUsd": "2.36",
					"volume": {"h24": 100},
					"priceChange": {"h24": 1},
					"marketCap": 1
				}
			]
		}`))
	}))
	defer srv.Close()

	provider := NewDexScreener(srv.URL, time.Second)
	quote, err := provider.FetchQuote(context.Background(), "mintaddr")
	require.NoError(t, err)

	// first pair wins
	assert.Equal(t, "Dogwifhat", quote.Name)
	assert.True(t, quote.Price.Equal(decimal.NewFromFloat(2.35)))
	assert.True(t, quote.Liquidity.Equal(decimal.NewFromInt(340000)))
	assert.True(t, quote.PriceChange24h.Equal(decimal.NewFromFloat(12.8)))
	assert.Equal(t, "dexscreener", quote.Source)
}

func TestDexScreener_FetchQuote_EmptyPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs": []}`))
	}))
	defer srv.Close()

	provider := NewDexScreener(srv.URL, time.Second)
	_, err := provider.FetchQuote(context.Background(), "addr")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDexScreener_FetchQuote_NullLiquidityAndBadPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs": [{"baseToken": {}, "priceUsd": "not-a-number", "liquidity": null}]}`))
	}))
	defer srv.Close()

	provider := NewDexScreener(srv.URL, time.Second)
	quote, err := provider.FetchQuote(context.Background(), "addr")
	require.NoError(t, err)

	assert.Equal(t, "Unknown", quote.Name)
	assert.Equal(t, "UNKNOWN", quote.Symbol)
	assert.True(t, quote.Price.IsZero())
	assert.True(t, quote.Liquidity.IsZero())
}

func TestDexScreener_FetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs": [{"baseToken": {"name": "X", "symbol": "X"}, "priceUsd": "0.42", "volume": {"h24": 5000}, "marketCap": 900000}]}`))
	}))
	defer srv.Close()

	provider := NewDexScreener(srv.URL, time.Second)
	sample, err := provider.FetchPrice(context.Background(), "addr")
	require.NoError(t, err)

	assert.True(t, sample.Price.Equal(decimal.NewFromFloat(0.42)))
	assert.True(t, sample.MarketCap.Equal(decimal.NewFromInt(900000)))
	assert.True(t, sample.Volume24h.Equal(decimal.NewFromInt(5000)))
}

func TestPumpFun_FetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token/mintaddr", r.URL.Path)
		assert.Equal(t, "https://pump.fun", r.Header.Get("Origin"))
		w.Write([]byte(`{
			"name": "Fresh Launch",
			"symbol": "FRESH",
			"price": 0.0000012,
			"marketCap": 8000,
			"volume": 1500,
			"liquidity": 700,
			"bondingCurvePrice": 0.0000011
		}`))
	}))
	defer srv.Close()

	provider := NewPumpFun(srv.URL, time.Second)
	quote, err := provider.FetchQuote(context.Background(), "mintaddr")
	require.NoError(t, err)

	assert.True(t, quote.IsPumpFun)
	assert.True(t, quote.BondingCurvePrice.Equal(decimal.NewFromFloat(0.0000011)))
	assert.True(t, quote.PriceChange24h.IsZero())
	assert.Equal(t, "pump.fun", quote.Source)
}

func TestPumpFun_FetchQuote_NotFoundStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	provider := NewPumpFun(srv.URL, time.Second)
	_, err := provider.FetchQuote(context.Background(), "addr")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestPumpFun_FetchQuote_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	provider := NewPumpFun(srv.URL, time.Second)
	_, err := provider.FetchQuote(context.Background(), "addr")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestGetJSON_ServerErrorIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	provider := NewBirdeye(srv.URL, "", time.Second)
	_, err := provider.FetchQuote(context.Background(), "addr")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
}
