package pricer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"solpaper/internal/domain"
)

const defaultDexScreenerURL = "https://api.dexscreener.com"

// DexScreener aggregates DEX pairs; the first pair returned for a token is
// treated as the canonical market, matching how its own UI orders results.
type DexScreener struct {
	baseURL    string
	httpClient *http.Client
}

func NewDexScreener(baseURL string, timeout time.Duration) *DexScreener {
	if baseURL == "" {
		baseURL = defaultDexScreenerURL
	}
	return &DexScreener{
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout),
	}
}

func (d *DexScreener) Name() string { return "dexscreener" }

type dexScreenerResponse struct {
	Pairs []dexScreenerPair `json:"pairs"`
}

type dexScreenerPair struct {
	DexID     string `json:"dexId"`
	BaseToken struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"baseToken"`
	// PriceUsd is string-typed on the wire.
	PriceUsd string `json:"priceUsd"`
	Volume   struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	// Liquidity is null for pairs without pooled data.
	Liquidity *struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	MarketCap float64 `json:"marketCap"`
}

func (d *DexScreener) FetchQuote(ctx context.Context, address string) (*domain.TokenQuote, error) {
	pair, err := d.firstPair(ctx, address)
	if err != nil {
		return nil, err
	}

	liquidity := decimal.Zero
	if pair.Liquidity != nil {
		liquidity = decimal.NewFromFloat(pair.Liquidity.Usd)
	}

	return &domain.TokenQuote{
		Address:        domain.NormalizeAddress(address),
		Name:           orUnknown(pair.BaseToken.Name, "Unknown"),
		Symbol:         orUnknown(pair.BaseToken.Symbol, "UNKNOWN"),
		Price:          parsePrice(pair.PriceUsd),
		MarketCap:      decimal.NewFromFloat(pair.MarketCap),
		Volume24h:      decimal.NewFromFloat(pair.Volume.H24),
		Liquidity:      liquidity,
		PriceChange24h: decimal.NewFromFloat(pair.PriceChange.H24),
		Source:         d.Name(),
	}, nil
}

// FetchPrice reuses the token endpoint; DexScreener has no slimmer one.
func (d *DexScreener) FetchPrice(ctx context.Context, address string) (*domain.PriceSample, error) {
	pair, err := d.firstPair(ctx, address)
	if err != nil {
		return nil, err
	}

	return &domain.PriceSample{
		Price:     parsePrice(pair.PriceUsd),
		MarketCap: decimal.NewFromFloat(pair.MarketCap),
		Volume24h: decimal.NewFromFloat(pair.Volume.H24),
		Source:    d.Name(),
	}, nil
}

func (d *DexScreener) firstPair(ctx context.Context, address string) (*dexScreenerPair, error) {
	var payload dexScreenerResponse
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", d.baseURL, address)
	headers := map[string]string{
		"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	}
	if err := getJSON(ctx, d.httpClient, url, headers, &payload); err != nil {
		return nil, err
	}
	if len(payload.Pairs) == 0 {
		return nil, ErrNoData
	}
	return &payload.Pairs[0], nil
}

// parsePrice tolerates malformed or missing price strings, mapping them to
// zero so a single bad field never fails the whole quote.
func parsePrice(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		return decimal.Zero
	}
	return price
}
