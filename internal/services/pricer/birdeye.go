package pricer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"solpaper/internal/domain"
)

const defaultBirdeyeURL = "https://public-api.birdeye.so"

// Birdeye is the highest-priority provider for Solana tokens. The public
// endpoints answer basic token info without an API key.
type Birdeye struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewBirdeye(baseURL, apiKey string, timeout time.Duration) *Birdeye {
	if baseURL == "" {
		baseURL = defaultBirdeyeURL
	}
	return &Birdeye{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: newHTTPClient(timeout),
	}
}

func (b *Birdeye) Name() string { return "birdeye" }

type birdeyeTokenResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		Name           string  `json:"name"`
		Symbol         string  `json:"symbol"`
		Price          float64 `json:"price"`
		MarketCap      float64 `json:"market_cap"`
		Volume24h      float64 `json:"volume24h"`
		Liquidity      float64 `json:"liquidity"`
		PriceChange24h float64 `json:"priceChange24h"`
	} `json:"data"`
}

func (b *Birdeye) FetchQuote(ctx context.Context, address string) (*domain.TokenQuote, error) {
	var payload birdeyeTokenResponse
	url := fmt.Sprintf("%s/public/token?address=%s", b.baseURL, address)
	if err := getJSON(ctx, b.httpClient, url, b.headers(), &payload); err != nil {
		return nil, err
	}
	if !payload.Success || payload.Data == nil {
		return nil, ErrNoData
	}

	data := payload.Data
	price := decimal.NewFromFloat(data.Price)
	if price.IsNegative() {
		price = decimal.Zero
	}

	return &domain.TokenQuote{
		Address:        domain.NormalizeAddress(address),
		Name:           orUnknown(data.Name, "Unknown"),
		Symbol:         orUnknown(data.Symbol, "UNKNOWN"),
		Price:          price,
		MarketCap:      decimal.NewFromFloat(data.MarketCap),
		Volume24h:      decimal.NewFromFloat(data.Volume24h),
		Liquidity:      decimal.NewFromFloat(data.Liquidity),
		PriceChange24h: decimal.NewFromFloat(data.PriceChange24h),
		Source:         b.Name(),
	}, nil
}

type birdeyePriceResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		Value float64 `json:"value"`
	} `json:"data"`
}

// FetchPrice serves the position-refresh path via the lighter price endpoint.
// Birdeye reports only the price there, so market cap and volume stay zero.
func (b *Birdeye) FetchPrice(ctx context.Context, address string) (*domain.PriceSample, error) {
	var payload birdeyePriceResponse
	url := fmt.Sprintf("%s/public/price?address=%s", b.baseURL, address)
	if err := getJSON(ctx, b.httpClient, url, b.headers(), &payload); err != nil {
		return nil, err
	}
	if !payload.Success || payload.Data == nil {
		return nil, ErrNoData
	}

	price := decimal.NewFromFloat(payload.Data.Value)
	if price.IsNegative() {
		price = decimal.Zero
	}

	return &domain.PriceSample{
		Price:  price,
		Source: b.Name(),
	}, nil
}

func (b *Birdeye) headers() map[string]string {
	return map[string]string{
		"X-API-KEY":  b.apiKey,
		"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	}
}
