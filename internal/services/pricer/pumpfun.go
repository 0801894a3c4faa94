package pricer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"solpaper/internal/domain"
)

const defaultPumpFunURL = "https://api.pump.fun"

// PumpFun covers fresh launch-platform tokens that no analytics feed has
// indexed yet. The API gates on browser-looking requests and blocks bots
// intermittently; failures here are routine.
type PumpFun struct {
	baseURL    string
	httpClient *http.Client
}

func NewPumpFun(baseURL string, timeout time.Duration) *PumpFun {
	if baseURL == "" {
		baseURL = defaultPumpFunURL
	}
	return &PumpFun{
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout),
	}
}

func (p *PumpFun) Name() string { return "pump.fun" }

type pumpFunResponse struct {
	Name              string  `json:"name"`
	Symbol            string  `json:"symbol"`
	Price             float64 `json:"price"`
	MarketCap         float64 `json:"marketCap"`
	Volume            float64 `json:"volume"`
	Liquidity         float64 `json:"liquidity"`
	BondingCurvePrice float64 `json:"bondingCurvePrice"`
}

func (p *PumpFun) FetchQuote(ctx context.Context, address string) (*domain.TokenQuote, error) {
	var payload pumpFunResponse
	url := fmt.Sprintf("%s/token/%s", p.baseURL, address)
	headers := map[string]string{
		"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		"Origin":     "https://pump.fun",
		"Referer":    "https://pump.fun/",
	}
	if err := getJSON(ctx, p.httpClient, url, headers, &payload); err != nil {
		return nil, err
	}
	if payload.Name == "" && payload.Symbol == "" && payload.Price == 0 {
		return nil, ErrNoData
	}

	price := decimal.NewFromFloat(payload.Price)
	if price.IsNegative() {
		price = decimal.Zero
	}

	return &domain.TokenQuote{
		Address:           domain.NormalizeAddress(address),
		Name:              orUnknown(payload.Name, "Unknown"),
		Symbol:            orUnknown(payload.Symbol, "UNKNOWN"),
		Price:             price,
		MarketCap:         decimal.NewFromFloat(payload.MarketCap),
		Volume24h:         decimal.NewFromFloat(payload.Volume),
		Liquidity:         decimal.NewFromFloat(payload.Liquidity),
		Source:            p.Name(),
		IsPumpFun:         true,
		BondingCurvePrice: decimal.NewFromFloat(payload.BondingCurvePrice),
	}, nil
}
