package pricer

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const solUsdSymbol = "SOLUSDT"

// SolPricer fetches the SOL/USDT spot price from the Binance public API
// without authentication, so portfolio snapshots can carry a USD valuation.
type SolPricer struct {
	client *binance.Client
}

func NewSolPricer(client *binance.Client) *SolPricer {
	return &SolPricer{client: client}
}

// USDPrice returns the last traded SOL price in USD terms.
func (p *SolPricer) USDPrice(ctx context.Context) (decimal.Decimal, error) {
	prices, err := p.client.NewListPricesService().Symbol(solUsdSymbol).Do(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if len(prices) == 0 {
		return decimal.Decimal{}, errors.Errorf("binance API returned empty prices for %s", solUsdSymbol)
	}
	return decimal.NewFromString(prices[0].Price)
}
