package pricer

import (
	"context"

	"github.com/ilkamo/jupiter-go/jupiter"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"solpaper/internal/domain"
)

const (
	solMint = "So11111111111111111111111111111111111111112"
	// probeLamports is the SOL amount quoted against the token to derive a
	// unit price: small enough to avoid price impact on thin pools.
	probeLamports  = 1000000 // 0.001 SOL
	probeSlippage  = 250
	jupiterDecimal = 9
)

// Jupiter derives a token price from the aggregator's swap-quote API, which
// answers for newer tokens long before the analytics feeds index them.
// Jupiter exposes no market stats, so those fields stay zero.
type Jupiter struct {
	client *jupiter.ClientWithResponses
}

func NewJupiter() (*Jupiter, error) {
	client, err := jupiter.NewClientWithResponses(jupiter.DefaultAPIURL)
	if err != nil {
		return nil, errors.Wrap(err, "create jupiter client")
	}
	return &Jupiter{client: client}, nil
}

func (j *Jupiter) Name() string { return "jupiter" }

func (j *Jupiter) FetchQuote(ctx context.Context, address string) (*domain.TokenQuote, error) {
	slippageBps := probeSlippage
	resp, err := j.client.GetQuoteWithResponse(ctx, &jupiter.GetQuoteParams{
		InputMint:   solMint,
		OutputMint:  address,
		Amount:      probeLamports,
		SlippageBps: &slippageBps,
	})
	if err != nil {
		return nil, errors.Wrap(err, "jupiter quote")
	}
	if resp.JSON200 == nil {
		// no route means the token is not tradable through the aggregator
		return nil, ErrNoData
	}

	outAmount, err := decimal.NewFromString(resp.JSON200.OutAmount)
	if err != nil || !outAmount.IsPositive() {
		return nil, ErrNoData
	}

	// price per token in SOL; token decimals are not part of the quote, so
	// assume 9 like the launch platforms mint by default
	price := decimal.New(probeLamports, -jupiterDecimal).Div(outAmount.Shift(-jupiterDecimal))

	return &domain.TokenQuote{
		Address: domain.NormalizeAddress(address),
		Name:    "Unknown",
		Symbol:  "UNKNOWN",
		Price:   price,
		Source:  j.Name(),
	}, nil
}
