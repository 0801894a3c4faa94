package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a user's open holding of one token, with cost basis and live valuation.
type Position struct {
	Address string
	Name    string
	// Amount of tokens currently held.
	Amount decimal.Decimal
	// BuyPrice is the weighted-average entry price across all buys.
	BuyPrice     decimal.Decimal
	CurrentPrice decimal.Decimal
	MarketCap    decimal.Decimal
	Volume24h    decimal.Decimal
	// Invested is the cost basis of the currently held amount.
	Invested decimal.Decimal
	// CurrentValue, PnL and PnLPercent are derived and kept in sync with the
	// fields above; PnLPercent is zero when Invested is zero.
	CurrentValue decimal.Decimal
	PnL          decimal.Decimal
	PnLPercent   decimal.Decimal

	IsPumpFun         bool
	BondingCurvePrice decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPosition opens a position from a first buy. Current price starts at the
// buy price, so PnL starts at zero.
func NewPosition(address, name string, amount, price, marketCap, volume decimal.Decimal, now time.Time) *Position {
	p := &Position{
		Address:      NormalizeAddress(address),
		Name:         name,
		Amount:       amount,
		BuyPrice:     price,
		CurrentPrice: price,
		MarketCap:    marketCap,
		Volume24h:    volume,
		Invested:     amount.Mul(price),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	p.refreshDerived()
	return p
}

// AddBuy merges another buy into the position using weighted-average cost basis.
func (p *Position) AddBuy(amount, price, marketCap, volume decimal.Decimal, now time.Time) {
	total := p.Amount.Add(amount)
	if total.IsPositive() {
		existingNotional := p.BuyPrice.Mul(p.Amount)
		addedNotional := price.Mul(amount)
		p.BuyPrice = existingNotional.Add(addedNotional).Div(total)
	}
	p.Amount = total
	p.CurrentPrice = price
	p.MarketCap = marketCap
	p.Volume24h = volume
	p.Invested = p.Amount.Mul(p.BuyPrice)
	p.UpdatedAt = now
	p.refreshDerived()
}

// Reduce removes up to amount tokens from the position. It returns the amount
// actually removed and whether the position is now fully closed.
func (p *Position) Reduce(amount decimal.Decimal, now time.Time) (decimal.Decimal, bool) {
	if amount.GreaterThanOrEqual(p.Amount) {
		removed := p.Amount
		p.Amount = decimal.Zero
		return removed, true
	}
	p.Amount = p.Amount.Sub(amount)
	p.Invested = p.Amount.Mul(p.BuyPrice)
	p.UpdatedAt = now
	p.refreshDerived()
	return amount, false
}

// UpdateMarket overwrites the live market fields and recomputes valuation.
func (p *Position) UpdateMarket(price, marketCap, volume decimal.Decimal, now time.Time) {
	p.CurrentPrice = price
	p.MarketCap = marketCap
	p.Volume24h = volume
	p.UpdatedAt = now
	p.refreshDerived()
}

func (p *Position) refreshDerived() {
	p.CurrentValue = p.Amount.Mul(p.CurrentPrice)
	p.PnL = p.CurrentValue.Sub(p.Invested)
	if p.Invested.IsZero() {
		p.PnLPercent = decimal.Zero
		return
	}
	p.PnLPercent = p.PnL.Div(p.Invested).Mul(decimal.NewFromInt(100))
}
