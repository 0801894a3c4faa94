package domain

import "github.com/shopspring/decimal"

// TokenQuote is the canonical view of one token as resolved from a price
// provider. Fields a provider does not know are zero ("Unknown"/"UNKNOWN"
// for name and symbol); Source names the provider that answered.
type TokenQuote struct {
	Address        string
	Name           string
	Symbol         string
	Price          decimal.Decimal
	MarketCap      decimal.Decimal
	Volume24h      decimal.Decimal
	Liquidity      decimal.Decimal
	PriceChange24h decimal.Decimal
	Source         string

	IsPumpFun         bool
	BondingCurvePrice decimal.Decimal
}

// PriceSample is the slim refresh payload for an already-held position:
// live market numbers only, no identity fields.
type PriceSample struct {
	Price     decimal.Decimal
	MarketCap decimal.Decimal
	Volume24h decimal.Decimal
	Source    string
}
