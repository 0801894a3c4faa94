package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is returned when a debit exceeds the account balance.
var ErrInsufficientFunds = errors.New("insufficient SOL balance")

// TradeType classifies ledger history entries.
type TradeType string

const (
	TradeTypeDeposit    TradeType = "DEPOSIT"
	TradeTypeWithdrawal TradeType = "WITHDRAWAL"
	TradeTypeBuy        TradeType = "BUY"
	TradeTypeSell       TradeType = "SELL"
)

// TradeRecord is one append-only entry in an account's trade history.
type TradeRecord struct {
	ID           string
	Type         TradeType
	TokenAddress string
	TokenName    string
	TokenAmount  decimal.Decimal
	SolAmount    decimal.Decimal
	Price        decimal.Decimal
	// PnL is the realized profit and loss, set only for SELL records.
	PnL decimal.Decimal
	// Source attributes the trade to the provider that priced it.
	Source string
	// NewBalance is the balance after a DEPOSIT or WITHDRAWAL.
	NewBalance decimal.Decimal
	Time       time.Time
}

// Settings holds per-account feature toggles.
type Settings struct {
	AutoRefresh   bool
	Notifications bool
}

// Account is one user's simulated ledger: balance, open positions and trade
// history. Accounts live for the lifetime of the process and are mutated only
// under the owning engine's per-user lock.
type Account struct {
	UserID    string
	Balance   decimal.Decimal
	Positions []*Position
	History   []TradeRecord
	Settings  Settings
	CreatedAt time.Time
}

// NewAccount creates an account with the given starting balance.
func NewAccount(userID string, startingBalance decimal.Decimal) *Account {
	return &Account{
		UserID:  userID,
		Balance: startingBalance,
		Settings: Settings{
			AutoRefresh:   true,
			Notifications: true,
		},
		CreatedAt: time.Now(),
	}
}

// Deposit credits the balance and appends a DEPOSIT history entry.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("deposit amount must be positive")
	}
	a.Balance = a.Balance.Add(amount)
	a.History = append(a.History, TradeRecord{
		ID:         uuid.NewString(),
		Type:       TradeTypeDeposit,
		SolAmount:  amount,
		NewBalance: a.Balance,
		Time:       time.Now(),
	})
	return nil
}

// Withdraw debits the balance and appends a WITHDRAWAL history entry. On
// insufficient balance it returns ErrInsufficientFunds and leaves the ledger
// untouched.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("withdrawal amount must be positive")
	}
	if a.Balance.LessThan(amount) {
		return errors.Wrapf(ErrInsufficientFunds, "have %s", a.Balance.String())
	}
	a.Balance = a.Balance.Sub(amount)
	a.History = append(a.History, TradeRecord{
		ID:         uuid.NewString(),
		Type:       TradeTypeWithdrawal,
		SolAmount:  amount,
		NewBalance: a.Balance,
		Time:       time.Now(),
	})
	return nil
}

// Position returns the open position for the address, or nil.
func (a *Account) Position(address string) *Position {
	address = NormalizeAddress(address)
	for _, p := range a.Positions {
		if p.Address == address {
			return p
		}
	}
	return nil
}

// AddPosition records a buy. A repeated buy into an already-held token merges
// into the existing position with weighted-average cost basis, so an account
// never holds two positions for one address.
func (a *Account) AddPosition(address, name string, amount, price, marketCap, volume decimal.Decimal) *Position {
	now := time.Now()
	if existing := a.Position(address); existing != nil {
		existing.AddBuy(amount, price, marketCap, volume, now)
		return existing
	}
	position := NewPosition(address, name, amount, price, marketCap, volume, now)
	a.Positions = append(a.Positions, position)
	return position
}

// RemovePosition sells amount tokens out of the position for the address.
// Selling the full held amount (or more) deletes the position. It returns the
// amount actually removed; zero when no position exists.
func (a *Account) RemovePosition(address string, amount decimal.Decimal) decimal.Decimal {
	address = NormalizeAddress(address)
	for i, p := range a.Positions {
		if p.Address != address {
			continue
		}
		removed, closed := p.Reduce(amount, time.Now())
		if closed {
			a.Positions = append(a.Positions[:i], a.Positions[i+1:]...)
		}
		return removed
	}
	return decimal.Zero
}

// UpdatePositionPrice refreshes the live market fields of the position for the
// address. It is a no-op when no position matches.
func (a *Account) UpdatePositionPrice(address string, price, marketCap, volume decimal.Decimal) {
	if p := a.Position(address); p != nil {
		p.UpdateMarket(price, marketCap, volume, time.Now())
	}
}

// UpdateSettings overwrites the account's feature toggles.
func (a *Account) UpdateSettings(settings Settings) {
	a.Settings = settings
}
