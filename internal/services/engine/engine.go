// Package engine implements the simulated trading protocol on top of the
// price resolver and the account ledger.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solpaper/internal/domain"
	"solpaper/internal/metrics"
	"solpaper/internal/storage/accounts"
)

var (
	// ErrInvalidAddress rejects strings that do not look like a contract address.
	ErrInvalidAddress = errors.New("invalid contract address format")
	// ErrNoPendingBuy means the caller skipped the quote step of the two-phase buy.
	ErrNoPendingBuy = errors.New("no pending buy operation")
	// ErrPositionNotFound means the user holds no position for the token.
	ErrPositionNotFound = errors.New("no position found for this token")
	// ErrInvalidAmount rejects non-positive amounts and percentages.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrZeroPrice guards the buy division; the resolver contract should make
	// it unreachable, but a zero-priced quote must never mint infinite tokens.
	ErrZeroPrice = errors.New("token price is zero")
)

// QuoteResolver is the engine's view of the price resolution pipeline.
type QuoteResolver interface {
	Resolve(ctx context.Context, address string) (*domain.TokenQuote, error)
	ResolveCurrent(ctx context.Context, address string) (*domain.PriceSample, error)
}

// USDPricer optionally values portfolio snapshots in USD.
type USDPricer interface {
	USDPrice(ctx context.Context) (decimal.Decimal, error)
}

// PendingBuy is the intermediate state between quoting a token and the user
// confirming a SOL amount. At most one exists per user.
type PendingBuy struct {
	Quote     domain.TokenQuote
	CreatedAt time.Time
}

// BuyResult reports an executed buy.
type BuyResult struct {
	Position    *domain.Position
	TokenAmount decimal.Decimal
	SolAmount   decimal.Decimal
	Price       decimal.Decimal
	Source      string
	IsPumpFun   bool
	NewBalance  decimal.Decimal
}

// SellResult reports an executed sell.
type SellResult struct {
	SoldAmount  decimal.Decimal
	Proceeds    decimal.Decimal
	RealizedPnL decimal.Decimal
	Price       decimal.Decimal
	Source      string
	NewBalance  decimal.Decimal
}

// PortfolioSnapshot is the refreshed view of one account.
type PortfolioSnapshot struct {
	Balance   decimal.Decimal
	Positions []domain.Position
	// TotalValue is balance plus the current value of every position, in SOL.
	TotalValue decimal.Decimal
	// TotalValueUSD is zero when no USD reference price was available.
	TotalValueUSD decimal.Decimal
}

// Engine drives the per-user buy/sell/refresh protocol. Every ledger mutation
// for one account runs under that account's lock, so the chat layer may
// handle updates concurrently without corrupting balances.
type Engine struct {
	resolver  QuoteResolver
	store     *accounts.Store
	usdPricer USDPricer
	logger    *zap.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]*PendingBuy
}

// New creates a trading engine. usdPricer may be nil.
func New(logger *zap.Logger, resolver QuoteResolver, store *accounts.Store, usdPricer USDPricer) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		resolver:  resolver,
		store:     store,
		usdPricer: usdPricer,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
		pending:   make(map[string]*PendingBuy),
	}
}

// Account returns the caller's account, creating it on first reference.
func (e *Engine) Account(userID string) *domain.Account {
	return e.store.GetOrCreate(userID)
}

// StartBuy verifies the token across providers and parks the quote as the
// user's pending buy, overwriting any prior one.
func (e *Engine) StartBuy(ctx context.Context, userID, address string) (*domain.TokenQuote, error) {
	if !domain.ValidAddress(address) {
		return nil, ErrInvalidAddress
	}

	quote, err := e.resolver.Resolve(ctx, address)
	if err != nil {
		return nil, errors.Wrap(err, "token verification failed")
	}

	e.pendingMu.Lock()
	e.pending[userID] = &PendingBuy{Quote: *quote, CreatedAt: time.Now()}
	e.pendingMu.Unlock()

	return quote, nil
}

// CompleteBuy commits the user's pending buy with the confirmed SOL amount.
// Recoverable rejections (bad amount, insufficient balance) keep the pending
// buy so the user can retry with a smaller amount without re-quoting.
func (e *Engine) CompleteBuy(ctx context.Context, userID string, solAmount decimal.Decimal) (*BuyResult, error) {
	if solAmount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	pending := e.pendingBuy(userID)
	if pending == nil {
		return nil, ErrNoPendingBuy
	}

	account := e.store.GetOrCreate(userID)
	if account.Balance.LessThan(solAmount) {
		return nil, errors.Wrapf(domain.ErrInsufficientFunds, "you have %s SOL", account.Balance.String())
	}

	quote := pending.Quote
	if !quote.Price.IsPositive() {
		// terminal: the quote can never execute, drop it
		e.consumePendingBuy(userID)
		return nil, ErrZeroPrice
	}

	tokenAmount := solAmount.Div(quote.Price)

	account.Balance = account.Balance.Sub(solAmount)
	position := account.AddPosition(quote.Address, quote.Name, tokenAmount, quote.Price, quote.MarketCap, quote.Volume24h)
	if quote.IsPumpFun {
		position.IsPumpFun = true
		position.BondingCurvePrice = quote.BondingCurvePrice
	}

	account.History = append(account.History, domain.TradeRecord{
		ID:           uuid.NewString(),
		Type:         domain.TradeTypeBuy,
		TokenAddress: quote.Address,
		TokenName:    quote.Name,
		TokenAmount:  tokenAmount,
		SolAmount:    solAmount,
		Price:        quote.Price,
		Source:       quote.Source,
		Time:         time.Now(),
	})
	metrics.Trades.WithLabelValues(string(domain.TradeTypeBuy)).Inc()

	e.consumePendingBuy(userID)

	e.logger.Info("buy executed",
		zap.String("user", userID),
		zap.String("token", quote.Symbol),
		zap.String("sol_amount", solAmount.String()),
		zap.String("price", quote.Price.String()),
		zap.String("source", quote.Source))

	return &BuyResult{
		Position:    position,
		TokenAmount: tokenAmount,
		SolAmount:   solAmount,
		Price:       quote.Price,
		Source:      quote.Source,
		IsPumpFun:   quote.IsPumpFun,
		NewBalance:  account.Balance,
	}, nil
}

// SellPosition sells percent of the user's position in the token. The
// position is refreshed first so the sell executes against fresh data; if no
// provider answers, it executes against the last known price instead of
// failing.
func (e *Engine) SellPosition(ctx context.Context, userID, address string, percent decimal.Decimal) (*SellResult, error) {
	hundred := decimal.NewFromInt(100)
	if percent.LessThanOrEqual(decimal.Zero) || percent.GreaterThan(hundred) {
		return nil, ErrInvalidAmount
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	account := e.store.Get(userID)
	if account == nil {
		return nil, ErrPositionNotFound
	}
	position := account.Position(address)
	if position == nil {
		return nil, ErrPositionNotFound
	}

	priceSource := "last known"
	sample, err := e.resolver.ResolveCurrent(ctx, position.Address)
	if err != nil {
		e.logger.Warn("selling against last known price, refresh failed",
			zap.String("user", userID),
			zap.String("token", position.Name),
			zap.Error(err))
	} else {
		account.UpdatePositionPrice(position.Address, sample.Price, sample.MarketCap, sample.Volume24h)
		priceSource = sample.Source
	}

	fraction := percent.Div(hundred)
	sellAmount := position.Amount.Mul(fraction)
	price := position.CurrentPrice
	proceeds := sellAmount.Mul(price)
	realizedPnL := position.PnL.Mul(fraction)
	name := position.Name

	account.Balance = account.Balance.Add(proceeds)
	soldAmount := account.RemovePosition(position.Address, sellAmount)

	account.History = append(account.History, domain.TradeRecord{
		ID:           uuid.NewString(),
		Type:         domain.TradeTypeSell,
		TokenAddress: position.Address,
		TokenName:    name,
		TokenAmount:  soldAmount,
		SolAmount:    proceeds,
		Price:        price,
		PnL:          realizedPnL,
		Source:       priceSource,
		Time:         time.Now(),
	})
	metrics.Trades.WithLabelValues(string(domain.TradeTypeSell)).Inc()

	e.logger.Info("sell executed",
		zap.String("user", userID),
		zap.String("token", name),
		zap.String("sold_amount", soldAmount.String()),
		zap.String("proceeds", proceeds.String()))

	return &SellResult{
		SoldAmount:  soldAmount,
		Proceeds:    proceeds,
		RealizedPnL: realizedPnL,
		Price:       price,
		Source:      priceSource,
		NewBalance:  account.Balance,
	}, nil
}

// RefreshPortfolio revalues every open position. A position whose feeds are
// all down keeps its last known values; the snapshot always completes.
func (e *Engine) RefreshPortfolio(ctx context.Context, userID string) (*PortfolioSnapshot, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	account := e.store.GetOrCreate(userID)

	total := account.Balance
	positions := make([]domain.Position, 0, len(account.Positions))

	for _, position := range account.Positions {
		sample, err := e.resolver.ResolveCurrent(ctx, position.Address)
		if err != nil {
			e.logger.Warn("could not refresh position",
				zap.String("user", userID),
				zap.String("token", position.Name),
				zap.Error(err))
		} else {
			account.UpdatePositionPrice(position.Address, sample.Price, sample.MarketCap, sample.Volume24h)
		}
		total = total.Add(position.CurrentValue)
		positions = append(positions, *position)
	}

	snapshot := &PortfolioSnapshot{
		Balance:    account.Balance,
		Positions:  positions,
		TotalValue: total,
	}

	if e.usdPricer != nil {
		usd, err := e.usdPricer.USDPrice(ctx)
		if err != nil {
			e.logger.Debug("usd valuation unavailable", zap.Error(err))
		} else {
			snapshot.TotalValueUSD = total.Mul(usd)
		}
	}

	return snapshot, nil
}

// Deposit credits the user's simulated balance.
func (e *Engine) Deposit(userID string, amount decimal.Decimal) (*domain.Account, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	account := e.store.GetOrCreate(userID)
	if err := account.Deposit(amount); err != nil {
		return nil, err
	}
	metrics.Trades.WithLabelValues(string(domain.TradeTypeDeposit)).Inc()
	return account, nil
}

// Withdraw debits the user's simulated balance.
func (e *Engine) Withdraw(userID string, amount decimal.Decimal) (*domain.Account, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	account := e.store.GetOrCreate(userID)
	if err := account.Withdraw(amount); err != nil {
		return nil, err
	}
	metrics.Trades.WithLabelValues(string(domain.TradeTypeWithdrawal)).Inc()
	return account, nil
}

// UpdateSettings overwrites the user's feature toggles.
func (e *Engine) UpdateSettings(userID string, settings domain.Settings) *domain.Account {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	account := e.store.GetOrCreate(userID)
	account.UpdateSettings(settings)
	return account
}

func (e *Engine) userLock(userID string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	lock, ok := e.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[userID] = lock
	}
	return lock
}

func (e *Engine) pendingBuy(userID string) *PendingBuy {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	return e.pending[userID]
}

func (e *Engine) consumePendingBuy(userID string) {
	e.pendingMu.Lock()
	delete(e.pending, userID)
	e.pendingMu.Unlock()
}
