// Package telegram adapts the trading engine to a Telegram chat. It holds
// conversation state and formatting only; all business rules live in the
// engine.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solpaper/internal/domain"
	"solpaper/internal/services/engine"
	"solpaper/internal/services/pricer"
)

type action string

const (
	awaitingCA             action = "awaiting_ca"
	awaitingBuyAmount      action = "awaiting_buy_amount"
	awaitingSellChoice     action = "awaiting_sell_choice"
	awaitingDepositAmount  action = "awaiting_deposit"
	awaitingWithdrawAmount action = "awaiting_withdraw"
)

// userState tracks where a user is in a multi-step conversation.
type userState struct {
	action action
	// sellOptions maps the numbers shown in the /sell list to token addresses.
	sellOptions []string
}

type Bot struct {
	api    *tgbotapi.BotAPI
	engine *engine.Engine
	logger *zap.Logger

	mu     sync.Mutex
	states map[int64]*userState
}

func NewBot(token string, eng *engine.Engine, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "create telegram bot")
	}

	return &Bot{
		api:    api,
		engine: eng,
		logger: logger,
		states: make(map[int64]*userState),
	}, nil
}

// Run consumes updates until ctx is cancelled. Each message is handled in its
// own goroutine; per-account serialization happens inside the engine.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)
	b.logger.Info("telegram bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := strconv.FormatInt(message.From.ID, 10)
	text := strings.TrimSpace(message.Text)

	if !strings.HasPrefix(text, "/") {
		b.handleStateInput(ctx, chatID, message.From.ID, userID, text)
		return
	}

	b.clearState(message.From.ID)

	switch strings.ToLower(strings.Fields(text)[0]) {
	case "/start":
		b.handleStart(chatID, userID)
	case "/buy":
		b.setState(message.From.ID, &userState{action: awaitingCA})
		b.reply(chatID, "🛒 Buy Token\n\nPlease enter the token Contract Address (CA):")
	case "/sell":
		b.handleSell(chatID, message.From.ID, userID)
	case "/positions", "/refresh":
		b.handlePositions(ctx, chatID, userID)
	case "/deposit":
		b.setState(message.From.ID, &userState{action: awaitingDepositAmount})
		account := b.engine.Account(userID)
		b.reply(chatID, fmt.Sprintf("💰 Deposit SOL\n\nEnter the amount of SOL to deposit:\n\n💡 Current balance: %s SOL", account.Balance.StringFixed(2)))
	case "/withdraw":
		b.setState(message.From.ID, &userState{action: awaitingWithdrawAmount})
		account := b.engine.Account(userID)
		b.reply(chatID, fmt.Sprintf("💰 Withdraw SOL\n\nEnter the amount of SOL to withdraw:\n\n💡 Available: %s SOL", account.Balance.StringFixed(2)))
	case "/settings":
		b.handleSettings(chatID, userID)
	default:
		b.reply(chatID, "Unknown command. Use /start to see what I can do.")
	}
}

func (b *Bot) handleStart(chatID int64, userID string) {
	account := b.engine.Account(userID)

	b.reply(chatID,
		"🎮 Welcome to the Meme Coin Paper Trading Bot!\n\n"+
			fmt.Sprintf("💰 Starting Balance: %s SOL\n\n", account.Balance.StringFixed(2))+
			"📋 Available Commands:\n"+
			"/buy - Buy tokens by CA (supports Pump.fun)\n"+
			"/sell - Sell your positions\n"+
			"/positions - View your portfolio\n"+
			"/deposit - Add SOL to balance\n"+
			"/withdraw - Remove SOL from balance\n"+
			"/refresh - Update portfolio prices\n"+
			"/settings - Configure bot settings")
}

func (b *Bot) handleStateInput(ctx context.Context, chatID, telegramID int64, userID, text string) {
	state := b.getState(telegramID)
	if state == nil {
		return
	}

	switch state.action {
	case awaitingCA:
		b.handleCAInput(ctx, chatID, telegramID, userID, text)
	case awaitingBuyAmount:
		b.handleBuyAmount(ctx, chatID, telegramID, userID, text)
	case awaitingSellChoice:
		b.handleSellChoice(ctx, chatID, telegramID, userID, text, state)
	case awaitingDepositAmount:
		b.handleDepositAmount(chatID, telegramID, userID, text)
	case awaitingWithdrawAmount:
		b.handleWithdrawAmount(chatID, telegramID, userID, text)
	}
}

func (b *Bot) handleCAInput(ctx context.Context, chatID, telegramID int64, userID, ca string) {
	b.reply(chatID, "🔍 Verifying token across multiple platforms...")

	quote, err := b.engine.StartBuy(ctx, userID, ca)
	if err != nil {
		b.clearState(telegramID)
		b.reply(chatID, verificationFailure(err))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Token Verified on %s!\n\n", strings.ToUpper(quote.Source))
	fmt.Fprintf(&sb, "🪙 %s (%s)\n", quote.Name, quote.Symbol)
	fmt.Fprintf(&sb, "💰 Price: $%s\n", quote.Price.StringFixed(8))
	fmt.Fprintf(&sb, "🏢 Market Cap: $%s\n", formatCompact(quote.MarketCap))
	if quote.Volume24h.IsPositive() {
		fmt.Fprintf(&sb, "📊 24h Volume: $%s\n", formatCompact(quote.Volume24h))
	}
	if quote.Liquidity.IsPositive() {
		fmt.Fprintf(&sb, "💧 Liquidity: $%s\n", formatCompact(quote.Liquidity))
	}
	if !quote.PriceChange24h.IsZero() {
		fmt.Fprintf(&sb, "📈 24h Change: %s%%\n", quote.PriceChange24h.StringFixed(2))
	}
	if quote.IsPumpFun {
		sb.WriteString("🚀 Pump.fun Token\n")
		if quote.BondingCurvePrice.IsPositive() {
			fmt.Fprintf(&sb, "📊 Bond Curve: $%s\n", quote.BondingCurvePrice.StringFixed(8))
		}
	}
	sb.WriteString("\n💎 Enter the amount of SOL to invest:")

	b.reply(chatID, sb.String())
	b.setState(telegramID, &userState{action: awaitingBuyAmount})
}

func (b *Bot) handleBuyAmount(ctx context.Context, chatID, telegramID int64, userID, text string) {
	amount, err := parseAmount(text)
	if err != nil {
		b.reply(chatID, "❌ Please enter a valid SOL amount greater than 0")
		return
	}

	result, err := b.engine.CompleteBuy(ctx, userID, amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientFunds):
			// pending buy survives, the user can retry with a smaller amount
			b.reply(chatID, fmt.Sprintf("❌ Insufficient balance: %s\n\n💡 Enter a smaller amount:", err.Error()))
		case errors.Is(err, engine.ErrInvalidAmount):
			b.reply(chatID, "❌ Please enter a valid SOL amount greater than 0")
		default:
			b.clearState(telegramID)
			b.reply(chatID, fmt.Sprintf("❌ Error: %s\n\n🔄 Please try the command again.", err.Error()))
		}
		return
	}

	sourceIcon := "🔄"
	if result.IsPumpFun {
		sourceIcon = "🚀"
	}
	b.reply(chatID, fmt.Sprintf(
		"%s Buy Order Executed!\n\n"+
			"🪙 %s\n"+
			"📦 Amount: %s\n"+
			"💰 Price: $%s\n"+
			"💸 Cost: %s SOL\n"+
			"🏦 New Balance: %s SOL\n"+
			"📱 Source: %s\n\n"+
			"📊 Check your /positions",
		sourceIcon,
		result.Position.Name,
		result.TokenAmount.StringFixed(2),
		result.Price.StringFixed(8),
		result.SolAmount.String(),
		result.NewBalance.StringFixed(2),
		strings.ToUpper(result.Source)))
	b.clearState(telegramID)
}

func (b *Bot) handleSell(chatID, telegramID int64, userID string) {
	account := b.engine.Account(userID)
	if len(account.Positions) == 0 {
		b.reply(chatID, "📭 No active positions.\n💸 Use /buy to start trading!")
		return
	}

	state := &userState{action: awaitingSellChoice}

	var sb strings.Builder
	sb.WriteString("💸 Sell Position\n\n")
	for i, position := range account.Positions {
		state.sellOptions = append(state.sellOptions, position.Address)
		fmt.Fprintf(&sb, "%d. %s — %s tokens @ $%s\n",
			i+1, position.Name, position.Amount.StringFixed(2), position.CurrentPrice.StringFixed(8))
	}
	sb.WriteString("\n📝 Reply with the position number, optionally followed by a percent (e.g. \"1 50\" sells half). Default is 100%.")

	b.setState(telegramID, state)
	b.reply(chatID, sb.String())
}

func (b *Bot) handleSellChoice(ctx context.Context, chatID, telegramID int64, userID, text string, state *userState) {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return
	}

	index, err := strconv.Atoi(parts[0])
	if err != nil || index < 1 || index > len(state.sellOptions) {
		b.reply(chatID, "❌ Please reply with one of the listed position numbers.")
		return
	}

	percent := decimal.NewFromInt(100)
	if len(parts) > 1 {
		percent, err = parseAmount(parts[1])
		if err != nil {
			b.reply(chatID, "❌ Percent must be a number between 0 and 100.")
			return
		}
	}

	result, err := b.engine.SellPosition(ctx, userID, state.sellOptions[index-1], percent)
	if err != nil {
		b.clearState(telegramID)
		if errors.Is(err, engine.ErrInvalidAmount) {
			b.reply(chatID, "❌ Percent must be between 0 and 100.")
		} else {
			b.reply(chatID, fmt.Sprintf("❌ Sell failed: %s", err.Error()))
		}
		return
	}

	pnlIcon := "🟢"
	if result.RealizedPnL.IsNegative() {
		pnlIcon = "🔴"
	}
	b.reply(chatID, fmt.Sprintf(
		"✅ Sell Order Executed!\n\n"+
			"📦 Sold: %s tokens\n"+
			"💰 Price: $%s (%s)\n"+
			"💸 Proceeds: %s SOL\n"+
			"%s P&L: %s SOL\n"+
			"🏦 New Balance: %s SOL",
		result.SoldAmount.StringFixed(2),
		result.Price.StringFixed(8),
		result.Source,
		result.Proceeds.StringFixed(4),
		pnlIcon,
		result.RealizedPnL.StringFixed(4),
		result.NewBalance.StringFixed(2)))
	b.clearState(telegramID)
}

func (b *Bot) handlePositions(ctx context.Context, chatID int64, userID string) {
	b.reply(chatID, "🔄 Refreshing portfolio...")

	snapshot, err := b.engine.RefreshPortfolio(ctx, userID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("❌ Error: %s", err.Error()))
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Your Portfolio\n\n")
	fmt.Fprintf(&sb, "💎 SOL Balance: %s\n", snapshot.Balance.StringFixed(2))
	fmt.Fprintf(&sb, "🏦 Total Value: %s SOL\n", snapshot.TotalValue.StringFixed(2))
	if snapshot.TotalValueUSD.IsPositive() {
		fmt.Fprintf(&sb, "💵 Total Value: $%s\n", formatCompact(snapshot.TotalValueUSD))
	}
	sb.WriteString("\n")

	if len(snapshot.Positions) == 0 {
		sb.WriteString("📭 No active positions.\n💸 Use /buy to start trading!")
	} else {
		for _, position := range snapshot.Positions {
			sourceIcon := "🔄"
			if position.IsPumpFun {
				sourceIcon = "🚀"
			}
			fmt.Fprintf(&sb, "%s %s\n", sourceIcon, position.Name)
			fmt.Fprintf(&sb, "   📍 CA: %s...\n", shortCA(position.Address))
			fmt.Fprintf(&sb, "   📦 Amount: %s\n", position.Amount.StringFixed(2))
			fmt.Fprintf(&sb, "   💰 Avg Price: $%s\n", position.BuyPrice.StringFixed(8))
			fmt.Fprintf(&sb, "   📈 Current: $%s\n", position.CurrentPrice.StringFixed(8))
			fmt.Fprintf(&sb, "   🏢 Market Cap: $%s\n", formatCompact(position.MarketCap))
			if position.Volume24h.IsPositive() {
				fmt.Fprintf(&sb, "   📊 Volume: $%s\n", formatCompact(position.Volume24h))
			}
			pnlIcon := "🟢"
			if position.PnL.IsNegative() {
				pnlIcon = "🔴"
			}
			fmt.Fprintf(&sb, "   %s P&L: %s SOL (%s%%)\n\n",
				pnlIcon, position.PnL.StringFixed(2), position.PnLPercent.StringFixed(2))
		}
	}

	b.reply(chatID, sb.String())
}

func (b *Bot) handleSettings(chatID int64, userID string) {
	account := b.engine.Account(userID)

	b.reply(chatID, fmt.Sprintf(
		"⚙️ Bot Settings\n\n"+
			"Auto Refresh: %s\n"+
			"Notifications: %s",
		onOff(account.Settings.AutoRefresh),
		onOff(account.Settings.Notifications)))
}

func (b *Bot) handleDepositAmount(chatID, telegramID int64, userID, text string) {
	amount, err := parseAmount(text)
	if err != nil {
		b.reply(chatID, "❌ Please enter a valid SOL amount greater than 0")
		b.clearState(telegramID)
		return
	}

	account, err := b.engine.Deposit(userID, amount)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("❌ Error: %s", err.Error()))
	} else {
		b.reply(chatID, fmt.Sprintf("✅ Deposited %s SOL\n\n🏦 New Balance: %s SOL",
			amount.String(), account.Balance.StringFixed(2)))
	}
	b.clearState(telegramID)
}

func (b *Bot) handleWithdrawAmount(chatID, telegramID int64, userID, text string) {
	amount, err := parseAmount(text)
	if err != nil {
		b.reply(chatID, "❌ Please enter a valid SOL amount greater than 0")
		b.clearState(telegramID)
		return
	}

	account, err := b.engine.Withdraw(userID, amount)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			b.reply(chatID, fmt.Sprintf("❌ Insufficient balance: %s", err.Error()))
		} else {
			b.reply(chatID, fmt.Sprintf("❌ Error: %s", err.Error()))
		}
	} else {
		b.reply(chatID, fmt.Sprintf("✅ Withdrawn %s SOL\n\n🏦 New Balance: %s SOL",
			amount.String(), account.Balance.StringFixed(2)))
	}
	b.clearState(telegramID)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send message", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (b *Bot) getState(telegramID int64) *userState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.states[telegramID]
}

func (b *Bot) setState(telegramID int64, state *userState) {
	b.mu.Lock()
	b.states[telegramID] = state
	b.mu.Unlock()
}

func (b *Bot) clearState(telegramID int64) {
	b.mu.Lock()
	delete(b.states, telegramID)
	b.mu.Unlock()
}

func verificationFailure(err error) string {
	if errors.Is(err, engine.ErrInvalidAddress) {
		return "❌ Invalid Solana contract address format. Please check and try again."
	}
	msg := fmt.Sprintf("❌ Token verification failed: %s\n\n", err.Error())
	if errors.Is(err, pricer.ErrNotFound) {
		msg += "💡 Possible reasons:\n" +
			"• Token is too new (wait 5-10 minutes)\n" +
			"• No liquidity on DEXs\n" +
			"• Invalid contract address\n" +
			"• API temporarily unavailable\n\n"
	}
	return msg + "🔄 Try again in a few minutes or use a different token."
}

func parseAmount(text string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, errors.New("amount must be positive")
	}
	return amount, nil
}

// formatCompact renders large dollar values the way traders read them:
// 1234567 becomes 1.23M, 45600 becomes 45.60K.
func formatCompact(value decimal.Decimal) string {
	if value.IsZero() {
		return "0"
	}
	million := decimal.NewFromInt(1_000_000)
	thousand := decimal.NewFromInt(1_000)
	switch {
	case value.GreaterThanOrEqual(million):
		return value.Div(million).StringFixed(2) + "M"
	case value.GreaterThanOrEqual(thousand):
		return value.Div(thousand).StringFixed(2) + "K"
	default:
		return value.StringFixed(2)
	}
}

func shortCA(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:12]
}

func onOff(enabled bool) string {
	if enabled {
		return "✅ On"
	}
	return "❌ Off"
}
