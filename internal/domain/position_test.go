package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPosition_PnLPercentZeroWhenNothingInvested(t *testing.T) {
	// free tokens: zero buy price means zero invested, percent must stay a
	// plain zero instead of NaN or infinity
	pos := NewPosition("addr", "Free", decimal.NewFromInt(10), decimal.Zero, decimal.Zero, decimal.Zero, time.Now())
	pos.UpdateMarket(decimal.NewFromInt(5), decimal.Zero, decimal.Zero, time.Now())

	assert.True(t, pos.Invested.IsZero())
	assert.True(t, pos.PnL.Equal(decimal.NewFromInt(50)))
	assert.True(t, pos.PnLPercent.IsZero())
}

func TestPosition_StartsFlat(t *testing.T) {
	pos := NewPosition("Addr", "Token", decimal.NewFromInt(10), decimal.NewFromInt(2), decimal.Zero, decimal.Zero, time.Now())

	assert.Equal(t, "addr", pos.Address)
	assert.True(t, pos.Invested.Equal(decimal.NewFromInt(20)))
	assert.True(t, pos.CurrentValue.Equal(decimal.NewFromInt(20)))
	assert.True(t, pos.PnL.IsZero())
	assert.True(t, pos.PnLPercent.IsZero())
}

func TestPosition_ReduceBeyondHeldCapsAtHeld(t *testing.T) {
	pos := NewPosition("addr", "Token", decimal.NewFromInt(10), decimal.NewFromInt(2), decimal.Zero, decimal.Zero, time.Now())

	removed, closed := pos.Reduce(decimal.NewFromInt(25), time.Now())
	assert.True(t, removed.Equal(decimal.NewFromInt(10)))
	assert.True(t, closed)
}
