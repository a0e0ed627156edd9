package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionState is the adjustment controller's lifecycle state for a trade.
type PositionState string

const (
	PositionOpened    PositionState = "opened"
	PositionAdjusting PositionState = "adjusting"
	PositionClosed    PositionState = "closed"
)

// OpenPosition mirrors the broker layer's view of a live trade. The
// evaluation core mutates only State and Adjustments (via the adjustment
// controller); everything else is updated from reported fills.
type OpenPosition struct {
	TradeID      string          `json:"trade_id"`
	Pair         string          `json:"pair"`
	Direction    Direction       `json:"direction"`
	EntryPrice   float64         `json:"entry_price"`
	InitialStake decimal.Decimal `json:"initial_stake"`
	Stake        decimal.Decimal `json:"stake"`
	Adjustments  int             `json:"adjustments"`
	State        PositionState   `json:"state"`
	OpenedAt     time.Time       `json:"opened_at"`
}

// ProfitRatio computes the unrealized profit ratio against the
// original entry price; adjustment fills grow Stake but do not move
// EntryPrice. Shorts profit when price falls.
func (p *OpenPosition) ProfitRatio(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	r := (price - p.EntryPrice) / p.EntryPrice
	if p.Direction == DirShort {
		return -r
	}
	return r
}

// AgeCandles returns the position age in whole base-resolution candles.
func (p *OpenPosition) AgeCandles(now time.Time, interval time.Duration) int {
	if interval <= 0 || now.Before(p.OpenedAt) {
		return 0
	}
	return int(now.Sub(p.OpenedAt) / interval)
}

// AdjustmentSide distinguishes same-direction adds from partial reduces.
type AdjustmentSide string

const (
	AdjustAdd    AdjustmentSide = "add"
	AdjustReduce AdjustmentSide = "reduce"
)

// AdjustmentOrder is a proposed change to an open position's stake.
// It is emitted to the order-execution layer and never persisted here.
type AdjustmentOrder struct {
	TradeID     string          `json:"trade_id"`
	Pair        string          `json:"pair"`
	Direction   Direction       `json:"direction"`
	Side        AdjustmentSide  `json:"side"`
	Stake       decimal.Decimal `json:"stake"`
	ConditionID int             `json:"condition_id"`
	Timestamp   time.Time       `json:"timestamp"`
}
