package paper

import (
	"errors"
	"sync"

	"github.com/JoeTonDev/trading-fractals/internal/execution"
	"github.com/JoeTonDev/trading-fractals/internal/signal"
)

// FillRecorder captures paper fills for later inspection.
type FillRecorder interface {
	Record(execution.Fill)
}

const epsilon = 1e-9

type positionState struct {
	Qty     float64
	AvgCost float64
}

// Account tracks virtual cash, realized PnL, and per-market long positions while trading in paper mode.
type Account struct {
	mu                   sync.Mutex
	startingCash         float64
	cash                 float64
	realizedPnL          float64
	maxPositionPerMarket float64
	positions            map[signal.Market]positionState
}

// PositionSnapshot exposes a read-only view of a single market position.
type PositionSnapshot struct {
	Qty         float64
	AvgCost     float64
	MarketValue float64
	Unrealized  float64
}

// Snapshot represents a thread-safe view of the account state, optionally marked to market using provided prices.
type Snapshot struct {
	Cash        float64
	RealizedPnL float64
	Equity      float64
	Positions   map[signal.Market]PositionSnapshot
}

// NewAccount constructs an account populated with starting cash and optional position cap.
func NewAccount(startingCash, maxPositionPerMarket float64) *Account {
	return &Account{
		startingCash:         startingCash,
		cash:                 startingCash,
		maxPositionPerMarket: maxPositionPerMarket,
		positions:            make(map[signal.Market]positionState),
	}
}

// StartingCash returns the initial bankroll used to compute drawdown.
func (a *Account) StartingCash() float64 { return a.startingCash }

// MarketFill applies a fill at price, mutating balances if successful. Fees are
// charged to cash and realized PnL on every fill.
func (a *Account) MarketFill(market signal.Market, side execution.Side, qty, price, fees float64) error {
	if qty <= 0 {
		return errors.New("quantity must be positive")
	}
	if price <= 0 {
		return errors.New("price must be positive")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.positions[market]
	notional := qty * price

	switch side {
	case execution.Buy:
		if notional+fees > a.cash+epsilon {
			return errors.New("insufficient cash for buy")
		}
		newQty := state.Qty + qty
		if a.maxPositionPerMarket > 0 && newQty > a.maxPositionPerMarket+epsilon {
			return errors.New("position limit exceeded")
		}
		newAvg := ((state.AvgCost * state.Qty) + notional) / newQty
		a.cash -= notional + fees
		a.realizedPnL -= fees
		a.positions[market] = positionState{Qty: newQty, AvgCost: newAvg}

	case execution.Sell:
		if state.Qty <= 0 || state.Qty+epsilon < qty {
			return errors.New("insufficient position to sell")
		}
		a.realizedPnL += (price-state.AvgCost)*qty - fees
		a.cash += notional - fees
		newQty := state.Qty - qty
		if newQty <= epsilon {
			delete(a.positions, market)
		} else {
			a.positions[market] = positionState{Qty: newQty, AvgCost: state.AvgCost}
		}

	default:
		return errors.New("unknown order side")
	}
	return nil
}

// Snapshot returns a copy of balances, optionally marked using the supplied prices map.
func (a *Account) Snapshot(prices map[signal.Market]float64) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	positions := make(map[signal.Market]PositionSnapshot, len(a.positions))
	equity := a.cash
	for market, pos := range a.positions {
		mark := prices[market]
		marketValue := pos.Qty * mark
		unrealized := (mark - pos.AvgCost) * pos.Qty
		if mark == 0 {
			marketValue = 0
			unrealized = 0
		}
		positions[market] = PositionSnapshot{
			Qty:         pos.Qty,
			AvgCost:     pos.AvgCost,
			MarketValue: marketValue,
			Unrealized:  unrealized,
		}
		equity += marketValue
	}

	return Snapshot{
		Cash:        a.cash,
		RealizedPnL: a.realizedPnL,
		Equity:      equity,
		Positions:   positions,
	}
}

// AvailableCash reports free cash that can be deployed into new longs.
func (a *Account) AvailableCash() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cash
}

// Holding returns the open quantity and average cost for market.
func (a *Account) Holding(market signal.Market) (qty, avgCost float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pos := a.positions[market]
	return pos.Qty, pos.AvgCost
}

// RealizedPnL returns total closed-trade profit and loss net of fees.
func (a *Account) RealizedPnL() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.realizedPnL
}
