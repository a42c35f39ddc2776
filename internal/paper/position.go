// Package paper keeps simulated balances and positions plus the payloads that report them.
package paper

import (
	"time"

	"github.com/JoeTonDev/trading-fractals/internal/signal"
)

// Position is an open long position as announced when it is entered.
type Position struct {
	Exchange   signal.Exchange   `json:"exchange"`
	Instrument signal.Instrument `json:"instrument"`
	OpenedAt   time.Time         `json:"opened_at"`
	Qty        float64           `json:"qty"`
	EntryPrice float64           `json:"entry_price"`
	EntryFees  float64           `json:"entry_fees"`
}

// Market returns the exchange/instrument key of the position.
func (p Position) Market() signal.Market {
	return signal.Market{Exchange: p.Exchange, Instrument: p.Instrument}
}

// PositionUpdate marks an open position to the latest close.
type PositionUpdate struct {
	Exchange      signal.Exchange   `json:"exchange"`
	Instrument    signal.Instrument `json:"instrument"`
	Time          time.Time         `json:"time"`
	Qty           float64           `json:"qty"`
	LastPrice     float64           `json:"last_price"`
	UnrealizedPnL float64           `json:"unrealized_pnl"`
}

func (p PositionUpdate) Market() signal.Market {
	return signal.Market{Exchange: p.Exchange, Instrument: p.Instrument}
}

// PositionExit summarises a closed position.
type PositionExit struct {
	Exchange    signal.Exchange   `json:"exchange"`
	Instrument  signal.Instrument `json:"instrument"`
	Time        time.Time         `json:"time"`
	Qty         float64           `json:"qty"`
	EntryPrice  float64           `json:"entry_price"`
	ExitPrice   float64           `json:"exit_price"`
	ExitFees    float64           `json:"exit_fees"`
	RealizedPnL float64           `json:"realized_pnl"`
	Reason      string            `json:"reason,omitempty"`
}

func (p PositionExit) Market() signal.Market {
	return signal.Market{Exchange: p.Exchange, Instrument: p.Instrument}
}

// Balance is the account-wide cash view after a fill.
type Balance struct {
	Time      time.Time `json:"time"`
	Total     float64   `json:"total"`
	Available float64   `json:"available"`
}
