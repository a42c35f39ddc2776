// Package signal standardizes payloads shared between data ingestion and strategy layers.
package signal

import (
	"fmt"
	"strings"
	"time"
)

// Exchange names the venue an instrument trades on (e.g. "binance").
type Exchange string

// InstrumentKind distinguishes spot pairs from derivatives.
type InstrumentKind string

const (
	// Spot is a spot currency pair.
	Spot InstrumentKind = "spot"
	// Future is a perpetual or dated future.
	Future InstrumentKind = "future"
)

// Instrument identifies a tradeable pair on an exchange.
type Instrument struct {
	Base  string         `json:"base"`
	Quote string         `json:"quote"`
	Kind  InstrumentKind `json:"kind"`
}

// NewInstrument lower-cases base and quote and defaults the kind to spot.
func NewInstrument(base, quote string, kind InstrumentKind) Instrument {
	if kind == "" {
		kind = Spot
	}
	return Instrument{
		Base:  strings.ToLower(strings.TrimSpace(base)),
		Quote: strings.ToLower(strings.TrimSpace(quote)),
		Kind:  kind,
	}
}

// ParseInstrument accepts "btc_usdt", "btc/usdt" or "btc-usdt".
func ParseInstrument(symbol string) (Instrument, error) {
	s := strings.TrimSpace(symbol)
	for _, sep := range []string{"_", "/", "-"} {
		if base, quote, ok := strings.Cut(s, sep); ok && base != "" && quote != "" {
			return NewInstrument(base, quote, Spot), nil
		}
	}
	return Instrument{}, fmt.Errorf("invalid instrument %q: want base_quote", symbol)
}

// String renders the instrument as base_quote.
func (i Instrument) String() string { return i.Base + "_" + i.Quote }

// Symbol renders the concatenated upper-case symbol exchanges use (BTCUSDT).
func (i Instrument) Symbol() string { return strings.ToUpper(i.Base + i.Quote) }

// Market pairs an exchange with an instrument and keys all per-instrument state.
type Market struct {
	Exchange   Exchange   `json:"exchange"`
	Instrument Instrument `json:"instrument"`
}

// NewMarket builds a Market from an exchange name and instrument.
func NewMarket(exchange string, instrument Instrument) Market {
	return Market{Exchange: Exchange(strings.ToLower(exchange)), Instrument: instrument}
}

func (m Market) String() string { return string(m.Exchange) + ":" + m.Instrument.String() }

// Bar is a single OHLCV observation. The fractal core only reads High and Low.
type Bar struct {
	Time       time.Time `json:"close_time"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	Volume     float64   `json:"volume"`
	TradeCount uint64    `json:"trade_count"`
}

// MarketEvent is one observation produced by a market data source for a market.
type MarketEvent struct {
	Time       time.Time  `json:"time"`
	Exchange   Exchange   `json:"exchange"`
	Instrument Instrument `json:"instrument"`
	Bar        Bar        `json:"bar"`
}

// Market returns the exchange/instrument key of the event.
func (e MarketEvent) Market() Market {
	return Market{Exchange: e.Exchange, Instrument: e.Instrument}
}

// MarketMeta is the snapshot of the observation that produced a Signal.
// PivotTime is the close time of the bar the pivot was found on.
type MarketMeta struct {
	Close     float64   `json:"close"`
	Time      time.Time `json:"time"`
	PivotTime time.Time `json:"pivot_time"`
}
