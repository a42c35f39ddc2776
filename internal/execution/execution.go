// Package execution handles order lifecycle and simulated interaction with venues.
package execution

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/JoeTonDev/trading-fractals/internal/metrics"
	"github.com/JoeTonDev/trading-fractals/internal/signal"
)

// Side enumerates order directions used by the executor.
type Side string

const (
	// Buy indicates a long order.
	Buy Side = "BUY"
	// Sell indicates a short or closing order.
	Sell Side = "SELL"
)

// OrderStatus tracks an order after submission.
type OrderStatus string

const (
	StatusNew      OrderStatus = "new"
	StatusFilled   OrderStatus = "filled"
	StatusRejected OrderStatus = "rejected"
)

// Order represents a placement request the executor can process.
type Order struct {
	ID         string            `json:"id"`
	Time       time.Time         `json:"time"`
	Exchange   signal.Exchange   `json:"exchange"`
	Instrument signal.Instrument `json:"instrument"`
	Side       Side              `json:"side"`
	Qty        float64           `json:"qty"`
	Price      float64           `json:"price"` // reference (last close) price
	Decision   signal.Decision   `json:"decision"`
	Reason     string            `json:"reason,omitempty"`
}

// Market returns the exchange/instrument key of the order.
func (o Order) Market() signal.Market {
	return signal.Market{Exchange: o.Exchange, Instrument: o.Instrument}
}

// OrderUpdate reports a status transition for a previously announced order.
type OrderUpdate struct {
	OrderID    string            `json:"order_id"`
	Time       time.Time         `json:"time"`
	Exchange   signal.Exchange   `json:"exchange"`
	Instrument signal.Instrument `json:"instrument"`
	Status     OrderStatus       `json:"status"`
	Reason     string            `json:"reason,omitempty"`
}

// Market returns the exchange/instrument key of the update.
func (u OrderUpdate) Market() signal.Market {
	return signal.Market{Exchange: u.Exchange, Instrument: u.Instrument}
}

// Fees holds simulated cost percentages, e.g. Exchange 0.1 means 0.1% of notional.
type Fees struct {
	Exchange float64 `yaml:"exchange" json:"exchange"`
	Slippage float64 `yaml:"slippage" json:"slippage"`
	Network  float64 `yaml:"network" json:"network"`
}

// FeeAmounts is the currency cost of one fill.
type FeeAmounts struct {
	Exchange float64 `json:"exchange"`
	Slippage float64 `json:"slippage"`
	Network  float64 `json:"network"`
}

// Total sums every fee component.
func (f FeeAmounts) Total() float64 { return f.Exchange + f.Slippage + f.Network }

// Fill is a completed simulated execution.
type Fill struct {
	OrderID    string            `json:"order_id"`
	Time       time.Time         `json:"time"`
	Exchange   signal.Exchange   `json:"exchange"`
	Instrument signal.Instrument `json:"instrument"`
	Side       Side              `json:"side"`
	Qty        float64           `json:"qty"`
	Price      float64           `json:"price"` // fill price including slippage
	Fees       FeeAmounts        `json:"fees"`
}

// Market returns the exchange/instrument key of the fill.
func (f Fill) Market() signal.Market {
	return signal.Market{Exchange: f.Exchange, Instrument: f.Instrument}
}

// Notional is quantity times fill price.
func (f Fill) Notional() float64 { return f.Qty * f.Price }

// Executor fills orders against the reference price with configured fees and slippage.
type Executor struct {
	log  zerolog.Logger
	fees Fees
}

// NewExecutor wraps a zerolog logger and fee model for simulated submissions.
func NewExecutor(log zerolog.Logger, fees Fees) *Executor {
	return &Executor{log: log, fees: fees}
}

// Submit fills the order immediately. Buys slip up and sells slip down.
func (executor *Executor) Submit(order Order) (Fill, error) {
	if order.Qty <= 0 {
		return Fill{}, errors.New("quantity must be positive")
	}
	if order.Price <= 0 {
		return Fill{}, errors.New("price must be positive")
	}
	metrics.OrdersTotal.WithLabelValues(order.Instrument.String(), string(order.Side)).Inc()

	slip := order.Price * executor.fees.Slippage / 100
	price := order.Price + slip
	if order.Side == Sell {
		price = order.Price - slip
	}
	notional := order.Qty * price
	fill := Fill{
		OrderID:    order.ID,
		Time:       order.Time,
		Exchange:   order.Exchange,
		Instrument: order.Instrument,
		Side:       order.Side,
		Qty:        order.Qty,
		Price:      price,
		Fees: FeeAmounts{
			Exchange: notional * executor.fees.Exchange / 100,
			Slippage: slip * order.Qty,
			Network:  notional * executor.fees.Network / 100,
		},
	}
	executor.log.Info().
		Str("order_id", order.ID).
		Str("instrument", order.Instrument.String()).
		Str("side", string(order.Side)).
		Float64("qty", order.Qty).
		Float64("px", price).
		Float64("fees", fill.Fees.Total()).
		Msg("simulated fill")
	return fill, nil
}
