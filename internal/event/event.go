// Package event defines the closed set of engine events and the queue that carries them
// from trading workers to the single router.
package event

import (
	"fmt"

	"github.com/JoeTonDev/trading-fractals/internal/execution"
	"github.com/JoeTonDev/trading-fractals/internal/paper"
	"github.com/JoeTonDev/trading-fractals/internal/signal"
)

// Kind tags an Event variant.
type Kind uint8

const (
	KindMarket Kind = iota
	KindSignal
	KindSignalForceExit
	KindOrderNew
	KindOrderUpdate
	KindFill
	KindPositionNew
	KindPositionUpdate
	KindPositionExit
	KindBalance
)

var kindNames = [...]string{
	"market",
	"signal",
	"signal_force_exit",
	"order_new",
	"order_update",
	"fill",
	"position_new",
	"position_update",
	"position_exit",
	"balance",
}

// Kinds lists every variant in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a kind name back to its value.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

// Event is implemented only by the variants in this package.
type Event interface {
	Kind() Kind
	engineEvent()
}

// Market carries a market observation.
type Market struct{ signal.MarketEvent }

// Signal carries a strategy decision.
type Signal struct{ signal.Signal }

// SignalForceExit carries an unconditional exit instruction.
type SignalForceExit struct{ signal.SignalForceExit }

// OrderNew announces an order generated from a signal.
type OrderNew struct{ execution.Order }

// OrderUpdate reports an order status transition.
type OrderUpdate struct{ execution.OrderUpdate }

// Fill reports a completed execution.
type Fill struct{ execution.Fill }

// PositionNew announces an entered position.
type PositionNew struct{ paper.Position }

// PositionUpdate marks an open position to market.
type PositionUpdate struct{ paper.PositionUpdate }

// PositionExit reports a closed position.
type PositionExit struct{ paper.PositionExit }

// Balance reports the account balance after a fill.
type Balance struct{ paper.Balance }

func (Market) Kind() Kind          { return KindMarket }
func (Signal) Kind() Kind          { return KindSignal }
func (SignalForceExit) Kind() Kind { return KindSignalForceExit }
func (OrderNew) Kind() Kind        { return KindOrderNew }
func (OrderUpdate) Kind() Kind     { return KindOrderUpdate }
func (Fill) Kind() Kind            { return KindFill }
func (PositionNew) Kind() Kind     { return KindPositionNew }
func (PositionUpdate) Kind() Kind  { return KindPositionUpdate }
func (PositionExit) Kind() Kind    { return KindPositionExit }
func (Balance) Kind() Kind         { return KindBalance }

func (Market) engineEvent()          {}
func (Signal) engineEvent()          {}
func (SignalForceExit) engineEvent() {}
func (OrderNew) engineEvent()        {}
func (OrderUpdate) engineEvent()     {}
func (Fill) engineEvent()            {}
func (PositionNew) engineEvent()     {}
func (PositionUpdate) engineEvent()  {}
func (PositionExit) engineEvent()    {}
func (Balance) engineEvent()         {}

// MarketOf returns the market an event belongs to. Balance is account-wide and reports false.
func MarketOf(e Event) (signal.Market, bool) {
	switch ev := e.(type) {
	case Market:
		return ev.MarketEvent.Market(), true
	case Signal:
		return ev.Signal.Market(), true
	case SignalForceExit:
		return ev.SignalForceExit.Market(), true
	case OrderNew:
		return ev.Order.Market(), true
	case OrderUpdate:
		return ev.OrderUpdate.Market(), true
	case Fill:
		return ev.Fill.Market(), true
	case PositionNew:
		return ev.Position.Market(), true
	case PositionUpdate:
		return ev.PositionUpdate.Market(), true
	case PositionExit:
		return ev.PositionExit.Market(), true
	default:
		return signal.Market{}, false
	}
}
