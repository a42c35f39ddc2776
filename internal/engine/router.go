// Package engine runs trading workers that produce engine events and the router that consumes them.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/JoeTonDev/trading-fractals/internal/event"
	"github.com/JoeTonDev/trading-fractals/internal/metrics"
)

// Sink observes every dispatched event, e.g. to persist or publish it.
type Sink interface {
	Name() string
	Observe(event.Event) error
}

// Router is the single consumer of the engine queue.
type Router struct {
	log   zerolog.Logger
	queue *event.Queue
	sinks []Sink
}

// NewRouter wires the consumer side of queue to the given sinks.
func NewRouter(log zerolog.Logger, queue *event.Queue, sinks ...Sink) *Router {
	return &Router{log: log, queue: queue, sinks: sinks}
}

// Run dispatches events until every producer has closed and the queue is drained,
// then returns nil. It returns ctx.Err() if ctx ends first.
func (r *Router) Run(ctx context.Context) error {
	r.log.Info().Int("sinks", len(r.sinks)).Msg("router draining")
	for {
		e, err := r.queue.Recv(ctx)
		if errors.Is(err, event.ErrClosed) {
			r.log.Info().Msg("router closed: all producers dropped")
			return nil
		}
		if err != nil {
			return err
		}
		r.Dispatch(e)
	}
}

// Dispatch reports e and fans it out to the sinks. It never blocks on the queue.
func (r *Router) Dispatch(e event.Event) {
	metrics.EventsDispatched.WithLabelValues(e.Kind().String()).Inc()

	switch ev := e.(type) {
	case event.Market:
		r.log.Debug().
			Str("kind", ev.Kind().String()).
			Str("exchange", string(ev.Exchange)).
			Str("instrument", ev.Instrument.String()).
			Time("time", ev.Time).
			Float64("high", ev.Bar.High).
			Float64("low", ev.Bar.Low).
			Float64("close", ev.Bar.Close).
			Msg("market")
	case event.Signal:
		decisions := zerolog.Dict()
		for d, s := range ev.Signals {
			decisions.Float64(d.String(), float64(s))
		}
		r.log.Info().
			Str("kind", ev.Kind().String()).
			Str("exchange", string(ev.Exchange)).
			Str("instrument", ev.Instrument.String()).
			Time("time", ev.Time).
			Dict("signals", decisions).
			Float64("close", ev.MarketMeta.Close).
			Msg("signal")
	case event.SignalForceExit:
		r.log.Info().
			Str("kind", ev.Kind().String()).
			Str("exchange", string(ev.Exchange)).
			Str("instrument", ev.Instrument.String()).
			Time("time", ev.Time).
			Msg("signal force exit")
	case event.OrderNew:
		r.log.Info().
			Str("kind", ev.Kind().String()).
			Str("order_id", ev.ID).
			Str("instrument", ev.Instrument.String()).
			Str("side", string(ev.Side)).
			Str("decision", ev.Decision.String()).
			Float64("qty", ev.Qty).
			Float64("px", ev.Price).
			Str("reason", ev.Reason).
			Msg("order new")
	case event.OrderUpdate:
		r.log.Info().
			Str("kind", ev.Kind().String()).
			Str("order_id", ev.OrderID).
			Str("instrument", ev.Instrument.String()).
			Str("status", string(ev.Status)).
			Str("reason", ev.Reason).
			Msg("order update")
	case event.Fill:
		r.log.Info().
			Str("kind", ev.Kind().String()).
			Str("order_id", ev.OrderID).
			Str("instrument", ev.Instrument.String()).
			Str("side", string(ev.Side)).
			Float64("qty", ev.Qty).
			Float64("px", ev.Price).
			Float64("fees", ev.Fees.Total()).
			Msg("fill")
	case event.PositionNew:
		r.log.Info().
			Str("kind", ev.Kind().String()).
			Str("instrument", ev.Instrument.String()).
			Float64("qty", ev.Qty).
			Float64("entry_px", ev.EntryPrice).
			Float64("entry_fees", ev.EntryFees).
			Msg("position new")
	case event.PositionUpdate:
		r.log.Info().
			Str("kind", ev.Kind().String()).
			Str("instrument", ev.Instrument.String()).
			Float64("qty", ev.Qty).
			Float64("last_px", ev.LastPrice).
			Float64("unrealized_pnl", ev.UnrealizedPnL).
			Msg("position update")
	case event.PositionExit:
		r.log.Info().
			Str("kind", ev.Kind().String()).
			Str("instrument", ev.Instrument.String()).
			Float64("qty", ev.Qty).
			Float64("entry_px", ev.EntryPrice).
			Float64("exit_px", ev.ExitPrice).
			Float64("realized_pnl", ev.RealizedPnL).
			Str("reason", ev.Reason).
			Msg("position exit")
	case event.Balance:
		r.log.Info().
			Str("kind", ev.Kind().String()).
			Time("time", ev.Time).
			Float64("total", ev.Total).
			Float64("available", ev.Available).
			Msg("balance")
	default:
		panic(fmt.Sprintf("unhandled event %T", e))
	}

	for _, sink := range r.sinks {
		if err := sink.Observe(e); err != nil {
			r.log.Warn().Err(err).Str("sink", sink.Name()).Str("kind", e.Kind().String()).Msg("sink failed")
		}
	}
}
