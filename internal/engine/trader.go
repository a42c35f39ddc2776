package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JoeTonDev/trading-fractals/internal/event"
	"github.com/JoeTonDev/trading-fractals/internal/metrics"
	"github.com/JoeTonDev/trading-fractals/internal/signal"
	"github.com/JoeTonDev/trading-fractals/internal/strategy"
)

// MarketFeed pushes market events for one market until it is exhausted or ctx ends.
type MarketFeed interface {
	Run(ctx context.Context, out chan<- signal.MarketEvent) error
}

// Collaborator turns the trader's observations and signals into follow-up events
// (orders, fills, positions, balances) that are sent on the same queue.
type Collaborator interface {
	OnMarket(ev signal.MarketEvent) []event.Event
	OnSignal(sig signal.Signal) []event.Event
	OnForceExit(exit signal.SignalForceExit) []event.Event
}

// Command is an out-of-band instruction for a running trader.
type Command int

const (
	// CommandExitPosition emits a SignalForceExit for the trader's market.
	CommandExitPosition Command = iota
	// CommandTerminate stops the trader after the current event.
	CommandTerminate
)

// TraderParams collects everything a Trader needs. Collaborator and Commands are optional.
type TraderParams struct {
	EngineID     uuid.UUID
	Market       signal.Market
	Strategy     strategy.Strategy
	Feed         MarketFeed
	Tx           *event.Tx
	Collaborator Collaborator
	Commands     <-chan Command
	Log          zerolog.Logger
}

// Trader is one producer: it feeds a single market through its strategy and sends
// the resulting events to the router.
type Trader struct {
	id       uuid.UUID
	market   signal.Market
	strategy strategy.Strategy
	feed     MarketFeed
	tx       *event.Tx
	collab   Collaborator
	commands <-chan Command
	log      zerolog.Logger
}

// NewTrader validates params and builds a Trader.
func NewTrader(p TraderParams) (*Trader, error) {
	switch {
	case p.Strategy == nil:
		return nil, errors.New("trader requires a strategy")
	case p.Feed == nil:
		return nil, errors.New("trader requires a market feed")
	case p.Tx == nil:
		return nil, errors.New("trader requires an event producer")
	case p.Market.Exchange == "" || p.Market.Instrument.Base == "":
		return nil, fmt.Errorf("trader requires a market, got %q", p.Market.String())
	}
	id := uuid.New()
	return &Trader{
		id:       id,
		market:   p.Market,
		strategy: p.Strategy,
		feed:     p.Feed,
		tx:       p.Tx,
		collab:   p.Collaborator,
		commands: p.Commands,
		log: p.Log.With().
			Str("engine_id", p.EngineID.String()).
			Str("trader_id", id.String()).
			Str("market", p.Market.String()).
			Str("strategy", p.Strategy.Name()).
			Logger(),
	}, nil
}

// ID identifies the trader in logs.
func (t *Trader) ID() uuid.UUID { return t.id }

// Market returns the market the trader owns.
func (t *Trader) Market() signal.Market { return t.market }

// Run consumes the feed until it ends, a terminate command arrives, or ctx is done.
// The producer handle is always closed on return.
func (t *Trader) Run(ctx context.Context) error {
	defer t.tx.Close()

	feedCtx, cancelFeed := context.WithCancel(ctx)
	defer cancelFeed()

	bars := make(chan signal.MarketEvent, 64)
	feedErr := make(chan error, 1)
	go func() {
		feedErr <- t.feed.Run(feedCtx, bars)
		close(bars)
	}()

	t.log.Info().Msg("trader started")
	for {
		select {
		case <-ctx.Done():
			t.log.Info().Msg("trader stopped")
			return ctx.Err()

		case cmd := <-t.commands:
			switch cmd {
			case CommandExitPosition:
				if err := t.forceExit(); err != nil {
					return err
				}
			case CommandTerminate:
				t.log.Info().Msg("trader terminated")
				return nil
			}

		case ev, ok := <-bars:
			if !ok {
				err := <-feedErr
				if ctx.Err() != nil {
					t.log.Info().Msg("trader stopped")
					return ctx.Err()
				}
				if err != nil {
					t.log.Error().Err(err).Msg("market feed stopped")
					return fmt.Errorf("market feed: %w", err)
				}
				t.log.Info().Msg("market feed finished")
				return nil
			}
			if err := t.onMarket(ev); err != nil {
				return err
			}
		}
	}
}

func (t *Trader) onMarket(ev signal.MarketEvent) error {
	metrics.MarketEventsTotal.WithLabelValues(t.market.Instrument.String()).Inc()
	if err := t.send(event.Market{MarketEvent: ev}); err != nil {
		return err
	}

	if t.collab != nil {
		if err := t.send(t.collab.OnMarket(ev)...); err != nil {
			return err
		}
	}

	sig := t.strategy.GenerateSignal(ev)
	if sig == nil {
		return nil
	}
	for d := range sig.Signals {
		metrics.SignalsTotal.WithLabelValues(t.market.Instrument.String(), d.String()).Inc()
	}
	if err := t.send(event.Signal{Signal: *sig}); err != nil {
		return err
	}
	if t.collab != nil {
		return t.send(t.collab.OnSignal(*sig)...)
	}
	return nil
}

func (t *Trader) forceExit() error {
	exit := signal.NewSignalForceExit(t.market)
	if err := t.send(event.SignalForceExit{SignalForceExit: exit}); err != nil {
		return err
	}
	if t.collab != nil {
		return t.send(t.collab.OnForceExit(exit)...)
	}
	return nil
}

// send enqueues events in order. A nil event or a full queue under the reject policy
// loses only that event; a closed queue stops the trader.
func (t *Trader) send(events ...event.Event) error {
	for _, e := range events {
		err := t.tx.Send(e)
		switch {
		case err == nil:
		case errors.Is(err, event.ErrNilEvent):
			t.log.Warn().Msg("collaborator returned a nil event, skipped")
		case errors.Is(err, event.ErrQueueFull):
			t.log.Warn().Str("kind", e.Kind().String()).Msg("event queue full, event rejected")
		default:
			return fmt.Errorf("send %s: %w", e.Kind(), err)
		}
	}
	return nil
}
