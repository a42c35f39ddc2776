package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JoeTonDev/trading-fractals/internal/event"
	"github.com/JoeTonDev/trading-fractals/internal/signal"
	"github.com/JoeTonDev/trading-fractals/internal/strategy"
)

const commandBuffer = 10

// TraderSpec describes one trader to add to an Engine.
type TraderSpec struct {
	Market       signal.Market
	Strategy     strategy.Strategy
	Feed         MarketFeed
	Collaborator Collaborator
}

// Engine owns the event queue, its router and every trader producing into it.
type Engine struct {
	id     uuid.UUID
	log    zerolog.Logger
	root   *event.Tx
	router *Router

	mu       sync.Mutex
	started  bool
	traders  []*Trader
	commands []chan Command
}

// New builds an engine whose router fans out to sinks. A nil cfg.OnDrop logs drops.
func New(log zerolog.Logger, cfg event.QueueConfig, sinks ...Sink) *Engine {
	id := uuid.New()
	log = log.With().Str("engine_id", id.String()).Logger()
	if cfg.OnDrop == nil {
		cfg.OnDrop = func(e event.Event) {
			log.Warn().Str("kind", e.Kind().String()).Str("policy", string(event.DropOldest)).Msg("event dropped")
		}
	}
	root, queue := event.NewQueue(cfg)
	return &Engine{
		id:     id,
		log:    log,
		root:   root,
		router: NewRouter(log.With().Str("component", "router").Logger(), queue, sinks...),
	}
}

// ID identifies the engine run.
func (e *Engine) ID() uuid.UUID { return e.id }

// AddTrader registers a trader with its own producer handle and command channel.
func (e *Engine) AddTrader(spec TraderSpec) (*Trader, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil, errors.New("engine already running")
	}
	commands := make(chan Command, commandBuffer)
	tx := e.root.Clone()
	trader, err := NewTrader(TraderParams{
		EngineID:     e.id,
		Market:       spec.Market,
		Strategy:     spec.Strategy,
		Feed:         spec.Feed,
		Tx:           tx,
		Collaborator: spec.Collaborator,
		Commands:     commands,
		Log:          e.log,
	})
	if err != nil {
		tx.Close()
		return nil, err
	}
	e.traders = append(e.traders, trader)
	e.commands = append(e.commands, commands)
	return trader, nil
}

// Command broadcasts cmd to every trader without blocking.
func (e *Engine) Command(cmd Command) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, ch := range e.commands {
		select {
		case ch <- cmd:
		default:
			e.log.Warn().Str("trader_id", e.traders[i].ID().String()).Msg("trader command buffer full")
		}
	}
}

// Run starts every trader and drains the router until all of them have returned.
// Canceling ctx stops the traders; events already queued are still dispatched.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return errors.New("engine already running")
	}
	e.started = true
	traders := append([]*Trader(nil), e.traders...)
	e.mu.Unlock()

	// the queue closes once the last trader drops its handle
	e.root.Close()
	e.log.Info().Int("traders", len(traders)).Msg("engine started")

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  []error
	)
	for _, t := range traders {
		wg.Add(1)
		go func(t *Trader) {
			defer wg.Done()
			if err := t.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errMu.Lock()
				errs = append(errs, fmt.Errorf("trader %s: %w", t.Market(), err))
				errMu.Unlock()
			}
		}(t)
	}

	routerErr := e.router.Run(context.Background())
	wg.Wait()
	e.log.Info().Msg("engine stopped")
	return errors.Join(append(errs, routerErr)...)
}
