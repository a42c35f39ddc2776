// Package portfolio provides a paper collaborator that turns signals into simulated
// orders, fills, positions and balances.
package portfolio

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JoeTonDev/trading-fractals/internal/event"
	"github.com/JoeTonDev/trading-fractals/internal/execution"
	"github.com/JoeTonDev/trading-fractals/internal/paper"
	"github.com/JoeTonDev/trading-fractals/internal/risk"
	"github.com/JoeTonDev/trading-fractals/internal/signal"
)

const defaultOrderValue = 100.0

// Config tunes the paper collaborator.
type Config struct {
	DefaultOrderValue float64 // quote currency per entry; 0 selects 100
	Limits            risk.Limits
}

// Paper trades long-only spot positions: Long enters, Short/CloseLong/force exit close.
type Paper struct {
	log        zerolog.Logger
	account    *paper.Account
	exec       *execution.Executor
	recorder   paper.FillRecorder
	limits     risk.Limits
	orderValue float64

	mu      sync.Mutex
	marks   map[signal.Market]float64
	entries map[signal.Market]float64 // entry fees per open position
	summary Summary
}

// NewPaper builds a paper collaborator. recorder may be nil.
func NewPaper(log zerolog.Logger, account *paper.Account, exec *execution.Executor, recorder paper.FillRecorder, cfg Config) *Paper {
	orderValue := cfg.DefaultOrderValue
	if orderValue <= 0 {
		orderValue = defaultOrderValue
	}
	return &Paper{
		log:        log,
		account:    account,
		exec:       exec,
		recorder:   recorder,
		limits:     cfg.Limits,
		orderValue: orderValue,
		marks:      make(map[signal.Market]float64),
		entries:    make(map[signal.Market]float64),
		summary:    Summary{StartingEquity: account.StartingCash()},
	}
}

// Summary reports closed-trade statistics and equity marked at the last seen closes.
func (p *Paper) Summary() Summary {
	p.mu.Lock()
	s := p.summary
	p.mu.Unlock()
	s.Equity = p.account.Snapshot(p.markSnapshot()).Equity
	return s
}

// OnMarket records the latest close and marks any open position to it.
func (p *Paper) OnMarket(ev signal.MarketEvent) []event.Event {
	market := ev.Market()
	p.mu.Lock()
	p.marks[market] = ev.Bar.Close
	p.mu.Unlock()

	qty, avg := p.account.Holding(market)
	if qty <= 0 || ev.Bar.Close <= 0 {
		return nil
	}
	return []event.Event{event.PositionUpdate{PositionUpdate: paper.PositionUpdate{
		Exchange:      ev.Exchange,
		Instrument:    ev.Instrument,
		Time:          ev.Time,
		Qty:           qty,
		LastPrice:     ev.Bar.Close,
		UnrealizedPnL: (ev.Bar.Close - avg) * qty,
	}}}
}

// OnSignal acts on the strongest decision in sig.
func (p *Paper) OnSignal(sig signal.Signal) []event.Event {
	decision, ok := strongest(sig.Signals)
	if !ok {
		return nil
	}
	market := sig.Market()
	qty, _ := p.account.Holding(market)
	price := sig.MarketMeta.Close
	if price <= 0 {
		price = p.mark(market)
	}

	switch {
	case decision == signal.Long && qty <= 0:
		return p.enter(market, decision, price, sig.Time)
	case (decision == signal.Short || decision == signal.CloseLong) && qty > 0:
		return p.exit(market, decision, price, sig.Time, "")
	}
	return nil
}

// OnForceExit closes any open position at the last mark.
func (p *Paper) OnForceExit(exit signal.SignalForceExit) []event.Event {
	market := exit.Market()
	if qty, _ := p.account.Holding(market); qty <= 0 {
		return nil
	}
	return p.exit(market, signal.CloseLong, p.mark(market), exit.Time, signal.ForcedExitSignal)
}

func (p *Paper) enter(market signal.Market, decision signal.Decision, price float64, ts time.Time) []event.Event {
	if price <= 0 {
		return nil
	}
	order := execution.Order{
		ID:         uuid.NewString(),
		Time:       ts,
		Exchange:   market.Exchange,
		Instrument: market.Instrument,
		Side:       execution.Buy,
		Qty:        p.orderValue / price,
		Price:      price,
		Decision:   decision,
	}
	out := []event.Event{event.OrderNew{Order: order}}
	if !p.limits.Allow(order.Qty * order.Price) {
		return append(out, rejected(order, "risk: max notional per trade"))
	}

	fill, err := p.exec.Submit(order)
	if err != nil {
		return append(out, rejected(order, err.Error()))
	}
	if err := p.account.MarketFill(market, fill.Side, fill.Qty, fill.Price, fill.Fees.Total()); err != nil {
		p.log.Warn().Err(err).Str("order_id", order.ID).Msg("paper fill refused")
		return append(out, rejected(order, err.Error()))
	}
	p.record(fill)

	p.mu.Lock()
	p.entries[market] = fill.Fees.Total()
	p.mu.Unlock()

	return append(out,
		event.Fill{Fill: fill},
		event.PositionNew{Position: paper.Position{
			Exchange:   market.Exchange,
			Instrument: market.Instrument,
			OpenedAt:   ts,
			Qty:        fill.Qty,
			EntryPrice: fill.Price,
			EntryFees:  fill.Fees.Total(),
		}},
		p.balance(ts),
	)
}

func (p *Paper) exit(market signal.Market, decision signal.Decision, price float64, ts time.Time, reason string) []event.Event {
	qty, avg := p.account.Holding(market)
	if qty <= 0 || price <= 0 {
		return nil
	}
	order := execution.Order{
		ID:         uuid.NewString(),
		Time:       ts,
		Exchange:   market.Exchange,
		Instrument: market.Instrument,
		Side:       execution.Sell,
		Qty:        qty,
		Price:      price,
		Decision:   decision,
		Reason:     reason,
	}
	out := []event.Event{event.OrderNew{Order: order}}

	fill, err := p.exec.Submit(order)
	if err != nil {
		return append(out, rejected(order, err.Error()))
	}
	if err := p.account.MarketFill(market, fill.Side, fill.Qty, fill.Price, fill.Fees.Total()); err != nil {
		p.log.Warn().Err(err).Str("order_id", order.ID).Msg("paper fill refused")
		return append(out, rejected(order, err.Error()))
	}
	p.record(fill)

	exitFees := fill.Fees.Total()
	p.mu.Lock()
	entryFees := p.entries[market]
	delete(p.entries, market)
	pnl := (fill.Price-avg)*qty - entryFees - exitFees
	p.summary.add(pnl)
	p.mu.Unlock()

	return append(out,
		event.Fill{Fill: fill},
		event.PositionExit{PositionExit: paper.PositionExit{
			Exchange:    market.Exchange,
			Instrument:  market.Instrument,
			Time:        ts,
			Qty:         qty,
			EntryPrice:  avg,
			ExitPrice:   fill.Price,
			ExitFees:    exitFees,
			RealizedPnL: pnl,
			Reason:      reason,
		}},
		p.balance(ts),
	)
}

func (p *Paper) balance(ts time.Time) event.Event {
	snap := p.account.Snapshot(p.markSnapshot())
	return event.Balance{Balance: paper.Balance{Time: ts, Total: snap.Equity, Available: snap.Cash}}
}

func (p *Paper) markSnapshot() map[signal.Market]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	marks := make(map[signal.Market]float64, len(p.marks))
	for m, px := range p.marks {
		marks[m] = px
	}
	return marks
}

func (p *Paper) mark(market signal.Market) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.marks[market]
}

func (p *Paper) record(fill execution.Fill) {
	if p.recorder != nil {
		p.recorder.Record(fill)
	}
}

func rejected(order execution.Order, reason string) event.Event {
	return event.OrderUpdate{OrderUpdate: execution.OrderUpdate{
		OrderID:    order.ID,
		Time:       order.Time,
		Exchange:   order.Exchange,
		Instrument: order.Instrument,
		Status:     execution.StatusRejected,
		Reason:     reason,
	}}
}

// strongest picks the highest-strength decision; ties resolve in declaration order.
func strongest(signals map[signal.Decision]signal.SignalStrength) (signal.Decision, bool) {
	var (
		best    signal.Decision
		bestStr signal.SignalStrength
		found   bool
	)
	for _, d := range []signal.Decision{signal.Long, signal.CloseLong, signal.Short, signal.CloseShort} {
		s, ok := signals[d]
		if !ok {
			continue
		}
		if !found || s > bestStr {
			best, bestStr, found = d, s, true
		}
	}
	return best, found
}
