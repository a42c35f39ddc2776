package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/JoeTonDev/trading-fractals/internal/event"
	"github.com/JoeTonDev/trading-fractals/internal/signal"
)

var eth = signal.NewMarket("binance", signal.NewInstrument("eth", "usdt", signal.Spot))

func TestEngineRunsTradersAndDrains(t *testing.T) {
	sink := &recordingSink{}
	eng := New(zerolog.Nop(), event.QueueConfig{Capacity: 2, Policy: event.Block}, sink)

	for _, m := range []signal.Market{btc, eth} {
		feed := sliceFeed{market: m, bars: bars([2]float64{10, 8}, [2]float64{9, 5}, [2]float64{11, 9})}
		if _, err := eng.AddTrader(TraderSpec{Market: m, Strategy: fractals(t, 1), Feed: feed}); err != nil {
			t.Fatalf("AddTrader: %v", err)
		}
	}

	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// each trader: 3 market events and one signal, per-market order kept
	perMarket := map[signal.Market][]event.Kind{}
	sink.mu.Lock()
	for _, e := range sink.events {
		m, _ := event.MarketOf(e)
		perMarket[m] = append(perMarket[m], e.Kind())
	}
	sink.mu.Unlock()
	for _, m := range []signal.Market{btc, eth} {
		got := perMarket[m]
		want := []event.Kind{event.KindMarket, event.KindMarket, event.KindMarket, event.KindSignal}
		if len(got) != len(want) {
			t.Fatalf("%s: expected %v got %v", m, want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: expected %v got %v", m, want, got)
			}
		}
	}

	if _, err := eng.AddTrader(TraderSpec{Market: btc, Strategy: fractals(t, 1), Feed: idleFeed{}}); err == nil {
		t.Fatalf("adding a trader after Run should fail")
	}
	if err := eng.Run(context.Background()); err == nil {
		t.Fatalf("second Run should fail")
	}
}

func TestEngineCommandAndCancel(t *testing.T) {
	sink := &recordingSink{}
	eng := New(zerolog.Nop(), event.QueueConfig{}, sink)
	if _, err := eng.AddTrader(TraderSpec{Market: btc, Strategy: fractals(t, 2), Feed: idleFeed{}, Collaborator: markerCollab{}}); err != nil {
		t.Fatalf("AddTrader: %v", err)
	}
	eng.Command(CommandExitPosition)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(sink.kinds()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("force exit never dispatched: %v", sink.kinds())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("cancel should be a clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("engine did not stop")
	}
	kinds := sink.kinds()
	if kinds[0] != event.KindSignalForceExit || kinds[1] != event.KindOrderNew {
		t.Fatalf("unexpected events %v", kinds)
	}
}

func TestEngineRejectedTraderDoesNotBlockRun(t *testing.T) {
	eng := New(zerolog.Nop(), event.QueueConfig{})
	if _, err := eng.AddTrader(TraderSpec{}); err == nil {
		t.Fatalf("expected an empty trader spec to be rejected")
	}

	done := make(chan error, 1)
	go func() { done <- eng.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run still blocked after a rejected AddTrader")
	}
}

func TestEngineWithoutTraders(t *testing.T) {
	eng := New(zerolog.Nop(), event.QueueConfig{})
	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("empty engine should stop immediately, got %v", err)
	}
}

func TestEngineReportsTraderFailure(t *testing.T) {
	eng := New(zerolog.Nop(), event.QueueConfig{})
	boom := errors.New("boom")
	if _, err := eng.AddTrader(TraderSpec{Market: btc, Strategy: fractals(t, 1), Feed: sliceFeed{err: boom}}); err != nil {
		t.Fatalf("AddTrader: %v", err)
	}
	if err := eng.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected trader error, got %v", err)
	}
}
