package paper

import (
	"math"
	"testing"

	"github.com/JoeTonDev/trading-fractals/internal/execution"
	"github.com/JoeTonDev/trading-fractals/internal/signal"
)

var btc = signal.NewMarket("binance", signal.NewInstrument("btc", "usdt", signal.Spot))

func TestMarketFillBuySellPnL(t *testing.T) {
	account := NewAccount(1000, 1)

	if err := account.MarketFill(btc, execution.Buy, 0.5, 1000, 0); err != nil {
		t.Fatalf("unexpected buy error: %v", err)
	}
	if err := account.MarketFill(btc, execution.Buy, 0.25, 1100, 0); err != nil {
		t.Fatalf("unexpected second buy error: %v", err)
	}

	snap := account.Snapshot(map[signal.Market]float64{btc: 1150})
	pos := snap.Positions[btc]
	if pos.Qty < 0.74 || pos.Qty > 0.76 {
		t.Fatalf("expected qty ~0.75, got %.4f", pos.Qty)
	}
	if pos.AvgCost <= 0 {
		t.Fatalf("avg cost not tracked")
	}
	if snap.Equity <= 0 {
		t.Fatalf("equity should be positive")
	}

	if err := account.MarketFill(btc, execution.Sell, 0.25, 1200, 0); err != nil {
		t.Fatalf("unexpected sell error: %v", err)
	}
	realized := account.RealizedPnL()
	if realized <= 0 {
		t.Fatalf("expected positive realized pnl got %.2f", realized)
	}

	snap = account.Snapshot(map[signal.Market]float64{btc: 1180})
	if math.Abs(snap.Cash+snap.Positions[btc].MarketValue-snap.Equity) > 1e-6 {
		t.Fatalf("equity did not balance")
	}
}

func TestMarketFillChargesFees(t *testing.T) {
	account := NewAccount(1000, 0)
	if err := account.MarketFill(btc, execution.Buy, 1, 100, 1); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if math.Abs(account.AvailableCash()-899) > 1e-9 {
		t.Fatalf("expected cash 899 after fee, got %v", account.AvailableCash())
	}
	if err := account.MarketFill(btc, execution.Sell, 1, 110, 1); err != nil {
		t.Fatalf("sell: %v", err)
	}
	// 10 gross gain less two fees
	if math.Abs(account.RealizedPnL()-8) > 1e-9 {
		t.Fatalf("expected realized pnl 8, got %v", account.RealizedPnL())
	}
	if qty, _ := account.Holding(btc); qty != 0 {
		t.Fatalf("expected flat position, got %v", qty)
	}
}

func TestMarketFillInsufficientCash(t *testing.T) {
	account := NewAccount(10, 1)
	if err := account.MarketFill(btc, execution.Buy, 0.1, 200, 0); err == nil {
		t.Fatalf("expected cash error")
	}
}

func TestMarketFillPositionLimit(t *testing.T) {
	account := NewAccount(1000, 0.1)
	if err := account.MarketFill(btc, execution.Buy, 0.2, 1000, 0); err == nil {
		t.Fatalf("expected position limit error")
	}
}

func TestMarketFillInsufficientPosition(t *testing.T) {
	account := NewAccount(1000, 1)
	if err := account.MarketFill(btc, execution.Sell, 0.01, 1000, 0); err == nil {
		t.Fatalf("expected insufficient position error")
	}
}
