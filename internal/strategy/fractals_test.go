package strategy

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JoeTonDev/trading-fractals/internal/metrics"
	"github.com/JoeTonDev/trading-fractals/internal/signal"
)

var btc = signal.NewMarket("binance", signal.NewInstrument("btc", "usdt", signal.Spot))

func feed(t *testing.T, strat Strategy, market signal.Market, highs, lows []float64) []*signal.Signal {
	t.Helper()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*signal.Signal, len(highs))
	for i := range highs {
		ts := t0.Add(time.Duration(i) * time.Hour)
		out[i] = strat.GenerateSignal(signal.MarketEvent{
			Time:       ts,
			Exchange:   market.Exchange,
			Instrument: market.Instrument,
			Bar:        signal.Bar{Time: ts, High: highs[i], Low: lows[i], Close: (highs[i] + lows[i]) / 2},
		})
	}
	return out
}

func TestNewFractalsValidation(t *testing.T) {
	if _, err := NewFractals(FractalsConfig{Period: 0}); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := NewFractals(FractalsConfig{Period: 2, Radius: 3}); !errors.Is(err, ErrInvalidRadius) {
		t.Fatalf("expected ErrInvalidRadius, got %v", err)
	}
	if _, err := NewFractals(FractalsConfig{Period: 2, Strength: "median"}); err == nil {
		t.Fatalf("expected unknown strength mode error")
	}

	strat, err := NewFractals(FractalsConfig{Period: 1})
	if err != nil {
		t.Fatalf("NewFractals: %v", err)
	}
	if strat.Config().Radius != 1 {
		t.Fatalf("expected radius capped to period 1, got %d", strat.Config().Radius)
	}
	strat, err = NewFractals(FractalsConfig{Period: 5})
	if err != nil {
		t.Fatalf("NewFractals: %v", err)
	}
	if strat.Config().Radius != 2 || strat.Config().Strength != StrengthDominance {
		t.Fatalf("unexpected defaults %+v", strat.Config())
	}
}

func TestGenerateSignalWarmUp(t *testing.T) {
	for _, period := range []int{1, 2, 3} {
		strat, err := NewFractals(FractalsConfig{Period: period, Strength: StrengthFixed})
		if err != nil {
			t.Fatalf("NewFractals: %v", err)
		}
		// Every bar is a fresh extreme on the low side, so the first full window fires.
		n := 2*period + 1
		highs := make([]float64, n)
		lows := make([]float64, n)
		for i := range highs {
			highs[i] = 100
			lows[i] = 50
		}
		lows[period] = 10

		sigs := feed(t, strat, btc, highs, lows)
		for i := 0; i < 2*period; i++ {
			if sigs[i] != nil {
				t.Fatalf("period=%d: expected no signal during warm-up at bar %d", period, i)
			}
		}
		if sigs[2*period] == nil {
			t.Fatalf("period=%d: expected signal on bar %d", period, 2*period+1)
		}
	}
}

func TestGenerateSignalHighPivotIsShort(t *testing.T) {
	strat, err := NewFractals(FractalsConfig{Period: 2})
	if err != nil {
		t.Fatalf("NewFractals: %v", err)
	}
	highs := []float64{10, 11, 15, 12, 9}
	lows := []float64{8, 9, 10, 9, 7}
	sigs := feed(t, strat, btc, highs, lows)
	sig := sigs[4]
	if sig == nil {
		t.Fatalf("expected short signal")
	}
	if len(sig.Signals) != 1 {
		t.Fatalf("expected exactly one decision, got %+v", sig.Signals)
	}
	strength, ok := sig.Signals[signal.Short]
	if !ok {
		t.Fatalf("expected short decision, got %+v", sig.Signals)
	}
	// (15 - 12) / (15 - 9)
	if math.Abs(float64(strength)-0.5) > 1e-9 {
		t.Fatalf("expected dominance strength 0.5, got %v", strength)
	}
	if sig.Exchange != btc.Exchange || sig.Instrument != btc.Instrument {
		t.Fatalf("unexpected market on signal: %+v", sig)
	}
	if sig.MarketMeta.Close != (9+7)/2.0 {
		t.Fatalf("expected market meta from latest bar, got %+v", sig.MarketMeta)
	}
	pivot := time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC)
	if !sig.MarketMeta.PivotTime.Equal(pivot) || !sig.Time.Equal(pivot.Add(2*time.Hour)) {
		t.Fatalf("expected pivot at %s reported on %s, got %+v at %s", pivot, pivot.Add(2*time.Hour), sig.MarketMeta, sig.Time)
	}
}

func TestGenerateSignalLowPivotIsLong(t *testing.T) {
	strat, err := NewFractals(FractalsConfig{Period: 2})
	if err != nil {
		t.Fatalf("NewFractals: %v", err)
	}
	highs := []float64{20, 19, 18, 19, 20}
	lows := []float64{14, 12, 8, 10, 16}
	sig := feed(t, strat, btc, highs, lows)[4]
	if sig == nil {
		t.Fatalf("expected long signal")
	}
	strength, ok := sig.Signals[signal.Long]
	if !ok {
		t.Fatalf("expected long decision, got %+v", sig.Signals)
	}
	// (10 - 8) / (16 - 8)
	if math.Abs(float64(strength)-0.25) > 1e-9 {
		t.Fatalf("expected dominance strength 0.25, got %v", strength)
	}
}

func TestGenerateSignalOutsideBarPicksStrongerSide(t *testing.T) {
	strat, err := NewFractals(FractalsConfig{Period: 2})
	if err != nil {
		t.Fatalf("NewFractals: %v", err)
	}
	// high side: (30-12)/(30-10) = 0.9, low side: (8-1)/(9-1) = 0.875
	highs := []float64{10, 12, 30, 11, 10}
	lows := []float64{9, 8, 1, 8, 9}
	sig := feed(t, strat, btc, highs, lows)[4]
	if sig == nil {
		t.Fatalf("expected signal for outside bar")
	}
	if _, ok := sig.Signals[signal.Short]; !ok || len(sig.Signals) != 1 {
		t.Fatalf("expected stronger short side to win, got %+v", sig.Signals)
	}
}

func TestGenerateSignalOutsideBarFixedStrengthBreaksTieOnDominance(t *testing.T) {
	strat, err := NewFractals(FractalsConfig{Period: 2, Strength: StrengthFixed})
	if err != nil {
		t.Fatalf("NewFractals: %v", err)
	}
	// high side dominates 0.9 against the low side's 0.875
	highs := []float64{10, 11, 20, 11, 10}
	lows := []float64{9, 8, 1, 8, 9}
	sig := feed(t, strat, btc, highs, lows)[4]
	if sig == nil {
		t.Fatalf("expected a signal for an outside bar under fixed strength")
	}
	if strength, ok := sig.Signals[signal.Short]; !ok || len(sig.Signals) != 1 || strength != 1.0 {
		t.Fatalf("expected short at the fixed strength, got %+v", sig.Signals)
	}
}

func TestGenerateSignalOutsideBarFullTieIsCounted(t *testing.T) {
	strat, err := NewFractals(FractalsConfig{Period: 2})
	if err != nil {
		t.Fatalf("NewFractals: %v", err)
	}
	// both sides score exactly 0.9: (30-12)/(30-10) and (9-0)/(10-0)
	highs := []float64{10, 12, 30, 11, 10}
	lows := []float64{9, 10, 0, 10, 9}
	skipped := metrics.FractalTiesSkipped.WithLabelValues(btc.Instrument.String())
	before := testutil.ToFloat64(skipped)
	if sig := feed(t, strat, btc, highs, lows)[4]; sig != nil {
		t.Fatalf("expected no signal on a full tie, got %+v", sig.Signals)
	}
	if got := testutil.ToFloat64(skipped) - before; got != 1 {
		t.Fatalf("expected the skipped pivot to be counted once, got %v", got)
	}
}

func TestGenerateSignalNoPivot(t *testing.T) {
	strat, err := NewFractals(FractalsConfig{Period: 2})
	if err != nil {
		t.Fatalf("NewFractals: %v", err)
	}
	highs := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	lows := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	for i, sig := range feed(t, strat, btc, highs, lows) {
		if sig != nil {
			t.Fatalf("monotone series produced signal at %d", i)
		}
	}
}

func TestGenerateSignalKeepsWindowsPerMarket(t *testing.T) {
	strat, err := NewFractals(FractalsConfig{Period: 2, Strength: StrengthFixed, FixedStrength: 0.6})
	if err != nil {
		t.Fatalf("NewFractals: %v", err)
	}
	eth := signal.NewMarket("binance", signal.NewInstrument("eth", "usdt", signal.Spot))
	highs := []float64{10, 11, 15, 12, 9}
	lows := []float64{8, 9, 10, 9, 7}

	// Interleave: four BTC bars then four ETH bars must not complete either window.
	feed(t, strat, btc, highs[:4], lows[:4])
	feed(t, strat, eth, highs[:4], lows[:4])
	sig := feed(t, strat, btc, highs[4:], lows[4:])[0]
	if sig == nil || sig.Instrument != btc.Instrument {
		t.Fatalf("expected btc signal after its fifth bar, got %+v", sig)
	}
	if sig.Signals[signal.Short] != 0.6 {
		t.Fatalf("expected fixed strength 0.6, got %+v", sig.Signals)
	}
}

func TestBuild(t *testing.T) {
	strat, err := Build("fractals", Params{Period: 2})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if strat.Name() != "Fractals" {
		t.Fatalf("unexpected strategy %s", strat.Name())
	}
	if _, err := Build("rsi", Params{Period: 2}); err == nil {
		t.Fatalf("expected unknown mode error")
	}
	if _, err := Build("", Params{}); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod for zero period, got %v", err)
	}
}
