// Package strategy contains trading signal generation logic wired into market events.
package strategy

import (
	"errors"
	"fmt"
	"sync"

	"github.com/JoeTonDev/trading-fractals/internal/indicator"
	"github.com/JoeTonDev/trading-fractals/internal/metrics"
	"github.com/JoeTonDev/trading-fractals/internal/signal"
)

// ErrInvalidRadius rejects a comparison radius that cannot fit inside the window.
var ErrInvalidRadius = errors.New("fractal radius must be between 1 and period")

// StrengthMode selects how a detected pivot is converted into a SignalStrength.
type StrengthMode string

const (
	// StrengthDominance scores a pivot by how far it clears its neighbours, relative to
	// the neighbour range. Always in (0, 1] for a strict pivot.
	StrengthDominance StrengthMode = "dominance"
	// StrengthFixed assigns the configured constant to every pivot.
	StrengthFixed StrengthMode = "fixed"
)

// FractalsConfig tunes the fractal strategy.
type FractalsConfig struct {
	Period        int
	Radius        int // 0 selects min(2, Period)
	Strength      StrengthMode
	FixedStrength float64 // used when Strength is StrengthFixed; 0 selects 1.0
}

// Fractals turns fractal pivots at the window center into Long/Short signals.
type Fractals struct {
	cfg      FractalsConfig
	detector indicator.Fractal
	mu       sync.Mutex
	windows  map[signal.Market]*Window
}

// NewFractals validates cfg and builds a Fractals strategy.
func NewFractals(cfg FractalsConfig) (*Fractals, error) {
	if cfg.Period < 1 {
		return nil, ErrInvalidPeriod
	}
	if cfg.Radius == 0 {
		cfg.Radius = min(indicator.DefaultRadius, cfg.Period)
	}
	if cfg.Radius < 1 || cfg.Radius > cfg.Period {
		return nil, fmt.Errorf("%w: radius=%d period=%d", ErrInvalidRadius, cfg.Radius, cfg.Period)
	}
	switch cfg.Strength {
	case "":
		cfg.Strength = StrengthDominance
	case StrengthDominance, StrengthFixed:
	default:
		return nil, fmt.Errorf("unknown strength mode %q", cfg.Strength)
	}
	if cfg.Strength == StrengthFixed && cfg.FixedStrength == 0 {
		cfg.FixedStrength = 1.0
	}
	return &Fractals{
		cfg:      cfg,
		detector: indicator.Fractal{Period: cfg.Period, Radius: cfg.Radius},
		windows:  make(map[signal.Market]*Window),
	}, nil
}

// Name returns the identifier for the strategy implementation.
func (f *Fractals) Name() string { return "Fractals" }

// Config returns the effective configuration after defaults.
func (f *Fractals) Config() FractalsConfig { return f.cfg }

// GenerateSignal buffers the observation and returns a Signal when the bar at the
// window center is a fractal. It returns nil while the window warms up.
func (f *Fractals) GenerateSignal(ev signal.MarketEvent) *signal.Signal {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := ev.Market()
	w := f.windows[key]
	if w == nil {
		w, _ = NewWindow(f.cfg.Period)
		f.windows[key] = w
	}
	w.Push(ev.Bar)
	if !w.Ready() {
		return nil
	}

	highs, lows := w.Series()
	sides, err := f.detector.Sides(highs, lows)
	if err != nil {
		return nil
	}
	center := w.CenterIdx()
	decision, strength, ok := f.decide(sides[center], highs, lows, center)
	if !ok {
		if sides[center] == indicator.Both {
			metrics.FractalTiesSkipped.WithLabelValues(ev.Instrument.String()).Inc()
		}
		return nil
	}

	return &signal.Signal{
		Time:       ev.Time,
		Exchange:   ev.Exchange,
		Instrument: ev.Instrument,
		Signals:    map[signal.Decision]signal.SignalStrength{decision: strength},
		MarketMeta: signal.MarketMeta{Close: ev.Bar.Close, Time: ev.Time, PivotTime: w.Center().Time},
	}
}

// decide maps the center side to one decision. An outside bar goes to the side with
// the greater strength, then the greater dominance; a full tie yields nothing.
func (f *Fractals) decide(side indicator.Side, highs, lows []float64, center int) (signal.Decision, signal.SignalStrength, bool) {
	switch side {
	case indicator.High:
		return signal.Short, f.highStrength(highs, center), true
	case indicator.Low:
		return signal.Long, f.lowStrength(lows, center), true
	case indicator.Both:
		short, long := f.highStrength(highs, center), f.lowStrength(lows, center)
		switch {
		case short > long:
			return signal.Short, short, true
		case long > short:
			return signal.Long, long, true
		}
		ds, dl := highDominance(highs, center, f.cfg.Radius), lowDominance(lows, center, f.cfg.Radius)
		switch {
		case ds > dl:
			return signal.Short, short, true
		case dl > ds:
			return signal.Long, long, true
		}
	}
	return 0, 0, false
}

func (f *Fractals) highStrength(highs []float64, center int) signal.SignalStrength {
	if f.cfg.Strength == StrengthFixed {
		return signal.SignalStrength(f.cfg.FixedStrength)
	}
	return highDominance(highs, center, f.cfg.Radius)
}

func (f *Fractals) lowStrength(lows []float64, center int) signal.SignalStrength {
	if f.cfg.Strength == StrengthFixed {
		return signal.SignalStrength(f.cfg.FixedStrength)
	}
	return lowDominance(lows, center, f.cfg.Radius)
}

func highDominance(highs []float64, center, radius int) signal.SignalStrength {
	lo, hi := indicator.Neighbours(highs, center, radius)
	return signal.SignalStrength((highs[center] - hi) / (highs[center] - lo))
}

func lowDominance(lows []float64, center, radius int) signal.SignalStrength {
	lo, hi := indicator.Neighbours(lows, center, radius)
	return signal.SignalStrength((lo - lows[center]) / (hi - lows[center]))
}
