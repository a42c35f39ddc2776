package strategy

import (
	"fmt"
	"strings"

	"github.com/JoeTonDev/trading-fractals/internal/signal"
)

// Strategy is the "takes a market observation, optionally emits a Signal" capability.
type Strategy interface {
	GenerateSignal(ev signal.MarketEvent) *signal.Signal
	Name() string
}

// Params expresses tunable knobs required by strategy constructors.
type Params struct {
	Period        int
	Radius        int
	Strength      string
	FixedStrength float64
}

// Build returns a strategy implementation matching the configured mode.
func Build(mode string, params Params) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "fractals", "fractal":
		return NewFractals(FractalsConfig{
			Period:        params.Period,
			Radius:        params.Radius,
			Strength:      StrengthMode(strings.ToLower(params.Strength)),
			FixedStrength: params.FixedStrength,
		})
	default:
		return nil, fmt.Errorf("unknown strategy mode %q", mode)
	}
}
