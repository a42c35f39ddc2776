package signal

import (
	"fmt"
	"time"
)

// Decision is a directional trading intent. Absence of a Signal is the neutral state.
type Decision int

const (
	Long Decision = iota
	CloseLong
	Short
	CloseShort
)

var decisionNames = [...]string{"long", "close_long", "short", "close_short"}

func (d Decision) String() string {
	if d < 0 || int(d) >= len(decisionNames) {
		return fmt.Sprintf("decision(%d)", int(d))
	}
	return decisionNames[d]
}

// ParseDecision maps a decision name back to its value.
func ParseDecision(s string) (Decision, error) {
	for i, name := range decisionNames {
		if name == s {
			return Decision(i), nil
		}
	}
	return 0, fmt.Errorf("unknown decision %q", s)
}

func (d Decision) IsLong() bool  { return d == Long }
func (d Decision) IsShort() bool { return d == Short }

// IsEntry reports whether the decision opens a position.
func (d Decision) IsEntry() bool { return d == Long || d == Short }

// IsExit reports whether the decision closes a position.
func (d Decision) IsExit() bool { return d == CloseLong || d == CloseShort }

// MarshalText encodes the decision by name so it can key JSON objects.
func (d Decision) MarshalText() ([]byte, error) {
	if d < 0 || int(d) >= len(decisionNames) {
		return nil, fmt.Errorf("invalid decision %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Decision) UnmarshalText(b []byte) error {
	parsed, err := ParseDecision(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SignalStrength is the conviction attached to a Decision, conceptually in [0, 1].
// It is not clamped here.
type SignalStrength float64

// Signal expresses trading decisions produced by a strategy for one market observation.
// Signals is never empty on an emitted Signal.
type Signal struct {
	Time       time.Time                   `json:"time"`
	Exchange   Exchange                    `json:"exchange"`
	Instrument Instrument                  `json:"instrument"`
	Signals    map[Decision]SignalStrength `json:"signals"`
	MarketMeta MarketMeta                  `json:"market_meta"`
}

// Market returns the exchange/instrument key of the signal.
func (s Signal) Market() Market {
	return Market{Exchange: s.Exchange, Instrument: s.Instrument}
}

// SignalForceExit unconditionally exits any open position for a market.
type SignalForceExit struct {
	Time       time.Time  `json:"time"`
	Exchange   Exchange   `json:"exchange"`
	Instrument Instrument `json:"instrument"`
}

// ForcedExitSignal tags orders that originate from a SignalForceExit.
const ForcedExitSignal = "SignalForcedExit"

// NewSignalForceExit stamps a force exit for market with the current time.
func NewSignalForceExit(market Market) SignalForceExit {
	return SignalForceExit{
		Time:       time.Now().UTC(),
		Exchange:   market.Exchange,
		Instrument: market.Instrument,
	}
}

// Market returns the exchange/instrument key of the force exit.
func (s SignalForceExit) Market() Market {
	return Market{Exchange: s.Exchange, Instrument: s.Instrument}
}
