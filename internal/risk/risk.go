// Package risk holds pre-trade checks applied by the paper portfolio.
package risk

// Limits caps the notional of a single order. Zero disables the cap.
type Limits struct {
	MaxNotionalPerTrade float64
}

func (l Limits) Allow(notional float64) bool {
	if l.MaxNotionalPerTrade <= 0 {
		return true
	}
	return notional <= l.MaxNotionalPerTrade
}
