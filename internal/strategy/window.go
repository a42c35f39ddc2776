package strategy

import (
	"errors"

	"github.com/JoeTonDev/trading-fractals/internal/signal"
)

// ErrInvalidPeriod rejects a fractal period below one.
var ErrInvalidPeriod = errors.New("fractal period must be >= 1")

// Window retains the last 2*period+1 bars of one instrument, oldest evicted first.
type Window struct {
	period int
	bars   []signal.Bar
	head   int
	size   int
}

// NewWindow sizes a rolling window for the given fractal period.
func NewWindow(period int) (*Window, error) {
	if period < 1 {
		return nil, ErrInvalidPeriod
	}
	return &Window{period: period, bars: make([]signal.Bar, 2*period+1)}, nil
}

// Push appends a bar, evicting the oldest once the window is full.
func (w *Window) Push(bar signal.Bar) {
	idx := (w.head + w.size) % len(w.bars)
	if w.size == len(w.bars) {
		w.bars[w.head] = bar
		w.head = (w.head + 1) % len(w.bars)
		return
	}
	w.bars[idx] = bar
	w.size++
}

// Ready reports whether the window holds its full capacity.
func (w *Window) Ready() bool { return w.size == len(w.bars) }

func (w *Window) Len() int { return w.size }
func (w *Window) Cap() int { return len(w.bars) }

// CenterIdx is the index of the evaluated bar within Bars and Series.
func (w *Window) CenterIdx() int { return w.period }

// Bars returns the buffered bars oldest-first.
func (w *Window) Bars() []signal.Bar {
	out := make([]signal.Bar, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.bars[(w.head+i)%len(w.bars)]
	}
	return out
}

// Series splits the buffered bars into aligned high and low slices, oldest-first.
func (w *Window) Series() (highs, lows []float64) {
	highs = make([]float64, w.size)
	lows = make([]float64, w.size)
	for i := 0; i < w.size; i++ {
		b := w.bars[(w.head+i)%len(w.bars)]
		highs[i] = b.High
		lows[i] = b.Low
	}
	return highs, lows
}

// Center returns the middle bar; only meaningful once Ready.
func (w *Window) Center() signal.Bar {
	return w.bars[(w.head+w.period)%len(w.bars)]
}
