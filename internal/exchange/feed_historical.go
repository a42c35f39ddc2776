package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/JoeTonDev/trading-fractals/internal/signal"
)

// LoadCandles reads a JSON array of candles
// ({close_time, open, high, low, close, volume, trade_count}) from path.
func LoadCandles(path string) ([]signal.Bar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	bars, err := ReadCandles(file)
	if err != nil {
		return nil, fmt.Errorf("load candles %s: %w", path, err)
	}
	return bars, nil
}

// ReadCandles decodes candles ordered by close time.
func ReadCandles(r io.Reader) ([]signal.Bar, error) {
	var bars []signal.Bar
	if err := json.NewDecoder(r).Decode(&bars); err != nil {
		return nil, err
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// Series splits bars into high and low series.
func Series(bars []signal.Bar) (highs, lows []float64) {
	highs = make([]float64, len(bars))
	lows = make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}
	return highs, lows
}

func (f *Feed) runHistorical(ctx context.Context, out chan<- signal.MarketEvent) error {
	if f.candlesPath == "" {
		return errors.New("historical feed requires a candles path")
	}
	bars, err := LoadCandles(f.candlesPath)
	if err != nil {
		return err
	}
	f.log.Info().Int("bars", len(bars)).Str("path", f.candlesPath).Msg("replaying candles")
	for _, bar := range bars {
		if err := f.emit(ctx, out, bar); err != nil {
			return err
		}
	}
	return nil
}
