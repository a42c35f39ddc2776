package portfolio

import "github.com/rs/zerolog"

// Summary aggregates closed trades.
type Summary struct {
	StartingEquity float64
	Trades         int
	Wins           int
	Losses         int
	RealizedPnL    float64
	BestTrade      float64
	WorstTrade     float64
	Equity         float64
}

// WinRate is the share of closed trades with positive PnL.
func (s Summary) WinRate() float64 {
	if s.Trades == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Trades)
}

// Return is the equity change relative to starting equity.
func (s Summary) Return() float64 {
	if s.StartingEquity == 0 {
		return 0
	}
	return (s.Equity - s.StartingEquity) / s.StartingEquity
}

func (s *Summary) add(pnl float64) {
	if s.Trades == 0 || pnl > s.BestTrade {
		s.BestTrade = pnl
	}
	if s.Trades == 0 || pnl < s.WorstTrade {
		s.WorstTrade = pnl
	}
	s.Trades++
	if pnl > 0 {
		s.Wins++
	} else {
		s.Losses++
	}
	s.RealizedPnL += pnl
}

// MarshalZerologObject logs the summary as a nested object.
func (s Summary) MarshalZerologObject(e *zerolog.Event) {
	e.Int("trades", s.Trades).
		Int("wins", s.Wins).
		Int("losses", s.Losses).
		Float64("win_rate", s.WinRate()).
		Float64("realized_pnl", s.RealizedPnL).
		Float64("best_trade", s.BestTrade).
		Float64("worst_trade", s.WorstTrade).
		Float64("equity", s.Equity).
		Float64("return", s.Return())
}
