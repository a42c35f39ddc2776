// Package exchange hosts market data feeds that produce closed bars for one market.
package exchange

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/JoeTonDev/trading-fractals/internal/signal"
)

const (
	// ProviderStub emits deterministic synthetic bars (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderHistorical replays a JSON candle file and finishes at its end.
	ProviderHistorical = "historical"
	// ProviderBinance streams closed klines from Binance public websockets.
	ProviderBinance = "binance"
)

// Feed represents a pluggable market data stream for a single market.
type Feed struct {
	provider     string
	market       signal.Market
	log          zerolog.Logger
	pollInterval time.Duration
	barLimit     int
	candlesPath  string
	baseURL      string
	interval     string
}

// Option configures Feed construction parameters.
type Option func(*Feed)

const (
	defaultPollInterval   = 500 * time.Millisecond
	defaultBinanceBaseURL = "wss://stream.binance.com:9443"
	defaultInterval       = "1m"
)

// WithPollInterval overrides the cadence of the stub feed.
func WithPollInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.pollInterval = d
		}
	}
}

// WithBarLimit stops the stub feed after n bars. Zero streams forever.
func WithBarLimit(n int) Option {
	return func(f *Feed) { f.barLimit = n }
}

// WithCandlesPath points the historical feed at a JSON candle file.
func WithCandlesPath(path string) Option {
	return func(f *Feed) { f.candlesPath = path }
}

// WithBaseURL overrides the websocket endpoint, e.g. for tests.
func WithBaseURL(url string) Option {
	return func(f *Feed) {
		if url != "" {
			f.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithInterval selects the kline interval (1m, 5m, 1h...).
func WithInterval(interval string) Option {
	return func(f *Feed) {
		if interval != "" {
			f.interval = interval
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider string, market signal.Market, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider:     strings.ToLower(provider),
		market:       market,
		log:          log.With().Str("provider", strings.ToLower(provider)).Str("market", market.String()).Logger(),
		pollInterval: defaultPollInterval,
		baseURL:      defaultBinanceBaseURL,
		interval:     defaultInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Provider reports the configured provider name.
func (f *Feed) Provider() string { return f.provider }

// Run pushes market events onto out until the source is exhausted or ctx is canceled.
func (f *Feed) Run(ctx context.Context, out chan<- signal.MarketEvent) error {
	switch f.provider {
	case ProviderBinance:
		return f.runBinance(ctx, out)
	case ProviderHistorical:
		return f.runHistorical(ctx, out)
	default:
		return f.runStub(ctx, out)
	}
}

func (f *Feed) emit(ctx context.Context, out chan<- signal.MarketEvent, bar signal.Bar) error {
	ev := signal.MarketEvent{
		Time:       bar.Time,
		Exchange:   f.market.Exchange,
		Instrument: f.market.Instrument,
		Bar:        bar,
	}
	select {
	case out <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Feed) runStub(ctx context.Context, out chan<- signal.MarketEvent) error {
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for n := 0; f.barLimit <= 0 || n < f.barLimit; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			if err := f.emit(ctx, out, SyntheticBar(n, ts.UTC())); err != nil {
				return err
			}
		}
	}
	return nil
}

// SyntheticBar is the nth bar of a deterministic sine wave around 100, so the stub
// feed produces regular highs and lows.
func SyntheticBar(n int, ts time.Time) signal.Bar {
	mid := 100 + 5*math.Sin(float64(n)*math.Pi/6)
	prev := 100 + 5*math.Sin(float64(n-1)*math.Pi/6)
	return signal.Bar{
		Time:       ts,
		Open:       prev,
		High:       math.Max(mid, prev) + 0.5,
		Low:        math.Min(mid, prev) - 0.5,
		Close:      mid,
		Volume:     1,
		TradeCount: 1,
	}
}
