// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeTonDev/trading-fractals/internal/event"
	"github.com/JoeTonDev/trading-fractals/internal/execution"
	"github.com/JoeTonDev/trading-fractals/internal/signal"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging.
type App struct {
	Name        string
	Env         string
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

// Engine sizes the event queue between traders and the router.
type Engine struct {
	QueueCapacity  int    `yaml:"queue_capacity"`
	OverflowPolicy string `yaml:"overflow_policy"`
	EventsPath     string `yaml:"events_path"`
}

// Exchange selects the market data provider and the markets it serves.
type Exchange struct {
	Name         string
	Provider     string
	Symbols      []string
	Interval     string
	CandlesPath  string `yaml:"candles_path"`
	BaseURL      string `yaml:"base_url"`
	PollInterval int    `yaml:"poll_interval_ms"`
}

// Risk encodes guard-rails for how much size the paper portfolio may take on.
type Risk struct {
	MaxNotionalPerTrade float64 `yaml:"max_notional_per_trade"`
}

// StrategyParams groups tunable knobs for the fractal strategy.
type StrategyParams struct {
	Period        int
	Radius        int
	Strength      string
	FixedStrength float64 `yaml:"fixed_strength"`
}

// Strategy specifies which strategy is active along with the parameter bundle.
type Strategy struct {
	Mode   string
	Params StrategyParams
}

// Execution holds the simulated fee model.
type Execution struct {
	Fees execution.Fees
}

// Paper captures paper-trading account settings.
type Paper struct {
	StartingCash      float64 `yaml:"starting_cash"`
	DefaultOrderValue float64 `yaml:"default_order_value"`
	FillsPath         string  `yaml:"fills_path"`
}

// Kafka configures the optional event publisher.
type Kafka struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	ClientID string `yaml:"client_id"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App       App       `yaml:"app"`
	Engine    Engine    `yaml:"engine"`
	Exchange  Exchange  `yaml:"exchange"`
	Strategy  Strategy  `yaml:"strategy"`
	Execution Execution `yaml:"execution"`
	Risk      Risk      `yaml:"risk"`
	Paper     Paper     `yaml:"paper"`
	Kafka     Kafka     `yaml:"kafka"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnv loads .env (best effort) and applies FRACTALS_* overrides.
func ApplyEnv(cfg *Config) error {
	_ = godotenv.Load()

	if v := os.Getenv("FRACTALS_LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := os.Getenv("FRACTALS_METRICS_ADDR"); v != "" {
		cfg.App.MetricsAddr = v
	}
	if v := os.Getenv("FRACTALS_PROVIDER"); v != "" {
		cfg.Exchange.Provider = v
	}
	if v := os.Getenv("FRACTALS_PERIOD"); v != "" {
		period, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FRACTALS_PERIOD: %w", err)
		}
		cfg.Strategy.Params.Period = period
	}
	if v := os.Getenv("FRACTALS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate rejects configurations that cannot produce a working engine.
func (c *Config) Validate() error {
	var errs []error
	p := c.Strategy.Params
	if p.Period < 1 {
		errs = append(errs, fmt.Errorf("strategy.params.period must be >= 1, got %d", p.Period))
	}
	if p.Radius < 0 || (p.Period >= 1 && p.Radius > p.Period) {
		errs = append(errs, fmt.Errorf("strategy.params.radius must be within [0, period], got %d", p.Radius))
	}
	switch strings.ToLower(p.Strength) {
	case "", "dominance", "fixed":
	default:
		errs = append(errs, fmt.Errorf("strategy.params.strength %q is unknown", p.Strength))
	}
	if _, err := event.ParseOverflowPolicy(c.Engine.OverflowPolicy); err != nil {
		errs = append(errs, err)
	}
	if c.Engine.QueueCapacity < 0 {
		errs = append(errs, errors.New("engine.queue_capacity must not be negative"))
	}
	if len(c.Exchange.Symbols) == 0 {
		errs = append(errs, errors.New("exchange.symbols is empty"))
	}
	if _, err := c.Markets(); err != nil {
		errs = append(errs, err)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.enabled requires brokers"))
	}
	return errors.Join(errs...)
}

// Markets resolves exchange.symbols (btc_usdt, BTC/USDT or btc-usdt) into markets.
func (c *Config) Markets() ([]signal.Market, error) {
	exchange := c.Exchange.Name
	if exchange == "" {
		exchange = c.Exchange.Provider
	}
	markets := make([]signal.Market, 0, len(c.Exchange.Symbols))
	for _, sym := range c.Exchange.Symbols {
		inst, err := signal.ParseInstrument(sym)
		if err != nil {
			return nil, fmt.Errorf("exchange.symbols: %w", err)
		}
		markets = append(markets, signal.NewMarket(exchange, inst))
	}
	return markets, nil
}
