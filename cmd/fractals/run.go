package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/JoeTonDev/trading-fractals/internal/config"
	"github.com/JoeTonDev/trading-fractals/internal/engine"
	"github.com/JoeTonDev/trading-fractals/internal/event"
	"github.com/JoeTonDev/trading-fractals/internal/exchange"
	"github.com/JoeTonDev/trading-fractals/internal/execution"
	"github.com/JoeTonDev/trading-fractals/internal/metrics"
	"github.com/JoeTonDev/trading-fractals/internal/paper"
	"github.com/JoeTonDev/trading-fractals/internal/portfolio"
	"github.com/JoeTonDev/trading-fractals/internal/risk"
	"github.com/JoeTonDev/trading-fractals/internal/strategy"
	"github.com/JoeTonDev/trading-fractals/internal/telemetry"
	"github.com/JoeTonDev/trading-fractals/internal/util"
)

func runCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the paper engine until every feed ends or SIGINT/SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := config.ApplyEnv(cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			log := util.NewLogger(cfg.App.LogLevel, cfg.App.LogFormat).With().Str("app", cfg.App.Name).Logger()

			ctx, cancel := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runEngine(ctx, cfg, log)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "YAML config path")
	return cmd
}

func runEngine(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	sinks, closers, err := buildSinks(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.Warn().Err(err).Msg("close sink")
			}
		}
	}()

	policy, _ := event.ParseOverflowPolicy(cfg.Engine.OverflowPolicy)
	eng := engine.New(log, event.QueueConfig{Capacity: cfg.Engine.QueueCapacity, Policy: policy}, sinks...)

	var recorder paper.FillRecorder = paper.NewLedger(256)
	if cfg.Paper.FillsPath != "" {
		jsonl, err := paper.NewJSONLRecorder(cfg.Paper.FillsPath)
		if err != nil {
			return fmt.Errorf("open fills recorder: %w", err)
		}
		defer jsonl.Close()
		recorder = jsonl
	}
	startingCash := cfg.Paper.StartingCash
	if startingCash <= 0 {
		startingCash = 10_000
	}
	book := portfolio.NewPaper(
		log.With().Str("component", "portfolio").Logger(),
		paper.NewAccount(startingCash, 0),
		execution.NewExecutor(log.With().Str("component", "executor").Logger(), cfg.Execution.Fees),
		recorder,
		portfolio.Config{
			DefaultOrderValue: cfg.Paper.DefaultOrderValue,
			Limits:            risk.Limits{MaxNotionalPerTrade: cfg.Risk.MaxNotionalPerTrade},
		},
	)

	markets, err := cfg.Markets()
	if err != nil {
		return err
	}
	params := strategy.Params{
		Period:        cfg.Strategy.Params.Period,
		Radius:        cfg.Strategy.Params.Radius,
		Strength:      cfg.Strategy.Params.Strength,
		FixedStrength: cfg.Strategy.Params.FixedStrength,
	}
	for _, market := range markets {
		strat, err := strategy.Build(cfg.Strategy.Mode, params)
		if err != nil {
			return err
		}
		feed := exchange.NewFeed(cfg.Exchange.Provider, market, log,
			exchange.WithPollInterval(time.Duration(cfg.Exchange.PollInterval)*time.Millisecond),
			exchange.WithCandlesPath(strings.ReplaceAll(cfg.Exchange.CandlesPath, "{instrument}", market.Instrument.String())),
			exchange.WithBaseURL(cfg.Exchange.BaseURL),
			exchange.WithInterval(cfg.Exchange.Interval),
		)
		if _, err := eng.AddTrader(engine.TraderSpec{Market: market, Strategy: strat, Feed: feed, Collaborator: book}); err != nil {
			return err
		}
	}

	exits := make(chan os.Signal, 1)
	notifyForceExit(exits)
	defer ossignal.Stop(exits)
	go func() {
		for {
			select {
			case <-exits:
				log.Info().Msg("force exit requested")
				eng.Command(engine.CommandExitPosition)
			case <-ctx.Done():
				return
			}
		}
	}()

	err = eng.Run(ctx)
	log.Info().Object("summary", book.Summary()).Msg("paper trading summary")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildSinks(cfg *config.Config, log zerolog.Logger) ([]engine.Sink, []io.Closer, error) {
	var (
		sinks   []engine.Sink
		closers []io.Closer
	)
	if cfg.Engine.EventsPath != "" {
		jsonl, err := telemetry.NewJSONLSink(cfg.Engine.EventsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open events sink: %w", err)
		}
		sinks = append(sinks, jsonl)
		closers = append(closers, jsonl)
	}
	if cfg.Kafka.Enabled {
		kafka, err := telemetry.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID, log.With().Str("component", "kafka").Logger())
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}
			return nil, nil, fmt.Errorf("connect kafka: %w", err)
		}
		sinks = append(sinks, kafka)
		closers = append(closers, kafka)
	}
	return sinks, closers, nil
}
