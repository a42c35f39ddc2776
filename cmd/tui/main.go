package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JoeTonDev/trading-fractals/internal/config"
	"github.com/JoeTonDev/trading-fractals/internal/event"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== Fractals Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit strategy knobs")
		fmt.Println("3) Edit engine and paper knobs")
		fmt.Println("4) Save config")
		fmt.Println("5) Launch paper engine")
		fmt.Println("6) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(os.Stdout, cfg)
		case "2":
			editStrategy(reader, cfg)
		case "3":
			editEngine(reader, cfg)
		case "4":
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "not saved, config invalid: %v\n", err)
			} else if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "5":
			launchEngine(reader)
		case "6":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(w io.Writer, cfg *config.Config) {
	p := cfg.Strategy.Params
	radius := p.Radius
	if radius == 0 {
		radius = min(2, p.Period)
	}
	strength := p.Strength
	if strength == "" {
		strength = "dominance"
	}
	capacity := "unbounded"
	if cfg.Engine.QueueCapacity > 0 {
		capacity = strconv.Itoa(cfg.Engine.QueueCapacity)
	}

	fmt.Fprintln(w, "\n--- Configuration Summary ---")
	fmt.Fprintf(w, "Provider: %s (%s)\n", cfg.Exchange.Provider, strings.Join(cfg.Exchange.Symbols, ", "))
	fmt.Fprintf(w, "Fractal period: %d | radius: %d | window: %d bars\n", p.Period, radius, 2*p.Period+1)
	fmt.Fprintf(w, "Strength: %s", strength)
	if strings.EqualFold(strength, "fixed") {
		fmt.Fprintf(w, " (%.2f)", p.FixedStrength)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Queue capacity: %s | overflow: %s\n", capacity, orDefault(cfg.Engine.OverflowPolicy, string(event.Block)))
	fmt.Fprintf(w, "Starting cash: $%.2f | order value: $%.2f\n", cfg.Paper.StartingCash, cfg.Paper.DefaultOrderValue)
	fmt.Fprintf(w, "Per-trade notional cap: $%.2f\n", cfg.Risk.MaxNotionalPerTrade)
	fmt.Fprintf(w, "Fees: exchange %.3f%% slippage %.3f%% network %.3f%%\n",
		cfg.Execution.Fees.Exchange, cfg.Execution.Fees.Slippage, cfg.Execution.Fees.Network)
	fmt.Fprintf(w, "Kafka: %v %s\n", cfg.Kafka.Enabled, strings.Join(cfg.Kafka.Brokers, ","))
}

func editStrategy(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Strategy ---")
	p := &cfg.Strategy.Params
	p.Period = int(promptFloat(reader, "Period (edge margin)", float64(p.Period)))
	p.Radius = int(promptFloat(reader, "Radius (0 = min(2, period))", float64(p.Radius)))
	p.Strength = promptString(reader, "Strength (dominance|fixed)", p.Strength)
	if strings.EqualFold(p.Strength, "fixed") {
		p.FixedStrength = promptFloat(reader, "Fixed strength", p.FixedStrength)
	}
}

func editEngine(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Engine / Paper ---")
	cfg.Engine.QueueCapacity = int(promptFloat(reader, "Queue capacity (0 = unbounded)", float64(cfg.Engine.QueueCapacity)))
	cfg.Engine.OverflowPolicy = promptString(reader, "Overflow policy (block|drop_oldest|reject)", cfg.Engine.OverflowPolicy)
	cfg.Paper.StartingCash = promptFloat(reader, "Starting cash", cfg.Paper.StartingCash)
	cfg.Paper.DefaultOrderValue = promptFloat(reader, "Order value per entry", cfg.Paper.DefaultOrderValue)
	cfg.Risk.MaxNotionalPerTrade = promptFloat(reader, "Max notional per trade (0 = off)", cfg.Risk.MaxNotionalPerTrade)
}

func launchEngine(reader *bufio.Reader) {
	fmt.Println("Launching paper engine (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/fractals", "run", "--config", locateConfig())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start engine: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the engine and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptString(reader *bufio.Reader, label, current string) string {
	fmt.Printf("%s [%s]: ", label, current)
	line, _ := reader.ReadString('\n')
	if line = strings.TrimSpace(line); line == "" {
		return current
	}
	return strings.ToLower(line)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
