package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/JoeTonDev/trading-fractals/internal/config"
)

func TestPrintSummaryDefaults(t *testing.T) {
	cfg := &config.Config{Strategy: config.Strategy{Params: config.StrategyParams{Period: 1}}}
	var buf bytes.Buffer
	printSummary(&buf, cfg)
	out := buf.String()
	for _, want := range []string{"radius: 1", "window: 3 bars", "Strength: dominance", "unbounded", "overflow: block"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestEditStrategyKeepsBlankAnswers(t *testing.T) {
	cfg := &config.Config{Strategy: config.Strategy{Params: config.StrategyParams{Period: 2, Strength: "dominance"}}}
	reader := bufio.NewReader(strings.NewReader("5\n\nFIXED\n0.4\n"))
	editStrategy(reader, cfg)
	p := cfg.Strategy.Params
	if p.Period != 5 || p.Radius != 0 || p.Strength != "fixed" || p.FixedStrength != 0.4 {
		t.Fatalf("unexpected params %+v", p)
	}
}
