package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JoeTonDev/trading-fractals/internal/exchange"
	"github.com/JoeTonDev/trading-fractals/internal/indicator"
)

func scanCmd() *cobra.Command {
	var (
		candles string
		period  int
		radius  int
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Print every fractal pivot found in a candle file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if radius == 0 {
				radius = min(indicator.DefaultRadius, period)
			}
			if period < 1 || radius > period {
				return fmt.Errorf("invalid period %d / radius %d", period, radius)
			}
			bars, err := exchange.LoadCandles(candles)
			if err != nil {
				return err
			}
			highs, lows := exchange.Series(bars)
			sides, err := indicator.Fractal{Period: period, Radius: radius}.Sides(highs, lows)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INDEX\tCLOSE_TIME\tSIDE\tHIGH\tLOW")
			var found int
			for i, side := range sides {
				if side == indicator.None {
					continue
				}
				found++
				fmt.Fprintf(w, "%d\t%s\t%s\t%g\t%g\n", i, bars[i].Time.Format(time.RFC3339), side, bars[i].High, bars[i].Low)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d pivots in %d bars\n", found, len(bars))
			return nil
		},
	}
	cmd.Flags().StringVar(&candles, "candles", "", "JSON candle file")
	cmd.Flags().IntVarP(&period, "period", "p", 2, "edge margin in bars")
	cmd.Flags().IntVarP(&radius, "radius", "r", 0, "neighbours compared on each side (0 = min(2, period))")
	_ = cmd.MarkFlagRequired("candles")
	return cmd
}
