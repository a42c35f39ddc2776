// Binary fractals runs the fractal pivot engine in paper mode and scans candle files offline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "internal/config/config.yaml"

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "fractals",
		Short: "Fractal pivot signal engine",
		Long: `fractals detects Bill Williams fractal pivots on closed bars, turns them into
long/short signals and routes every engine event through a single consumer.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fractals version %s\n", version)
		},
	}
}
