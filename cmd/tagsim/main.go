// tagsim simulates a game of tag between independent agents on a grid.
//
// Usage:
//
//	tagsim run -p <players> -x <width> -y <height>   - Run a simulation
//	tagsim history [run-id]                          - Show stored runs
//	tagsim defaults                                  - Print the default tuning YAML
//
// Global flags:
//
//	--seed <value>      - Set RNG seed for reproducible runs
//	--db <path>         - Set database path (default: ~/.tagsim/runs.db)
//	--config <path>     - Tuning YAML to use instead of the search path
//	--log-level <level> - debug, info, warn or error (default: $LOG_LEVEL or info)
//	--log-file <path>   - Write logs to a file instead of stderr
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tagsim/internal/config"
)

var (
	// Global flags
	flagSeed     uint64
	flagDBPath   string
	flagConfig   string
	flagLogLevel string
	flagLogFile  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps configuration problems to 2 and everything else to 1.
func exitCode(err error) int {
	if errors.Is(err, config.ErrInvalidConfig) {
		return 2
	}
	return 1
}

var rootCmd = &cobra.Command{
	Use:   "tagsim",
	Short: "tagsim - a concurrent game of tag in your terminal",
	Long: `tagsim runs a game of tag on a bounded grid. Every player is an
independent goroutine that wakes up on its own cadence, takes exclusive
access to the field for one turn, tries to tag a neighbor if it is "it",
and moves, weighing how close the move takes it to the last known it.

Available commands:
  run       - Run a simulation
  history   - Show stored runs
  defaults  - Print the default tuning YAML

Examples:
  tagsim run -p 10 -x 20 -y 10
  tagsim run -p 30 -x 15 -y 15 --tui --forever
  tagsim history
  tagsim defaults > ~/.tagsim/config.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.tagsim/runs.db", "Path to run history database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom tuning YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (default $LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(defaultsCmd)
}
