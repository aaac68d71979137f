package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tagsim/internal/config"
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default tuning YAML",
	Long: `Print the built-in tuning configuration. Save it to
~/.tagsim/config.yaml or ./configs/tagsim.yaml, or pass it with --config,
to change movement, risk, cadence and render settings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := os.Stdout.Write(config.DefaultYAML())
		return err
	},
}
