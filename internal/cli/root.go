// Package cli wires the run-simulation core into a cobra command tree.
package cli

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Format string // "json" | "text"
	DBPath string
	Assets string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// envConfig carries environment defaults for the global flags.
type envConfig struct {
	DBPath string `env:"GAUNTLET_DB" envDefault:"gauntlet.db"`
	Assets string `env:"GAUNTLET_ASSETS" envDefault:"assets"`
}

// NewRootCommand creates the root command for the gauntlet CLI.
func NewRootCommand() *cobra.Command {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		cfg = envConfig{DBPath: "gauntlet.db", Assets: "assets"}
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "gauntlet",
		Short:         "Deterministic roguelike run simulator",
		Long:          "Gauntlet simulates seeded roguelike runs: opponent choices, phase gating and turn-based battles, reproducible from a single seed.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", cfg.DBPath, "path to the save database")
	cmd.PersistentFlags().StringVar(&opts.Assets, "assets", cfg.Assets, "path to the catalog directory")

	cmd.AddCommand(newChoicesCommand(opts))
	cmd.AddCommand(newBattleCommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newRunsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
