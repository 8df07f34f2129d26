package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/idelchi/cachestat/internal/cachestat"
	"github.com/idelchi/cachestat/internal/config"
	"github.com/idelchi/cachestat/internal/layout"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// Execute runs the CLI with the process arguments.
func (c CLI) Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return c.Command().ExecuteContext(ctx)
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cachestat [flags] [home]",
		Short: "Summarize disk usage of a package cache per package",
		Long: heredoc.Doc(`
			cachestat reports how much disk space each package occupies in a
			package cache.

			Every entry of a cache root (an extracted source, a downloaded archive,
			a git checkout or a bare clone) is measured, named after the package it
			belongs to by dropping its trailing version segment, and merged with
			its neighbours of the same name. The largest packages are listed per
			cache root.

			Positional Arguments:
			  home    Cache home to analyze. Defaults to $CARGO_HOME or ~/.cargo.

			Aggregation modes:
			  adjacent  merge only consecutive entries of the same package (listing order)
			  grouped   merge every entry of the same package

			Every flag can also be set through a CACHESTAT_<FLAG> environment variable
			(e.g. CACHESTAT_TOP=5) or a config file passed with --config.
		`),
		Args:          cobra.MaximumNArgs(1),
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := cmd.Flags().Set("home", args[0]); err != nil {
					return err
				}
			}

			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			return logic(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	modes := make([]string, 0, len(cachestat.Modes))
	for _, m := range cachestat.Modes {
		modes = append(modes, string(m))
	}

	flags := cmd.Flags()
	flags.SortFlags = false

	flags.StringVar(&configPath, "config", "", "Config file (any format supported by viper)")
	flags.String("home", "", "Cache home to analyze")
	flags.IntP("top", "t", 20, "Number of packages to display per cache root")
	flags.StringP("mode", "m", string(cachestat.ModeAdjacent),
		"Aggregation mode: "+strings.Join(modes, " or "))
	flags.StringP("output", "o", "table", "Output format: "+strings.Join(config.Outputs, ", "))
	flags.StringSliceP("categories", "c", []string{},
		"Cache roots to analyze (default all): "+strings.Join(layout.Names, ","))
	flags.IntP("jobs", "j", runtime.NumCPU(), "Number of entries measured concurrently")
	flags.String("log-level", "warn", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: "+strings.Join(config.LogFormats, " or "))
	flags.String("log-file", "", "Write logs to a rotated file instead of stderr")
	flags.Bool("debug", false, "Enable debug output")

	return cmd
}
