// Package cmd defines and implements the CLI commands for the spider executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadspider/spider/internal/config"
	"github.com/leadspider/spider/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// runtime carries the config and logger built once before any subcommand runs.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
}

// runtimeKeyType is the key for storing the runtime in the command context.
type runtimeKeyType struct{}

var runtimeKey runtimeKeyType

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spider",
		Short: "A bounded concurrent web crawler with lead extraction and search.",
		Long: `spider crawls the web from a seed list under strict page, depth, and
concurrency bounds. Every accepted page is parsed for text, outbound links,
and lead signals, then folded into an inverted index that the search and
serve commands query without re-crawling.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Runs after flag parsing but before the subcommand's RunE, so every
		// subcommand sees a loaded config and a ready logger.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if verbose {
				cfg.Logging.Development = true
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)

			ctx := context.WithValue(cmd.Context(), runtimeKey, &runtime{cfg: cfg, logger: logger})
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if rt, ok := cmd.Context().Value(runtimeKey).(*runtime); ok && rt != nil {
				rt.logger.Sync() //nolint:errcheck // best-effort flush
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (optional YAML; SPIDER_* environment variables override it)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose console logging regardless of config")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// resolveRuntime retrieves the shared runtime placed in the context by the
// root command's PersistentPreRunE.
func resolveRuntime(ctx context.Context) (*runtime, error) {
	rt, ok := ctx.Value(runtimeKey).(*runtime)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "spider: %v\n", err)
		os.Exit(1)
	}
}
