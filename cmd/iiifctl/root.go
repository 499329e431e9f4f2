package main

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"iiifhub/internal/importer"
	"iiifhub/internal/logging"
)

type commandContext struct {
	logLevel string
	timeout  time.Duration
	logger   *log.Logger

	// newFetcher is swapped in tests.
	newFetcher func(time.Duration) importer.Fetcher
}

func (c *commandContext) log() *log.Logger {
	if c.logger == nil {
		c.logger = logging.New(c.logLevel, os.Stderr)
	}
	return c.logger
}

func (c *commandContext) normalizer() *importer.Normalizer {
	return importer.NewNormalizer(c.newFetcher(c.timeout), c.log())
}

func newRootCommand() *cobra.Command {
	return newRootCommandWith(&commandContext{
		newFetcher: func(d time.Duration) importer.Fetcher { return importer.NewHTTPFetcher(d) },
	})
}

func newRootCommandWith(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "iiifctl",
		Short:         "Import, inspect and assemble IIIF manifests",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&ctx.timeout, "timeout", 15*time.Second, "Timeout for remote manifest fetches")

	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newInspectCommand(ctx))
	rootCmd.AddCommand(newAssembleCommand(ctx))
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}
