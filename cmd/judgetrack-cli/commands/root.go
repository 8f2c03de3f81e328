// Package commands implements the judgetrack command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/judgetrack/config"
	"github.com/use-agent/judgetrack/engine"
	"github.com/use-agent/judgetrack/scraper"
	"github.com/use-agent/judgetrack/store"
)

var (
	configPath string
	dbPath     string
	engineName string
	outDir     string
	verbose    bool

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "judgetrack-cli",
	Short: "judgetrack-cli scrapes tabroom judge records and summarises them.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			cfg.Store.Path = dbPath
		}
		if cmd.Flags().Changed("engine") {
			cfg.Browser.Engine = engineName
		}
		if cmd.Flags().Changed("out") {
			cfg.Output.Dir = outDir
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "judgetrack.json5", "JSON5 config file; a .local sibling overrides it")
	flags.StringVar(&dbPath, "db", "", "sqlite record store (default from config)")
	flags.StringVar(&engineName, "engine", "", "session engine: rod or http (default from config)")
	flags.StringVar(&outDir, "out", "", "directory for CSV output (default from config)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
}

// ExecuteContext runs the root command and exits non-zero on error.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newScraper starts a session provider. The returned func closes it.
func newScraper() (*scraper.Scraper, func(), error) {
	if !cfg.Site.HasCredentials() {
		return nil, nil, fmt.Errorf("no tabroom credentials: set TABROOM_EMAIL and TABROOM_PASSWORD or site.email/site.password in %s", configPath)
	}
	provider, err := engine.NewProvider(cfg.Browser, cfg.Site, cfg.Scraper)
	if err != nil {
		return nil, nil, fmt.Errorf("start %s session: %w", cfg.Browser.Engine, err)
	}
	return scraper.New(provider, cfg.Site, cfg.Scraper), func() { _ = provider.Close() }, nil
}

// openStore opens the configured store, or returns nil when none is set
// and required is false.
func openStore(required bool) (*store.Store, error) {
	if cfg.Store.Path == "" {
		if required {
			return nil, fmt.Errorf("no record store: pass --db or set JUDGETRACK_DB")
		}
		return nil, nil
	}
	return store.Open(cfg.Store.Path)
}
