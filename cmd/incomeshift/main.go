package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/incomeshift/internal/config"
	"github.com/rewired-gh/incomeshift/internal/fixtures"
	"github.com/rewired-gh/incomeshift/internal/logger"
	"github.com/rewired-gh/incomeshift/internal/report"
	"github.com/rewired-gh/incomeshift/internal/storage"
)

const defaultConfigPath = "configs/config.yaml"

// app carries the state shared by every subcommand once the root command
// has loaded the configuration.
type app struct {
	cfg      *config.Config
	client   *fixtures.Client
	renderer *report.Renderer
	store    *storage.Storage
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		format     string
	)
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "incomeshift",
		Short: "Explore pre-computed labor-to-capital income shift scenarios",
		Long: `incomeshift loads the pre-computed microsimulation fixtures of the
income shift study and derives the comparisons shown alongside them:
scenario lookups, sweep comparisons, benefit cliffs in household net income,
the uprating catalog, and a BibTeX export of the references.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			path := configPath
			if !cmd.Flags().Changed("config") {
				if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
					path = ""
				}
			}

			// Load configuration
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if format != "" {
				f, err := report.ParseFormat(format)
				if err != nil {
					return fmt.Errorf("invalid configuration: output.format: %w", err)
				}
				cfg.Output.Format = string(f)
			}

			// Validate configuration
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			// Setup logging with level support
			if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			if path != "" {
				logger.Debug("Configuration loaded from %s", path)
			}

			outFormat, err := report.ParseFormat(cfg.Output.Format)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.client = fixtures.NewClient(cfg.Fixtures.FetchTimeout)
			a.renderer = report.New(cmd.OutOrStdout(), outFormat, cfg.Catalog.Renames())
			a.store = storage.New(cfg.Output.ExportDir, cfg.Output.FileMode(), cfg.Output.DirMode())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&format, "output", "o", "", "Output format (table|markdown|csv)")
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "markdown", "csv"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		a.newSweepCmd(),
		a.newScenarioCmd(),
		a.newCompareCmd(),
		a.newCliffCmd(),
		a.newCatalogCmd(),
		a.newBibCmd(),
		a.newInequalityCmd(),
		a.newExportCmd(),
		a.newViewsCmd(),
	)
	return rootCmd
}

func main() {
	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
