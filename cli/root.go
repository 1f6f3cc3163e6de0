// Package cli provides the housing-explorer command-line interface.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"housing-explorer/config"
	"housing-explorer/services"
	"housing-explorer/utils"
)

// Version is set at build time.
var Version = "0.1.0"

// app is the state shared by every command once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *utils.Logger

	datasetFlag  string
	logLevelFlag string
}

func (a *app) datasetPath() string {
	if a.datasetFlag != "" {
		return a.datasetFlag
	}
	return a.cfg.DatasetPath
}

func (a *app) newExplorer() (*services.Explorer, *services.DatasetCache) {
	cache := services.NewDatasetCache(a.logger)
	return services.NewExplorer(cache, a.datasetPath(), a.cfg.TableRowLimit, a.logger), cache
}

// NewRootCmd creates the root command and all subcommands.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "housing-explorer",
		Short: "Browse and summarise Indian rental housing listings",
		Long: `housing-explorer loads a CSV of Indian rental listings and lets you filter it
by city and furnishing status, view descriptive statistics and charts in a web
dashboard, print the same statistics in the terminal, and export cleaned
listings to PostgreSQL.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.cfg = config.Load()
			level := a.cfg.LogLevel
			if a.logLevelFlag != "" {
				level = a.logLevelFlag
			}
			a.logger = utils.NewLoggerWithWriter(cmd.ErrOrStderr(), utils.ParseLevel(level))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.datasetFlag, "dataset", "", "Path to the listings CSV (default: DATASET_PATH or housing_data.csv)")
	rootCmd.PersistentFlags().StringVar(&a.logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newServeCommand(a),
		newDescribeCommand(a),
		newExportCommand(a),
		newSnapshotCommand(a),
		newVersionCommand(),
	)
	return rootCmd
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		utils.NewLogger().Error("%v", err)
		return err
	}
	return nil
}
