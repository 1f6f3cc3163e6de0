package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"housing-explorer/models"
	"housing-explorer/services"
	"housing-explorer/snapshot"
)

type snapshotOptions struct {
	url       string
	cities    []string
	allCities bool
	outDir    string
}

func newSnapshotCommand(a *app) *cobra.Command {
	opts := &snapshotOptions{}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save PNG screenshots of a running dashboard",
		Long: `Open a running dashboard in headless Chrome and save full-page screenshots:
one overview with the summary and charts, plus one per requested city.`,
		Example: `  # Overview and Mumbai views of the local dashboard
  housing-explorer snapshot --city Mumbai

  # One view per city found in the dataset
  housing-explorer snapshot --all-cities --out ./shots`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cities := opts.cities
			if opts.allCities {
				explorer, cache := a.newExplorer()
				table, err := cache.Load(explorer.Path())
				if err != nil {
					return err
				}
				cities = services.Distinct(table, models.ColCity)
			}

			views, err := snapshot.Views(dashboardURL(a, opts.url), cities)
			if err != nil {
				return err
			}

			cfg := *a.cfg
			if opts.outDir != "" {
				cfg.SnapshotDir = opts.outDir
			}
			saved, err := snapshot.New(&cfg, a.logger).Capture(cmd.Context(), views)
			if err != nil {
				return err
			}
			for _, path := range saved {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "Dashboard base URL (default: http://localhost plus LISTEN_ADDR)")
	cmd.Flags().StringArrayVar(&opts.cities, "city", nil, "Also capture the view of this city (repeatable)")
	cmd.Flags().BoolVar(&opts.allCities, "all-cities", false, "Capture every city in the dataset")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "Output directory (default: SNAPSHOT_DIR)")
	cmd.MarkFlagsMutuallyExclusive("city", "all-cities")
	return cmd
}

// dashboardURL resolves the dashboard address, turning a bare listen
// address such as ":8501" into a localhost URL.
func dashboardURL(a *app, flag string) string {
	if flag != "" {
		return flag
	}
	addr := a.cfg.ListenAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
