package cli

import (
	"github.com/spf13/cobra"

	"housing-explorer/dashboard"
)

type serveOptions struct {
	addr    string
	noWatch bool
}

func newServeCommand(a *app) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard",
		Long: `Start the web dashboard. The dataset is loaded once at startup and a load
failure aborts the command. While running, the table is cached and re-read only
when the file changes.`,
		Example: `  # Serve housing_data.csv on :8501
  housing-explorer serve

  # Serve another file on a custom address
  housing-explorer serve --dataset ./data/rent.csv --addr :3000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			explorer, cache := a.newExplorer()
			if _, err := cache.Load(explorer.Path()); err != nil {
				return err
			}

			addr := a.cfg.ListenAddr
			if opts.addr != "" {
				addr = opts.addr
			}

			srv, err := dashboard.NewServer(dashboard.Config{
				Explorer: explorer,
				Cache:    cache,
				Addr:     addr,
				Watch:    a.cfg.WatchDataset && !opts.noWatch,
				Logger:   a.logger,
			})
			if err != nil {
				return err
			}
			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (default: LISTEN_ADDR or :8501)")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "Don't watch the dataset file for changes")
	return cmd
}
