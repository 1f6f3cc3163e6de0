package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"housing-explorer/models"
	"housing-explorer/services"
	"housing-explorer/storage"
)

type exportOptions struct {
	cities     []string
	furnishing []string
	dryRun     bool
}

func newExportCommand(a *app) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Clean the listings and write them to PostgreSQL",
		Long: `Parse the listings CSV into typed records and replace the contents of the
PostgreSQL listings table with them. Rows whose BHK, Rent, Size or Bathroom
cannot be parsed, or that have no City, are skipped.`,
		Example: `  # Export every listing
  housing-explorer export

  # Only report how many Kolkata listings would be written
  housing-explorer export --city Kolkata --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			explorer, _ := a.newExplorer()
			view, err := explorer.Filtered(models.DashboardRequest{
				Cities:     opts.cities,
				Furnishing: opts.furnishing,
			})
			if err != nil {
				return err
			}

			listings := services.NewCleaner(a.logger).Clean(view)
			if opts.dryRun {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%d of %d rows would be exported\n", len(listings), view.Len())
				return err
			}

			store, err := storage.NewPostgresStore(cmd.Context(), a.cfg.DSN(), postgresRetry(a))
			if err != nil {
				return err
			}
			if err := writeListings(cmd.Context(), store, listings); err != nil {
				return err
			}
			a.logger.Info("[export] Wrote %d of %d rows to %s", len(listings), view.Len(), a.cfg.PostgresDB)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d rows exported\n", len(listings))
			return err
		},
	}

	cmd.Flags().StringArrayVar(&opts.cities, "city", nil, "Only export rows in this city (repeatable)")
	cmd.Flags().StringArrayVar(&opts.furnishing, "furnishing", nil, "Only export rows with this furnishing status (repeatable)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report what would be exported without connecting to PostgreSQL")
	return cmd
}

// writeListings writes listings and always closes the writer.
func writeListings(ctx context.Context, w storage.ListingWriter, listings []*models.Listing) error {
	defer w.Close()
	if err := w.Write(ctx, listings); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
