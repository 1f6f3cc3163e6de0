package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"housing-explorer/models"
	"housing-explorer/services"
	"housing-explorer/storage"
	"housing-explorer/utils"
)

type describeOptions struct {
	cities       []string
	furnishing   []string
	format       string
	counts       bool
	fromPostgres bool
}

// describeOutput is the JSON shape of the describe command.
type describeOutput struct {
	Source           string               `json:"source"`
	Summary          models.SummaryReport `json:"summary"`
	CityCounts       []models.ValueCount  `json:"cityCounts,omitempty"`
	FurnishingCounts []models.ValueCount  `json:"furnishingCounts,omitempty"`
	Predicates       models.PredicateSet  `json:"predicates"`
}

func newDescribeCommand(a *app) *cobra.Command {
	opts := &describeOptions{}

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print descriptive statistics for the listings",
		Long: `Print the numeric and categorical statistics of the listings, optionally
narrowed by city and furnishing status. Repeat --city or --furnishing to select
several values; rows match when they equal any selected value in every filtered
column.`,
		Example: `  # Statistics of the whole dataset
  housing-explorer describe

  # Furnished listings in Mumbai or Delhi, as markdown
  housing-explorer describe --city Mumbai --city Delhi --furnishing Furnished --format markdown

  # Statistics of the listings exported to PostgreSQL
  housing-explorer describe --from-postgres --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validFormat(opts.format); err != nil {
				return err
			}
			return runDescribe(cmd, a, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.cities, "city", nil, "Keep rows in this city (repeatable)")
	cmd.Flags().StringArrayVar(&opts.furnishing, "furnishing", nil, "Keep rows with this furnishing status (repeatable)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "Output format: table, markdown, csv, json")
	cmd.Flags().BoolVar(&opts.counts, "counts", false, "Also print City and Furnishing Status value counts")
	cmd.Flags().BoolVar(&opts.fromPostgres, "from-postgres", false, "Read the listings from PostgreSQL instead of the CSV file")
	return cmd
}

func runDescribe(cmd *cobra.Command, a *app, opts *describeOptions) error {
	req := models.DashboardRequest{Cities: opts.cities, Furnishing: opts.furnishing}

	var (
		view   models.View
		source string
	)
	if opts.fromPostgres {
		table, err := loadFromPostgres(cmd.Context(), a)
		if err != nil {
			return err
		}
		view = services.NewFilterEngine(a.logger).Apply(table, req.Predicates())
		source = "postgres:" + a.cfg.PostgresDB
	} else {
		explorer, _ := a.newExplorer()
		filtered, err := explorer.Filtered(req)
		if err != nil {
			return err
		}
		view = filtered
		source = explorer.Path()
	}

	summarizer := services.NewSummarizer(a.logger)
	out := describeOutput{
		Source:     source,
		Summary:    summarizer.Summarize(view),
		Predicates: req.Predicates(),
	}
	if opts.counts {
		out.CityCounts = summarizer.ValueCounts(view, models.ColCity)
		out.FurnishingCounts = summarizer.ValueCounts(view, models.ColFurnishingStatus)
	}

	w := cmd.OutOrStdout()
	if opts.format == "json" {
		return renderJSON(w, out)
	}

	grids := []grid{
		numericGrid(fmt.Sprintf("Numeric columns (%d rows)", out.Summary.Rows), out.Summary.Numeric),
		categoricalGrid("Categorical columns", out.Summary.Categorical),
	}
	if opts.counts {
		grids = append(grids,
			countsGrid("Listings per city", out.CityCounts),
			countsGrid("Listings per furnishing status", out.FurnishingCounts),
		)
	}
	return renderGrids(w, opts.format, grids...)
}

func loadFromPostgres(ctx context.Context, a *app) (*models.Table, error) {
	store, err := storage.NewPostgresStore(ctx, a.cfg.DSN(), postgresRetry(a))
	if err != nil {
		return nil, err
	}
	table, err := readTable(ctx, store)
	if err != nil {
		return nil, err
	}
	a.logger.Info("[describe] Loaded %d listings from PostgreSQL", table.Len())
	return table, nil
}

// readTable reads every stored listing into a table and closes the reader.
func readTable(ctx context.Context, r storage.ListingReader) (*models.Table, error) {
	defer r.Close()
	listings, err := r.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("describe: %w", err)
	}
	return models.TableFromListings(listings), nil
}

func postgresRetry(a *app) *utils.RetryConfig {
	return &utils.RetryConfig{
		MaxAttempts: a.cfg.MaxRetries,
		BaseDelay:   time.Second,
		Logger:      a.logger,
	}
}
