package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Simplici0/partpricing/internal/db"
	"github.com/Simplici0/partpricing/internal/export"
	"github.com/Simplici0/partpricing/internal/ingest"
	"github.com/Simplici0/partpricing/internal/migrations"
	"github.com/Simplici0/partpricing/internal/pricing"
	"github.com/Simplici0/partpricing/internal/store"
	"github.com/Simplici0/partpricing/pkg/logx"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pricer",
		Short:        "Price purchased parts into RRPP and tier prices",
		SilenceUsage: true,
	}
	root.AddCommand(newPriceCmd(), newDefaultsCmd(), newMigrateCmd())
	return root
}

type priceOptions struct {
	in       string
	out      string
	dbPath   string
	currency string
	rate     float64
	freight  float64
	mode     string
}

func newPriceCmd() *cobra.Command {
	opts := priceOptions{}
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a CSV or XLSX purchase file",
		Example: "  pricer price --in parts.csv --currency USD --rate 0.65 --freight 120 --mode Auto\n" +
			"  pricer price --in parts.xlsx --db ./dev.db --out priced.xlsx",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPrice(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.in, "in", "", "purchase file (.csv or .xlsx)")
	f.StringVar(&opts.out, "out", "", "output file (.csv or .xlsx); stdout CSV when empty")
	f.StringVar(&opts.dbPath, "db", "", "price against the configuration stored in this database instead of the defaults")
	f.StringVar(&opts.currency, "currency", string(pricing.BaseCurrency), "currency of purchase costs")
	f.Float64Var(&opts.rate, "rate", 1, "units of purchase currency per 1 AUD")
	f.Float64Var(&opts.freight, "freight", 0, "total freight for the batch in AUD")
	f.StringVar(&opts.mode, "mode", string(pricing.FreightAuto), "freight mode: Auto or Manual")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func runPrice(ctx context.Context, opts priceOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	file, err := os.Open(opts.in)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	rows, err := ingest.Parse(file, opts.in)
	if err != nil {
		return err
	}

	snap := pricing.DefaultSnapshot()
	if opts.dbPath != "" {
		database, err := db.Open(ctx, opts.dbPath)
		if err != nil {
			return err
		}
		defer database.Close()
		if snap, err = store.New(database).Snapshot(ctx); err != nil {
			return err
		}
	}

	for _, m := range ingest.Mismatches(rows, snap.Multipliers) {
		logx.Warn().Int("row", m.Index+1).Str("part_number", m.PartNumber).Str("category", m.Category).
			Msg("category has no multiplier, pricing with 1.0")
	}

	params := pricing.RunParams{
		Currency:     pricing.ParseCurrency(opts.currency),
		ExchangeRate: opts.rate,
		FreightCost:  opts.freight,
		FreightMode:  pricing.ParseFreightMode(opts.mode),
	}
	batch, err := pricing.PriceBatch(rows, params, snap)
	if err != nil {
		return err
	}
	for _, rowErr := range batch.RowErrors {
		logx.Warn().Err(rowErr).Msg("tiers not derived")
	}

	switch strings.ToLower(filepath.Ext(opts.out)) {
	case "":
		return export.WriteCSV(stdout, batch.Parts)
	case ".csv":
		out, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		if err := export.WriteCSV(out, batch.Parts); err != nil {
			_ = out.Close()
			return err
		}
		return out.Close()
	case ".xlsx":
		data, err := export.XLSX(batch.Parts)
		if err != nil {
			return err
		}
		return os.WriteFile(opts.out, data, 0o644)
	default:
		return fmt.Errorf("unsupported output format %q", filepath.Ext(opts.out))
	}
}

func newDefaultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the default markup table and category multipliers as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"markup_table":         pricing.DefaultMarkupTable().Bands(),
				"category_multipliers": pricing.DefaultCategoryMultipliers().Map(),
			})
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := db.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := migrations.Up(database); err != nil {
				return err
			}
			version, err := migrations.Version(database)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "./dev.db", "database path")
	return cmd
}
