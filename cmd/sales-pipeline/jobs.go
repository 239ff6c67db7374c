package main

import (
	"fmt"

	"github.com/atroinina/sales-pipeline/internal/trigger"
	"github.com/atroinina/sales-pipeline/pkg/pagination"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	var date, rawDir string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch every sales page for a date into raw JSON files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			date = a.cfg.DateOrDefault(date)
			if err := pagination.ValidateDate(date); err != nil {
				return err
			}
			if rawDir == "" {
				rawDir = a.cfg.RawDir(date)
			}

			_, summary, err := trigger.RunFetch(ctx, a.engine, a.ledger(), rawDir, date)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d pages for %s into %s\n", summary.Pages, date, rawDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "sales date to fetch (YYYY-MM-DD, default SALES_DEFAULT_DATE or today)")
	cmd.Flags().StringVar(&rawDir, "raw-dir", "", "directory for raw files (default <BASE_DIR>/raw/sales/<date>)")

	return cmd
}

func newConvertCmd() *cobra.Command {
	var date, rawDir, stgDir string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a date's raw JSON files into Avro files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			date = a.cfg.DateOrDefault(date)
			if err := pagination.ValidateDate(date); err != nil {
				return err
			}
			if rawDir == "" {
				rawDir = a.cfg.RawDir(date)
			}
			if stgDir == "" {
				stgDir = a.cfg.StagingDir(date)
			}

			_, summary, err := trigger.RunConvert(ctx, a.converter, a.ledger(), date, rawDir, stgDir)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Converted %d files (%d records) into %s\n",
				len(summary.Files), summary.Records, stgDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "sales date to convert (YYYY-MM-DD, default SALES_DEFAULT_DATE or today)")
	cmd.Flags().StringVar(&rawDir, "raw-dir", "", "directory holding raw files (default <BASE_DIR>/raw/sales/<date>)")
	cmd.Flags().StringVar(&stgDir, "stg-dir", "", "directory for Avro files (default <BASE_DIR>/stg/sales/<date>)")

	return cmd
}
