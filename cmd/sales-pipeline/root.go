package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sales-pipeline",
		Short:        "Fetch daily sales and convert them to Avro",
		Long:         "sales-pipeline pulls every page of a day's sales from the sales API into raw JSON files and converts them into schema-bound Avro files.",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newFetchCmd())
	root.AddCommand(newConvertCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sales-pipeline %s (commit: %s)\n", version, commit)
		},
	}
}
