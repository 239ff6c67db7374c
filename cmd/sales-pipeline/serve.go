package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/atroinina/sales-pipeline/internal/trigger"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the fetch and convert trigger servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	ledger := a.ledger()

	fetchSrv := trigger.NewServer(a.cfg.FetchAddr,
		trigger.NewFetchHandler(a.engine, ledger, a.cfg.DateOrDefault))
	convertSrv := trigger.NewServer(a.cfg.ConvertAddr,
		trigger.NewConvertHandler(a.converter, ledger))

	a.logger.Info().
		Str("fetch_addr", a.cfg.FetchAddr).
		Str("convert_addr", a.cfg.ConvertAddr).
		Bool("ledger", ledger != nil).
		Msg("Starting trigger servers")

	return trigger.Serve(ctx, fetchSrv, convertSrv)
}
