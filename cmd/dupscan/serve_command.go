package main

import (
	"github.com/spf13/cobra"

	"dupscan/internal/app"
	"dupscan/internal/frontend"
	"dupscan/internal/logging"
	"dupscan/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var listen string
	var scanOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scan results and history over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = listen
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			return ctx.withApp(func(application *app.App) error {
				if scanOnStart {
					if err := application.StartScan(cmd.Context(), ""); err != nil {
						return err
					}
				}
				srv := server.New(application, frontend.NewRenderer(), logger)
				if err := srv.Start(cmd.Context(), cfg.Server.Listen); err != nil {
					logger.Error("server stopped", logging.Error(err))
					return err
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on")
	cmd.Flags().BoolVar(&scanOnStart, "scan", false, "Scan the configured root on startup")
	return cmd
}
