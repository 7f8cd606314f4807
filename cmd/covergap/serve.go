package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appLog "covergap/internal/log"
	"covergap/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and refresh configured sources on schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				a.cfg.Listen = listen
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			reg, err := a.profiles("")
			if err != nil {
				return err
			}
			p, err := reg.Lookup(a.cfg.Profile)
			if err != nil {
				return err
			}

			appLog.Info("covergap starting", "version", version)
			appLog.Info("effective config",
				"listen", a.cfg.Listen,
				"timezone", a.loc.String(),
				"refresh", a.cfg.RefreshCron,
				"profile", a.cfg.Profile,
				"sources", len(a.cfg.Sources),
				"metrics", a.cfg.Metrics,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			refresher := web.NewRefresher(web.RefresherOptions{
				Loader:      a.loader(),
				Sources:     a.cfg.Sources,
				ProfileName: a.cfg.Profile,
				Profile:     p,
				Location:    a.loc,
			})
			if err := refresher.Start(ctx, a.cfg.RefreshCron); err != nil {
				return err
			}

			srv := web.NewServer(web.Options{
				Config:    a.cfg,
				Location:  a.loc,
				Profiles:  reg,
				Refresher: refresher,
			})
			err = srv.Run(ctx)
			appLog.Info("covergap exiting")
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	return cmd
}
