package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/pitlane/internal/metrics"
	"github.com/gauthierbraillon/pitlane/internal/server"
)

// newServeCmd creates the serve subcommand.
func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the schedule over HTTP",
		Long:  "Run the JSON API with /healthz and Prometheus /metrics until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(flags)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = env.cfg.Server.Addr
			}

			recorder := metrics.New()
			agg := env.newAggregator(recorder)
			if len(agg.Targets()) == 0 {
				return errors.New("no providers configured (see 'pitlane config')")
			}
			srv := server.New(agg,
				server.WithMetrics(recorder.Handler()),
				server.WithStarred(env.starredSet),
				server.WithLogger(env.logger))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := env.cfg.Server
			err = srv.ListenAndServe(ctx, addr, s.ReadTimeout, s.WriteTimeout, s.IdleTimeout)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config, \":8080\")")

	return cmd
}
