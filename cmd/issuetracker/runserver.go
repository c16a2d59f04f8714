// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/spf13/cobra"

	"github.com/mattermost/mattermost-issuetracker/metrics"
	"github.com/mattermost/mattermost-issuetracker/server"
)

func newRunServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runserver",
		Short: "Serve the web application until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			// Metrics system
			metricsProvider := metrics.NewPrometheusProvider()
			metricsServer := metrics.NewServer(config.MetricsServerPort, metricsProvider.Handler(), config.EnableMetricsPprof)
			if err = metricsServer.Start(); err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if stopErr := metricsServer.Stop(ctx); stopErr != nil {
					mlog.Error("error while shutting down metrics server", mlog.Err(stopErr))
				}
			}()

			s, err := server.New(config, metricsProvider)
			if err != nil {
				mlog.Error("unable to start server", mlog.Err(err))
				return err
			}

			s.Start()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
			<-sig

			if err = s.Stop(); err != nil {
				mlog.Error("error while shutting down server", mlog.Err(err))
				return err
			}
			mlog.Info("Stopped issue tracker")
			return nil
		},
	}
}
