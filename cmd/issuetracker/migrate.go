// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package main

import (
	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/spf13/cobra"

	"github.com/mattermost/mattermost-issuetracker/store"
)

func newMigrateCmd() *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			if err = store.RunMigrations(config.DriverName, config.DataSource, version); err != nil {
				mlog.Error("Failed to run migrations", mlog.Err(err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&version, "version", 0, "target schema version, the latest when not set")
	return cmd
}
