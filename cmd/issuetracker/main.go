// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package main

import (
	"context"
	"os"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/spf13/cobra"

	"github.com/mattermost/mattermost-issuetracker/server"
)

var configFile string

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "issuetracker",
		Short:        "Project and issue tracker",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", server.DefaultConfigFile, "configuration file (JSON or YAML)")

	root.AddCommand(
		newRunServerCmd(),
		newMigrateCmd(),
		newCreateSuperuserCmd(),
		newSetRoleCmd(),
		newImportGithubCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the configuration and sets up logging. Commands that do
// not need the full server only call this.
func loadConfig() (*server.Config, error) {
	config, err := server.GetConfig(configFile)
	if err != nil {
		mlog.Error("unable to load server config", mlog.Err(err), mlog.String("file", configFile))
		return nil, err
	}
	if err = server.SetupLogging(config); err != nil {
		mlog.Error("unable to configure logging", mlog.Err(err))
		return nil, err
	}
	return config, nil
}
