// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mattermost/mattermost-issuetracker/metrics"
	"github.com/mattermost/mattermost-issuetracker/server"
)

func newImportGithubCmd() *cobra.Command {
	var (
		projectID int64
		repo      string
		state     string
	)

	cmd := &cobra.Command{
		Use:   "import-github",
		Short: "Copy the issues of a GitHub repository into a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch state {
			case "open", "closed", "all":
			default:
				return errors.Errorf("invalid state %q, expected open, closed or all", state)
			}

			config, err := loadConfig()
			if err != nil {
				return err
			}
			if config.GithubAccessToken == "" {
				return errors.New("GITHUB_ACCESS_TOKEN or GithubAccessToken must be set")
			}

			s, err := server.New(config, metrics.NewPrometheusProvider())
			if err != nil {
				return err
			}
			defer func() {
				_ = s.Stop()
			}()

			result, err := s.ImportGithubIssues(cmd.Context(), projectID, repo, state)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d issues, skipped %d.\n", result.Imported, result.Skipped)
			return nil
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "id of the target project")
	cmd.Flags().StringVar(&repo, "repo", "", "repository in owner/name form")
	cmd.Flags().StringVar(&state, "state", "open", "open, closed or all")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}
