// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package main

import (
	"fmt"
	"os"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mattermost/mattermost-issuetracker/model"
	"github.com/mattermost/mattermost-issuetracker/store"
)

// superuserPasswordEnv keeps the password out of the shell history and the
// process list.
const superuserPasswordEnv = "ISSUETRACKER_SUPERUSER_PASSWORD"

func openStore() (store.Store, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.NewSQLStore(config.DriverName, config.DataSource)
}

func newCreateSuperuserCmd() *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an administrator account",
		Long:  "Create an administrator account. The password is read from " + superuserPasswordEnv + ".",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv(superuserPasswordEnv)
			if len(password) < model.PasswordMinLength {
				return errors.Errorf("%s must hold a password of at least %d characters", superuserPasswordEnv, model.PasswordMinLength)
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			user := &model.User{Username: username, Email: email, IsSuperuser: true, IsActive: true}
			user.PreSave()
			if err = user.SetPassword(password); err != nil {
				return err
			}
			if appErr := user.IsValid(); appErr != nil {
				return appErr
			}

			existing, err := st.User().GetByUsername(user.Username)
			if err != nil {
				return err
			}
			if existing != nil {
				return errors.Errorf("user %q already exists", user.Username)
			}

			if _, err = st.User().Save(user); err != nil {
				return err
			}
			mlog.Info("Superuser created", mlog.String("username", user.Username))
			fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created.\n", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newSetRoleCmd() *cobra.Command {
	var username, role string

	cmd := &cobra.Command{
		Use:   "setrole",
		Short: "Change the role of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			newRole := model.Role(role)
			if !newRole.IsValid() {
				return errors.Errorf("unknown role %q, expected one of %v", role, model.Roles)
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := st.User().GetByUsername(username)
			if err != nil {
				return err
			}
			if user == nil {
				return errors.Errorf("user %q does not exist", username)
			}
			if user.IsSuperuser && newRole != model.RoleAdmin {
				return errors.Errorf("%q is a superuser and must stay an admin", username)
			}

			user.Role = newRole
			if _, err = st.User().Update(user); err != nil {
				return err
			}
			mlog.Info("Role changed", mlog.String("username", username), mlog.String("role", role))
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s.\n", username, role)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&role, "role", "", "admin, assignee or reporter")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
