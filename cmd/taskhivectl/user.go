package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskhive/taskhive/internal/service/account"
	"github.com/taskhive/taskhive/pkg/crypto"
)

func newUserCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <username>",
		Short: "Create an account with the same rules as the sign-up screen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return addUser(cmd, env, args[0])
		},
	})
	return cmd
}

func addUser(cmd *cobra.Command, env *cliEnv, username string) error {
	password, err := env.readPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := env.readPassword("Confirm Password: ")
	if err != nil {
		return err
	}

	passwords, err := crypto.NewPasswords(env.cfg.PasswordScheme)
	if err != nil {
		return err
	}
	store, err := env.openStore(cmd.Context(), env.cfg, env.log)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	user, err := account.New(store, passwords, env.log).Signup(cmd.Context(), username, password, confirm)
	switch {
	case errors.Is(err, account.ErrPasswordMismatch):
		return errors.New("passwords do not match")
	case errors.Is(err, account.ErrUsernameRequired):
		return errors.New("username is required")
	case errors.Is(err, account.ErrUsernameTaken):
		return fmt.Errorf("username %q already exists", username)
	case err != nil:
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.Username, user.ID)
	return nil
}
