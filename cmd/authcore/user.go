// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authcore/internal/authsvc"
)

// NewUserCmd creates the user subcommand.
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Long: `Create a user with the given username. The password is taken from
--password, or from the first line of standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: runUserCreate,
	}
	create.Flags().String("password", "", "password for the new user (default: read from stdin)")
	cmd.AddCommand(create)

	return cmd
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	username := args[0]
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	return withService(cmd, func(ctx context.Context, svc *authsvc.Service) error {
		result, err := svc.Register(ctx, username, password)
		if err != nil {
			return err
		}
		if !result.Success {
			fmt.Fprintf(cmd.OutOrStdout(), "Cannot create user: %s\n", result.Error.Error())
			return oops.Code("USER_CREATE_REFUSED").
				With("username", username).
				With("reason", string(result.Error.Reason)).
				Errorf("user not created: %s", result.Error.Reason)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "identity: %s\n", result.Identity)
		return nil
	})
}
