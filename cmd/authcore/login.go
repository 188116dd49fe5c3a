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

// NewLoginCmd creates the login subcommand.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Check a password and issue a session",
		Long: `Authenticate username with a password taken from --password or from
the first line of standard input. On success the new session id and token
are printed.`,
		Args: cobra.ExactArgs(1),
		RunE: runLogin,
	}
	cmd.Flags().String("password", "", "password (default: read from stdin)")
	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	username := args[0]
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	return withService(cmd, func(ctx context.Context, svc *authsvc.Service) error {
		result, err := svc.Login(ctx, username, password)
		if err != nil {
			return err
		}
		if !result.Valid {
			fmt.Fprintln(cmd.OutOrStdout(), "invalid credentials")
			return oops.Code("INVALID_CREDENTIALS").Errorf("invalid credentials")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "session_id: %s\ntoken: %s\n", result.Session.ID, result.Session.Token)
		return nil
	})
}
