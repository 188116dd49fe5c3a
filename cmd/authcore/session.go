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

// NewSessionCmd creates the session subcommand.
func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and maintain sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check <id> <token>",
		Short: "Verify a session id and token",
		Args:  cobra.ExactArgs(2),
		RunE:  runSessionCheck,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete expired sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessionPrune,
	})

	return cmd
}

func runSessionCheck(cmd *cobra.Command, args []string) error {
	id, token := args[0], args[1]

	return withService(cmd, func(ctx context.Context, svc *authsvc.Service) error {
		identity, ok, err := svc.CheckSession(ctx, id, token)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "invalid")
			return oops.Code("INVALID_SESSION").With("session_id", id).Errorf("invalid session")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "valid identity=%s\n", identity)
		return nil
	})
}

func runSessionPrune(cmd *cobra.Command, _ []string) error {
	return withService(cmd, func(ctx context.Context, svc *authsvc.Service) error {
		n, err := svc.PruneSessions(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned: %d\n", n)
		return nil
	})
}
