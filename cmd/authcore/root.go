// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authcore/internal/authsvc"
	"github.com/holomush/authcore/internal/config"
	"github.com/holomush/authcore/internal/logging"
)

const serviceName = "authcore"

// NewRootCmd creates the root command for the authcore CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authcore",
		Short: "authcore - credential and session authentication",
		Long: `authcore provisions users, checks passwords, and issues and verifies
sessions against a SQLite file or a PostgreSQL database.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUserCmd())
	cmd.AddCommand(NewLoginCmd())
	cmd.AddCommand(NewSessionCmd())

	return cmd
}

// loadConfig resolves configuration from the --config file and flags, and
// builds the logger it describes.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// withService opens the configured Service, runs fn, and closes it.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *authsvc.Service) error) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc, err := authsvc.Open(ctx, cfg, logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "open service").Wrap(err)
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			logger.Warn("failed to close service", "error", cerr)
		}
	}()

	return fn(ctx, svc)
}

// readPassword returns the --password flag if set, otherwise the first
// line of the command's input.
func readPassword(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed("password") {
		pw, err := cmd.Flags().GetString("password")
		if err != nil {
			return "", oops.Code("INVALID_PASSWORD").Wrap(err)
		}
		return pw, nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", oops.Code("INVALID_PASSWORD").With("operation", "read password").Wrap(err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", oops.Code("INVALID_PASSWORD").Errorf("password is required (use --password or stdin)")
	}
	return pw, nil
}
