// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authsvc

import (
	"context"
	"log/slog"

	"github.com/holomush/authcore/internal/credential"
	"github.com/holomush/authcore/pkg/authcore"
)

// upgradeNotifier verifies passwords and logs when a successful match was
// against a hash from a legacy algorithm.
type upgradeNotifier struct {
	verifier authcore.Verifier[string]
	logger   *slog.Logger
}

func (u *upgradeNotifier) Verify(ctx context.Context, stored, candidate string) (bool, error) {
	ok, err := u.verifier.Verify(ctx, stored, candidate)
	if err == nil && ok && credential.NeedsUpgrade(stored) {
		u.logger.InfoContext(ctx, "password hash uses a legacy algorithm",
			"want", credential.AlgorithmArgon2id)
	}
	return ok, err
}
