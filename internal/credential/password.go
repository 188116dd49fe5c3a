// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credential

import (
	"context"
	"strings"

	"github.com/samber/oops"
)

// Supported password algorithms.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// PasswordVerifier verifies stored password hashes of any supported
// algorithm, choosing the algorithm from the hash prefix.
type PasswordVerifier struct {
	argon2id *Argon2id
	bcrypt   *Bcrypt
}

// NewPasswordVerifier creates a PasswordVerifier.
func NewPasswordVerifier() *PasswordVerifier {
	return &PasswordVerifier{
		argon2id: NewArgon2id(),
		// cost is ignored by CompareHashAndPassword
		bcrypt: &Bcrypt{cost: DefaultBcryptCost},
	}
}

// Verify dispatches to the hasher that produced stored.
func (v *PasswordVerifier) Verify(ctx context.Context, stored, password string) (bool, error) {
	switch {
	case strings.HasPrefix(stored, Argon2idPrefix):
		return v.argon2id.Verify(ctx, stored, password)
	case isBcryptHash(stored):
		return v.bcrypt.Verify(ctx, stored, password)
	default:
		return false, oops.Code("CREDENTIAL_INVALID_HASH").Errorf("unrecognized password hash format")
	}
}

// NeedsUpgrade reports whether stored was produced by an algorithm other
// than argon2id.
func NeedsUpgrade(stored string) bool {
	return !strings.HasPrefix(stored, Argon2idPrefix)
}

// Processor is a password Processor as selected by NewProcessor.
type Processor interface {
	Process(ctx context.Context, password string) (string, error)
}

// NewProcessor returns the processor for algorithm. bcryptCost is only used
// by the bcrypt algorithm.
func NewProcessor(algorithm string, bcryptCost int) (Processor, error) {
	switch algorithm {
	case AlgorithmArgon2id, "":
		return NewArgon2id(), nil
	case AlgorithmBcrypt:
		h, err := NewBcrypt(bcryptCost)
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, oops.Code("CREDENTIAL_INVALID_OPTION").
			With("algorithm", algorithm).
			Errorf("unsupported password algorithm")
	}
}
