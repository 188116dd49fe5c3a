// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credential

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/samber/oops"
)

// TokenBytes is the entropy of a session token: 32 bytes = 64 hex chars.
const TokenBytes = 32

// GenerateToken creates a random session token and its hash.
// The plaintext token goes to the client; only the hash is stored.
func GenerateToken() (token, hash string, err error) {
	tokenBytes := make([]byte, TokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("CREDENTIAL_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, HashToken(token), nil
}

// HashToken computes the hex SHA256 of a session token.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// TokenVerifier compares a presented token against a stored token hash.
type TokenVerifier struct{}

// Verify hashes token and compares it with storedHash in constant time.
// An empty presented token never matches. An empty stored hash is an error.
func (TokenVerifier) Verify(_ context.Context, storedHash, token string) (bool, error) {
	if storedHash == "" {
		return false, oops.Code("CREDENTIAL_TOKEN_HASH_EMPTY").Errorf("stored token hash cannot be empty")
	}
	if token == "" {
		return false, nil
	}
	computed := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1, nil
}
