// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authcore/internal/store"
	"github.com/holomush/authcore/pkg/authcore"
)

// FetchUser looks up username case-insensitively. An unknown username
// yields nil, nil.
func FetchUser(ctx context.Context, db *sql.DB, username string) (*authcore.UserRecord[ulid.ULID, string], error) {
	var id, hash string
	err := db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE username = ?`, username).
		Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("USER_FETCH_FAILED").
			With("operation", "select user by username").
			With("username", username).
			Wrap(err)
	}

	identity, err := ulid.Parse(id)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").With("username", username).With("id", id).Wrap(err)
	}
	return &authcore.UserRecord[ulid.ULID, string]{StoredCredential: hash, Identity: identity}, nil
}

// CreateUser inserts a user with the processed password hash. Invalid and
// taken usernames are failed results carrying a store.CreateError.
func CreateUser(ctx context.Context, db *sql.DB, username, passwordHash string) (authcore.ProvisionResult[store.CreateError, ulid.ULID], error) {
	if cerr := store.ValidateUsername(username); cerr != nil {
		return authcore.ProvisionFailed[store.CreateError, ulid.ULID](*cerr), nil
	}

	id := ulid.Make()
	_, err := db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		id.String(), username, passwordHash, toMillis(time.Now()))
	if isUniqueViolation(err) {
		return authcore.ProvisionFailed[store.CreateError, ulid.ULID](store.CreateError{
			Reason:   store.ReasonUsernameTaken,
			Username: username,
		}), nil
	}
	if err != nil {
		return authcore.ProvisionResult[store.CreateError, ulid.ULID]{}, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", username).
			Wrap(err)
	}
	return authcore.Provisioned[store.CreateError](id), nil
}
