// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authcore/internal/store"
	"github.com/holomush/authcore/pkg/authcore"
)

// FetchUser looks up username case-insensitively. An unknown username
// yields nil, nil.
func FetchUser(ctx context.Context, db DB, username string) (*authcore.UserRecord[ulid.ULID, string], error) {
	var (
		id   string
		hash string
	)
	err := db.QueryRow(ctx, `
		SELECT id, password_hash FROM users
		WHERE LOWER(username) = LOWER($1)
	`, username).Scan(&id, &hash)
	if isNoRows(err) {
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
		return nil, oops.Code("USER_INVALID_ID").
			With("username", username).
			With("id", id).
			Wrap(err)
	}
	return &authcore.UserRecord[ulid.ULID, string]{StoredCredential: hash, Identity: identity}, nil
}

// CreateUser inserts a user with the processed password hash.
// An invalid or already taken username is reported as a failed
// ProvisionResult carrying a store.CreateError, not as an error.
func CreateUser(ctx context.Context, db DB, username, passwordHash string) (authcore.ProvisionResult[store.CreateError, ulid.ULID], error) {
	if cerr := store.ValidateUsername(username); cerr != nil {
		return authcore.ProvisionFailed[store.CreateError, ulid.ULID](*cerr), nil
	}

	id := ulid.Make()
	_, err := db.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, id.String(), username, passwordHash, time.Now().UTC())
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
