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

	"github.com/holomush/authcore/internal/credential"
	"github.com/holomush/authcore/internal/store"
	"github.com/holomush/authcore/pkg/authcore"
)

// SessionCreator issues sessions that expire TTL after creation.
type SessionCreator struct {
	TTL time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// CreateSession implements authcore.SessionCreator.
func (c SessionCreator) CreateSession(ctx context.Context, db *sql.DB, identity ulid.ULID) (*authcore.Session[ulid.ULID], error) {
	token, hash, err := credential.GenerateToken()
	if err != nil {
		return nil, oops.With("operation", "create session").Wrap(err)
	}

	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = store.DefaultSessionTTL
	}
	id := ulid.Make()

	_, err = db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		id.String(), identity.String(), hash, toMillis(now.Add(ttl)), toMillis(now))
	if err != nil {
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("user_id", identity.String()).
			Wrap(err)
	}
	return &authcore.Session[ulid.ULID]{ID: id.String(), Token: token, Identity: identity}, nil
}

// FetchSession returns the stored token hash and owner of session id.
// Unknown and expired sessions both yield nil, nil.
func FetchSession(ctx context.Context, db *sql.DB, id string) (*authcore.SessionRecord[ulid.ULID, string], error) {
	var userID, hash string
	err := db.QueryRowContext(ctx,
		`SELECT user_id, token_hash FROM sessions WHERE id = ? AND expires_at > ?`,
		id, toMillis(time.Now())).
		Scan(&userID, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("SESSION_FETCH_FAILED").
			With("operation", "select session by id").
			With("id", id).
			Wrap(err)
	}

	identity, err := ulid.Parse(userID)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_USER_ID").With("id", id).With("user_id", userID).Wrap(err)
	}
	return &authcore.SessionRecord[ulid.ULID, string]{StoredToken: hash, Identity: identity}, nil
}

// DeleteExpiredSessions removes sessions that expired at or before now and
// returns how many were removed.
func DeleteExpiredSessions(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "rows affected").
			Wrap(err)
	}
	return n, nil
}
