// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package store holds what the postgres and sqlite strategy sets share:
// the provisioning error payload, username policy, and schema migrations.
package store

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// DefaultSessionTTL is the lifetime of an issued session when none is configured.
const DefaultSessionTTL = 24 * time.Hour

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// CreateReason says why a user could not be created.
type CreateReason string

// Creation failure reasons.
const (
	ReasonUsernameTaken   CreateReason = "username_taken"
	ReasonInvalidUsername CreateReason = "invalid_username"
)

// CreateError is the provisioning failure payload returned by the
// CreateUser strategies. It is data, not a fault: the store is unchanged.
type CreateError struct {
	Reason   CreateReason
	Username string
	Detail   string
}

// Error implements error so the payload can be printed or logged directly.
func (e CreateError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("cannot create user %q: %s: %s", e.Username, e.Reason, e.Detail)
	}
	return fmt.Sprintf("cannot create user %q: %s", e.Username, e.Reason)
}

// ValidateUsername checks username against the account naming rules:
// MinUsernameLength to MaxUsernameLength characters, starting with a letter,
// then letters, digits, or underscores. It returns a CreateError describing
// the first violation, or nil.
func ValidateUsername(username string) *CreateError {
	detail := ""
	switch {
	case len(username) < MinUsernameLength:
		detail = fmt.Sprintf("must be at least %d characters", MinUsernameLength)
	case len(username) > MaxUsernameLength:
		detail = fmt.Sprintf("must be at most %d characters", MaxUsernameLength)
	case !usernameRegex.MatchString(username):
		detail = "must start with a letter and contain only letters, numbers, and underscores"
	default:
		return nil
	}
	return &CreateError{Reason: ReasonInvalidUsername, Username: username, Detail: detail}
}
