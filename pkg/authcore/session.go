// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authcore

// Session is one authenticated login.
//
// ID and Token are fixed when the session is issued. Identity is refreshed by
// AuthenticateSession from the stored record every time a record is found.
type Session[I any] struct {
	ID       string
	Token    string
	Identity I
}

// UserRecord is what a UserFetcher returns for an existing user.
type UserRecord[I, P any] struct {
	StoredCredential P
	Identity         I
}

// SessionRecord is what a SessionFetcher returns for an existing session.
type SessionRecord[I, T any] struct {
	StoredToken T
	Identity    I
}

// CredentialResult is the outcome of AuthenticateCredentials.
// Session is non-nil exactly when Valid is true.
type CredentialResult[I any] struct {
	Valid   bool
	Session *Session[I]
}

// Rejected returns the negative credential outcome.
func Rejected[I any]() CredentialResult[I] {
	return CredentialResult[I]{}
}

// Accepted returns the positive credential outcome for session.
func Accepted[I any](session *Session[I]) CredentialResult[I] {
	return CredentialResult[I]{Valid: true, Session: session}
}

// ProvisionResult is the outcome of ProvisionUser.
// Identity is meaningful when Success is true, Error when it is false.
type ProvisionResult[E, I any] struct {
	Success  bool
	Identity I
	Error    E
}

// Provisioned returns a successful ProvisionResult.
func Provisioned[E, I any](identity I) ProvisionResult[E, I] {
	return ProvisionResult[E, I]{Success: true, Identity: identity}
}

// ProvisionFailed returns a failed ProvisionResult carrying err.
func ProvisionFailed[E, I any](err E) ProvisionResult[E, I] {
	return ProvisionResult[E, I]{Error: err}
}
