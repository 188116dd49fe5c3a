// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authcore

import "context"

// UserFetcher looks up a user by username.
// It returns (nil, nil) when no such user exists.
type UserFetcher[C, I, P any] interface {
	FetchUser(ctx context.Context, conn C, username string) (*UserRecord[I, P], error)
}

// UserFetcherFunc adapts a function to UserFetcher.
type UserFetcherFunc[C, I, P any] func(ctx context.Context, conn C, username string) (*UserRecord[I, P], error)

// FetchUser calls f.
func (f UserFetcherFunc[C, I, P]) FetchUser(ctx context.Context, conn C, username string) (*UserRecord[I, P], error) {
	return f(ctx, conn, username)
}

// Verifier compares a stored representation against a supplied candidate.
// Implementations must compare in constant time.
type Verifier[S any] interface {
	Verify(ctx context.Context, stored S, candidate string) (bool, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc[S any] func(ctx context.Context, stored S, candidate string) (bool, error)

// Verify calls f.
func (f VerifierFunc[S]) Verify(ctx context.Context, stored S, candidate string) (bool, error) {
	return f(ctx, stored, candidate)
}

// Processor turns a raw credential into its storable representation.
type Processor[P any] interface {
	Process(ctx context.Context, candidate string) (P, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc[P any] func(ctx context.Context, candidate string) (P, error)

// Process calls f.
func (f ProcessorFunc[P]) Process(ctx context.Context, candidate string) (P, error) {
	return f(ctx, candidate)
}

// SessionCreator issues and persists a new session for identity.
type SessionCreator[C, I any] interface {
	CreateSession(ctx context.Context, conn C, identity I) (*Session[I], error)
}

// SessionCreatorFunc adapts a function to SessionCreator.
type SessionCreatorFunc[C, I any] func(ctx context.Context, conn C, identity I) (*Session[I], error)

// CreateSession calls f.
func (f SessionCreatorFunc[C, I]) CreateSession(ctx context.Context, conn C, identity I) (*Session[I], error) {
	return f(ctx, conn, identity)
}

// SessionFetcher looks up a stored session by ID.
// It returns (nil, nil) when no such session exists.
type SessionFetcher[C, I, T any] interface {
	FetchSession(ctx context.Context, conn C, id string) (*SessionRecord[I, T], error)
}

// SessionFetcherFunc adapts a function to SessionFetcher.
type SessionFetcherFunc[C, I, T any] func(ctx context.Context, conn C, id string) (*SessionRecord[I, T], error)

// FetchSession calls f.
func (f SessionFetcherFunc[C, I, T]) FetchSession(ctx context.Context, conn C, id string) (*SessionRecord[I, T], error) {
	return f(ctx, conn, id)
}

// UserCreator persists a new user. It owns the uniqueness check and must
// leave storage unchanged when it reports a failed ProvisionResult.
// A non-nil error is reserved for faults such as an unreachable store.
type UserCreator[C, E, I, P any] interface {
	CreateUser(ctx context.Context, conn C, username string, processed P) (ProvisionResult[E, I], error)
}

// UserCreatorFunc adapts a function to UserCreator.
type UserCreatorFunc[C, E, I, P any] func(ctx context.Context, conn C, username string, processed P) (ProvisionResult[E, I], error)

// CreateUser calls f.
func (f UserCreatorFunc[C, E, I, P]) CreateUser(ctx context.Context, conn C, username string, processed P) (ProvisionResult[E, I], error) {
	return f(ctx, conn, username, processed)
}

// Strategies is the capability set an Authenticator is built from.
type Strategies[C, E, I, P, T any] struct {
	FetchUser         UserFetcher[C, I, P]
	VerifyCredential  Verifier[P]
	ProcessCredential Processor[P]
	CreateSession     SessionCreator[C, I]
	FetchSession      SessionFetcher[C, I, T]
	VerifyToken       Verifier[T]
	CreateUser        UserCreator[C, E, I, P]
}

// validate reports the first missing strategy.
func (s Strategies[C, E, I, P, T]) validate() error {
	switch {
	case s.FetchUser == nil:
		return errMissing("user fetcher")
	case s.VerifyCredential == nil:
		return errMissing("credential verifier")
	case s.ProcessCredential == nil:
		return errMissing("credential processor")
	case s.CreateSession == nil:
		return errMissing("session creator")
	case s.FetchSession == nil:
		return errMissing("session fetcher")
	case s.VerifyToken == nil:
		return errMissing("token verifier")
	case s.CreateUser == nil:
		return errMissing("user creator")
	}
	return nil
}
