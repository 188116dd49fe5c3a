// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package authcore composes credential and session verification from
// pluggable strategies.
//
// # Roles
//
// An Authenticator is assembled once from a shared connection handle and a
// fixed set of strategies:
//   - UserFetcher and UserCreator - user lookup and provisioning
//   - Processor and Verifier - credential storage representation and comparison
//   - SessionCreator and SessionFetcher - session issuance and lookup
//
// Identity, stored credential, stored token and creation error types are
// generic parameters. The package never inspects them; equality of stored
// representations is always delegated to a Verifier.
//
// # Operations
//
//   - AuthenticateCredentials - username/password to a new Session
//   - AuthenticateSession - revalidates a Session and refreshes its Identity
//   - ProvisionUser - processes a password and hands it to the UserCreator
//
// A missing user or session is reported exactly like a failed verification.
// Strategy errors are returned to the caller with an AUTHCORE_* oops code and
// are never retried.
package authcore
