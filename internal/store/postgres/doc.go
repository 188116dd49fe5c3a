// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements the authcore storage strategies on PostgreSQL.
//
// Every strategy takes a DB as its connection handle, so the same functions
// run against a *pgxpool.Pool, inside a pgx.Tx, or against pgxmock in tests.
// Identities are ULIDs; stored credentials and stored tokens are strings.
package postgres
