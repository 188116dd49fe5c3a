// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package authcoretest provides test doubles for authcore strategies.
package authcoretest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/holomush/authcore/pkg/authcore"
)

// TestingT is the subset of *testing.T the mock constructors need.
type TestingT interface {
	mock.TestingT
	Cleanup(func())
}

func register(t TestingT, m *mock.Mock) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}

// MockUserFetcher is a testify mock of authcore.UserFetcher.
type MockUserFetcher[C, I, P any] struct{ mock.Mock }

// NewMockUserFetcher creates a MockUserFetcher that asserts its expectations on cleanup.
func NewMockUserFetcher[C, I, P any](t TestingT) *MockUserFetcher[C, I, P] {
	m := &MockUserFetcher[C, I, P]{}
	register(t, &m.Mock)
	return m
}

// FetchUser records the call.
func (m *MockUserFetcher[C, I, P]) FetchUser(ctx context.Context, conn C, username string) (*authcore.UserRecord[I, P], error) {
	args := m.Called(ctx, conn, username)
	rec, _ := args.Get(0).(*authcore.UserRecord[I, P])
	return rec, args.Error(1)
}

// MockVerifier is a testify mock of authcore.Verifier.
type MockVerifier[S any] struct{ mock.Mock }

// NewMockVerifier creates a MockVerifier that asserts its expectations on cleanup.
func NewMockVerifier[S any](t TestingT) *MockVerifier[S] {
	m := &MockVerifier[S]{}
	register(t, &m.Mock)
	return m
}

// Verify records the call.
func (m *MockVerifier[S]) Verify(ctx context.Context, stored S, candidate string) (bool, error) {
	args := m.Called(ctx, stored, candidate)
	return args.Bool(0), args.Error(1)
}

// MockProcessor is a testify mock of authcore.Processor.
type MockProcessor[P any] struct{ mock.Mock }

// NewMockProcessor creates a MockProcessor that asserts its expectations on cleanup.
func NewMockProcessor[P any](t TestingT) *MockProcessor[P] {
	m := &MockProcessor[P]{}
	register(t, &m.Mock)
	return m
}

// Process records the call.
func (m *MockProcessor[P]) Process(ctx context.Context, candidate string) (P, error) {
	args := m.Called(ctx, candidate)
	p, _ := args.Get(0).(P)
	return p, args.Error(1)
}

// MockSessionCreator is a testify mock of authcore.SessionCreator.
type MockSessionCreator[C, I any] struct{ mock.Mock }

// NewMockSessionCreator creates a MockSessionCreator that asserts its expectations on cleanup.
func NewMockSessionCreator[C, I any](t TestingT) *MockSessionCreator[C, I] {
	m := &MockSessionCreator[C, I]{}
	register(t, &m.Mock)
	return m
}

// CreateSession records the call.
func (m *MockSessionCreator[C, I]) CreateSession(ctx context.Context, conn C, identity I) (*authcore.Session[I], error) {
	args := m.Called(ctx, conn, identity)
	s, _ := args.Get(0).(*authcore.Session[I])
	return s, args.Error(1)
}

// MockSessionFetcher is a testify mock of authcore.SessionFetcher.
type MockSessionFetcher[C, I, T any] struct{ mock.Mock }

// NewMockSessionFetcher creates a MockSessionFetcher that asserts its expectations on cleanup.
func NewMockSessionFetcher[C, I, T any](t TestingT) *MockSessionFetcher[C, I, T] {
	m := &MockSessionFetcher[C, I, T]{}
	register(t, &m.Mock)
	return m
}

// FetchSession records the call.
func (m *MockSessionFetcher[C, I, T]) FetchSession(ctx context.Context, conn C, id string) (*authcore.SessionRecord[I, T], error) {
	args := m.Called(ctx, conn, id)
	rec, _ := args.Get(0).(*authcore.SessionRecord[I, T])
	return rec, args.Error(1)
}

// MockUserCreator is a testify mock of authcore.UserCreator.
type MockUserCreator[C, E, I, P any] struct{ mock.Mock }

// NewMockUserCreator creates a MockUserCreator that asserts its expectations on cleanup.
func NewMockUserCreator[C, E, I, P any](t TestingT) *MockUserCreator[C, E, I, P] {
	m := &MockUserCreator[C, E, I, P]{}
	register(t, &m.Mock)
	return m
}

// CreateUser records the call.
func (m *MockUserCreator[C, E, I, P]) CreateUser(ctx context.Context, conn C, username string, processed P) (authcore.ProvisionResult[E, I], error) {
	args := m.Called(ctx, conn, username, processed)
	res, _ := args.Get(0).(authcore.ProvisionResult[E, I])
	return res, args.Error(1)
}
