// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authcore_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authcore/pkg/authcore"
	"github.com/holomush/authcore/pkg/authcore/authcoretest"
	"github.com/holomush/authcore/pkg/errutil"
)

// conn is the connection handle used with mocks; its identity is asserted
// on every strategy call.
type conn struct{ name string }

type (
	testStrategies = authcore.Strategies[*conn, string, string, string, string]
	testAuth       = authcore.Authenticator[*conn, string, string, string, string]
)

type mocks struct {
	fetchUser     *authcoretest.MockUserFetcher[*conn, string, string]
	verifyCred    *authcoretest.MockVerifier[string]
	process       *authcoretest.MockProcessor[string]
	createSession *authcoretest.MockSessionCreator[*conn, string]
	fetchSession  *authcoretest.MockSessionFetcher[*conn, string, string]
	verifyToken   *authcoretest.MockVerifier[string]
	createUser    *authcoretest.MockUserCreator[*conn, string, string, string]
}

func newMocks(t *testing.T) *mocks {
	return &mocks{
		fetchUser:     authcoretest.NewMockUserFetcher[*conn, string, string](t),
		verifyCred:    authcoretest.NewMockVerifier[string](t),
		process:       authcoretest.NewMockProcessor[string](t),
		createSession: authcoretest.NewMockSessionCreator[*conn, string](t),
		fetchSession:  authcoretest.NewMockSessionFetcher[*conn, string, string](t),
		verifyToken:   authcoretest.NewMockVerifier[string](t),
		createUser:    authcoretest.NewMockUserCreator[*conn, string, string, string](t),
	}
}

func (m *mocks) strategies() testStrategies {
	return testStrategies{
		FetchUser:         m.fetchUser,
		VerifyCredential:  m.verifyCred,
		ProcessCredential: m.process,
		CreateSession:     m.createSession,
		FetchSession:      m.fetchSession,
		VerifyToken:       m.verifyToken,
		CreateUser:        m.createUser,
	}
}

func newMockAuth(t *testing.T) (*testAuth, *mocks, *conn) {
	t.Helper()
	m := newMocks(t)
	c := &conn{name: "shared"}
	a, err := authcore.New(c, m.strategies())
	require.NoError(t, err)
	return a, m, c
}

func TestNew_MissingStrategies(t *testing.T) {
	full := newMocks(t).strategies()

	tests := []struct {
		name   string
		mutate func(s *testStrategies)
		want   string
	}{
		{"nil user fetcher", func(s *testStrategies) { s.FetchUser = nil }, "user fetcher is required"},
		{"nil credential verifier", func(s *testStrategies) { s.VerifyCredential = nil }, "credential verifier is required"},
		{"nil credential processor", func(s *testStrategies) { s.ProcessCredential = nil }, "credential processor is required"},
		{"nil session creator", func(s *testStrategies) { s.CreateSession = nil }, "session creator is required"},
		{"nil session fetcher", func(s *testStrategies) { s.FetchSession = nil }, "session fetcher is required"},
		{"nil token verifier", func(s *testStrategies) { s.VerifyToken = nil }, "token verifier is required"},
		{"nil user creator", func(s *testStrategies) { s.CreateUser = nil }, "user creator is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := full
			tt.mutate(&s)
			a, err := authcore.New(&conn{}, s)
			require.Error(t, err)
			assert.Nil(t, a)
			assert.Contains(t, err.Error(), tt.want)
			errutil.AssertErrorCode(t, err, authcore.CodeInvalidConfig)
		})
	}
}

func TestNew_NilLogger(t *testing.T) {
	a, err := authcore.New(&conn{}, newMocks(t).strategies(), authcore.WithLogger(nil))
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "logger")
}

func TestAuthenticator_Conn(t *testing.T) {
	a, _, c := newMockAuth(t)
	assert.Same(t, c, a.Conn())
}

func TestAuthenticateCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials create one session", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		session := &authcore.Session[string]{ID: "S1", Token: "tok", Identity: "alice-id"}

		m.fetchUser.On("FetchUser", mock.Anything, c, "alice").
			Return(&authcore.UserRecord[string, string]{StoredCredential: "H", Identity: "alice-id"}, nil).Once()
		m.verifyCred.On("Verify", mock.Anything, "H", "correct").Return(true, nil).Once()
		m.createSession.On("CreateSession", mock.Anything, c, "alice-id").Return(session, nil).Once()

		res, err := a.AuthenticateCredentials(ctx, "alice", "correct")
		require.NoError(t, err)
		assert.True(t, res.Valid)
		require.NotNil(t, res.Session)
		assert.Same(t, session, res.Session)
		assert.Equal(t, "alice-id", res.Session.Identity)
	})

	t.Run("unknown user is rejected without verification or session", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		m.fetchUser.On("FetchUser", mock.Anything, c, "bob").Return(nil, nil).Once()

		res, err := a.AuthenticateCredentials(ctx, "bob", "anything")
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Nil(t, res.Session)
		m.verifyCred.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
		m.createSession.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("wrong password is rejected without session", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		m.fetchUser.On("FetchUser", mock.Anything, c, "alice").
			Return(&authcore.UserRecord[string, string]{StoredCredential: "H", Identity: "alice-id"}, nil).Once()
		m.verifyCred.On("Verify", mock.Anything, "H", "wrong").Return(false, nil).Once()

		res, err := a.AuthenticateCredentials(ctx, "alice", "wrong")
		require.NoError(t, err)
		assert.Equal(t, authcore.Rejected[string](), res)
		m.createSession.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown user and wrong password are indistinguishable", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		m.fetchUser.On("FetchUser", mock.Anything, c, "ghost").Return(nil, nil).Once()
		m.fetchUser.On("FetchUser", mock.Anything, c, "alice").
			Return(&authcore.UserRecord[string, string]{StoredCredential: "H", Identity: "alice-id"}, nil).Once()
		m.verifyCred.On("Verify", mock.Anything, "H", "wrong").Return(false, nil).Once()

		unknown, err := a.AuthenticateCredentials(ctx, "ghost", "wrong")
		require.NoError(t, err)
		mismatch, err := a.AuthenticateCredentials(ctx, "alice", "wrong")
		require.NoError(t, err)
		assert.Equal(t, unknown, mismatch)
	})

	t.Run("fetch fault propagates", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		storeErr := errors.New("connection refused")
		m.fetchUser.On("FetchUser", mock.Anything, c, "alice").Return(nil, storeErr).Once()

		res, err := a.AuthenticateCredentials(ctx, "alice", "pw")
		require.Error(t, err)
		assert.False(t, res.Valid)
		assert.ErrorIs(t, err, storeErr)
		errutil.AssertErrorCode(t, err, authcore.CodeFetchUserFailed)
		errutil.AssertErrorContext(t, err, "username", "alice")
	})

	t.Run("verify fault propagates", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		verifyErr := errors.New("invalid hash format")
		m.fetchUser.On("FetchUser", mock.Anything, c, "alice").
			Return(&authcore.UserRecord[string, string]{StoredCredential: "garbage", Identity: "alice-id"}, nil).Once()
		m.verifyCred.On("Verify", mock.Anything, "garbage", "pw").Return(false, verifyErr).Once()

		_, err := a.AuthenticateCredentials(ctx, "alice", "pw")
		require.Error(t, err)
		assert.ErrorIs(t, err, verifyErr)
		errutil.AssertErrorCode(t, err, authcore.CodeVerifyCredentialFailed)
		m.createSession.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("session creation fault propagates", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		createErr := errors.New("disk full")
		m.fetchUser.On("FetchUser", mock.Anything, c, "alice").
			Return(&authcore.UserRecord[string, string]{StoredCredential: "H", Identity: "alice-id"}, nil).Once()
		m.verifyCred.On("Verify", mock.Anything, "H", "pw").Return(true, nil).Once()
		m.createSession.On("CreateSession", mock.Anything, c, "alice-id").Return(nil, createErr).Once()

		res, err := a.AuthenticateCredentials(ctx, "alice", "pw")
		require.Error(t, err)
		assert.False(t, res.Valid)
		assert.Nil(t, res.Session)
		assert.ErrorIs(t, err, createErr)
		errutil.AssertErrorCode(t, err, authcore.CodeCreateSessionFailed)
	})

	t.Run("nil session from creator is a fault", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		m.fetchUser.On("FetchUser", mock.Anything, c, "alice").
			Return(&authcore.UserRecord[string, string]{StoredCredential: "H", Identity: "alice-id"}, nil).Once()
		m.verifyCred.On("Verify", mock.Anything, "H", "pw").Return(true, nil).Once()
		m.createSession.On("CreateSession", mock.Anything, c, "alice-id").Return(nil, nil).Once()

		res, err := a.AuthenticateCredentials(ctx, "alice", "pw")
		require.Error(t, err)
		assert.False(t, res.Valid)
		errutil.AssertErrorCode(t, err, authcore.CodeCreateSessionFailed)
	})
}

func TestAuthenticateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("matching token is valid and identity refreshed", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		m.fetchSession.On("FetchSession", mock.Anything, c, "S123").
			Return(&authcore.SessionRecord[string, string]{StoredToken: "T", Identity: "alice-id"}, nil).Once()
		m.verifyToken.On("Verify", mock.Anything, "T", "T").Return(true, nil).Once()

		session := &authcore.Session[string]{ID: "S123", Token: "T", Identity: "stale"}
		ok, err := a.AuthenticateSession(ctx, session)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "alice-id", session.Identity)
		assert.Equal(t, "S123", session.ID)
		assert.Equal(t, "T", session.Token)
	})

	t.Run("identity is refreshed before token verification", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		session := &authcore.Session[string]{ID: "S123", Token: "wrong"}

		m.fetchSession.On("FetchSession", mock.Anything, c, "S123").
			Return(&authcore.SessionRecord[string, string]{StoredToken: "T", Identity: "alice-id"}, nil).Once()
		m.verifyToken.On("Verify", mock.Anything, "T", "wrong").
			Run(func(mock.Arguments) {
				assert.Equal(t, "alice-id", session.Identity, "identity must be written before verify")
			}).
			Return(false, nil).Once()

		ok, err := a.AuthenticateSession(ctx, session)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, "alice-id", session.Identity)
	})

	t.Run("unknown session leaves identity unchanged", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		m.fetchSession.On("FetchSession", mock.Anything, c, "missing").Return(nil, nil).Once()

		session := &authcore.Session[string]{ID: "missing", Token: "x", Identity: "original"}
		ok, err := a.AuthenticateSession(ctx, session)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, "original", session.Identity)
		m.verifyToken.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("verify fault still refreshes identity", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		verifyErr := errors.New("bad stored token")
		m.fetchSession.On("FetchSession", mock.Anything, c, "S1").
			Return(&authcore.SessionRecord[string, string]{StoredToken: "T", Identity: "alice-id"}, nil).Once()
		m.verifyToken.On("Verify", mock.Anything, "T", "x").Return(false, verifyErr).Once()

		session := &authcore.Session[string]{ID: "S1", Token: "x"}
		ok, err := a.AuthenticateSession(ctx, session)
		require.Error(t, err)
		assert.False(t, ok)
		assert.ErrorIs(t, err, verifyErr)
		errutil.AssertErrorCode(t, err, authcore.CodeVerifyTokenFailed)
		assert.Equal(t, "alice-id", session.Identity)
	})

	t.Run("fetch fault propagates without mutation", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		storeErr := errors.New("timeout")
		m.fetchSession.On("FetchSession", mock.Anything, c, "S1").Return(nil, storeErr).Once()

		session := &authcore.Session[string]{ID: "S1", Token: "x", Identity: "original"}
		ok, err := a.AuthenticateSession(ctx, session)
		require.Error(t, err)
		assert.False(t, ok)
		assert.ErrorIs(t, err, storeErr)
		errutil.AssertErrorCode(t, err, authcore.CodeFetchSessionFailed)
		errutil.AssertErrorContext(t, err, "session_id", "S1")
		assert.Equal(t, "original", session.Identity)
	})

	t.Run("nil session is rejected", func(t *testing.T) {
		a, _, _ := newMockAuth(t)
		ok, err := a.AuthenticateSession(ctx, nil)
		require.Error(t, err)
		assert.False(t, ok)
		errutil.AssertErrorCode(t, err, authcore.CodeInvalidSession)
	})
}

func TestProvisionUser(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns creator identity", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		m.process.On("Process", mock.Anything, "pw").Return("H'", nil).Once()
		m.createUser.On("CreateUser", mock.Anything, c, "carol", "H'").
			Return(authcore.Provisioned[string]("carol-id"), nil).Once()

		res, err := a.ProvisionUser(ctx, "carol", "pw")
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "carol-id", res.Identity)
	})

	t.Run("creator refusal is returned verbatim", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		m.process.On("Process", mock.Anything, "pw").Return("H'", nil).Once()
		m.createUser.On("CreateUser", mock.Anything, c, "carol", "H'").
			Return(authcore.ProvisionFailed[string, string]("username taken"), nil).Once()

		res, err := a.ProvisionUser(ctx, "carol", "pw")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "username taken", res.Error)
	})

	t.Run("processor fault skips creation", func(t *testing.T) {
		a, m, _ := newMockAuth(t)
		procErr := errors.New("out of memory")
		m.process.On("Process", mock.Anything, "pw").Return("", procErr).Once()

		res, err := a.ProvisionUser(ctx, "carol", "pw")
		require.Error(t, err)
		assert.False(t, res.Success)
		assert.ErrorIs(t, err, procErr)
		errutil.AssertErrorCode(t, err, authcore.CodeProcessCredentialFailed)
		m.createUser.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("creator fault propagates", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		createErr := errors.New("connection reset")
		m.process.On("Process", mock.Anything, "pw").Return("H'", nil).Once()
		m.createUser.On("CreateUser", mock.Anything, c, "carol", "H'").
			Return(authcore.ProvisionResult[string, string]{}, createErr).Once()

		res, err := a.ProvisionUser(ctx, "carol", "pw")
		require.Error(t, err)
		assert.False(t, res.Success)
		assert.ErrorIs(t, err, createErr)
		errutil.AssertErrorCode(t, err, authcore.CodeCreateUserFailed)
	})

	t.Run("no policy is applied to username or password", func(t *testing.T) {
		a, m, c := newMockAuth(t)
		m.process.On("Process", mock.Anything, "").Return("H-empty", nil).Once()
		m.createUser.On("CreateUser", mock.Anything, c, "", "H-empty").
			Return(authcore.Provisioned[string]("anon"), nil).Once()

		res, err := a.ProvisionUser(ctx, "", "")
		require.NoError(t, err)
		assert.True(t, res.Success)
	})
}

func TestAuthenticator_LogsNeverContainPassword(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := authcoretest.NewMemoryStore()
	a, err := authcore.New(store, authcoretest.Strategies(), authcore.WithLogger(logger))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = a.ProvisionUser(ctx, "dave", "s3cret-pass")
	require.NoError(t, err)
	_, err = a.AuthenticateCredentials(ctx, "dave", "not-the-pass")
	require.NoError(t, err)
	_, err = a.AuthenticateCredentials(ctx, "dave", "s3cret-pass")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "user provisioned")
	assert.Contains(t, out, "credential authentication rejected")
	assert.Contains(t, out, "credential authentication accepted")
	assert.NotContains(t, out, "s3cret-pass")
	assert.NotContains(t, out, "not-the-pass")
}

func TestAuthenticator_LogsStrategyFault(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	m := newMocks(t)
	c := &conn{}
	a, err := authcore.New(c, m.strategies(), authcore.WithLogger(logger))
	require.NoError(t, err)

	m.fetchUser.On("FetchUser", mock.Anything, c, "alice").Return(nil, errors.New("db down")).Once()
	_, err = a.AuthenticateCredentials(context.Background(), "alice", "pw")
	require.Error(t, err)

	assert.Contains(t, buf.String(), "authcore strategy failed")
	assert.Contains(t, buf.String(), authcore.CodeFetchUserFailed)
}
