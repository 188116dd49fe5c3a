// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authcore

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/authcore/pkg/errutil"
)

const tracerName = "github.com/holomush/authcore/pkg/authcore"

// Authenticator composes the injected strategies into the credential,
// session and provisioning operations.
//
// Type parameters: C is the shared connection handle, E the provisioning
// error payload, I the identity, P the stored credential and T the stored
// token. An Authenticator is immutable after New and safe for concurrent use.
type Authenticator[C, E, I, P, T any] struct {
	conn   C
	s      Strategies[C, E, I, P, T]
	logger *slog.Logger
	tracer trace.Tracer
}

type options struct {
	logger    *slog.Logger
	loggerSet bool
	tracer    trace.Tracer
}

// Option configures an Authenticator.
type Option func(*options)

// WithLogger sets the logger used for outcome and fault records.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
		o.loggerSet = true
	}
}

// WithTracer sets the tracer used to open one span per operation.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// New creates an Authenticator bound to conn for its whole lifetime.
// Every strategy in s is required.
func New[C, E, I, P, T any](conn C, s Strategies[C, E, I, P, T], opts ...Option) (*Authenticator[C, E, I, P, T], error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.loggerSet && o.logger == nil {
		return nil, oops.Code(CodeInvalidConfig).Errorf("logger is required when WithLogger is used")
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}

	return &Authenticator[C, E, I, P, T]{
		conn:   conn,
		s:      s,
		logger: o.logger,
		tracer: o.tracer,
	}, nil
}

// Conn returns the connection handle shared by every strategy call.
func (a *Authenticator[C, E, I, P, T]) Conn() C {
	return a.conn
}

// AuthenticateCredentials checks username and password and, on success,
// issues exactly one new session.
//
// An unknown username and a wrong password both produce the same rejected
// result. No session is created unless the credential verifies.
func (a *Authenticator[C, E, I, P, T]) AuthenticateCredentials(ctx context.Context, username, password string) (result CredentialResult[I], err error) {
	ctx, span := a.tracer.Start(ctx, "authcore.AuthenticateCredentials",
		trace.WithAttributes(attribute.String("username", username)))
	start := time.Now()
	defer func() {
		a.finish(span, OperationCredentials, start, credentialLabel(result, err), err)
	}()

	user, err := a.s.FetchUser.FetchUser(ctx, a.conn, username)
	if err != nil {
		return Rejected[I](), a.fault(ctx, CodeFetchUserFailed, "fetch user", err, "username", username)
	}
	if user == nil {
		a.logger.DebugContext(ctx, "credential authentication rejected",
			"username", username, "reason", "unknown user")
		return Rejected[I](), nil
	}

	ok, err := a.s.VerifyCredential.Verify(ctx, user.StoredCredential, password)
	if err != nil {
		return Rejected[I](), a.fault(ctx, CodeVerifyCredentialFailed, "verify credential", err, "username", username)
	}
	if !ok {
		a.logger.DebugContext(ctx, "credential authentication rejected",
			"username", username, "reason", "credential mismatch")
		return Rejected[I](), nil
	}

	session, err := a.s.CreateSession.CreateSession(ctx, a.conn, user.Identity)
	if err != nil {
		return Rejected[I](), a.fault(ctx, CodeCreateSessionFailed, "create session", err, "username", username)
	}
	if session == nil {
		err = oops.Code(CodeCreateSessionFailed).
			With("operation", "create session").
			With("username", username).
			Errorf("session creator returned no session")
		errutil.LogErrorContext(ctx, a.logger, "authcore strategy failed", err)
		return Rejected[I](), err
	}

	a.logger.DebugContext(ctx, "credential authentication accepted",
		"username", username, "session_id", session.ID)
	return Accepted(session), nil
}

// AuthenticateSession reports whether session is currently valid.
//
// When a stored record exists for session.ID, session.Identity is overwritten
// with the stored identity before the token is verified, whatever the outcome
// of that verification. When no record exists, session is left untouched.
func (a *Authenticator[C, E, I, P, T]) AuthenticateSession(ctx context.Context, session *Session[I]) (valid bool, err error) {
	if session == nil {
		return false, oops.Code(CodeInvalidSession).Errorf("session cannot be nil")
	}

	ctx, span := a.tracer.Start(ctx, "authcore.AuthenticateSession",
		trace.WithAttributes(attribute.String("session_id", session.ID)))
	start := time.Now()
	defer func() {
		a.finish(span, OperationSession, start, boolLabel(valid, err), err)
	}()

	record, err := a.s.FetchSession.FetchSession(ctx, a.conn, session.ID)
	if err != nil {
		return false, a.fault(ctx, CodeFetchSessionFailed, "fetch session", err, "session_id", session.ID)
	}
	if record == nil {
		a.logger.DebugContext(ctx, "session authentication rejected",
			"session_id", session.ID, "reason", "unknown session")
		return false, nil
	}

	session.Identity = record.Identity

	ok, err := a.s.VerifyToken.Verify(ctx, record.StoredToken, session.Token)
	if err != nil {
		return false, a.fault(ctx, CodeVerifyTokenFailed, "verify token", err, "session_id", session.ID)
	}
	if !ok {
		a.logger.DebugContext(ctx, "session authentication rejected",
			"session_id", session.ID, "reason", "token mismatch")
		return false, nil
	}
	return true, nil
}

// ProvisionUser processes password into its stored representation and hands
// it with username to the user creator, returning the creator's outcome as is.
//
// No username or password policy is applied here; that belongs to the
// creator or to an outer layer.
func (a *Authenticator[C, E, I, P, T]) ProvisionUser(ctx context.Context, username, password string) (result ProvisionResult[E, I], err error) {
	ctx, span := a.tracer.Start(ctx, "authcore.ProvisionUser",
		trace.WithAttributes(attribute.String("username", username)))
	start := time.Now()
	defer func() {
		a.finish(span, OperationProvision, start, boolLabel(result.Success, err), err)
	}()

	processed, err := a.s.ProcessCredential.Process(ctx, password)
	if err != nil {
		return ProvisionResult[E, I]{}, a.fault(ctx, CodeProcessCredentialFailed, "process credential", err, "username", username)
	}

	result, err = a.s.CreateUser.CreateUser(ctx, a.conn, username, processed)
	if err != nil {
		return ProvisionResult[E, I]{}, a.fault(ctx, CodeCreateUserFailed, "create user", err, "username", username)
	}

	if result.Success {
		a.logger.InfoContext(ctx, "user provisioned", "username", username)
	} else {
		a.logger.DebugContext(ctx, "user provisioning refused", "username", username)
	}
	return result, nil
}

// fault wraps a strategy error with code and logs it. The original error stays
// reachable through errors.Is and errors.As.
func (a *Authenticator[C, E, I, P, T]) fault(ctx context.Context, code, operation string, err error, kv ...any) error {
	wrapped := oops.Code(code).
		With("operation", operation).
		With(kv...).
		Wrap(err)
	errutil.LogErrorContext(ctx, a.logger, "authcore strategy failed", wrapped)
	return wrapped
}

func (a *Authenticator[C, E, I, P, T]) finish(span trace.Span, operation string, start time.Time, label string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("result", label))
	span.End()

	recordResult(operation, label)
	recordDuration(operation, time.Since(start))
}

func credentialLabel[I any](result CredentialResult[I], err error) string {
	return boolLabel(result.Valid, err)
}

func boolLabel(ok bool, err error) string {
	switch {
	case err != nil:
		return ResultError
	case ok:
		return ResultAccepted
	default:
		return ResultRejected
	}
}
