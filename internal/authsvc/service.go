// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package authsvc assembles an authcore.Authenticator for the configured
// storage driver and exposes it through a non-generic Service.
package authsvc

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authcore/internal/config"
	"github.com/holomush/authcore/internal/credential"
	"github.com/holomush/authcore/internal/store"
	"github.com/holomush/authcore/internal/store/postgres"
	"github.com/holomush/authcore/internal/store/sqlite"
	"github.com/holomush/authcore/pkg/authcore"
)

// Result types as seen by callers of Service.
type (
	Session        = authcore.Session[ulid.ULID]
	LoginResult    = authcore.CredentialResult[ulid.ULID]
	RegisterResult = authcore.ProvisionResult[store.CreateError, ulid.ULID]
)

type strategies[C any] = authcore.Strategies[C, store.CreateError, ulid.ULID, string, string]

// engine hides the connection type of the selected driver.
type engine interface {
	login(ctx context.Context, username, password string) (LoginResult, error)
	check(ctx context.Context, session *Session) (bool, error)
	register(ctx context.Context, username, password string) (RegisterResult, error)
	prune(ctx context.Context, now time.Time) (int64, error)
	close() error
}

type backend[C any] struct {
	auth    *authcore.Authenticator[C, store.CreateError, ulid.ULID, string, string]
	pruneFn func(ctx context.Context, conn C, now time.Time) (int64, error)
	closeFn func() error
}

func (b *backend[C]) login(ctx context.Context, username, password string) (LoginResult, error) {
	return b.auth.AuthenticateCredentials(ctx, username, password)
}

func (b *backend[C]) check(ctx context.Context, session *Session) (bool, error) {
	return b.auth.AuthenticateSession(ctx, session)
}

func (b *backend[C]) register(ctx context.Context, username, password string) (RegisterResult, error) {
	return b.auth.ProvisionUser(ctx, username, password)
}

func (b *backend[C]) prune(ctx context.Context, now time.Time) (int64, error) {
	return b.pruneFn(ctx, b.auth.Conn(), now)
}

func (b *backend[C]) close() error {
	return b.closeFn()
}

// Service is the authentication service for one configured store.
// It is safe for concurrent use.
type Service struct {
	cfg    config.DatabaseConfig
	engine engine
	logger *slog.Logger
	now    func() time.Time
}

// Open connects to the configured store and assembles the authenticator.
// The schema is not migrated; call Migrate for that.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, oops.Code("AUTHSVC_INVALID_CONFIG").Errorf("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("driver", cfg.Database.Driver)

	processor, err := credential.NewProcessor(cfg.Password.Algorithm, cfg.Password.BcryptCost)
	if err != nil {
		return nil, oops.With("operation", "create password processor").Wrap(err)
	}
	verifier := &upgradeNotifier{verifier: credential.NewPasswordVerifier(), logger: logger}

	var eng engine
	switch cfg.Database.Driver {
	case store.DriverSQLite:
		eng, err = openSQLite(ctx, cfg, processor, verifier, logger)
	case store.DriverPostgres:
		eng, err = openPostgres(ctx, cfg, processor, verifier, logger)
	default:
		err = oops.Code("AUTHSVC_INVALID_CONFIG").
			With("driver", cfg.Database.Driver).
			Errorf("unknown storage driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("authentication service ready")
	return &Service{cfg: cfg.Database, engine: eng, logger: logger, now: time.Now}, nil
}

func openSQLite(ctx context.Context, cfg *config.Config, processor credential.Processor, verifier authcore.Verifier[string], logger *slog.Logger) (engine, error) {
	db, err := sqlite.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	auth, err := authcore.New(db, strategies[*sql.DB]{
		FetchUser:         authcore.UserFetcherFunc[*sql.DB, ulid.ULID, string](sqlite.FetchUser),
		VerifyCredential:  verifier,
		ProcessCredential: processor,
		CreateSession:     sqlite.SessionCreator{TTL: cfg.Session.TTL},
		FetchSession:      authcore.SessionFetcherFunc[*sql.DB, ulid.ULID, string](sqlite.FetchSession),
		VerifyToken:       credential.TokenVerifier{},
		CreateUser:        authcore.UserCreatorFunc[*sql.DB, store.CreateError, ulid.ULID, string](sqlite.CreateUser),
	}, authcore.WithLogger(logger))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &backend[*sql.DB]{auth: auth, pruneFn: sqlite.DeleteExpiredSessions, closeFn: db.Close}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, processor credential.Processor, verifier authcore.Verifier[string], logger *slog.Logger) (engine, error) {
	pool, err := postgres.Connect(ctx, cfg.Database.DSN, cfg.Database.ConnectTimeout)
	if err != nil {
		return nil, err
	}

	auth, err := authcore.New[postgres.DB](pool, strategies[postgres.DB]{
		FetchUser:         authcore.UserFetcherFunc[postgres.DB, ulid.ULID, string](postgres.FetchUser),
		VerifyCredential:  verifier,
		ProcessCredential: processor,
		CreateSession:     postgres.SessionCreator{TTL: cfg.Session.TTL},
		FetchSession:      authcore.SessionFetcherFunc[postgres.DB, ulid.ULID, string](postgres.FetchSession),
		VerifyToken:       credential.TokenVerifier{},
		CreateUser:        authcore.UserCreatorFunc[postgres.DB, store.CreateError, ulid.ULID, string](postgres.CreateUser),
	}, authcore.WithLogger(logger))
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &backend[postgres.DB]{
		auth:    auth,
		pruneFn: postgres.DeleteExpiredSessions,
		closeFn: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

// Login checks username and password and issues a session on success.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	return s.engine.login(ctx, username, password)
}

// CheckSession reports whether the session id and token are valid and, if
// the session exists, who owns it.
func (s *Service) CheckSession(ctx context.Context, id, token string) (ulid.ULID, bool, error) {
	session := &Session{ID: id, Token: token}
	ok, err := s.engine.check(ctx, session)
	if err != nil {
		return ulid.ULID{}, false, err
	}
	return session.Identity, ok, nil
}

// Register provisions a new user.
func (s *Service) Register(ctx context.Context, username, password string) (RegisterResult, error) {
	return s.engine.register(ctx, username, password)
}

// PruneSessions deletes sessions that have expired and returns how many
// were removed.
func (s *Service) PruneSessions(ctx context.Context) (int64, error) {
	n, err := s.engine.prune(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "expired sessions pruned", "count", n)
	return n, nil
}

// Migrate applies pending schema migrations and returns the resulting version.
func (s *Service) Migrate(ctx context.Context) (uint, error) {
	return Migrate(ctx, s.cfg, s.logger)
}

// Close releases the store connection.
func (s *Service) Close() error {
	return s.engine.close()
}

// Migrate applies pending schema migrations for cfg without opening a Service.
func Migrate(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (uint, error) {
	if logger == nil {
		logger = slog.Default()
	}
	migrator, err := store.NewMigrator(cfg.Driver, cfg.DSN)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := migrator.Close(); cerr != nil {
			logger.WarnContext(ctx, "failed to close migrator", "error", cerr)
		}
	}()

	pending, err := migrator.PendingMigrations()
	if err != nil {
		return 0, err
	}
	if err := migrator.Up(); err != nil {
		return 0, err
	}
	version, _, err := migrator.Version()
	if err != nil {
		return 0, err
	}
	logger.InfoContext(ctx, "migrations applied", "applied", len(pending), "version", version)
	return version, nil
}
