// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/authcore/internal/credential"
	"github.com/holomush/authcore/internal/store"
	"github.com/holomush/authcore/internal/store/sqlite"
	"github.com/holomush/authcore/pkg/authcore"
)

// openMigrated creates a fresh database file with the schema applied.
func openMigrated(dir string) *sql.DB {
	path := filepath.Join(dir, "auth.db")

	migrator, err := store.NewMigrator(store.DriverSQLite, path)
	Expect(err).NotTo(HaveOccurred())
	Expect(migrator.Up()).To(Succeed())
	Expect(migrator.Close()).To(Succeed())

	db, err := sqlite.Open(context.Background(), path)
	Expect(err).NotTo(HaveOccurred())
	return db
}

var _ = Describe("Open", func() {
	It("rejects an empty path", func() {
		_, err := sqlite.Open(context.Background(), "  ")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("SQLite strategies", func() {
	var (
		ctx context.Context
		db  *sql.DB
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = openMigrated(GinkgoT().TempDir())
		DeferCleanup(db.Close)
	})

	Describe("CreateUser and FetchUser", func() {
		It("stores a user and finds it case-insensitively", func() {
			result, err := sqlite.CreateUser(ctx, db, "Alice", "hash-a")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeTrue())

			record, err := sqlite.FetchUser(ctx, db, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(record).NotTo(BeNil())
			Expect(record.Identity).To(Equal(result.Identity))
			Expect(record.StoredCredential).To(Equal("hash-a"))
		})

		It("reports an unknown user as absent", func() {
			record, err := sqlite.FetchUser(ctx, db, "nobody")
			Expect(err).NotTo(HaveOccurred())
			Expect(record).To(BeNil())
		})

		It("refuses a taken username regardless of case", func() {
			_, err := sqlite.CreateUser(ctx, db, "alice", "h1")
			Expect(err).NotTo(HaveOccurred())

			result, err := sqlite.CreateUser(ctx, db, "ALICE", "h2")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeFalse())
			Expect(result.Error.Reason).To(Equal(store.ReasonUsernameTaken))

			record, err := sqlite.FetchUser(ctx, db, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(record.StoredCredential).To(Equal("h1"))
		})

		It("refuses an invalid username", func() {
			result, err := sqlite.CreateUser(ctx, db, "a!", "h")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeFalse())
			Expect(result.Error.Reason).To(Equal(store.ReasonInvalidUsername))
		})

		It("lets exactly one concurrent creator win", func() {
			const n = 8
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				winners int
			)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					result, err := sqlite.CreateUser(ctx, db, "racer", "h")
					Expect(err).NotTo(HaveOccurred())
					if result.Success {
						mu.Lock()
						winners++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			Expect(winners).To(Equal(1))
		})
	})

	Describe("sessions", func() {
		var owner ulid.ULID

		BeforeEach(func() {
			result, err := sqlite.CreateUser(ctx, db, "owner", "h")
			Expect(err).NotTo(HaveOccurred())
			owner = result.Identity
		})

		It("stores only the token hash", func() {
			session, err := sqlite.SessionCreator{TTL: time.Hour}.CreateSession(ctx, db, owner)
			Expect(err).NotTo(HaveOccurred())

			record, err := sqlite.FetchSession(ctx, db, session.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(record).NotTo(BeNil())
			Expect(record.Identity).To(Equal(owner))
			Expect(record.StoredToken).To(Equal(credential.HashToken(session.Token)))
			Expect(record.StoredToken).NotTo(Equal(session.Token))
		})

		It("treats expired sessions as absent and prunes them", func() {
			past := time.Now().Add(-2 * time.Hour)
			expired, err := sqlite.SessionCreator{TTL: time.Hour, Now: func() time.Time { return past }}.
				CreateSession(ctx, db, owner)
			Expect(err).NotTo(HaveOccurred())
			live, err := sqlite.SessionCreator{TTL: time.Hour}.CreateSession(ctx, db, owner)
			Expect(err).NotTo(HaveOccurred())

			record, err := sqlite.FetchSession(ctx, db, expired.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(record).To(BeNil())

			n, err := sqlite.DeleteExpiredSessions(ctx, db, time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))

			record, err = sqlite.FetchSession(ctx, db, live.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(record).NotTo(BeNil())
		})

		It("rejects a session for an unknown user", func() {
			_, err := sqlite.SessionCreator{}.CreateSession(ctx, db, ulid.Make())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("composed into an Authenticator", func() {
		var auth *authcore.Authenticator[*sql.DB, store.CreateError, ulid.ULID, string, string]

		BeforeEach(func() {
			var err error
			auth, err = authcore.New(db, authcore.Strategies[*sql.DB, store.CreateError, ulid.ULID, string, string]{
				FetchUser:         authcore.UserFetcherFunc[*sql.DB, ulid.ULID, string](sqlite.FetchUser),
				VerifyCredential:  credential.NewPasswordVerifier(),
				ProcessCredential: credential.NewArgon2id(),
				CreateSession:     sqlite.SessionCreator{TTL: time.Hour},
				FetchSession:      authcore.SessionFetcherFunc[*sql.DB, ulid.ULID, string](sqlite.FetchSession),
				VerifyToken:       credential.TokenVerifier{},
				CreateUser:        authcore.UserCreatorFunc[*sql.DB, store.CreateError, ulid.ULID, string](sqlite.CreateUser),
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("provisions, logs in and checks a session", func() {
			provisioned, err := auth.ProvisionUser(ctx, "carol", "pw")
			Expect(err).NotTo(HaveOccurred())
			Expect(provisioned.Success).To(BeTrue())

			stored, err := sqlite.FetchUser(ctx, db, "carol")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.StoredCredential).To(HavePrefix(credential.Argon2idPrefix))

			result, err := auth.AuthenticateCredentials(ctx, "carol", "pw")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Valid).To(BeTrue())

			session := &authcore.Session[ulid.ULID]{ID: result.Session.ID, Token: result.Session.Token}
			ok, err := auth.AuthenticateSession(ctx, session)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(session.Identity).To(Equal(provisioned.Identity))
		})

		It("rejects a wrong password without creating a session", func() {
			_, err := auth.ProvisionUser(ctx, "dave", "pw")
			Expect(err).NotTo(HaveOccurred())

			result, err := auth.AuthenticateCredentials(ctx, "dave", "nope")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Valid).To(BeFalse())
			Expect(result.Session).To(BeNil())

			var count int
			Expect(db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)).To(Succeed())
			Expect(count).To(Equal(0))
		})
	})
})
