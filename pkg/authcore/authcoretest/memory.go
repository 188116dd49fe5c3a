// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authcoretest

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/holomush/authcore/pkg/authcore"
)

// ErrUsernameTaken is the creation error MemoryStore reports for duplicates.
const ErrUsernameTaken = "username taken"

// HashPrefix is prepended to passwords by Processor.
const HashPrefix = "hashed:"

type memUser struct {
	credential string
	identity   string
}

type memSession struct {
	token    string
	identity string
}

// MemoryStore is an in-memory user and session store. It is also the
// connection handle its strategies receive. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]memUser
	sessions map[string]memSession
	seq      int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]memUser),
		sessions: make(map[string]memSession),
	}
}

// AddUser stores a user record directly.
func (s *MemoryStore) AddUser(username, credential, identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = memUser{credential: credential, identity: identity}
}

// AddSession stores a session record directly.
func (s *MemoryStore) AddSession(id, token, identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = memSession{token: token, identity: identity}
}

// UserCount returns the number of stored users.
func (s *MemoryStore) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// SessionCount returns the number of stored sessions.
func (s *MemoryStore) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// StoredCredential returns the stored credential for username.
func (s *MemoryStore) StoredCredential(username string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	return u.credential, ok
}

// FetchUser implements authcore.UserFetcher over conn.
func FetchUser(_ context.Context, conn *MemoryStore, username string) (*authcore.UserRecord[string, string], error) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	u, ok := conn.users[username]
	if !ok {
		return nil, nil
	}
	return &authcore.UserRecord[string, string]{StoredCredential: u.credential, Identity: u.identity}, nil
}

// CreateSession implements authcore.SessionCreator over conn.
func CreateSession(_ context.Context, conn *MemoryStore, identity string) (*authcore.Session[string], error) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	conn.seq++
	id := fmt.Sprintf("S%d", conn.seq)
	token := fmt.Sprintf("token-%d", conn.seq)
	conn.sessions[id] = memSession{token: token, identity: identity}
	return &authcore.Session[string]{ID: id, Token: token, Identity: identity}, nil
}

// FetchSession implements authcore.SessionFetcher over conn.
func FetchSession(_ context.Context, conn *MemoryStore, id string) (*authcore.SessionRecord[string, string], error) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	rec, ok := conn.sessions[id]
	if !ok {
		return nil, nil
	}
	return &authcore.SessionRecord[string, string]{StoredToken: rec.token, Identity: rec.identity}, nil
}

// CreateUser implements authcore.UserCreator over conn. Identities are
// "id-" followed by the username.
func CreateUser(_ context.Context, conn *MemoryStore, username, processed string) (authcore.ProvisionResult[string, string], error) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if _, exists := conn.users[username]; exists {
		return authcore.ProvisionFailed[string, string](ErrUsernameTaken), nil
	}
	identity := "id-" + username
	conn.users[username] = memUser{credential: processed, identity: identity}
	return authcore.Provisioned[string](identity), nil
}

// Verify compares stored and candidate in constant time.
func Verify(_ context.Context, stored, candidate string) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1, nil
}

// VerifyCredential accepts candidate when stored is its Process output.
func VerifyCredential(ctx context.Context, stored, candidate string) (bool, error) {
	return Verify(ctx, stored, HashPrefix+candidate)
}

// Process is a deterministic stand-in for a password hash.
func Process(_ context.Context, candidate string) (string, error) {
	return HashPrefix + candidate, nil
}

// Strategies returns the full MemoryStore strategy set.
func Strategies() authcore.Strategies[*MemoryStore, string, string, string, string] {
	return authcore.Strategies[*MemoryStore, string, string, string, string]{
		FetchUser:         authcore.UserFetcherFunc[*MemoryStore, string, string](FetchUser),
		VerifyCredential:  authcore.VerifierFunc[string](VerifyCredential),
		ProcessCredential: authcore.ProcessorFunc[string](Process),
		CreateSession:     authcore.SessionCreatorFunc[*MemoryStore, string](CreateSession),
		FetchSession:      authcore.SessionFetcherFunc[*MemoryStore, string, string](FetchSession),
		VerifyToken:       authcore.VerifierFunc[string](Verify),
		CreateUser:        authcore.UserCreatorFunc[*MemoryStore, string, string, string](CreateUser),
	}
}
