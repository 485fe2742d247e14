// Package session holds the authentication state of one storefront profile.
package session

import (
	"context"
	"fmt"
	"log"

	"github.com/fjod/go_cart/storefront/internal/storage"
)

// TokenKey is the storage key of the persisted bearer token.
const TokenKey = "token"

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// Store owns the token of one profile. It is not safe for concurrent use;
// callers serialize access per profile.
type Store struct {
	kv    storage.Store
	auth  Authenticator
	token string
}

// Open restores a previously persisted token. A restored token is trusted
// without asking the server.
func Open(ctx context.Context, kv storage.Store, auth Authenticator) (*Store, error) {
	token, ok, err := kv.Load(ctx, TokenKey)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	s := &Store{kv: kv, auth: auth}
	if ok {
		s.token = token
	}
	return s, nil
}

// Login authenticates and persists the resulting token. On failure the
// session is left as it was.
func (s *Store) Login(ctx context.Context, email, password string) error {
	token, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := s.kv.Save(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	s.token = token
	return nil
}

// Logout forgets the token. It always succeeds from the caller's point of
// view; a storage failure is only logged.
func (s *Store) Logout(ctx context.Context) {
	s.token = ""
	if err := s.kv.Remove(ctx, TokenKey); err != nil {
		log.Printf("session logout: remove persisted token: %v", err)
	}
}

func (s *Store) IsAuthenticated() bool {
	return s.token != ""
}

// Token returns the bearer token, or "" when logged out.
func (s *Store) Token() string {
	return s.token
}
