// Package auth resolves bearer tokens to caller identities. It stands in for
// the application's real identity provider.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/ahrav/secaudit/internal/config"
)

// ErrUnauthenticated is returned for missing, malformed or unknown tokens.
var ErrUnauthenticated = errors.New("unauthenticated")

// Claims is the verified caller.
type Claims struct {
	Identity string
	Admin    bool
}

// TokenStore maps bearer tokens to claims. Tokens are held as SHA-256 digests
// and compared in constant time.
type TokenStore struct {
	entries []tokenEntry
}

type tokenEntry struct {
	digest [sha256.Size]byte
	claims Claims
}

// NewTokenStore builds a store from configuration.
func NewTokenStore(tokens []config.TokenConfig) (*TokenStore, error) {
	store := &TokenStore{entries: make([]tokenEntry, 0, len(tokens))}

	seen := make(map[[sha256.Size]byte]struct{}, len(tokens))
	for i, t := range tokens {
		if t.Token == "" || t.Identity == "" {
			return nil, fmt.Errorf("auth token %d: token and identity are required", i)
		}
		digest := sha256.Sum256([]byte(t.Token))
		if _, dup := seen[digest]; dup {
			return nil, fmt.Errorf("auth token for %s is not unique", t.Identity)
		}
		seen[digest] = struct{}{}

		store.entries = append(store.entries, tokenEntry{
			digest: digest,
			claims: Claims{Identity: t.Identity, Admin: t.Admin},
		})
	}

	return store, nil
}

// Authenticate parses an Authorization header value and returns the claims
// bound to its bearer token.
func (s *TokenStore) Authenticate(header string) (Claims, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return Claims{}, fmt.Errorf("%w: expected authorization header format: Bearer <token>", ErrUnauthenticated)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, fmt.Errorf("%w: empty bearer token", ErrUnauthenticated)
	}

	digest := sha256.Sum256([]byte(token))
	var (
		match Claims
		found bool
	)
	for _, e := range s.entries {
		if subtle.ConstantTimeCompare(digest[:], e.digest[:]) == 1 {
			match, found = e.claims, true
		}
	}
	if !found {
		return Claims{}, fmt.Errorf("%w: unknown token", ErrUnauthenticated)
	}
	return match, nil
}
