package session

import (
	"context"
	"strings"
	"sync"
)

// Cookie/record key scheme shared by every TokenStore medium. Keys are
// namespaced by role so clearing one principal kind never touches another.
func accessTokenKey(role Role) string {
	return strings.ToLower(string(role)) + "_access_token"
}

func refreshTokenKey(role Role) string {
	return strings.ToLower(string(role)) + "_refresh_token"
}

func userRoleKey(role Role) string {
	return strings.ToLower(string(role)) + "_user_role"
}

// MemoryStore is an in-process TokenStore. It does not survive a reload and
// is not visible at request boundaries, so it only backs tests and tooling;
// production composes CookieStore and BunStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Role]Credentials
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[Role]Credentials{}}
}

// Set stores the credentials for role, overwriting any prior value.
func (s *MemoryStore) Set(_ context.Context, role Role, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[role] = creds
	return nil
}

// Get returns the credentials for role, if any non-empty entry exists.
func (s *MemoryStore) Get(_ context.Context, role Role) (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creds, ok := s.entries[role]
	if !ok || creds.Empty() {
		return Credentials{}, false
	}
	return creds, true
}

// Clear removes the entry for role only.
func (s *MemoryStore) Clear(_ context.Context, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, role)
	return nil
}

// ClearAll removes every role's entry.
func (s *MemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = map[Role]Credentials{}
	return nil
}
