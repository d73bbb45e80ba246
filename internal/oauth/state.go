package oauth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const stateTTL = 10 * time.Minute

// StateStore mints and redeems one-shot state tokens. Tokens expire after
// ten minutes; redemption consumes the token so a replayed callback fails.
type StateStore struct {
	mu     sync.Mutex
	tokens map[string]stateEntry
	now    func() time.Time
}

type stateEntry struct {
	platform string
	issuedAt time.Time
}

// NewStateStore constructs an empty store.
func NewStateStore() *StateStore {
	return &StateStore{
		tokens: make(map[string]stateEntry),
		now:    time.Now,
	}
}

// Issue mints a fresh token bound to a platform.
func (s *StateStore) Issue(platform string) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = stateEntry{platform: platform, issuedAt: s.now()}
	s.mu.Unlock()
	return token
}

// Redeem consumes a token, returning the platform it was issued for.
func (s *StateStore) Redeem(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok {
		return "", false
	}
	delete(s.tokens, token)
	if s.now().Sub(entry.issuedAt) > stateTTL {
		return "", false
	}
	return entry.platform, true
}
