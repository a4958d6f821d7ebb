package services

import "sync"

// TokenBlacklist holds tokens revoked by logout. Tokens expire on their own
// after the JWT lifetime, so the set only needs to outlive active sessions.
type TokenBlacklist struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{tokens: make(map[string]struct{})}
}

func (b *TokenBlacklist) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = struct{}{}
}

func (b *TokenBlacklist) IsRevoked(token string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.tokens[token]
	return ok
}
