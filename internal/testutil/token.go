// Package testutil provides deterministic substitutes for the runner's
// sources of nondeterminism.
package testutil

import "sync"

// FixedToken always returns the same run token.
//
// The same scenario with the same fixed token produces byte-identical
// golden snapshots. An empty token defaults to "test-run-default".
//
// Thread-safety: stateless after construction, safe for concurrent use.
type FixedToken struct {
	token string
}

// NewFixedToken creates a generator pinned to token.
func NewFixedToken(token string) *FixedToken {
	if token == "" {
		token = "test-run-default"
	}
	return &FixedToken{token: token}
}

// Generate returns the fixed token.
func (g *FixedToken) Generate() string {
	return g.token
}

// FixedTokens returns predetermined run tokens in order.
//
// Panics once the sequence is exhausted: a test that generates more runs
// than it declared is misconfigured, and failing fast beats a silently
// reused token.
//
// Thread-safety: guarded by an internal mutex.
type FixedTokens struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedTokens creates a generator that returns tokens in order.
func NewFixedTokens(tokens ...string) *FixedTokens {
	return &FixedTokens{tokens: tokens}
}

// Generate returns the next predetermined token.
func (g *FixedTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedTokens: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
