package testutil

import (
	"fmt"
	"sync"
)

// DefaultFlowToken is used when a scenario names no flow token.
const DefaultFlowToken = "test-flow-default"

// FixedFlowGenerator returns the same token every time, so every dispatch
// of a run shares one flow.
//
// Thread-safety: stateless, safe for concurrent use.
type FixedFlowGenerator struct {
	token string
}

// NewFixedFlowGenerator creates a generator for token ("" means
// DefaultFlowToken).
func NewFixedFlowGenerator(token string) *FixedFlowGenerator {
	if token == "" {
		token = DefaultFlowToken
	}
	return &FixedFlowGenerator{token: token}
}

// Generate returns the fixed token.
func (g *FixedFlowGenerator) Generate() string {
	return g.token
}

// SequentialFlowGenerator returns prefix-1, prefix-2, ... so each
// top-level dispatch of a scenario gets its own, predictable flow.
type SequentialFlowGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialFlowGenerator creates a generator for prefix ("" means
// DefaultFlowToken).
func NewSequentialFlowGenerator(prefix string) *SequentialFlowGenerator {
	if prefix == "" {
		prefix = DefaultFlowToken
	}
	return &SequentialFlowGenerator{prefix: prefix}
}

// Generate returns the next token.
func (g *SequentialFlowGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
