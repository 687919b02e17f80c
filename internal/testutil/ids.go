package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates "<prefix>-1", "<prefix>-2", ... in order.
//
// Unlike scheduler.FixedGenerator it never runs out, which suits scenarios
// with an unknown number of bulk registrations. The same scenario always
// sees the same scan ids, keeping golden traces byte-identical.
//
// Thread-safety: SequentialIDs is safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix defaults to "scan".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "scan"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
//
// Implements scheduler.IDGenerator interface.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
