package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence_NextIncrementsMonotonically(t *testing.T) {
	seq := NewSequence()

	assert.Equal(t, int64(1), seq.Next())
	assert.Equal(t, int64(2), seq.Next())
	assert.Equal(t, int64(3), seq.Next())
}

func TestSequence_Independent(t *testing.T) {
	a, b := NewSequence(), NewSequence()
	a.Next()
	a.Next()
	assert.Equal(t, int64(1), b.Next())
}

func TestSequence_ThreadSafe(t *testing.T) {
	seq := NewSequence()
	const goroutines = 50
	const calls = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)

	var mu sync.Mutex
	seen := make(map[int64]bool, goroutines*calls)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				v := seq.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*calls, "every value must be unique")
	assert.Equal(t, int64(goroutines*calls+1), seq.Next())
}
