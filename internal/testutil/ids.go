package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs returns an ID generator producing "<prefix>-0001",
// "<prefix>-0002", ... in order. It stands in for the journal's random
// UUID generator so that recorded runs are byte-identical across test
// executions.
//
// The returned function is safe for concurrent use.
func SequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%04d", prefix, n)
	}
}
