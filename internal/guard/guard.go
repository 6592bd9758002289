package guard

import "sync/atomic"

// EntryGuard is a non-blocking mutual-exclusion gate for fund-moving
// operations. A second entry while one is in flight is rejected rather than
// queued.
type EntryGuard struct {
	busy atomic.Bool
}

// New creates an EntryGuard in the released state.
func New() *EntryGuard {
	return &EntryGuard{}
}

// TryAcquire takes the guard. It returns false when another operation
// already holds it.
func (g *EntryGuard) TryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Release frees the guard. Callers must pair every successful TryAcquire
// with exactly one Release, normally via defer.
func (g *EntryGuard) Release() {
	g.busy.Store(false)
}
