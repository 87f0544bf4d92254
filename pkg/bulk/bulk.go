// Package bulk implements deferred-save batches over persistable entities.
// A batch buffers any number of mutations against one entity and flushes
// them with a single physical write on commit. If the batch is abandoned
// before commit the write is skipped entirely, leaving either the old or
// the fully new state on disk, never a mix.
//
// Example usage:
//
//	b := bulk.Open(entity)
//	defer b.Abort()
//	entity.SetSomething(v) // buffered, no write yet
//	if err := b.Commit(); err != nil {
//	    return err
//	}
package bulk

import (
	"sync"
)

// Saveable is an entity that can persist itself with a single write.
type Saveable interface {
	// Save writes the entity to its backing store. Implementations must
	// consult their Guard first so that saves inside an open batch are
	// deferred until commit.
	Save() error
}

// Holder is a Saveable that participates in batches via an embedded Guard.
type Holder interface {
	Saveable

	// BatchGuard returns the guard protecting this entity's saves.
	BatchGuard() *Guard
}

// Guard tracks whether an entity currently has an open batch. Entities
// embed a Guard and check Suppress at the top of their Save method.
type Guard struct {
	mu    sync.Mutex
	depth int
	dirty bool
}

// Suppress reports whether a save should be deferred. When a batch is
// open it records that a write is pending and returns true.
func (g *Guard) Suppress() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.depth > 0 {
		g.dirty = true
		return true
	}
	return false
}

// Held reports whether any batch is currently open on the entity.
func (g *Guard) Held() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.depth > 0
}

func (g *Guard) acquire() {
	g.mu.Lock()
	g.depth++
	g.mu.Unlock()
}

// release decrements the open-batch count and reports whether a deferred
// write was recorded while the batch was open. The dirty flag is cleared
// when the last batch closes.
func (g *Guard) release() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.depth > 0 {
		g.depth--
	}
	dirty := g.dirty
	if g.depth == 0 {
		g.dirty = false
	}
	return dirty
}

// Batch is one open transaction against a Holder.
type Batch struct {
	target Holder
	closed bool
}

// Open begins a batch on the target. Saves issued against the target are
// deferred until Commit.
func Open(target Holder) *Batch {
	target.BatchGuard().acquire()
	return &Batch{target: target}
}

// Commit closes the batch and performs the single physical write. The
// write error, if any, is returned so callers never mistake a failed
// flush for a committed batch.
func (b *Batch) Commit() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.target.BatchGuard().release()
	return b.target.Save()
}

// Abort closes the batch without writing. Aborting an already committed
// batch is a no-op, so Abort is safe to defer alongside an explicit
// Commit.
func (b *Batch) Abort() {
	if b.closed {
		return
	}
	b.closed = true
	b.target.BatchGuard().release()
}
