// Copyright (c) 2026 locksmith contributors
//
// File: registry.go
// Brief: Lock registry and the LockRecord entity
//
// License: BSD-3-Clause

// Package registry implements the lock registry and the LockRecord
// entity: an ordered map from lock key to lock record, guarded by a
// single registry lock obtained from the native resolver so the
// registry's own synchronization is never itself observed.
//
// Grounded on the teacher's trace-element style (advocate/trace/mutex.go):
// a struct of scalar fields plus a vector-clock-shaped piece of scratch
// state, here the predecessor set and the DFS traversal color, with the
// same doc-comment-per-field convention.
package registry

import (
	"sort"
	"sync"

	"locksmith/internal/graph"
	"locksmith/internal/holders"
	"locksmith/internal/types"
)

// Kind distinguishes a blocking mutex from a busy-wait spin lock.
type Kind int

// The two lock kinds the verifier understands.
const (
	Sleeper Kind = iota
	Spin
)

// maxPredecessors bounds a record's predecessor set; see
// internal/types.ErrOutOfMemory for why this exists at all.
const maxPredecessors = 1 << 16

// LockRecord is the verifier's persistent state for one user lock.
type LockRecord struct {
	key          uintptr
	kind         Kind
	recursive    bool
	acquireCount uint64 // saturates at ^uint64(0)
	predecessors *types.SortedSet[uintptr]
	Holders      holders.Ledger
	color        int
	spinWarned   bool
}

// Key returns the record's LockKey. Implements graph.Node.
func (r *LockRecord) Key() uintptr { return r.key }

// Predecessors returns the ordered "must be acquired before this one" set.
// Implements graph.Node.
func (r *LockRecord) Predecessors() *types.SortedSet[uintptr] { return r.predecessors }

// Color returns the DFS traversal-color scratch cell. Implements graph.Node.
func (r *LockRecord) Color() *int { return &r.color }

// Kind reports whether this is a Sleeper or Spin lock.
func (r *LockRecord) Kind() Kind { return r.kind }

// Recursive reports whether the same thread may reacquire this lock
// without a SelfDeadlock diagnostic.
func (r *LockRecord) Recursive() bool { return r.recursive }

// AcquireCount returns the saturating acquisition counter.
func (r *LockRecord) AcquireCount() uint64 { return r.acquireCount }

// IncrementAcquireCount bumps the saturating counter. It is called by
// post_lock after a successful acquisition, whose holder entry pre_lock
// has already pushed, so once that hook pair completes the count is not
// below the live holder count.
func (r *LockRecord) IncrementAcquireCount() {
	if r.acquireCount != ^uint64(0) {
		r.acquireCount++
	}
}

// SpinWarned reports whether SpinHoldingSleeper has already fired once for
// this record; it is emitted at most once per lock record.
func (r *LockRecord) SpinWarned() bool { return r.spinWarned }

// MarkSpinWarned flips the one-shot SpinHoldingSleeper flag.
func (r *LockRecord) MarkSpinWarned() { r.spinWarned = true }

// Registry is the ordered map LockKey -> LockRecord, guarded by a single
// lock obtained from the native resolver.
type Registry struct {
	mu      sync.Locker
	records map[uintptr]*LockRecord
	colorer graph.Colorer
}

// New builds an empty Registry, guarded by lock (expected to be a raw
// mutex from a nativesim.Resolver, never itself observed by the verifier).
func New(lock sync.Locker) *Registry {
	return &Registry{mu: lock, records: make(map[uintptr]*LockRecord)}
}

// Lock and Unlock expose the registry's own lock directly so a caller
// that must perform more than one registry operation as a single atomic
// step, linearized against every other graph mutation, can bracket them
// itself, using the Locked-suffixed methods below instead of the
// self-locking ones. Everywhere a single call suffices, the self-locking
// methods (FindOrInsert, Find, Remove, NextColor, All) remain the simpler
// choice.
func (reg *Registry) Lock()   { reg.mu.Lock() }
func (reg *Registry) Unlock() { reg.mu.Unlock() }

// FindOrInsert returns the record for key, creating it with the given kind
// and recursive flag if it does not yet exist. created reports whether a
// new record was allocated.
func (reg *Registry) FindOrInsert(key uintptr, kind Kind, recursive bool) (rec *LockRecord, created bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.FindOrInsertLocked(key, kind, recursive)
}

// FindOrInsertLocked is FindOrInsert for a caller already holding Lock.
func (reg *Registry) FindOrInsertLocked(key uintptr, kind Kind, recursive bool) (rec *LockRecord, created bool) {
	if r, ok := reg.records[key]; ok {
		return r, false
	}
	r := &LockRecord{
		key:          key,
		kind:         kind,
		recursive:    recursive,
		predecessors: types.NewSortedSet[uintptr](maxPredecessors),
	}
	reg.records[key] = r
	return r, true
}

// Find looks up key without creating a record.
func (reg *Registry) Find(key uintptr) (*LockRecord, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.FindLocked(key)
}

// FindLocked is Find for a caller already holding Lock.
func (reg *Registry) FindLocked(key uintptr) (*LockRecord, bool) {
	r, ok := reg.records[key]
	return r, ok
}

// Remove deletes key's record. The caller must already have verified
// record.Holders.Empty().
func (reg *Registry) Remove(key uintptr) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.RemoveLocked(key)
}

// RemoveLocked is Remove for a caller already holding Lock.
func (reg *Registry) RemoveLocked(key uintptr) {
	delete(reg.records, key)
}

// NextColor hands out the next DFS traversal color for a cycle search,
// incremented under the registry lock so each search runs without
// interference.
func (reg *Registry) NextColor() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.NextColorLocked()
}

// NextColorLocked is NextColor for a caller already holding Lock.
func (reg *Registry) NextColorLocked() int {
	return reg.colorer.Next()
}

// Lookup adapts Find to graph.Lookup for cycle search.
func (reg *Registry) Lookup(key uintptr) (graph.Node, bool) {
	r, ok := reg.Find(key)
	if !ok {
		return nil, false
	}
	return r, ok
}

// LookupLocked adapts FindLocked to graph.Lookup for a cycle search that
// is itself running inside an already-held Lock/Unlock bracket.
func (reg *Registry) LookupLocked(key uintptr) (graph.Node, bool) {
	r, ok := reg.FindLocked(key)
	if !ok {
		return nil, false
	}
	return r, ok
}

// All returns every record currently registered, in key order, as
// graph.Node. Used to purge a destroyed key from every other record's
// predecessor set.
func (reg *Registry) All() []graph.Node {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.AllLocked()
}

// AllLocked is All for a caller already holding Lock.
func (reg *Registry) AllLocked() []graph.Node {
	keys := make([]uintptr, 0, len(reg.records))
	for k := range reg.records {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]graph.Node, len(keys))
	for i, k := range keys {
		out[i] = reg.records[k]
	}
	return out
}
