// Copyright (c) 2026 locksmith contributors
//
// File: graph.go
// Brief: Dependency-graph algorithms: predecessor edges and cycle search
//
// License: BSD-3-Clause

// Package graph implements the verifier's dependency-graph algorithms: the
// "must-be-acquired-before" edge search. It owns no storage of its own.
// A lock registry's records satisfy Node and the registry drives the
// traversal, which keeps the cyclic, self-referential lock graph out of a
// dedicated owning structure and lets destroy purge edges with a
// registry-wide scan instead of this package needing inbound-edge
// bookkeeping.
//
// Grounded on the teacher's partial-order graph (analysis/hb/pog/graph.go):
// same idea of edges recorded as adjacency from one node to the nodes that
// must precede it, walked with a coloring scheme instead of a cleared
// "visited" set so that repeated searches stay allocation-free.
package graph

import "locksmith/internal/types"

// Node is anything the graph can run cycle search over: a lock record with
// a stable key, an ordered predecessor set, and a DFS color scratch cell.
type Node interface {
	Key() uintptr
	Predecessors() *types.SortedSet[uintptr]
	Color() *int
}

// Colorer hands out monotonically increasing traversal colors so that a
// fresh DFS can tell "visited this search" from "visited a previous
// search" in O(1) without clearing every node's color first.
//
// The zero value is usable; colors start at 1 so that a record's
// zero-valued Color() field never collides with a real search.
type Colorer struct {
	next int
}

// Next returns the color to use for the next cycle search.
func (c *Colorer) Next() int {
	c.next++
	return c.next
}

// Lookup resolves a lock key to its Node, or false if no record exists for
// that key (the predecessor search does not need to create missing
// records: an edge is only ever added between records that already
// exist, since both endpoints were obtained via the registry beforehand).
type Lookup func(key uintptr) (Node, bool)

// ReachableFrom runs a DFS from start's predecessors, following
// predecessor edges, looking for target. It returns true the first time it
// reaches target, false if the whole reachable set was exhausted without
// finding it. color is the color assigned to this search (from Colorer.Next);
// a node is considered visited once Node.Color() == color.
func ReachableFrom(start Node, target uintptr, color int, lookup Lookup) bool {
	if start.Key() == target {
		return true
	}
	*start.Color() = color

	stack := []Node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, predKey := range n.Predecessors().Items() {
			if predKey == target {
				return true
			}
			pred, ok := lookup(predKey)
			if !ok {
				continue
			}
			if *pred.Color() == color {
				continue
			}
			*pred.Color() = color
			stack = append(stack, pred)
		}
	}
	return false
}

// AddPredecessorIfAcyclic records that h must be acquired before L
// (h -> L.predecessors) unless doing so would close a cycle, i.e. unless L
// is already reachable from h by following existing predecessor edges. It
// returns false (no edge added) when the edge would create a cycle, which
// callers use to decide whether to raise LockInversion. err is non-nil
// only when the edge was acyclic but the underlying predecessor set could
// not grow (types.ErrOutOfMemory); in that case added is also false, but
// for a different reason than a cycle.
func AddPredecessorIfAcyclic(l, h Node, color int, lookup Lookup) (added bool, err error) {
	if ReachableFrom(h, l.Key(), color, lookup) {
		return false, nil
	}
	// l.predecessors records "h was held when l was acquired": the
	// established order is h-before-l, so the edge is stored on l
	// pointing at h.
	if err := l.Predecessors().Insert(h.Key()); err != nil {
		return false, err
	}
	return true, nil
}

// PurgeFromAll removes key from every node's predecessor set. Called by
// destroy: a destroyed lock must not remain a dangling edge target
// anywhere in the registry.
func PurgeFromAll(key uintptr, all []Node) {
	for _, n := range all {
		n.Predecessors().Remove(key)
	}
}
