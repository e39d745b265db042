// Copyright (c) 2026 locksmith contributors
//
// File: threadctx.go
// Brief: Per-thread verifier state: held-lock stack, spin depth, intercepting gate
//
// License: BSD-3-Clause

// Package threadctx implements the per-thread context: the calling
// thread's display name, its stack of currently-held lock keys (duplicates
// legal, for recursive holds), its spin-lock depth, and the intercepting
// gate that disables recursive re-entry into the verifier's own hooks.
//
// Locksmith has no access to Go's (nonexistent) thread-local storage, and
// deliberately does not try to infer "the calling OS thread" itself.
// Platform-specific thread identification is an out-of-scope external
// collaborator. Every public entry point the verifier exposes therefore
// takes an explicit caller-supplied thread identity (a uint64), exactly as a real
// interposition shim would know which native thread is calling it from its
// own platform binding. Contexts is the map from that identity to its
// Context, created lazily on first touch and released explicitly by the
// shim's thread-exit notification (Forget) rather than any Go finalizer.
package threadctx

import "fmt"

// Namer resolves a platform thread identity to a default display name
// (e.g. the kernel thread id). It is the out-of-scope thread-naming
// collaborator; the bundled default never has platform information to
// offer and always falls back to the "thread_<N>" scheme.
type Namer interface {
	Name(id uint64) (string, bool)
}

// NoNamer is the default Namer: it never has a platform name to offer.
type NoNamer struct{}

// Name implements Namer and always reports "no name available".
func (NoNamer) Name(id uint64) (string, bool) { return "", false }

const maxNameLen = 64

// Context is one thread's verifier-observed state. The zero value is NOT
// ready to use: its Intercepting() would start false, the opposite of a
// fresh thread's default. Construct one with NewContext.
type Context struct {
	name         string
	held         []uintptr
	spinsHeld    int
	intercepting bool
}

// NewContext returns a Context ready for a newly-seen thread: unnamed,
// nothing held, observation enabled.
func NewContext() *Context {
	return &Context{intercepting: true}
}

// Name returns the thread's current display name.
func (c *Context) Name() string { return c.name }

// SetName sets the thread's display name, silently truncating to
// maxNameLen.
func (c *Context) SetName(name string) {
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	c.name = name
}

// Push records key as newly held, at the top of the acquisition-ordered
// stack. Duplicates are legal: recursive re-entry.
func (c *Context) Push(key uintptr) {
	c.held = append(c.held, key)
}

// Pop removes the last occurrence of key from the held stack. It reports
// false (NotHeld) if key is not currently held at all.
func (c *Context) Pop(key uintptr) bool {
	for i := len(c.held) - 1; i >= 0; i-- {
		if c.held[i] == key {
			c.held = append(c.held[:i], c.held[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether key is currently held (linear scan: a thread's
// held stack is small in practice).
func (c *Context) Contains(key uintptr) bool {
	for _, h := range c.held {
		if h == key {
			return true
		}
	}
	return false
}

// Held returns the currently-held keys in acquisition order. The caller
// must not mutate the returned slice.
func (c *Context) Held() []uintptr { return c.held }

// SpinsHeld returns the number of currently-held spin locks.
func (c *Context) SpinsHeld() int { return c.spinsHeld }

// IncrementSpinsHeld and DecrementSpinsHeld maintain the spin-lock depth
// counter.
func (c *Context) IncrementSpinsHeld() { c.spinsHeld++ }
func (c *Context) DecrementSpinsHeld() {
	if c.spinsHeld > 0 {
		c.spinsHeld--
	}
}

// Intercepting reports whether this thread is currently clear to be
// observed. It starts true for a fresh Context and is only ever false
// while the verifier itself is mid-flight inside a call to an observed
// primitive (the native resolver, the sink, or the backtrace provider). A
// hook that finds Intercepting() false on entry must be a no-op
// pass-through: it is being re-entered from within the verifier's own
// machinery, not from ordinary user code.
func (c *Context) Intercepting() bool { return c.intercepting }

// Suppress disables observation for the duration of a call the verifier
// itself is about to make into an observed primitive.
func (c *Context) Suppress() { c.intercepting = false }

// Unsuppress re-enables observation once that call has returned. Must be
// paired with a preceding Suppress.
func (c *Context) Unsuppress() { c.intercepting = true }

// Contexts is the process-wide map from thread identity to Context.
// Contexts carries no lock of its own; the verifier package only touches
// it while holding a dedicated raw mutex obtained from the native
// resolver, separate from the registry lock.
type Contexts struct {
	byID   map[uint64]*Context
	namer  Namer
	nextID int
}

// NewContexts builds an empty Contexts using namer for the platform-name
// lookup (nil selects NoNamer).
func NewContexts(namer Namer) *Contexts {
	if namer == nil {
		namer = NoNamer{}
	}
	return &Contexts{byID: make(map[uint64]*Context), namer: namer}
}

// Get returns id's Context, creating it (with a default name) on first
// touch.
func (cs *Contexts) Get(id uint64) *Context {
	if c, ok := cs.byID[id]; ok {
		return c
	}
	name, ok := cs.namer.Name(id)
	if !ok {
		cs.nextID++
		name = fmt.Sprintf("thread_%d", cs.nextID)
	}
	c := NewContext()
	c.name = name
	cs.byID[id] = c
	return c
}

// Forget releases id's Context, to be called from the shim's thread-exit
// notification. A no-op if id was never seen.
func (cs *Contexts) Forget(id uint64) {
	delete(cs.byID, id)
}
