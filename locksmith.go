// Copyright (c) 2026 locksmith contributors
//
// File: locksmith.go
// Brief: Verifier engine: construction, bootstrap and the shared hook plumbing
//
// License: BSD-3-Clause

// Package locksmith is a runtime lock-discipline verifier for programs
// built on POSIX-style threading primitives (mutexes, spinlocks, condition
// variables). It is meant to sit ahead of a real threading implementation,
// observing every lock operation through a small set of pre/post hooks,
// without the observed program itself being aware it is being watched.
//
// Locksmith never talks to the operating system's threading library
// directly. Platform symbol resolution, stack capture, thread naming and
// diagnostic formatting are all named external collaborators (Resolver,
// Provider, Namer, Sink) that a caller supplies. What Locksmith owns is
// the verifier engine itself: the per-lock dependency graph, per-thread
// held-lock bookkeeping, and the failure taxonomy raised when a program
// violates lock-ordering discipline.
package locksmith

import (
	"os"
	"sync"
	"time"

	"locksmith/internal/backtrace"
	"locksmith/internal/bootstrap"
	"locksmith/internal/diagnostics"
	"locksmith/internal/filter"
	"locksmith/internal/nativesim"
	"locksmith/internal/obslog"
	"locksmith/internal/registry"
	"locksmith/internal/resourceguard"
	"locksmith/internal/sink"
	"locksmith/internal/threadctx"
)

// Re-export the pieces of the diagnostic taxonomy callers need without
// reaching into internal/diagnostics themselves.
type (
	// Status is the integer the interposition boundary returns to its
	// caller.
	Status = diagnostics.Status
	// Diagnostic is one emitted lock-discipline violation or report.
	Diagnostic = diagnostics.Diagnostic
	// Code identifies which member of the fixed failure taxonomy a
	// Diagnostic belongs to.
	Code = diagnostics.Code
)

// The Status values a hook can return.
const (
	StatusOK         = diagnostics.StatusOK
	StatusWarnOnly   = diagnostics.StatusWarnOnly
	StatusBusy       = diagnostics.StatusBusy
	StatusPermission = diagnostics.StatusPermission
)

// The diagnostic codes a Sink may observe.
const (
	LockInversion      = diagnostics.LockInversion
	SelfDeadlock       = diagnostics.SelfDeadlock
	NotHeld            = diagnostics.NotHeld
	DestroyInUse       = diagnostics.DestroyInUse
	CondWaitUnheld     = diagnostics.CondWaitUnheld
	SpinHoldingSleeper = diagnostics.SpinHoldingSleeper
	OutOfMemory        = diagnostics.OutOfMemory
	Internal           = diagnostics.Internal
)

// Sink is the interface diagnostics are reported through.
type Sink = sink.Sink

// Verifier is the process-wide verifier context: registry, per-thread
// contexts, and the collaborators that back the out-of-scope pieces of
// the design (native resolver, backtrace provider, sink, namer, frame
// filter, resource guard). The zero value is not usable; build one with
// New.
//
// A Verifier is the engine's only piece of global mutable state, modeled
// as a singleton opaque context initialized by a one-shot latch. Callers
// that need more than one independent verifier (per-test isolation, say)
// simply construct more than one.
type Verifier struct {
	resolver   nativesim.Resolver
	backtracer backtrace.Provider
	sinkOut    sink.Sink
	namer      threadctx.Namer
	filterList *filter.Filter
	guard      *resourceguard.Guard

	latch bootstrap.Latch

	registry *registry.Registry
	contexts *threadctx.Contexts
	ctxMu    sync.Locker
}

// Option configures a Verifier at construction time.
type Option func(*Verifier)

// WithResolver supplies the native-primitive resolver collaborator.
// Defaults to nativesim.NewDefaultResolver().
func WithResolver(r nativesim.Resolver) Option {
	return func(v *Verifier) { v.resolver = r }
}

// WithBacktrace supplies the stack-capture collaborator. Defaults to
// backtrace.RuntimeProvider{}.
func WithBacktrace(p backtrace.Provider) Option {
	return func(v *Verifier) { v.backtracer = p }
}

// WithSink supplies the diagnostic sink. Defaults to a stderr sink.
func WithSink(s sink.Sink) Option {
	return func(v *Verifier) { v.sinkOut = s }
}

// WithNamer supplies the platform thread-naming collaborator. Defaults to
// threadctx.NoNamer{}, which always falls back to "thread_<N>".
func WithNamer(n threadctx.Namer) Option {
	return func(v *Verifier) { v.namer = n }
}

// WithFilter supplies the ignore-frame filter, loaded once at
// construction from configuration. A nil filter (the default) never
// suppresses anything.
func WithFilter(f *filter.Filter) Option {
	return func(v *Verifier) { v.filterList = f }
}

// WithResourceGuard supplies a memory-pressure guard. While the guard
// reports Shedding(), new predecessor edges are skipped rather than
// inserted; the acquisition itself always still succeeds.
func WithResourceGuard(g *resourceguard.Guard) Option {
	return func(v *Verifier) { v.guard = g }
}

// New builds a Verifier. Bootstrap (resolving collaborator defaults,
// constructing the registry lock from the native resolver) is deferred
// until the first hook call, so New itself does no locking and is safe
// to call from a package-level var initializer.
func New(opts ...Option) *Verifier {
	v := &Verifier{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ensureInit runs the one-shot bootstrap lazily on first use, resolving
// collaborator defaults and constructing the registry lock from the
// native resolver. Bootstrap failure is fatal: if the init closure panics
// or returns false, ensureInit logs the failure and aborts the process
// rather than let every hook silently degrade to pass-through for the
// rest of the run. On success it reports true so callers that already
// hold a reference from a prior call can skip re-checking.
func (v *Verifier) ensureInit() bool {
	ok := v.latch.Do(func() bool {
		if v.resolver == nil {
			v.resolver = nativesim.NewDefaultResolver()
		}
		if v.backtracer == nil {
			v.backtracer = backtrace.RuntimeProvider{}
		}
		if v.sinkOut == nil {
			v.sinkOut = sink.NewStderrSink()
		}
		if v.namer == nil {
			v.namer = threadctx.NoNamer{}
		}
		v.ctxMu = v.resolver.NewRawMutex()
		v.registry = registry.New(v.resolver.NewRawMutex())
		v.contexts = threadctx.NewContexts(v.namer)
		return true
	})
	if !ok {
		obslog.Errorf("locksmith: bootstrap failed, aborting process")
		os.Exit(1)
	}
	return ok
}

// ctxFor resolves caller's ThreadCtx, creating it on first touch. Contexts
// is guarded by its own raw mutex from the resolver, never the verifier's
// own wrapped primitives, so looking a thread up is itself unobserved.
func (v *Verifier) ctxFor(caller uint64) *threadctx.Context {
	v.ctxMu.Lock()
	defer v.ctxMu.Unlock()
	return v.contexts.Get(caller)
}

// forgetCtx releases caller's ThreadCtx, to be called from the shim's
// thread-exit notification.
func (v *Verifier) forgetCtx(caller uint64) {
	v.ctxMu.Lock()
	defer v.ctxMu.Unlock()
	v.contexts.Forget(caller)
}

// Forget releases a thread's context once it has exited.
func (v *Verifier) Forget(caller uint64) {
	if !v.ensureInit() {
		return
	}
	v.forgetCtx(caller)
}

// SetThreadName sets caller's display name. Length is bounded; an
// over-long name is truncated silently.
func (v *Verifier) SetThreadName(caller uint64, name string) {
	if !v.ensureInit() {
		return
	}
	v.ctxFor(caller).SetName(name)
}

// GetThreadName returns caller's current display name.
func (v *Verifier) GetThreadName(caller uint64) string {
	if !v.ensureInit() {
		return ""
	}
	return v.ctxFor(caller).Name()
}

// captureBacktrace captures the calling goroutine's stack with
// intercepting suppressed for the duration, so that any instrumentation
// the backtrace provider itself triggers is not mistaken for user lock
// activity.
func (v *Verifier) captureBacktrace(ctx *threadctx.Context, skip int) []string {
	ctx.Suppress()
	bt := v.backtracer.Capture(skip + 1)
	ctx.Unsuppress()
	return bt
}

// emit reports d through the configured sink with intercepting
// suppressed. The sink is always invoked without holding any verifier
// lock, so a slow or reentrant sink implementation cannot stall other
// threads' lock operations.
func (v *Verifier) emit(ctx *threadctx.Context, d diagnostics.Diagnostic) {
	ctx.Suppress()
	v.sinkOut.Emit(d)
	ctx.Unsuppress()
}

// diagnose builds and emits a Diagnostic for code, returning the Status a
// hook should propagate to its caller.
func (v *Verifier) diagnose(ctx *threadctx.Context, key uintptr, code diagnostics.Code, msg string, bt []string) diagnostics.Status {
	d := diagnostics.Diagnostic{
		Code:      code,
		Message:   msg,
		Thread:    ctx.Name(),
		LockKey:   key,
		Backtrace: bt,
	}
	v.emit(ctx, d)
	return code.Status()
}

// internalError reports an Internal diagnostic: an invariant the verifier
// itself expected to hold did not (e.g. a post-hook called for a key no
// pre-hook ever registered). Severity is error, but the operation still
// proceeds.
func (v *Verifier) internalError(ctx *threadctx.Context, key uintptr, msg string) {
	obslog.Errorf("locksmith: internal: %s (key=%#x)", msg, key)
	v.diagnose(ctx, key, diagnostics.Internal, msg, nil)
}

// shedding reports whether the resource guard wants new graph state
// skipped this call.
func (v *Verifier) shedding() bool {
	return v.guard != nil && v.guard.Shedding()
}

// allowDeadline is a small seam so tests can use a very short timeout
// without the default resolver's microsecond poll interval masking it.
var allowDeadline = func(d time.Duration) time.Time { return time.Now().Add(d) }
