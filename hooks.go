// Copyright (c) 2026 locksmith contributors
//
// File: hooks.go
// Brief: Pre/post interposition hooks for init, destroy, lock, unlock and cond-wait
//
// License: BSD-3-Clause

package locksmith

import (
	"locksmith/internal/diagnostics"
	"locksmith/internal/graph"
	"locksmith/internal/holders"
	"locksmith/internal/obslog"
	"locksmith/internal/registry"
	"locksmith/internal/threadctx"
)

// kindFor maps the boolean the interposition boundary passes ("is_sleeper")
// to the registry's Kind enum.
func kindFor(isSleeper bool) registry.Kind {
	if isSleeper {
		return registry.Sleeper
	}
	return registry.Spin
}

// PreInit is the pre_init hook: determine kind and recursiveness from the
// caller-supplied attributes and register the lock. Init never itself
// raises a diagnostic; it only ever registers state.
func (v *Verifier) PreInit(key uintptr, isSleeper, isRecursive bool, caller uint64) Status {
	if !v.ensureInit() {
		return StatusWarnOnly
	}
	ctx := v.ctxFor(caller)
	if !ctx.Intercepting() {
		return StatusOK
	}
	v.registry.FindOrInsert(key, kindFor(isSleeper), isRecursive)
	return StatusOK
}

// PostInit is the post_init hook. It exists for symmetry with the other
// observed primitives; Locksmith's own bookkeeping for init completes
// entirely in the pre-hook, so this is a no-op beyond the intercepting
// gate's usual bookkeeping-free pass-through.
func (v *Verifier) PostInit(key uintptr, nativeResult int, caller uint64) {}

// PreDestroy is the pre_destroy hook: if the lock's holder ledger is
// non-empty, raise DestroyInUse and tell the shim to skip the native
// call; otherwise remove the record from the registry and purge it from
// every other record's predecessor set.
func (v *Verifier) PreDestroy(key uintptr, caller uint64) Status {
	if !v.ensureInit() {
		return StatusWarnOnly
	}
	ctx := v.ctxFor(caller)
	if !ctx.Intercepting() {
		return StatusOK
	}

	v.registry.Lock()
	rec, ok := v.registry.FindLocked(key)
	if !ok {
		// Destroying a lock the verifier never observed: nothing to do.
		v.registry.Unlock()
		return StatusOK
	}
	inUse := !rec.Holders.Empty()
	if !inUse {
		v.registry.RemoveLocked(key)
		graph.PurgeFromAll(key, v.registry.AllLocked())
	}
	v.registry.Unlock()

	if inUse {
		return v.diagnose(ctx, key, diagnostics.DestroyInUse,
			"destroy called while the lock is still held", nil)
	}
	return StatusOK
}

// PreLock is the pre_lock hook: it ensures the lock is registered
// (recovering a statically-initialized lock as recursive by default),
// captures a backtrace, and, unless that backtrace matches the ignore
// filter, runs the dependency-graph update that can raise SelfDeadlock or
// LockInversion. The holder entry is appended regardless of whether the
// graph update ran, so unlock bookkeeping stays correct even for
// filtered acquisitions.
func (v *Verifier) PreLock(key uintptr, isSleeper bool, caller uint64) Status {
	if !v.ensureInit() {
		return StatusWarnOnly
	}
	ctx := v.ctxFor(caller)
	if !ctx.Intercepting() {
		return StatusOK
	}

	bt := v.captureBacktrace(ctx, 1)

	v.registry.Lock()
	rec, _ := v.registry.FindOrInsertLocked(key, kindFor(isSleeper), true)

	var pending []pendingDiag
	if !v.filterList.Matches(bt) && !v.shedding() {
		pending = v.runGraphUpdateLocked(ctx, rec, key, bt)
	}
	v.registry.Unlock()

	rec.Holders.Push(holders.Entry{ThreadName: ctx.Name(), Backtrace: bt})

	status := StatusOK
	for _, p := range pending {
		status = v.diagnose(ctx, p.key, p.code, p.msg, bt)
	}
	return status
}

// pendingDiag is a diagnostic discovered while the registry lock is held,
// deferred so it can be reported through emit (and so the sink) only
// after the lock is released. The sink must never be invoked while the
// registry lock is held.
type pendingDiag struct {
	code diagnostics.Code
	key  uintptr
	msg  string
}

// runGraphUpdateLocked walks every lock the calling thread already holds:
// self-deadlock on a non-recursive relock, cycle search otherwise,
// predecessor insertion on success. Each held lock is handled
// independently: a failure for one held lock neither rolls back an
// earlier success nor stops the walk, since the goal is maximum signal
// rather than transactional consistency. The caller must already hold the registry
// lock: it linearizes the whole walk, including the traversal-color
// assignment, so concurrent acquisitions on different keys never race on
// a record's color or predecessor set. Diagnostics found here are
// returned rather than emitted, since emitting must happen with the lock
// released.
func (v *Verifier) runGraphUpdateLocked(ctx *threadctx.Context, rec *registry.LockRecord, key uintptr, bt []string) []pendingDiag {
	var found []pendingDiag
	shed := v.shedding()
	for _, h := range ctx.Held() {
		if h == key {
			if rec.Recursive() {
				continue
			}
			found = append(found, pendingDiag{diagnostics.SelfDeadlock, key,
				"non-recursive lock re-acquired by the thread that already holds it"})
			continue
		}
		hrec, ok := v.registry.FindLocked(h)
		if !ok {
			// A held key with no surviving record: destroy raced ahead of
			// unlock bookkeeping somewhere upstream of the verifier.
			obslog.Errorf("locksmith: internal: held lock has no registry record (key=%#x)", h)
			found = append(found, pendingDiag{diagnostics.Internal, h, "held lock has no registry record"})
			continue
		}
		color := v.registry.NextColorLocked()
		if shed {
			if graph.ReachableFrom(hrec, key, color, v.registry.LookupLocked) {
				found = append(found, pendingDiag{diagnostics.LockInversion, key,
					"acquiring this lock would close a cycle in the lock order"})
			}
			continue
		}
		added, err := graph.AddPredecessorIfAcyclic(rec, hrec, color, v.registry.LookupLocked)
		if err != nil {
			found = append(found, pendingDiag{diagnostics.OutOfMemory, key,
				"predecessor set exhausted; proceeding without recording this edge"})
			continue
		}
		if !added {
			found = append(found, pendingDiag{diagnostics.LockInversion, key,
				"acquiring this lock would close a cycle in the lock order"})
		}
	}
	return found
}

// PostLock is the post_lock hook. On a successful native acquisition it
// pushes the key onto the thread's held stack, maintains the spin-lock
// depth counter, and raises the one-shot SpinHoldingSleeper warning. On
// failure it rolls back the holder entry PreLock optimistically pushed.
func (v *Verifier) PostLock(key uintptr, success bool, caller uint64) {
	if !v.ensureInit() {
		return
	}
	ctx := v.ctxFor(caller)
	if !ctx.Intercepting() {
		return
	}

	rec, ok := v.registry.Find(key)
	if !ok {
		v.internalError(ctx, key, "post_lock found no record prepared by pre_lock")
		return
	}

	if !success {
		rec.Holders.PopForThread(ctx.Name())
		return
	}

	if rec.Kind() == registry.Spin {
		ctx.IncrementSpinsHeld()
	} else if ctx.SpinsHeld() > 0 && !rec.SpinWarned() {
		rec.MarkSpinWarned()
		v.diagnose(ctx, key, diagnostics.SpinHoldingSleeper,
			"sleeper acquired while a spin lock is held", nil)
	}
	ctx.Push(key)
	rec.IncrementAcquireCount()
}

// PreUnlock is the pre_unlock hook: unlocking a lock the calling thread
// does not hold is NotHeld, and the native call is skipped.
func (v *Verifier) PreUnlock(key uintptr, caller uint64) Status {
	if !v.ensureInit() {
		return StatusWarnOnly
	}
	ctx := v.ctxFor(caller)
	if !ctx.Intercepting() {
		return StatusOK
	}
	if !ctx.Contains(key) {
		return v.diagnose(ctx, key, diagnostics.NotHeld,
			"unlock called by a thread that does not hold this lock", nil)
	}
	return StatusOK
}

// PostUnlock is the post_unlock hook: pop key from the held stack,
// decrement the spin-depth counter for a spin lock, and remove the
// matching holder entry.
func (v *Verifier) PostUnlock(key uintptr, caller uint64) {
	if !v.ensureInit() {
		return
	}
	ctx := v.ctxFor(caller)
	if !ctx.Intercepting() {
		return
	}

	if !ctx.Pop(key) {
		v.internalError(ctx, key, "post_unlock found key no longer in held stack")
		return
	}
	rec, ok := v.registry.Find(key)
	if !ok {
		v.internalError(ctx, key, "post_unlock found no record for a held key")
		return
	}
	if rec.Kind() == registry.Spin {
		ctx.DecrementSpinsHeld()
	}
	rec.Holders.PopForThread(ctx.Name())
}

// PreCondWait is the pre_cond_wait hook: waiting on a condition variable
// while not holding its associated mutex is CondWaitUnheld; the native
// call is skipped and no state changes, since a condition wait's internal
// release/reacquire of the mutex is invisible to the verifier. The mutex
// remains logically held from the user's point of view.
func (v *Verifier) PreCondWait(mutexKey uintptr, caller uint64) Status {
	if !v.ensureInit() {
		return StatusWarnOnly
	}
	ctx := v.ctxFor(caller)
	if !ctx.Intercepting() {
		return StatusOK
	}
	if !ctx.Contains(mutexKey) {
		return v.diagnose(ctx, mutexKey, diagnostics.CondWaitUnheld,
			"cond_wait called without holding the associated mutex", nil)
	}
	return StatusOK
}
