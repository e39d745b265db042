// Copyright (c) 2026 locksmith contributors
//
// File: ops.go
// Brief: Combined convenience operations layered over the pre/post hook pairs
//
// License: BSD-3-Clause

package locksmith

import (
	"time"

	"locksmith/internal/registry"
)

// Init registers key as a lock of the given kind/recursiveness and calls
// through to the native resolver's MutexInit. It is the combined
// pre_init+native+post_init sequence a shim layer would perform itself;
// provided so tests and simple embedders don't have to drive the three
// steps by hand.
func (v *Verifier) Init(key uintptr, isSleeper, isRecursive bool, caller uint64) Status {
	st := v.PreInit(key, isSleeper, isRecursive, caller)
	if !v.latch.Ready() {
		return st
	}
	ctx := v.ctxFor(caller)
	ctx.Suppress()
	v.resolver.MutexInit(key)
	ctx.Unsuppress()
	v.PostInit(key, 0, caller)
	return st
}

// Destroy runs pre_destroy and, if it did not report DestroyInUse, the
// native destroy.
func (v *Verifier) Destroy(key uintptr, caller uint64) Status {
	st := v.PreDestroy(key, caller)
	if st != StatusOK || !v.latch.Ready() {
		return st
	}
	ctx := v.ctxFor(caller)
	ctx.Suppress()
	v.resolver.MutexDestroy(key)
	ctx.Unsuppress()
	return st
}

// Lock runs pre_lock, the blocking native acquire, and post_lock. isSleeper
// selects whether the native call goes through MutexLock or SpinLock.
func (v *Verifier) Lock(key uintptr, isSleeper bool, caller uint64) Status {
	st := v.PreLock(key, isSleeper, caller)
	if !v.latch.Ready() {
		return st
	}
	ctx := v.ctxFor(caller)
	ctx.Suppress()
	if isSleeper {
		v.resolver.MutexLock(key, caller)
	} else {
		v.resolver.SpinLock(key, caller)
	}
	ctx.Unsuppress()
	v.PostLock(key, true, caller)
	return st
}

// TryLock runs pre_lock, a non-blocking native acquire attempt, and
// post_lock. It reports both the verifier's Status and whether the native
// acquire itself succeeded.
func (v *Verifier) TryLock(key uintptr, isSleeper bool, caller uint64) (Status, bool) {
	st := v.PreLock(key, isSleeper, caller)
	if !v.latch.Ready() {
		return st, false
	}
	ctx := v.ctxFor(caller)
	ctx.Suppress()
	ok := v.resolver.MutexTryLock(key, caller)
	ctx.Unsuppress()
	v.PostLock(key, ok, caller)
	return st, ok
}

// TimedLock runs pre_lock, a deadline-bounded native acquire attempt, and
// post_lock.
func (v *Verifier) TimedLock(key uintptr, isSleeper bool, timeout time.Duration, caller uint64) (Status, bool) {
	st := v.PreLock(key, isSleeper, caller)
	if !v.latch.Ready() {
		return st, false
	}
	ctx := v.ctxFor(caller)
	ctx.Suppress()
	ok := v.resolver.MutexTimedLock(key, caller, allowDeadline(timeout))
	ctx.Unsuppress()
	v.PostLock(key, ok, caller)
	return st, ok
}

// Unlock runs pre_unlock, the native release, and post_unlock. If
// pre_unlock reports NotHeld the native call is skipped.
func (v *Verifier) Unlock(key uintptr, caller uint64) Status {
	st := v.PreUnlock(key, caller)
	if st != StatusOK || !v.latch.Ready() {
		return st
	}
	ctx := v.ctxFor(caller)
	rec, recOK := v.registry.Find(key)
	ctx.Suppress()
	if recOK && rec.Kind() == registry.Spin {
		v.resolver.SpinUnlock(key, caller)
	} else {
		v.resolver.MutexUnlock(key, caller)
	}
	ctx.Unsuppress()
	v.PostUnlock(key, caller)
	return st
}

// CondWait runs pre_cond_wait and, if the mutex is held, the native
// cond-wait.
func (v *Verifier) CondWait(cv, mutexKey uintptr, caller uint64) Status {
	st := v.PreCondWait(mutexKey, caller)
	if st != StatusOK || !v.latch.Ready() {
		return st
	}
	ctx := v.ctxFor(caller)
	ctx.Suppress()
	v.resolver.CondWait(cv, caller)
	ctx.Unsuppress()
	return st
}
