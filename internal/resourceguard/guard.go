// Copyright (c) 2026 locksmith contributors
//
// File: guard.go
// Brief: Memory-pressure sampler backing the OutOfMemory diagnostic path
//
// License: BSD-3-Clause

// Package resourceguard backs the verifier's OutOfMemory diagnostic path
// with a background sampler that watches system memory pressure and
// flips a best-effort "shed new graph state" switch instead of letting
// the registry grow without bound.
//
// Adapted from the teacher's utils/control/memory.go Supervisor, which
// polls github.com/shirou/gopsutil's mem package and cancels running
// analyses when free RAM/swap drops below a threshold. Locksmith's
// version never aborts a user call; it only ever makes Shedding() start
// returning true, which callers use to skip optional graph-state growth
// (predecessor-edge insertion) while still letting the lock/unlock
// operation itself succeed.
package resourceguard

import (
	"sync/atomic"
	"time"
)

// Sampler reports currently-available memory as a fraction of total
// (0 = exhausted, 1 = fully free). The production Sampler is backed by
// gopsutil; tests inject a deterministic fake so the threshold logic is
// exercised without depending on the host machine's actual memory state.
type Sampler func() (availableFraction float64, err error)

// Guard periodically samples memory and exposes whether the verifier
// should shed optional state.
type Guard struct {
	sample    Sampler
	threshold float64
	shedding  atomic.Bool
	stop      chan struct{}
}

// New builds a Guard that starts shedding once availableFraction drops
// below threshold (e.g. 0.02, matching the teacher's 2% cutoff).
func New(sample Sampler, threshold float64) *Guard {
	return &Guard{sample: sample, threshold: threshold, stop: make(chan struct{})}
}

// Shedding reports whether the verifier should currently skip optional
// graph-state growth.
func (g *Guard) Shedding() bool {
	return g.shedding.Load()
}

// Poll samples memory once and updates Shedding(). Exposed directly so
// tests (and a caller that wants synchronous control) don't have to race
// a background goroutine.
func (g *Guard) Poll() {
	frac, err := g.sample()
	if err != nil {
		// A sampler failure is itself a reason to be conservative.
		g.shedding.Store(true)
		return
	}
	g.shedding.Store(frac < g.threshold)
}

// Run polls every interval until Stop is called. Intended to be launched
// with `go guard.Run(interval)` once, at bootstrap.
func (g *Guard) Run(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			g.Poll()
		case <-g.stop:
			return
		}
	}
}

// Stop ends a running Run loop.
func (g *Guard) Stop() {
	close(g.stop)
}
