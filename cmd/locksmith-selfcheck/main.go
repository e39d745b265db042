// Copyright (c) 2026 locksmith contributors
//
// File: main.go
// Brief: Self-check entry point for the locksmith verifier engine
//
// License: BSD-3-Clause

// Command locksmith-selfcheck drives a fixed set of lock-discipline
// scenarios (the same AB/BA inversion, destroy-while-held, and not-held
// patterns exercised in the library's own tests) through a real Verifier,
// reports whatever it configures via LKSMITH_LOG, and exits non-zero if
// any diagnostic fired. It exists to let an operator check that a sink
// and filter configuration actually surfaces the diagnostics they expect,
// without wiring a real threading shim first.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"locksmith"
	"locksmith/config"
	"locksmith/internal/diagnostics"
	"locksmith/internal/filter"
	"locksmith/internal/obslog"
	"locksmith/internal/resourceguard"
	"locksmith/internal/sink"
	"locksmith/internal/stopwatch"
)

// countingSink forwards every diagnostic to an underlying Sink while
// counting how many passed through, so main can decide the process exit
// code regardless of which concrete sink the configuration selected.
type countingSink struct {
	sink.Sink
	n int
}

func (c *countingSink) Emit(d diagnostics.Diagnostic) {
	c.n++
	c.Sink.Emit(d)
}

var (
	quiet           bool
	memoryThreshold float64
	pollInterval    time.Duration
)

func init() {
	flag.BoolVar(&quiet, "quiet", false, "suppress informational output")
	flag.Float64Var(&memoryThreshold, "memory-threshold", 0.02,
		"fraction of available memory below which the verifier sheds optional graph state")
	flag.DurationVar(&pollInterval, "poll-interval", time.Second,
		"how often the resource guard samples available memory")
}

func main() {
	flag.Parse()
	obslog.SetQuiet(quiet)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "locksmith-selfcheck: %v\n", err)
		os.Exit(2)
	}
	built, err := config.BuildSink(cfg.Sink, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "locksmith-selfcheck: %v\n", err)
		os.Exit(2)
	}
	counting := &countingSink{Sink: built}

	guard := resourceguard.New(resourceguard.GopsutilSampler, memoryThreshold)
	go guard.Run(pollInterval)
	defer guard.Stop()

	v := locksmith.New(
		locksmith.WithSink(counting),
		locksmith.WithFilter(filter.New(cfg.Filter.ExactFrames, cfg.Filter.Patterns)),
		locksmith.WithResourceGuard(guard),
	)

	sw := &stopwatch.Timer{}
	sw.Start()
	runScenarios(v)
	sw.Stop()

	obslog.Infof("locksmith-selfcheck: ran %d scenarios in %s", len(scenarios), sw.Elapsed())
	if counting.n > 0 {
		obslog.Warnf("locksmith-selfcheck: %d diagnostics raised", counting.n)
		os.Exit(1)
	}
	obslog.Info("locksmith-selfcheck: no diagnostics raised")
}

// scenario is one fixed lock-discipline pattern to drive through v.
type scenario struct {
	name string
	run  func(v *locksmith.Verifier)
}

var scenarios = []scenario{
	{
		name: "ab-ba-inversion",
		run: func(v *locksmith.Verifier) {
			const l1, l2, a, b = 1, 2, 100, 200
			v.Lock(l1, true, a)
			v.Lock(l2, true, a)
			v.Unlock(l2, a)
			v.Unlock(l1, a)

			v.Lock(l2, true, b)
			v.Lock(l1, true, b)
			v.Unlock(l1, b)
			v.Unlock(l2, b)
		},
	},
	{
		name: "destroy-while-held",
		run: func(v *locksmith.Verifier) {
			const m, t = 10, 100
			v.Init(m, true, true, t)
			v.Lock(m, true, t)
			v.Destroy(m, t)
			v.Unlock(m, t)
			v.Destroy(m, t)
		},
	},
	{
		name: "unlock-not-held",
		run: func(v *locksmith.Verifier) {
			const m, x, y = 20, 100, 200
			v.Lock(m, true, x)
			v.Unlock(m, y)
			v.Unlock(m, x)
		},
	},
}

// runScenarios drives every scenario in turn.
func runScenarios(v *locksmith.Verifier) {
	for _, s := range scenarios {
		obslog.Infof("locksmith-selfcheck: running %s", s.name)
		s.run(v)
	}
}
