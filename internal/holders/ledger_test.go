package holders

import "testing"

func TestLedgerPushPop(t *testing.T) {
	var l Ledger
	l.Push(Entry{ThreadName: "t1"})
	l.Push(Entry{ThreadName: "t2"})

	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}

	e, ok := l.PopForThread("t2")
	if !ok || e.ThreadName != "t2" {
		t.Fatalf("PopForThread(t2) = %+v, %v", e, ok)
	}
	if l.Len() != 1 {
		t.Fatalf("Len() = %d after pop, want 1", l.Len())
	}
}

func TestLedgerRecursiveLIFO(t *testing.T) {
	var l Ledger
	// Same thread acquires recursively twice.
	l.Push(Entry{ThreadName: "t1", Backtrace: []string{"outer"}})
	l.Push(Entry{ThreadName: "t1", Backtrace: []string{"inner"}})

	e, ok := l.PopForThread("t1")
	if !ok || e.Backtrace[0] != "inner" {
		t.Fatalf("expected inner-most hold to be released first, got %+v", e)
	}
	e, ok = l.PopForThread("t1")
	if !ok || e.Backtrace[0] != "outer" {
		t.Fatalf("expected outer hold to remain, got %+v", e)
	}
	if !l.Empty() {
		t.Fatal("expected ledger empty after both releases")
	}
}

func TestLedgerPopForThreadNotFound(t *testing.T) {
	var l Ledger
	l.Push(Entry{ThreadName: "t1"})
	if _, ok := l.PopForThread("t2"); ok {
		t.Fatal("PopForThread(t2) should not find an entry held by t1")
	}
}
