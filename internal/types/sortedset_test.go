package types

import "testing"

func TestSortedSetInsertIdempotent(t *testing.T) {
	s := NewSortedSet[uintptr](0)
	for _, v := range []uintptr{5, 1, 3, 1, 5} {
		if err := s.Insert(v); err != nil {
			t.Fatalf("Insert(%d): %v", v, err)
		}
	}
	if got := s.Items(); !equal(got, []uintptr{1, 3, 5}) {
		t.Fatalf("Items() = %v, want [1 3 5]", got)
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
}

func TestSortedSetRemove(t *testing.T) {
	s := NewSortedSet[uintptr](0)
	s.Insert(1)
	s.Insert(2)
	s.Insert(3)
	s.Remove(2)
	if s.Contains(2) {
		t.Fatal("Contains(2) = true after Remove(2)")
	}
	if !equal(s.Items(), []uintptr{1, 3}) {
		t.Fatalf("Items() = %v, want [1 3]", s.Items())
	}
	s.Remove(99) // no-op
	if s.Len() != 2 {
		t.Fatalf("Len() = %d after no-op Remove, want 2", s.Len())
	}
}

func TestSortedSetContains(t *testing.T) {
	s := NewSortedSet[uintptr](0)
	s.Insert(10)
	if !s.Contains(10) {
		t.Fatal("Contains(10) = false, want true")
	}
	if s.Contains(11) {
		t.Fatal("Contains(11) = true, want false")
	}
}

func TestSortedSetOutOfMemory(t *testing.T) {
	s := NewSortedSet[uintptr](2)
	if err := s.Insert(1); err != nil {
		t.Fatalf("Insert(1): %v", err)
	}
	if err := s.Insert(2); err != nil {
		t.Fatalf("Insert(2): %v", err)
	}
	if err := s.Insert(3); err != ErrOutOfMemory {
		t.Fatalf("Insert(3) err = %v, want ErrOutOfMemory", err)
	}
	// Re-inserting an existing member never consults the cap.
	if err := s.Insert(1); err != nil {
		t.Fatalf("Insert(1) duplicate: %v", err)
	}
}

func equal(a, b []uintptr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
