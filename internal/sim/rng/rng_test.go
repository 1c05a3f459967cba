package rng

import "testing"

func TestScriptedReplaysDraws(t *testing.T) {
	s := NewScripted(0.25, 0.5, 0.99)
	if got := s.Float64(); got != 0.25 {
		t.Fatalf("first draw: got %v", got)
	}
	if got := s.Intn(10); got != 5 {
		t.Fatalf("Intn(10) from 0.5: got %d", got)
	}
	if got := s.Intn(4); got != 3 {
		t.Fatalf("Intn(4) from 0.99: got %d", got)
	}
	if s.Remaining() != 0 {
		t.Fatalf("remaining=%d", s.Remaining())
	}
	// Exhausted: repeats the last value.
	if got := s.Float64(); got != 0.99 {
		t.Fatalf("exhausted draw: got %v", got)
	}
}

func TestScriptedReadIsUniquePerCall(t *testing.T) {
	s := NewScripted()
	a := make([]byte, 16)
	b := make([]byte, 16)
	_, _ = s.Read(a)
	_, _ = s.Read(b)
	if string(a) == string(b) {
		t.Fatalf("expected distinct reads")
	}
}

func TestSeededIsDeterministic(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("draw %d differs", i)
		}
	}
}

func TestBetweenBounds(t *testing.T) {
	r := New(7)
	for i := 0; i < 1000; i++ {
		v := Between(r, 2, 8)
		if v < 2 || v > 8 {
			t.Fatalf("out of range: %d", v)
		}
	}
	if got := Between(r, 5, 5); got != 5 {
		t.Fatalf("degenerate range: %d", got)
	}
	if got := Pick[string](r, nil); got != "" {
		t.Fatalf("pick from empty: %q", got)
	}
}
