package dedupe

import "testing"

func TestValueAccumulator_DedupesAcrossFlushes(t *testing.T) {
	acc := newValueAccumulator(3)

	acc.add("a@x.com")
	acc.add("b@x.com")
	acc.add("a@x.com")
	if acc.full() {
		t.Fatal("accumulator should not be full at 2 distinct values")
	}
	acc.add("c@x.com")
	if !acc.full() {
		t.Fatal("accumulator should be full at 3 distinct values")
	}

	got := acc.take()
	if len(got) != 3 {
		t.Fatalf("expected 3 pending values, got %d: %v", len(got), got)
	}

	// Values already flushed must never pend again this run.
	acc.add("a@x.com")
	acc.add("d@x.com")
	got = acc.take()
	if len(got) != 1 || got[0] != "d@x.com" {
		t.Fatalf("expected only the new value, got %v", got)
	}
}

func TestValueAccumulator_TakeClearsPending(t *testing.T) {
	acc := newValueAccumulator(10)
	acc.add("x")
	if got := acc.take(); len(got) != 1 {
		t.Fatalf("expected 1 value, got %v", got)
	}
	if got := acc.take(); len(got) != 0 {
		t.Fatalf("second take should be empty, got %v", got)
	}
}
