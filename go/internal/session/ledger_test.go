package session

import "testing"

func TestLedgerSubmit(t *testing.T) {
	l := NewAnswerLedger()
	l.Open("q1")

	if !l.Submit("q1", "Alice", "A") {
		t.Fatal("first submission rejected")
	}
	if l.Submit("q1", "Alice", "B") {
		t.Fatal("duplicate submission accepted")
	}
	if l.Submit("q2", "Alice", "A") {
		t.Fatal("submission for unknown question accepted")
	}

	if got := l.Size("q1"); got != 1 {
		t.Fatalf("Size(q1) = %d, want 1", got)
	}
	if got := l.Snapshot("q1")["Alice"]; got != "A" {
		t.Fatalf("Alice's answer = %q, want A (first submission wins)", got)
	}
}

func TestLedgerSizeUnknownQuestion(t *testing.T) {
	l := NewAnswerLedger()
	if got := l.Size("missing"); got != 0 {
		t.Fatalf("Size(missing) = %d, want 0", got)
	}
	if got := len(l.Snapshot("missing")); got != 0 {
		t.Fatalf("Snapshot(missing) has %d entries, want 0", got)
	}
}

func TestLedgerSnapshotIsACopy(t *testing.T) {
	l := NewAnswerLedger()
	l.Open("q1")
	l.Submit("q1", "Alice", "A")

	snap := l.Snapshot("q1")
	snap["Bob"] = "B"

	if got := l.Size("q1"); got != 1 {
		t.Fatalf("mutating a snapshot changed the ledger, Size = %d", got)
	}
}
