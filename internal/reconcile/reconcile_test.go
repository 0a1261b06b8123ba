package reconcile

import "testing"

func TestReconcile_ExactMatch(t *testing.T) {
	requested := []string{"sec1", "sec2"}
	received := []Evaluation{
		{NodeID: "sec2", RelevanceScore: 0.9},
		{NodeID: "sec1", RelevanceScore: 0.1},
	}
	results, unconsumed := Reconcile(requested, received)
	if len(unconsumed) != 0 {
		t.Fatalf("expected no unconsumed entries, got %d", len(unconsumed))
	}
	if results[0].Evaluation == nil || results[0].Evaluation.RelevanceScore != 0.1 {
		t.Fatalf("expected sec1 to reconcile to its own evaluation, got %+v", results[0])
	}
	if results[1].Evaluation == nil || results[1].Evaluation.RelevanceScore != 0.9 {
		t.Fatalf("expected sec2 to reconcile to its own evaluation, got %+v", results[1])
	}
}

func TestReconcile_NumberPrefixMatch(t *testing.T) {
	requested := []string{"12.3 Remote Sales"}
	received := []Evaluation{{NodeID: "12.3", RelevanceScore: 0.5}}
	results, _ := Reconcile(requested, received)
	if results[0].Evaluation == nil {
		t.Fatal("expected number-prefix match to succeed")
	}
}

func TestReconcile_KeyPhraseMatch(t *testing.T) {
	requested := []string{"section-refund-rights"}
	received := []Evaluation{{NodeID: "refund rights within 14 days", RelevanceScore: 0.7}}
	results, _ := Reconcile(requested, received)
	if results[0].Evaluation == nil {
		t.Fatal("expected key-phrase match to succeed")
	}
}

func TestReconcile_FuzzyMatch(t *testing.T) {
	requested := []string{"Refund Rights"}
	received := []Evaluation{{NodeID: "refund-rihgts", RelevanceScore: 0.6}}
	results, _ := Reconcile(requested, received)
	if results[0].Evaluation == nil {
		t.Fatal("expected fuzzy match to succeed despite the typo")
	}
}

func TestReconcile_NoMatchFallsBackToNil(t *testing.T) {
	requested := []string{"totally-unrelated-id"}
	received := []Evaluation{{NodeID: "something-else-entirely", RelevanceScore: 0.2}}
	results, unconsumed := Reconcile(requested, received)
	if results[0].Evaluation != nil {
		t.Fatalf("expected no match, got %+v", results[0].Evaluation)
	}
	if len(unconsumed) != 1 {
		t.Fatalf("expected 1 unconsumed entry, got %d", len(unconsumed))
	}
}

func TestReconcile_FirstMatchWinsEachEntryConsumedOnce(t *testing.T) {
	requested := []string{"a", "a"}
	received := []Evaluation{{NodeID: "a", RelevanceScore: 0.4}}
	results, _ := Reconcile(requested, received)
	if results[0].Evaluation == nil {
		t.Fatal("expected first requested id to consume the sole matching entry")
	}
	if results[1].Evaluation != nil {
		t.Fatal("expected second requested id to find no remaining entry")
	}
}
