package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
)

type fakeClock struct {
	slept []time.Duration
}

func (f *fakeClock) Now() time.Time       { return time.Unix(0, 0) }
func (f *fakeClock) Sleep(d time.Duration) { f.slept = append(f.slept, d) }

func tree(ids ...string) *types.LegalDocumentTree {
	t := &types.LegalDocumentTree{Nodes: make(map[string]*types.LegalNode)}
	for _, id := range ids {
		t.Nodes[id] = &types.LegalNode{ID: id, Title: id}
	}
	return t
}

func TestEvaluateBatch_SingleChunkExactMatch(t *testing.T) {
	stub := &StubCapability{
		Default: `{"nodeEvaluations": [
			{"nodeId": "a", "isRelevant": true, "relevanceScore": 0.8, "reasoning": "matches", "shouldExploreChildren": true},
			{"nodeId": "b", "isRelevant": false, "relevanceScore": 0.1, "reasoning": "no match", "shouldExploreChildren": false}
		]}`,
	}
	c := NewClient(stub, WithClock(&fakeClock{}))

	decisions, err := c.EvaluateBatch(context.Background(), []string{"a", "b"}, tree("a", "b"), 0, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(decisions))
	}
	if decisions[0].NodeID != "a" || decisions[0].RelevanceScore != 0.8 || !decisions[0].Visited {
		t.Fatalf("unexpected decision for a: %+v", decisions[0])
	}
	if decisions[1].NodeID != "b" || decisions[1].RelevanceScore != 0.1 {
		t.Fatalf("unexpected decision for b: %+v", decisions[1])
	}
}

func TestEvaluateBatch_ChunksAtMaxBatchSize(t *testing.T) {
	stub := &StubCapability{Default: `{"nodeEvaluations": []}`}
	clock := &fakeClock{}
	c := NewClient(stub, WithClock(clock))

	ids := make([]string, MaxBatchSize+2)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}

	decisions, err := c.EvaluateBatch(context.Background(), ids, tree(ids...), 0, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.Calls() != 2 {
		t.Fatalf("expected 2 chunk calls, got %d", stub.Calls())
	}
	if len(clock.slept) != 1 {
		t.Fatalf("expected exactly one inter-chunk pause, got %d", len(clock.slept))
	}
	if len(decisions) != len(ids) {
		t.Fatalf("expected one decision per id regardless of empty chunk responses, got %d", len(decisions))
	}
	for _, d := range decisions {
		if d.Reasoning != types.FallbackReasoningUnmappable {
			t.Fatalf("expected unmappable fallback reasoning for unreturned id, got %q", d.Reasoning)
		}
	}
}

func TestEvaluateBatch_OracleFailureDegradesToFallback(t *testing.T) {
	stub := &StubCapability{Err: errBoom{}}
	c := NewClient(stub, WithClock(&fakeClock{}))

	decisions, err := c.EvaluateBatch(context.Background(), []string{"a"}, tree("a"), 0, nil, nil)
	if err != nil {
		t.Fatalf("expected no error from a failed oracle call, got %v", err)
	}
	if len(decisions) != 1 {
		t.Fatalf("expected 1 fallback decision, got %d", len(decisions))
	}
	if decisions[0].Visited {
		t.Fatal("expected fallback decision to not grant descent")
	}
	if decisions[0].RelevanceScore != 0 {
		t.Fatalf("expected fallback score 0, got %f", decisions[0].RelevanceScore)
	}
}

func TestEvaluateBatch_MalformedResponseDegradesToFallback(t *testing.T) {
	stub := &StubCapability{Default: `not json at all`}
	c := NewClient(stub, WithClock(&fakeClock{}))

	decisions, err := c.EvaluateBatch(context.Background(), []string{"a"}, tree("a"), 0, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decisions[0].Reasoning == "" {
		t.Fatal("expected a fallback reasoning string")
	}
}

func TestEvaluateBatch_ContextCancelled(t *testing.T) {
	stub := &StubCapability{Default: `{"nodeEvaluations": []}`}
	c := NewClient(stub, WithClock(&fakeClock{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.EvaluateBatch(ctx, []string{"a"}, tree("a"), 0, nil, nil)
	if err == nil {
		t.Fatal("expected context-cancellation error")
	}
}

func TestEvaluateBatch_EmptyIDs(t *testing.T) {
	stub := &StubCapability{Default: `{"nodeEvaluations": []}`}
	c := NewClient(stub, WithClock(&fakeClock{}))

	decisions, err := c.EvaluateBatch(context.Background(), nil, tree(), 0, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decisions) != 0 {
		t.Fatalf("expected no decisions for empty id list, got %d", len(decisions))
	}
	if stub.Calls() != 0 {
		t.Fatalf("expected no oracle calls for empty id list, got %d", stub.Calls())
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
