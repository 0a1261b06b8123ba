package traversal

import (
	"context"
	"testing"

	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
)

// scriptedEvaluator returns decisions keyed by node id from a fixed
// table, ignoring depth and chunking — the driver only needs a
// deterministic Evaluator to exercise its own BFS and threshold logic.
type scriptedEvaluator struct {
	byID  map[string]types.TraversalDecision
	calls int
}

func (s *scriptedEvaluator) EvaluateBatch(_ context.Context, ids []string, _ *types.LegalDocumentTree, depth int, _ map[string]any, _ []string) ([]types.TraversalDecision, error) {
	s.calls++
	out := make([]types.TraversalDecision, 0, len(ids))
	for _, id := range ids {
		d, ok := s.byID[id]
		if !ok {
			d = types.TraversalDecision{NodeID: id}
		}
		d.NodeID = id
		d.Depth = depth
		out = append(out, d)
	}
	return out, nil
}

func buildTree() *types.LegalDocumentTree {
	return &types.LegalDocumentTree{
		Nodes: map[string]*types.LegalNode{
			"root": {ID: "root", Title: "root", Children: []string{"a", "b"}},
			"a":    {ID: "a", Title: "a", Children: []string{"a1"}},
			"b":    {ID: "b", Title: "b"},
			"a1":   {ID: "a1", Title: "a1"},
		},
		RootNodes: []string{"root"},
	}
}

func TestRun_IncludesNodesAboveThresholdOnly(t *testing.T) {
	eval := &scriptedEvaluator{byID: map[string]types.TraversalDecision{
		"root": {RelevanceScore: 0.9, Visited: true},
		"a":    {RelevanceScore: 0.2},
		"b":    {RelevanceScore: 0.3},
	}}

	_, relevant, err := Run(context.Background(), buildTree(), eval, nil, Options{Threshold: 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(relevant) != 1 || relevant[0].ID != "root" {
		t.Fatalf("expected strict > threshold to exclude scores equal to threshold, got %+v", relevant)
	}
}

func TestRun_DescentIndependentOfInclusion(t *testing.T) {
	// root scores low (not included) but grants descent; its child should
	// still be visited (D2: inclusion and descent are independent axes).
	eval := &scriptedEvaluator{byID: map[string]types.TraversalDecision{
		"root": {RelevanceScore: 0.1, Visited: true},
		"a":    {RelevanceScore: 0.9, Visited: false},
		"b":    {RelevanceScore: 0.9, Visited: false},
	}}

	_, relevant, err := Run(context.Background(), buildTree(), eval, nil, Options{Threshold: 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(relevant) != 2 {
		t.Fatalf("expected both children to be scored and included despite root's low score, got %+v", relevant)
	}
	if eval.calls != 2 {
		t.Fatalf("expected exactly 2 levels of calls (root, then a+b); a1 should never be reached since a did not grant descent, got %d calls", eval.calls)
	}
}

func TestRun_RespectsMaxDepth(t *testing.T) {
	eval := &scriptedEvaluator{byID: map[string]types.TraversalDecision{
		"root": {RelevanceScore: 0.9, Visited: true},
		"a":    {RelevanceScore: 0.9, Visited: true},
		"b":    {RelevanceScore: 0.9, Visited: true},
		"a1":   {RelevanceScore: 0.9, Visited: true},
	}}

	_, _, err := Run(context.Background(), buildTree(), eval, nil, Options{Threshold: 0.3, MaxDepth: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.calls != 2 {
		t.Fatalf("expected traversal to stop after 2 depth levels, got %d calls", eval.calls)
	}
}

func TestRun_DefaultsAppliedWhenUnset(t *testing.T) {
	eval := &scriptedEvaluator{byID: map[string]types.TraversalDecision{
		"root": {RelevanceScore: 0.5},
	}}

	tctx, _, err := Run(context.Background(), buildTree(), eval, nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tctx.Decisions) == 0 {
		t.Fatal("expected at least one decision recorded")
	}
}

func TestRun_NeverEnqueuesANodeTwice(t *testing.T) {
	// A tree where two parents both list "shared" is invalid per I3 and
	// would be rejected by validate.Validate before reaching the driver,
	// but the driver's own visitedNodes guard is tested in isolation
	// against a hand-built tree that intentionally breaks that invariant,
	// to confirm the guard — not the validator — is what prevents a
	// double-enqueue from corrupting decision counts.
	tree := &types.LegalDocumentTree{
		Nodes: map[string]*types.LegalNode{
			"root": {ID: "root", Children: []string{"a", "b"}},
			"a":    {ID: "a", Children: []string{"shared"}},
			"b":    {ID: "b", Children: []string{"shared"}},
			"shared": {ID: "shared"},
		},
		RootNodes: []string{"root"},
	}
	eval := &scriptedEvaluator{byID: map[string]types.TraversalDecision{
		"root": {RelevanceScore: 0.9, Visited: true},
		"a":    {RelevanceScore: 0.9, Visited: true},
		"b":    {RelevanceScore: 0.9, Visited: true},
		"shared": {RelevanceScore: 0.9, Visited: true},
	}}

	tctx, _, err := Run(context.Background(), tree, eval, nil, Options{Threshold: 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sharedCount := 0
	for _, d := range tctx.Decisions {
		if d.NodeID == "shared" {
			sharedCount++
		}
	}
	if sharedCount != 1 {
		t.Fatalf("expected shared node to be evaluated exactly once, got %d", sharedCount)
	}
}
