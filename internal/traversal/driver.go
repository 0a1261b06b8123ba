// Package traversal implements the level-synchronous breadth-first
// Traversal Driver (spec §4.6): a strict depth bound, a FIFO queue, and
// two independent axes per decision — inclusion in the result and
// permission to descend — rather than conflating "scored" with
// "included" or "included" with "descended" (Design Note
// "Decision/inclusion separation").
package traversal

import (
	"context"

	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
)

// DefaultMaxDepth is the traversal depth bound used when the caller does
// not specify one.
const DefaultMaxDepth = 8

// DefaultThreshold is the permissive-exploration relevance threshold
// (spec §4.6). The stricter 0.65 is equally valid; both are supported by
// passing Threshold explicitly.
const DefaultThreshold = 0.3

// Evaluator is the single seam the driver calls through, satisfied by
// *oracle.Client in production. It is kept minimal and decoupled from
// the oracle package so the driver can be tested against any evaluator,
// including one that never performs I/O.
type Evaluator interface {
	EvaluateBatch(ctx context.Context, ids []string, tree *types.LegalDocumentTree, depth int, caseInfo map[string]any, previouslyRelevantTitles []string) ([]types.TraversalDecision, error)
}

// Options configures one traversal run.
type Options struct {
	MaxDepth  int     // strict depth bound; decisions never exceed depth == MaxDepth-1
	Threshold float64 // inclusion cutoff; a decision is included iff score > Threshold (strict, per spec's resolved Open Question)
}

// queueItem is one FIFO entry: a node id scheduled to be evaluated at a
// given depth.
type queueItem struct {
	nodeID string
	depth  int
}

// Run executes one complete BFS traversal over tree, calling evaluator
// once per level (possibly chunked internally by the evaluator), and
// returns the ordered relevant nodes plus the full per-run context
// (decisions, in submission order, depth-major per §5's ordering
// guarantee).
func Run(ctx context.Context, tree *types.LegalDocumentTree, evaluator Evaluator, caseInfo map[string]any, opts Options) (*types.TraversalContext, []types.RelevantNode, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	threshold := opts.Threshold

	tctx := types.NewTraversalContext(caseInfo)
	var relevantNodes []types.RelevantNode
	var previouslyRelevantTitles []string

	queue := make([]queueItem, 0, len(tree.RootNodes))
	for _, rootID := range tree.RootNodes {
		queue = append(queue, queueItem{nodeID: rootID, depth: 0})
		tctx.MarkEnqueued(rootID)
	}

	for depth := 0; depth < maxDepth; depth++ {
		if ctx.Err() != nil {
			return tctx, relevantNodes, ctx.Err()
		}

		var currentLevel []queueItem
		var rest []queueItem
		for _, q := range queue {
			if q.depth == depth {
				currentLevel = append(currentLevel, q)
			} else {
				rest = append(rest, q)
			}
		}
		queue = rest

		if len(currentLevel) == 0 {
			break
		}

		tctx.CurrentDepth = depth
		ids := make([]string, len(currentLevel))
		for i, q := range currentLevel {
			ids[i] = q.nodeID
		}

		decisions, err := evaluator.EvaluateBatch(ctx, ids, tree, depth, caseInfo, previouslyRelevantTitles)
		if err != nil {
			return tctx, relevantNodes, err
		}

		for _, decision := range decisions {
			if decision.RelevanceScore > threshold {
				node, ok := tree.Node(decision.NodeID)
				if ok {
					relevantNodes = append(relevantNodes, types.RelevantNode{
						ID:             node.ID,
						Title:          node.Title,
						Level:          node.Level,
						Content:        node.Content,
						Metadata:       node.Metadata,
						RelevanceScore: decision.RelevanceScore,
						Reasoning:      decision.Reasoning,
					})
					previouslyRelevantTitles = append(previouslyRelevantTitles, node.Title)
				}
			}

			if decision.Visited && depth+1 < maxDepth {
				if node, ok := tree.Node(decision.NodeID); ok {
					for _, childID := range node.Children {
						if tctx.WasEnqueued(childID) {
							continue
						}
						queue = append(queue, queueItem{nodeID: childID, depth: depth + 1})
						tctx.MarkEnqueued(childID)
					}
				}
			}

			tctx.Decisions = append(tctx.Decisions, decision)
		}
	}

	return tctx, relevantNodes, nil
}
