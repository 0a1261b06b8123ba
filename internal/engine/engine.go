// Package engine wires the full pipeline end to end: normalise, validate,
// traverse, log, synthesise, store. It is the single place that composes
// every other internal package, the same role cmd/bd/main.go's command
// handlers play for the teacher's store/daemon/sync stack, lifted one
// level out of cmd/ so both the CLI and the HTTP adapter share it.
package engine

import (
	"context"
	"fmt"

	"github.com/Hidde-Heijnen/know-your-rights/internal/decisionlog"
	"github.com/Hidde-Heijnen/know-your-rights/internal/normalize"
	"github.com/Hidde-Heijnen/know-your-rights/internal/oracle"
	"github.com/Hidde-Heijnen/know-your-rights/internal/recommend"
	"github.com/Hidde-Heijnen/know-your-rights/internal/traversal"
	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
	"github.com/Hidde-Heijnen/know-your-rights/internal/validate"
)

// Engine holds the long-lived collaborators a run needs: the oracle
// client used both for traversal decisions and for final synthesis, and
// the places a completed run is recorded.
type Engine struct {
	OracleClient *oracle.Client
	Capability   oracle.Capability
	Store        *decisionlog.Store
	AuditLog     *decisionlog.AuditLog
	MaxDepth     int
	Threshold    float64
}

// Run executes one full traversal: normalise raw, validate the tree,
// drive the level-synchronous BFS, synthesise a recommendation, persist
// the result to the single-slot store, and append an audit record. The
// in-memory Result is always returned on success even if persistence
// fails; StoreUnavailable is reported but does not invalidate the run.
//
// maxDepth optionally overrides e.MaxDepth for this call alone, per the
// ingress contract's per-call maxDepth input; pass nil to use the
// Engine's configured default.
func (e *Engine) Run(ctx context.Context, raw []byte, caseInfo map[string]any, maxDepth *int) (*types.Result, error) {
	tree, err := normalize.Normalise(raw)
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}

	if err := validate.Validate(tree); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	depth := e.MaxDepth
	if maxDepth != nil {
		depth = *maxDepth
	}

	decisions, relevantNodes, err := e.runTraversal(ctx, tree, caseInfo, depth)
	if err != nil {
		return nil, fmt.Errorf("traverse: %w", err)
	}

	synthesis := recommend.Synthesise(ctx, e.Capability, caseInfo, relevantNodes)

	result := decisionlog.Build(tree, decisions, relevantNodes, synthesis.Recommendation, e.Threshold)

	if e.Store != nil {
		if putErr := e.Store.Put(result); putErr != nil {
			fmt.Printf("warning: %v\n", putErr)
		}
	}
	if e.AuditLog != nil {
		if appendErr := e.AuditLog.Append(result); appendErr != nil {
			fmt.Printf("warning: failed to append audit entry: %v\n", appendErr)
		}
	}

	return result, nil
}

// ValidateOnly runs the Normaliser and Validator alone, without spending
// any oracle budget — the cheap pre-flight check behind `traverse
// validate`, grounded on cmd/bd/config.go's validateSyncConfig pattern
// of a standalone validation path distinct from the expensive main
// operation.
func ValidateOnly(raw []byte) (*types.LegalDocumentTree, error) {
	tree, err := normalize.Normalise(raw)
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}
	if err := validate.Validate(tree); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return tree, nil
}

func (e *Engine) runTraversal(ctx context.Context, tree *types.LegalDocumentTree, caseInfo map[string]any, maxDepth int) ([]types.TraversalDecision, []types.RelevantNode, error) {
	tctx, relevantNodes, err := traversal.Run(ctx, tree, e.OracleClient, caseInfo, traversal.Options{
		MaxDepth:  maxDepth,
		Threshold: e.Threshold,
	})
	if err != nil {
		return nil, nil, err
	}
	return tctx.Decisions, relevantNodes, nil
}
