// Package validate checks a types.LegalDocumentTree against the
// structural invariants I1–I5 before it is handed to the traversal
// driver.
package validate

import (
	"fmt"

	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
)

// Validate checks I1 (uniqueness is implicit in the map keying), I2
// (referential integrity), I3 (single-parent tree, no cycles), I5
// (non-empty root set) and I4 (depth monotonicity), in that fixed order,
// and names the first violation found.
func Validate(tree *types.LegalDocumentTree) error {
	if tree == nil {
		return &types.InvalidTreeError{Reason: "tree is nil"}
	}
	if err := checkDuplicateReferences(tree); err != nil {
		return err
	}
	if err := checkDanglingChildren(tree); err != nil {
		return err
	}
	if err := checkSingleParentAndCycles(tree); err != nil {
		return err
	}
	if err := checkRootSet(tree); err != nil {
		return err
	}
	return checkDepthMonotonicity(tree)
}

// checkDuplicateReferences is a defensive check for callers that built a
// LegalDocumentTree by hand rather than through the Normaliser: Go's
// map[string]*LegalNode keying already guarantees I1 for ids reachable
// as map keys, but root ids are a separate list and can still collide or
// dangle.
func checkDuplicateReferences(tree *types.LegalDocumentTree) error {
	seen := make(map[string]bool, len(tree.RootNodes))
	for _, r := range tree.RootNodes {
		if seen[r] {
			return &types.InvalidTreeError{Reason: fmt.Sprintf("duplicate root id %q", r)}
		}
		seen[r] = true
	}
	return nil
}

func checkDanglingChildren(tree *types.LegalDocumentTree) error {
	for _, r := range tree.RootNodes {
		if _, ok := tree.Nodes[r]; !ok {
			return &types.InvalidTreeError{Reason: fmt.Sprintf("root id %q does not exist in nodes", r)}
		}
	}
	for id, n := range tree.Nodes {
		for _, c := range n.Children {
			if _, ok := tree.Nodes[c]; !ok {
				return &types.InvalidTreeError{Reason: fmt.Sprintf("node %q references missing child %q", id, c)}
			}
		}
	}
	return nil
}

// checkSingleParentAndCycles verifies I3 as far as it goes: no node
// appears in more than one parent's children, and nothing reachable from
// a root lies on a cycle. A node that is neither a root nor anyone's
// child is not rejected.
func checkSingleParentAndCycles(tree *types.LegalDocumentTree) error {
	parentOf := make(map[string]string)
	for id, n := range tree.Nodes {
		for _, c := range n.Children {
			if prev, ok := parentOf[c]; ok && prev != id {
				return &types.InvalidTreeError{Reason: fmt.Sprintf("node %q has multiple parents (%q and %q)", c, prev, id)}
			}
			parentOf[c] = id
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(tree.Nodes))
	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case gray:
			return &types.InvalidTreeError{Reason: fmt.Sprintf("cycle detected at node %q", id)}
		case black:
			return nil
		}
		color[id] = gray
		if n, ok := tree.Nodes[id]; ok {
			for _, c := range n.Children {
				if err := visit(c); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}
	for _, r := range tree.RootNodes {
		if err := visit(r); err != nil {
			return err
		}
	}
	// Nodes not reachable from any root (a node that is neither a root nor
	// anyone's child, and its descendants) are not checked for cycles and
	// are never visited by the traversal.
	return nil
}

func checkRootSet(tree *types.LegalDocumentTree) error {
	if len(tree.RootNodes) == 0 {
		return &types.InvalidTreeError{Reason: "root set is empty"}
	}
	return nil
}

// checkDepthMonotonicity verifies I4 by recomputing depth from the roots
// and comparing against each node's stored Level. Per the invariant's
// tie-break, disagreement is itself the violation being reported — the
// Normaliser is expected to have already recomputed Level via BFS, so a
// hand-built tree that skips that step is what this check catches.
func checkDepthMonotonicity(tree *types.LegalDocumentTree) error {
	computed := make(map[string]int, len(tree.Nodes))
	type item struct {
		id    string
		depth int
	}
	queue := make([]item, 0, len(tree.RootNodes))
	for _, r := range tree.RootNodes {
		queue = append(queue, item{id: r, depth: 0})
	}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if _, ok := computed[it.id]; ok {
			continue
		}
		computed[it.id] = it.depth
		n, ok := tree.Nodes[it.id]
		if !ok {
			continue
		}
		for _, c := range n.Children {
			queue = append(queue, item{id: c, depth: it.depth + 1})
		}
	}
	for id, depth := range computed {
		n := tree.Nodes[id]
		if n.Level != depth {
			return &types.InvalidTreeError{Reason: fmt.Sprintf("node %q has level %d but traversal-computed depth %d", id, n.Level, depth)}
		}
	}
	return nil
}
