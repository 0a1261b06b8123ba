package validate

import (
	"strings"
	"testing"

	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
)

func mustInvalid(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("expected error containing %q, got %q", substr, err.Error())
	}
	if _, ok := err.(*types.InvalidTreeError); !ok {
		t.Fatalf("expected *types.InvalidTreeError, got %T", err)
	}
}

func TestValidate_Valid(t *testing.T) {
	tree := &types.LegalDocumentTree{
		Nodes: map[string]*types.LegalNode{
			"root": {ID: "root", Level: 0, Children: []string{"a", "b"}},
			"a":    {ID: "a", Level: 1},
			"b":    {ID: "b", Level: 1},
		},
		RootNodes: []string{"root"},
	}
	if err := Validate(tree); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_DuplicateRoot(t *testing.T) {
	tree := &types.LegalDocumentTree{
		Nodes:     map[string]*types.LegalNode{"root": {ID: "root"}},
		RootNodes: []string{"root", "root"},
	}
	mustInvalid(t, Validate(tree), "duplicate root id")
}

func TestValidate_DanglingChild(t *testing.T) {
	tree := &types.LegalDocumentTree{
		Nodes: map[string]*types.LegalNode{
			"root": {ID: "root", Children: []string{"ghost"}},
		},
		RootNodes: []string{"root"},
	}
	mustInvalid(t, Validate(tree), "missing child")
}

func TestValidate_MultipleParents(t *testing.T) {
	tree := &types.LegalDocumentTree{
		Nodes: map[string]*types.LegalNode{
			"root":  {ID: "root", Children: []string{"a", "b"}},
			"a":     {ID: "a", Children: []string{"shared"}},
			"b":     {ID: "b", Children: []string{"shared"}},
			"shared": {ID: "shared"},
		},
		RootNodes: []string{"root"},
	}
	mustInvalid(t, Validate(tree), "multiple parents")
}

func TestValidate_Cycle(t *testing.T) {
	tree := &types.LegalDocumentTree{
		Nodes: map[string]*types.LegalNode{
			"root": {ID: "root", Children: []string{"a"}},
			"a":    {ID: "a", Children: []string{"root"}},
		},
		RootNodes: []string{"root"},
	}
	mustInvalid(t, Validate(tree), "cycle")
}

func TestValidate_EmptyRootSet(t *testing.T) {
	tree := &types.LegalDocumentTree{
		Nodes: map[string]*types.LegalNode{"a": {ID: "a"}},
	}
	mustInvalid(t, Validate(tree), "root set is empty")
}

func TestValidate_DepthMismatch(t *testing.T) {
	tree := &types.LegalDocumentTree{
		Nodes: map[string]*types.LegalNode{
			"root": {ID: "root", Level: 0, Children: []string{"a"}},
			"a":    {ID: "a", Level: 5},
		},
		RootNodes: []string{"root"},
	}
	mustInvalid(t, Validate(tree), "traversal-computed depth")
}

func TestValidate_NilTree(t *testing.T) {
	mustInvalid(t, Validate(nil), "tree is nil")
}
