package nodecontext

import (
	"strings"
	"testing"

	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
)

func TestBuild_LeafNode(t *testing.T) {
	n := &types.LegalNode{Title: "Section 12", Content: "Consumers have a right to a refund within 14 days."}
	got := Build(n)
	if got != "Title: Section 12 | Type: Leaf node (detailed provision)" {
		t.Fatalf("unexpected leaf context: %q", got)
	}
}

func TestBuild_ParentNode(t *testing.T) {
	n := &types.LegalNode{
		Title:    "Chapter 2",
		Content:  "This chapter governs remote sales. It applies to all consumer contracts concluded at a distance.",
		Children: []string{"a", "b"},
		Metadata: &types.NodeMetadata{
			MainThemes: []string{"remote sales", "consumer protection", "distance contracts", "fourth theme"},
			Scope:      strings.Repeat("x", 200),
		},
	}
	got := Build(n)
	if !strings.Contains(got, "Title: Chapter 2") {
		t.Fatalf("expected title in context, got %q", got)
	}
	if !strings.Contains(got, "Type: Parent node (2 children)") {
		t.Fatalf("expected child count, got %q", got)
	}
	if strings.Count(got, ",") > 2 {
		t.Fatalf("expected themes capped at 3 items, got %q", got)
	}
	if strings.Contains(got, strings.Repeat("x", 101)) {
		t.Fatalf("expected scope truncated to 100 chars, got %q", got)
	}
}

func TestContextualPreview_ShortFirstSentenceExtendsToSecond(t *testing.T) {
	content := "Short. This second sentence provides the additional context needed to reach minimum length."
	got := contextualPreview(content, 150)
	if !strings.Contains(got, "Short.") || !strings.Contains(got, "second sentence") {
		t.Fatalf("expected both sentences combined, got %q", got)
	}
}

func TestContextualPreview_TruncatesAtSentenceBoundary(t *testing.T) {
	content := strings.Repeat("word ", 60) + "."
	got := contextualPreview(content, 50)
	if len(got) > 53 {
		t.Fatalf("expected truncated preview near 50 chars, got %d chars", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if strings.Contains(got, "wor ") {
		t.Fatalf("expected truncation at a word boundary, got %q", got)
	}
}

func TestTopN(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	if got := topN(items, 3); len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if got := topN(items[:2], 3); len(got) != 2 {
		t.Fatalf("expected 2 items when fewer than n, got %d", len(got))
	}
}
