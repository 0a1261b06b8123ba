// Package nodecontext builds the token-efficient textual context the
// oracle sees per node (spec §4.3). Leaves get a one-line title-only
// blob; parents get a richer preview built from a handful of bounded
// snippets, since a parent's shouldExploreChildren decision drives the
// width of the rest of the traversal and deserves it.
package nodecontext

import (
	"fmt"
	"strings"

	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
)

const (
	contentPreviewLen    = 150
	scopeSnippetLen      = 100
	practicalImpactLen   = 80
	maxListItems         = 3
	minFirstSentenceLen  = 20
)

// Build returns the oracle-facing context string for one node.
func Build(n *types.LegalNode) string {
	if n.IsLeaf() {
		return fmt.Sprintf("Title: %s | Type: Leaf node (detailed provision)", n.Title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s", n.Title)

	if preview := contextualPreview(n.Content, contentPreviewLen); preview != "" {
		fmt.Fprintf(&b, " | Preview: %s", preview)
	}

	if n.Metadata != nil {
		if themes := topN(n.Metadata.MainThemes, maxListItems); len(themes) > 0 {
			fmt.Fprintf(&b, " | Themes: %s", strings.Join(themes, ", "))
		}
		if points := topN(n.Metadata.KeyPoints, maxListItems); len(points) > 0 {
			fmt.Fprintf(&b, " | Key points: %s", strings.Join(points, ", "))
		}
		if snippet := truncate(n.Metadata.Scope, scopeSnippetLen); snippet != "" {
			fmt.Fprintf(&b, " | Scope: %s", snippet)
		}
		if snippet := truncate(n.Metadata.PracticalImpact, practicalImpactLen); snippet != "" {
			fmt.Fprintf(&b, " | Impact: %s", snippet)
		}
	}

	fmt.Fprintf(&b, " | Type: Parent node (%d children)", len(n.Children))
	return b.String()
}

// contextualPreview returns a ~limit-character preview of content,
// preferring the first sentence, extending to the second sentence when
// the first is shorter than minFirstSentenceLen, and, when the result
// still exceeds limit, cutting it at the last space before limit and
// appending an ellipsis.
func contextualPreview(content string, limit int) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	sentences := splitSentences(content)
	if len(sentences) == 0 {
		return truncate(content, limit)
	}

	preview := sentences[0]
	if len(preview) < minFirstSentenceLen && len(sentences) > 1 {
		preview = preview + " " + sentences[1]
	}

	if len(preview) <= limit {
		return strings.TrimSpace(preview)
	}
	return truncateAtSentenceBoundary(preview, limit)
}

// splitSentences splits on '.', '!' and '?' while keeping the terminator
// attached to its sentence. It is a lightweight heuristic, not a full
// sentence tokenizer: the node context only needs "roughly right".
func splitSentences(s string) []string {
	var sentences []string
	start := 0
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			end := i + 1
			sentence := strings.TrimSpace(s[start:end])
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			start = end
		}
	}
	if start < len(s) {
		rest := strings.TrimSpace(s[start:])
		if rest != "" {
			sentences = append(sentences, rest)
		}
	}
	return sentences
}

// truncateAtSentenceBoundary truncates s to at most limit characters,
// preferring to cut at the last whitespace boundary before the limit so
// words are never split, and appends an ellipsis.
func truncateAtSentenceBoundary(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	return truncateAtSentenceBoundary(s, limit)
}

func topN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
