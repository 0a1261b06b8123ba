// Package recommend implements the Recommendation Synthesiser (§4.8):
// one oracle call over the ordered relevant nodes, producing a single
// natural-language recommendation plus structured confidence and key
// findings, parsed the same tolerant way
// cmd/bd/find_duplicates.go's analyzeWithAI parses a JSON object out of
// free text.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Hidde-Heijnen/know-your-rights/internal/oracle"
	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
)

const maxTokens = 2048

const promptTemplate = `You are advising on a consumer-rights case. Based on the following relevant legal provisions (ordered by relevance), produce a recommendation.

Case information:
%s

Relevant provisions:
%s

Respond with a single JSON object of this exact shape:
{"recommendation": "...", "confidence": 0.0, "keyFindings": ["...", "..."], "additionalInfoNeeded": "..."}

confidence is a number between 0 and 1. additionalInfoNeeded is optional; omit or leave empty if nothing further is needed.`

// Synthesis is the structured result of one synthesis call.
type Synthesis struct {
	Recommendation       string   `json:"recommendation"`
	Confidence           float64  `json:"confidence"`
	KeyFindings          []string `json:"keyFindings"`
	AdditionalInfoNeeded string   `json:"additionalInfoNeeded,omitempty"`
}

// Synthesise calls the oracle once over relevantNodes and returns the
// parsed synthesis. On any failure — call error or malformed response —
// it degrades to a deterministic fallback recommendation string rather
// than propagating an error, mirroring the oracle client's own
// never-fail-the-run posture (§4.5, §7).
func Synthesise(ctx context.Context, capability oracle.Capability, caseInfo map[string]any, relevantNodes []types.RelevantNode) *Synthesis {
	if len(relevantNodes) == 0 {
		return &Synthesis{
			Recommendation: "No provisions were found relevant to this case; consult a qualified adviser directly.",
			Confidence:     0,
		}
	}

	prompt := fmt.Sprintf(promptTemplate, formatCaseInfo(caseInfo), formatProvisions(relevantNodes))

	responseText, err := capability.Complete(ctx, prompt, maxTokens)
	if err != nil {
		return fallback(relevantNodes, fmt.Sprintf("synthesis call failed: %v", err))
	}

	synthesis, parseErr := parse(responseText)
	if parseErr != nil {
		return fallback(relevantNodes, fmt.Sprintf("synthesis response did not match schema: %v", parseErr))
	}
	return synthesis
}

func fallback(relevantNodes []types.RelevantNode, reason string) *Synthesis {
	titles := make([]string, 0, len(relevantNodes))
	for _, n := range relevantNodes {
		titles = append(titles, n.Title)
	}
	return &Synthesis{
		Recommendation: fmt.Sprintf("Unable to synthesise a recommendation (%s). Review the following provisions directly: %s.", reason, strings.Join(titles, "; ")),
		Confidence:     0,
		KeyFindings:    titles,
	}
}

func parse(responseText string) (*Synthesis, error) {
	jsonText := responseText
	if idx := strings.Index(jsonText, "{"); idx >= 0 {
		jsonText = jsonText[idx:]
	}
	if idx := strings.LastIndex(jsonText, "}"); idx >= 0 {
		jsonText = jsonText[:idx+1]
	}

	var synthesis Synthesis
	if err := json.Unmarshal([]byte(jsonText), &synthesis); err != nil {
		return nil, fmt.Errorf("failed to parse synthesis: %w", err)
	}
	if synthesis.Recommendation == "" {
		return nil, fmt.Errorf("synthesis response missing recommendation")
	}
	return &synthesis, nil
}

func formatCaseInfo(caseInfo map[string]any) string {
	keys := make([]string, 0, len(caseInfo))
	for k := range caseInfo {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, caseInfo[k])
	}
	return b.String()
}

func formatProvisions(relevantNodes []types.RelevantNode) string {
	var b strings.Builder
	for i, n := range relevantNodes {
		fmt.Fprintf(&b, "%d. %s (score %.2f): %s\n", i+1, n.Title, n.RelevanceScore, n.Content)
	}
	return b.String()
}
