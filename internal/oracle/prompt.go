package oracle

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/Hidde-Heijnen/know-your-rights/internal/nodecontext"
	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
)

// batchPromptTemplate mirrors the structure of the teacher's
// tier1PromptTemplate (internal/compact/haiku.go): a fixed preamble, one
// block of interpolated data per item, and an explicit instruction about
// the exact response shape expected.
var batchPromptTemplate = template.Must(template.New("batch").Parse(`You are evaluating sections of a consumer-rights statute for relevance to a specific case.

**Case information:**
{{.CaseInfo}}

{{if .PreviouslyRelevant}}**Previously found relevant (for continuity, do not re-justify these):**
{{range .PreviouslyRelevant}}- {{.}}
{{end}}
{{end}}
**Nodes to evaluate (use the submitted nodeId verbatim in your response):**
{{range .Nodes}}- nodeId: {{.ID}}
  {{.Context}}
{{end}}
Respond with a single JSON object of the exact shape:
{"nodeEvaluations": [{"nodeId": string, "isRelevant": boolean, "relevanceScore": number between 0 and 1, "reasoning": string, "shouldExploreChildren": boolean}, ...]}

Return exactly one entry per submitted nodeId, in the same order, using the submitted nodeId verbatim. Respond with ONLY the JSON object, no other text.`))

type promptNode struct {
	ID      string
	Context string
}

type promptData struct {
	CaseInfo           string
	PreviouslyRelevant []string
	Nodes              []promptNode
}

func buildPrompt(ids []string, tree *types.LegalDocumentTree, caseInfo map[string]any, previouslyRelevantTitles []string) string {
	data := promptData{
		CaseInfo:           formatCaseInfo(caseInfo),
		PreviouslyRelevant: previouslyRelevantTitles,
	}
	for _, id := range ids {
		node, ok := tree.Node(id)
		if !ok {
			data.Nodes = append(data.Nodes, promptNode{ID: id, Context: "Title: (unknown node)"})
			continue
		}
		data.Nodes = append(data.Nodes, promptNode{ID: id, Context: nodecontext.Build(node)})
	}

	var b strings.Builder
	// text/template.Execute only errors on malformed input data or a
	// template bug, neither of which is recoverable at runtime — callers
	// can't remediate it, so it is not surfaced as an EvaluateBatch error.
	_ = batchPromptTemplate.Execute(&b, data)
	return b.String()
}

func formatCaseInfo(caseInfo map[string]any) string {
	if len(caseInfo) == 0 {
		return "(no structured case information provided)"
	}
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
