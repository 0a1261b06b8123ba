// Package reconcile maps oracle-returned node identifiers back to the
// ids that were actually requested, under the four-strategy cascade from
// spec §4.4: exact match, number-prefix match, key-phrase match, and
// fuzzy string match. Every received entry is consumed at most once,
// first-match-wins, and requested ids are processed in submission order
// so reconciliation is fully deterministic (R3, R4).
package reconcile

import (
	"math"
	"regexp"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Evaluation is the oracle's per-node response shape, keyed by whatever
// nodeId it chose to echo back.
type Evaluation struct {
	NodeID                string
	IsRelevant            bool
	RelevanceScore        float64
	Reasoning             string
	ShouldExploreChildren bool
}

// Result is the outcome of reconciling one requested id: either a
// matched Evaluation, or nil when no strategy in the cascade succeeded.
type Result struct {
	RequestedID string
	Evaluation  *Evaluation // nil on no match
}

// Reconcile matches each of requestedIDs (in order) against received,
// consuming at most one received entry per match. It returns one Result
// per requested id, plus the subset of received entries that were never
// consumed (useful for diagnostic logging of a mismatched response).
func Reconcile(requestedIDs []string, received []Evaluation) ([]Result, []Evaluation) {
	consumed := make([]bool, len(received))
	results := make([]Result, 0, len(requestedIDs))

	for _, reqID := range requestedIDs {
		idx := findMatch(reqID, received, consumed)
		if idx < 0 {
			results = append(results, Result{RequestedID: reqID})
			continue
		}
		consumed[idx] = true
		eval := received[idx]
		results = append(results, Result{RequestedID: reqID, Evaluation: &eval})
	}

	var unconsumed []Evaluation
	for i, e := range received {
		if !consumed[i] {
			unconsumed = append(unconsumed, e)
		}
	}
	return results, unconsumed
}

func findMatch(reqID string, received []Evaluation, consumed []bool) int {
	strategies := []func(string, string) bool{
		exactMatch,
		numberPrefixMatch,
		keyPhraseMatch,
		fuzzyMatch,
	}
	for _, strategy := range strategies {
		for i, e := range received {
			if consumed[i] {
				continue
			}
			if strategy(reqID, e.NodeID) {
				return i
			}
		}
	}
	return -1
}

// --- strategy 1: exact match ---

func exactMatch(requested, received string) bool {
	return requested == received
}

// --- strategy 2: number-prefix match ---

var leadingIntRE = regexp.MustCompile(`^\s*(\d+)`)
var bareDigitsRE = regexp.MustCompile(`^\d+$`)

func numberPrefixMatch(requested, received string) bool {
	reqNum := leadingIntRE.FindString(requested)
	recvNum := leadingIntRE.FindString(received)
	if reqNum != "" && recvNum != "" && strings.TrimSpace(reqNum) == strings.TrimSpace(recvNum) {
		return true
	}
	if bareDigitsRE.MatchString(strings.TrimSpace(received)) {
		prefix := strings.TrimSpace(received) + " "
		if strings.HasPrefix(requested, prefix) {
			return true
		}
	}
	return false
}

// --- strategy 3: key-phrase match ---

var stopWords = map[string]bool{
	"the": true, "and": true, "of": true, "to": true, "in": true, "on": true,
	"for": true, "a": true, "an": true, "or": true, "is": true, "are": true,
	"be": true, "this": true, "that": true, "with": true, "as": true,
	"by": true, "at": true, "from": true, "it": true, "its": true,
}

var wordRE = regexp.MustCompile(`[a-z0-9]+`)

func keyWords(s string) []string {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) > 2 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

func keyPhraseMatch(requested, received string) bool {
	reqWords := keyWords(requested)
	if len(reqWords) == 0 {
		return false
	}
	recvWords := keyWords(received)
	if len(recvWords) == 0 {
		return false
	}

	overlap := 0
	for _, rw := range reqWords {
		for _, ow := range recvWords {
			if strings.Contains(rw, ow) || strings.Contains(ow, rw) || levenshteinDistance(rw, ow) <= 1 {
				overlap++
				break
			}
		}
	}

	needed := int(math.Ceil(0.5 * float64(len(reqWords))))
	if needed < 2 {
		needed = 2
	}
	return overlap >= needed
}

// --- strategy 4: fuzzy string match ---

var nonAlnumRE = regexp.MustCompile(`[^a-z0-9]+`)

func normaliseAlnum(s string) string {
	return nonAlnumRE.ReplaceAllString(strings.ToLower(s), "")
}

func fuzzyMatch(requested, received string) bool {
	a := normaliseAlnum(requested)
	b := normaliseAlnum(received)
	if a == "" || b == "" {
		return false
	}

	shorter, longer := a, b
	if len(b) < len(a) {
		shorter, longer = b, a
	}
	if len(shorter) >= 5 && strings.Contains(longer, shorter) {
		return true
	}
	if fuzzy.MatchFold(shorter, longer) && len(shorter) >= 5 {
		return true
	}

	if len(a) <= 20 && len(b) <= 20 {
		return levenshteinSimilarity(a, b) >= 0.70
	}
	return false
}
