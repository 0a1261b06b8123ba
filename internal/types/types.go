// Package types holds the data model shared by every stage of the
// traversal engine: the legal document tree, the decisions recorded
// against it, and the per-run scratch state that ties them together.
package types

import (
	"errors"
	"fmt"
	"time"
)

// NodeMetadata is the optional, oracle-facing metadata bag attached to a
// LegalNode. Every field is advisory; none is required for traversal.
type NodeMetadata struct {
	Keywords          []string `json:"keywords,omitempty"`
	MainThemes        []string `json:"main_themes,omitempty"`
	KeyPoints         []string `json:"key_points,omitempty"`
	Scope             string   `json:"scope,omitempty"`
	PracticalImpact   string   `json:"practical_impact,omitempty"`
	LegalReferences   []string `json:"legal_references,omitempty"`
	SectionNumber     string   `json:"section_number,omitempty"`
	SectionType       string   `json:"section_type,omitempty"`
}

// LegalNode is one entry in the legal document tree: a part, chapter,
// section, subsection, or leaf provision.
type LegalNode struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Content  string        `json:"content"`
	Level    int           `json:"level"`
	Children []string      `json:"children"`
	Metadata *NodeMetadata `json:"metadata,omitempty"`
}

// IsLeaf reports whether the node has no children.
func (n *LegalNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// LegalDocumentTree is the normalised, validated document: a flat id→node
// map plus the ordered list of root ids. It is treated as immutable for
// the duration of a traversal run.
type LegalDocumentTree struct {
	Nodes     map[string]*LegalNode `json:"nodes"`
	RootNodes []string              `json:"rootNodes"`
}

// Node looks up a node by id, returning (nil, false) if absent.
func (t *LegalDocumentTree) Node(id string) (*LegalNode, bool) {
	n, ok := t.Nodes[id]
	return n, ok
}

// TraversalDecision is one record of a node's evaluation outcome.
// visited means "permission to descend into children", not "was scored" —
// see D2 in the specification: inclusion and descent are independent axes.
type TraversalDecision struct {
	NodeID         string    `json:"nodeId"`
	Depth          int       `json:"depth"`
	Timestamp      time.Time `json:"timestamp"`
	RelevanceScore float64   `json:"relevanceScore"`
	Visited        bool      `json:"visited"`
	Reasoning      string    `json:"reasoning"`
}

// TraversalContext is per-run mutable scratch state. It is created at run
// start and discarded at run end; it is never shared across runs.
type TraversalContext struct {
	CaseInformation           map[string]any
	PreviouslyRelevantTitles  []string
	VisitedNodes              map[string]struct{}
	Decisions                 []TraversalDecision
	CurrentDepth              int
}

// NewTraversalContext creates an empty scratch context for one run.
func NewTraversalContext(caseInformation map[string]any) *TraversalContext {
	return &TraversalContext{
		CaseInformation: caseInformation,
		VisitedNodes:    make(map[string]struct{}),
	}
}

// MarkEnqueued records that nodeID has been scheduled for evaluation, so
// it is never enqueued again by a later descent.
func (c *TraversalContext) MarkEnqueued(nodeID string) {
	c.VisitedNodes[nodeID] = struct{}{}
}

// WasEnqueued reports whether nodeID has already been scheduled.
func (c *TraversalContext) WasEnqueued(nodeID string) bool {
	_, ok := c.VisitedNodes[nodeID]
	return ok
}

// RelevantNode is one entry of the result's ordered relevantNodes list:
// the node body plus the score and reasoning from the decision that
// included it.
type RelevantNode struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Level          int           `json:"level"`
	Content        string        `json:"content"`
	Metadata       *NodeMetadata `json:"metadata,omitempty"`
	RelevanceScore float64       `json:"relevanceScore"`
	Reasoning      string        `json:"reasoning"`
}

// DepthStatistics summarises one depth level of a completed run.
type DepthStatistics struct {
	Depth         int     `json:"depth"`
	TotalNodes    int     `json:"totalNodes"`
	VisitedNodes  int     `json:"visitedNodes"`
	RelevantNodes int     `json:"relevantNodes"`
	AverageScore  float64 `json:"averageScore"`
}

// ScoreDistribution buckets every scored decision into three relevance
// bands.
type ScoreDistribution struct {
	HighRelevance   int `json:"highRelevance"`
	MediumRelevance int `json:"mediumRelevance"`
	LowRelevance    int `json:"lowRelevance"`
}

// Statistics is the derived-statistics portion of a run's result.
type Statistics struct {
	ByDepth           []DepthStatistics `json:"byDepth"`
	ScoreDistribution ScoreDistribution `json:"scoreDistribution"`
}

// Result is the complete egress object for one traversal run.
type Result struct {
	RunID               string                `json:"runId"`
	CompletedAt         time.Time             `json:"completedAt"`
	RelevantNodes       []RelevantNode        `json:"relevantNodes"`
	TraversalPath       []TraversalDecision   `json:"traversalPath"`
	FinalRecommendation string                `json:"finalRecommendation"`
	DocumentNodes       map[string]*LegalNode `json:"documentNodes"`
	Statistics          Statistics            `json:"statistics"`
}

// Sentinel and discriminated errors from the error taxonomy (spec §7).

// MalformedDocumentError is returned when the raw input could not be
// normalised into a canonical tree under any known shape.
type MalformedDocumentError struct {
	Reason string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed document: %s", e.Reason)
}

// InvalidTreeError is returned when a normalised tree violates one of the
// structural invariants I1–I5.
type InvalidTreeError struct {
	Reason string
}

func (e *InvalidTreeError) Error() string {
	return fmt.Sprintf("invalid tree: %s", e.Reason)
}

// OracleFailureKind classifies why an oracle invocation failed.
type OracleFailureKind string

const (
	OracleFailureRateLimit     OracleFailureKind = "rateLimit"
	OracleFailureTimeout       OracleFailureKind = "timeout"
	OracleFailureTokenOverflow OracleFailureKind = "tokenOverflow"
	OracleFailureSchema        OracleFailureKind = "schema"
	OracleFailureOther         OracleFailureKind = "other"
)

// OracleFailureError wraps a failed oracle call with its classified kind.
// It is contained within the chunk that produced it: §4.5/§7 require
// that it never propagate out of the traversal, only degrade to
// fallback decisions.
type OracleFailureError struct {
	Kind OracleFailureKind
	Err  error
}

func (e *OracleFailureError) Error() string {
	return fmt.Sprintf("oracle failure (%s): %v", e.Kind, e.Err)
}

func (e *OracleFailureError) Unwrap() error {
	return e.Err
}

// ErrStoreUnavailable indicates the Result Store could not be written.
// The run's in-memory result is unaffected; only the fetch-latest path
// degrades.
var ErrStoreUnavailable = errors.New("result store unavailable")

// FallbackReasoningUnmappable is the reasoning string stamped onto a
// decision that could not be mapped back from the oracle's response
// (§4.4). Decisions from a failed oracle chunk (§4.5) carry their own
// reason string naming the failure instead.
const FallbackReasoningUnmappable = "Could not map to batch evaluation response"
