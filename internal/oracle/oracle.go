// Package oracle wraps the LLM relevance oracle behind an abstract
// Capability, exactly as Design Note "Oracle as capability" asks: the
// traversal engine never depends on a specific provider, only on
// {prompt, schema → JSON}. The production Capability talks to Claude via
// anthropics/anthropic-sdk-go (internal/oracle/client.go); a
// deterministic stub backs every test (internal/oracle/stub.go).
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Hidde-Heijnen/know-your-rights/internal/reconcile"
	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
)

// MaxBatchSize is the largest number of node ids submitted to the oracle
// in a single call (spec §4.5).
const MaxBatchSize = 5

// interChunkPause is the mandatory pacing delay between sequential
// chunks of the same batch.
const interChunkPause = 1 * time.Second

// Capability is the abstract LLM surface the engine depends on: send a
// prompt, get back raw text. Schema enforcement happens one layer up, by
// parsing and validating the JSON the prompt asked for — matching
// cmd/bd/find_duplicates.go's analyzeWithAI, which also treats the model
// as a free-text JSON generator rather than assuming structured tool
// output.
type Capability interface {
	Complete(ctx context.Context, prompt string, maxTokens int64) (string, error)
}

// Clock abstracts time.Now/time.Sleep so tests can run a multi-chunk
// batch without actually waiting between chunks.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time      { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// AuditFunc receives one record per oracle invocation (successful or
// not), the way internal/audit.Append records one entry per LLM call in
// the teacher. It is best-effort: a failing AuditFunc never fails the
// traversal.
type AuditFunc func(entry AuditEntry)

// AuditEntry is one oracle-call record for the audit trail.
type AuditEntry struct {
	Timestamp time.Time
	Depth     int
	NodeIDs   []string
	Prompt    string
	Response  string
	Err       error
}

// Client is the Batch Oracle Client: it chunks a level's worth of node
// ids, paces calls to respect rate limits, reconciles responses back to
// requested ids, and always emits exactly one Decision per requested id
// (§4.5, D3).
type Client struct {
	capability Capability
	clock      Clock
	audit      AuditFunc
	metrics    MetricsRecorder
	maxTokens  int64
}

// Option configures a Client.
type Option func(*Client)

// WithClock overrides the default wall-clock, primarily for tests.
func WithClock(c Clock) Option {
	return func(cl *Client) { cl.clock = c }
}

// WithAudit attaches a best-effort audit hook.
func WithAudit(fn AuditFunc) Option {
	return func(cl *Client) { cl.audit = fn }
}

// WithMetrics attaches an OpenTelemetry-backed metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(cl *Client) { cl.metrics = m }
}

// NewClient builds a Batch Oracle Client around the given Capability.
func NewClient(capability Capability, opts ...Option) *Client {
	c := &Client{
		capability: capability,
		clock:      realClock{},
		metrics:    noopMetrics{},
		maxTokens:  4096,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EvaluateBatch evaluates every id in ids against caseInfo, returning
// exactly one Decision per id (D3) regardless of any individual chunk's
// success or failure. The only error this can return is a
// context-cancellation error surfaced before any call was attempted;
// every other failure mode degrades to fallback decisions per §7.
func (c *Client) EvaluateBatch(ctx context.Context, ids []string, tree *types.LegalDocumentTree, depth int, caseInfo map[string]any, previouslyRelevantTitles []string) ([]types.TraversalDecision, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if len(ids) == 0 {
		return nil, nil
	}

	decisions := make([]types.TraversalDecision, 0, len(ids))
	for start := 0; start < len(ids); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		if start > 0 {
			c.clock.Sleep(interChunkPause)
		}

		decisions = append(decisions, c.evaluateChunk(ctx, chunk, tree, depth, caseInfo, previouslyRelevantTitles)...)
	}
	return decisions, nil
}

func (c *Client) evaluateChunk(ctx context.Context, ids []string, tree *types.LegalDocumentTree, depth int, caseInfo map[string]any, previouslyRelevantTitles []string) []types.TraversalDecision {
	now := c.clock.Now()

	prompt := buildPrompt(ids, tree, caseInfo, previouslyRelevantTitles)

	callStart := c.clock.Now()
	responseText, err := callWithRetry(ctx, c.capability, prompt, c.maxTokens)
	c.metrics.RecordChunkLatency(ctx, depth, float64(c.clock.Now().Sub(callStart).Milliseconds()))

	if c.audit != nil {
		c.audit(AuditEntry{Timestamp: now, Depth: depth, NodeIDs: ids, Prompt: prompt, Response: responseText, Err: err})
	}

	if err != nil {
		kind := classifyFailure(err)
		c.metrics.RecordOracleFailure(ctx, kind)
		return fallbackDecisions(ids, depth, now, fmt.Sprintf("oracle call failed (%s): %v", kind, err))
	}

	evaluations, parseErr := parseEvaluations(responseText)
	if parseErr != nil {
		c.metrics.RecordOracleFailure(ctx, types.OracleFailureSchema)
		return fallbackDecisions(ids, depth, now, fmt.Sprintf("oracle response did not match schema: %v", parseErr))
	}

	results, unconsumed := reconcile.Reconcile(ids, evaluations)
	if len(unconsumed) > 0 {
		c.metrics.RecordReconciliationMismatch(ctx, len(unconsumed))
	}

	decisions := make([]types.TraversalDecision, 0, len(ids))
	for _, r := range results {
		if r.Evaluation == nil {
			decisions = append(decisions, types.TraversalDecision{
				NodeID:         r.RequestedID,
				Depth:          depth,
				Timestamp:      now,
				RelevanceScore: 0,
				Visited:        false,
				Reasoning:      types.FallbackReasoningUnmappable,
			})
			continue
		}
		decisions = append(decisions, types.TraversalDecision{
			NodeID:         r.RequestedID,
			Depth:          depth,
			Timestamp:      now,
			RelevanceScore: r.Evaluation.RelevanceScore,
			Visited:        r.Evaluation.ShouldExploreChildren,
			Reasoning:      r.Evaluation.Reasoning,
		})
	}
	return decisions
}

func fallbackDecisions(ids []string, depth int, now time.Time, reason string) []types.TraversalDecision {
	decisions := make([]types.TraversalDecision, 0, len(ids))
	for _, id := range ids {
		decisions = append(decisions, types.TraversalDecision{
			NodeID:         id,
			Depth:          depth,
			Timestamp:      now,
			RelevanceScore: 0,
			Visited:        false,
			Reasoning:      reason,
		})
	}
	return decisions
}

type evaluationResponse struct {
	NodeEvaluations []struct {
		NodeID                string  `json:"nodeId"`
		IsRelevant            bool    `json:"isRelevant"`
		RelevanceScore        float64 `json:"relevanceScore"`
		Reasoning             string  `json:"reasoning"`
		ShouldExploreChildren bool    `json:"shouldExploreChildren"`
	} `json:"nodeEvaluations"`
}

// parseEvaluations extracts the nodeEvaluations array from the oracle's
// text response, tolerating surrounding prose or a markdown code fence
// the way cmd/bd/find_duplicates.go's analyzeWithAI tolerates them
// around its JSON array.
func parseEvaluations(responseText string) ([]reconcile.Evaluation, error) {
	jsonText := responseText
	if idx := strings.Index(jsonText, "{"); idx >= 0 {
		jsonText = jsonText[idx:]
	}
	if idx := strings.LastIndex(jsonText, "}"); idx >= 0 {
		jsonText = jsonText[:idx+1]
	}

	var parsed evaluationResponse
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse nodeEvaluations: %w", err)
	}

	out := make([]reconcile.Evaluation, 0, len(parsed.NodeEvaluations))
	for _, e := range parsed.NodeEvaluations {
		out = append(out, reconcile.Evaluation{
			NodeID:                e.NodeID,
			IsRelevant:            e.IsRelevant,
			RelevanceScore:        e.RelevanceScore,
			Reasoning:             e.Reasoning,
			ShouldExploreChildren: e.ShouldExploreChildren,
		})
	}
	return out, nil
}
