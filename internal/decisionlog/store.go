// Package decisionlog builds the derived statistics for a completed run
// (§4.7), persists it as the single-slot Result Store via an atomic
// temp-file-then-rename write grounded on internal/export/manifest.go's
// WriteManifest, and appends an additive audit record to a rotating
// JSONL trail via lumberjack — distinct from the volatile single slot.
package decisionlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
)

// Build derives §4.7's byDepth and scoreDistribution statistics from one
// run's decisions, and assembles the full Result envelope. threshold is
// the run's actual inclusion threshold (traversal.Options.Threshold),
// so byDepth[].RelevantNodes agrees with the relevantNodes list it was
// built alongside rather than some fixed cutoff.
func Build(tree *types.LegalDocumentTree, decisions []types.TraversalDecision, relevantNodes []types.RelevantNode, recommendation string, threshold float64) *types.Result {
	return &types.Result{
		RunID:               uuid.NewString(),
		CompletedAt:         time.Now(),
		RelevantNodes:       relevantNodes,
		TraversalPath:       decisions,
		FinalRecommendation: recommendation,
		DocumentNodes:       tree.Nodes,
		Statistics:          statistics(decisions, threshold),
	}
}

func statistics(decisions []types.TraversalDecision, threshold float64) types.Statistics {
	byDepth := make(map[int]*types.DepthStatistics)
	var maxDepth int
	var high, medium, low int

	for _, d := range decisions {
		ds, ok := byDepth[d.Depth]
		if !ok {
			ds = &types.DepthStatistics{Depth: d.Depth}
			byDepth[d.Depth] = ds
		}
		ds.TotalNodes++
		if d.Visited {
			ds.VisitedNodes++
		}
		ds.AverageScore += d.RelevanceScore
		if d.RelevanceScore > threshold {
			ds.RelevantNodes++
		}
		// Score bands per the egress contract: high >= 0.8, medium in
		// [0.5, 0.8), low < 0.5 — independent of the run's inclusion
		// threshold.
		if d.RelevanceScore >= 0.8 {
			high++
		} else if d.RelevanceScore >= 0.5 {
			medium++
		} else {
			low++
		}
		if d.Depth > maxDepth {
			maxDepth = d.Depth
		}
	}

	out := make([]types.DepthStatistics, 0, len(byDepth))
	for depth := 0; depth <= maxDepth; depth++ {
		ds, ok := byDepth[depth]
		if !ok {
			continue
		}
		if ds.TotalNodes > 0 {
			ds.AverageScore /= float64(ds.TotalNodes)
		}
		out = append(out, *ds)
	}

	return types.Statistics{
		ByDepth: out,
		ScoreDistribution: types.ScoreDistribution{
			HighRelevance:   high,
			MediumRelevance: medium,
			LowRelevance:    low,
		},
	}
}

// Store is the single-slot Result Store (§3's LatestResultSlot): one JSON
// file, replaced atomically on every Put, guarded by an in-process mutex
// so concurrent runs resolve to last-writer-wins rather than a torn file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore opens a Result Store backed by the file at path. The file
// need not already exist.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Put atomically replaces the stored result. A write failure returns
// types.ErrStoreUnavailable wrapping the underlying cause; the caller's
// in-memory result is unaffected either way.
func (s *Store) Put(result *types.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal result: %v", types.ErrStoreUnavailable, err)
	}

	dir := filepath.Dir(s.path)
	base := filepath.Base(s.path)
	tempFile, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", types.ErrStoreUnavailable, err)
	}
	tempPath := tempFile.Name()
	defer func() {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("%w: write temp file: %v", types.ErrStoreUnavailable, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %v", types.ErrStoreUnavailable, err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("%w: replace result file: %v", types.ErrStoreUnavailable, err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to set result store permissions: %v\n", err)
	}
	return nil
}

// Get reads the currently-stored result, or (nil, false) if the slot is
// empty (file absent).
func (s *Store) Get() (*types.Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
	}

	var result types.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("%w: corrupt result file: %v", types.ErrStoreUnavailable, err)
	}
	return &result, true, nil
}

// Clear empties the slot, matching the ingress contract's DELETE
// /results/latest.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
	}
	return nil
}

// AuditEntry is one line of the rotating run-history trail: additive,
// append-only, distinct from the single-slot Store above.
type AuditEntry struct {
	RunID       string    `json:"runId"`
	CompletedAt time.Time `json:"completedAt"`
	NodeCount   int       `json:"nodeCount"`
	Relevant    int       `json:"relevantNodeCount"`
	Recommended string    `json:"finalRecommendation"`
}

// AuditLog appends one JSONL record per completed run to a lumberjack
// rotating file, the additive counterpart to the single-slot Store.
type AuditLog struct {
	writer *lumberjack.Logger
	mu     sync.Mutex
}

// NewAuditLog opens (creating if absent) a rotating audit trail at path,
// rotating at maxSizeMB with up to maxBackups retained.
func NewAuditLog(path string, maxSizeMB, maxBackups int) *AuditLog {
	return &AuditLog{
		writer: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			Compress:   true,
		},
	}
}

// Append writes one audit record for a completed run.
func (a *AuditLog) Append(result *types.Result) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry := AuditEntry{
		RunID:       result.RunID,
		CompletedAt: result.CompletedAt,
		NodeCount:   len(result.DocumentNodes),
		Relevant:    len(result.RelevantNodes),
		Recommended: result.FinalRecommendation,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	data = append(data, '\n')
	_, err = a.writer.Write(data)
	return err
}

// Close flushes and closes the underlying rotating file.
func (a *AuditLog) Close() error {
	return a.writer.Close()
}
