package oracle

import (
	"context"
	"fmt"
)

// StubCapability is a deterministic test double for Capability: it never
// calls a real model, and lets tests script exact responses per call
// (or a fixed response for every call). This is the "stub for tests"
// Design Note "Oracle as capability" calls for.
type StubCapability struct {
	// Responses is consumed one call at a time; once exhausted, Default
	// is used for every further call.
	Responses []string
	Default   string

	// Err, if set, is returned by every call instead of a response.
	Err error

	calls int
}

// Calls returns how many times Complete has been invoked.
func (s *StubCapability) Calls() int { return s.calls }

func (s *StubCapability) Complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	s.calls++
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if s.Err != nil {
		return "", s.Err
	}
	idx := s.calls - 1
	if idx < len(s.Responses) {
		return s.Responses[idx], nil
	}
	if s.Default != "" {
		return s.Default, nil
	}
	return "", fmt.Errorf("stub capability: no scripted response for call %d", s.calls)
}
