package oracle

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/cenkalti/backoff/v4"

	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
)

// maxRetryElapsed bounds how long callWithRetry keeps retrying a single
// chunk before giving up and letting the chunk degrade to fallback
// decisions, mirroring the bounded backoff.NewExponentialBackOff used
// around dolt server calls in internal/storage/dolt/store.go.
const maxRetryElapsed = 15 * time.Second

// callWithRetry invokes capability.Complete under an exponential backoff
// policy, treating non-retryable errors (bad request, auth, content
// policy) as permanent so they fail fast instead of burning the retry
// budget.
func callWithRetry(ctx context.Context, capability Capability, prompt string, maxTokens int64) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxRetryElapsed

	var response string
	operation := func() error {
		resp, err := capability.Complete(ctx, prompt, maxTokens)
		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		response = resp
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))
	if err != nil {
		return "", unwrapPermanent(err)
	}
	return response, nil
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}

	return false
}

// classifyFailure maps an error from a failed oracle call onto the
// taxonomy's OracleFailureKind, for the decision log and metrics.
func classifyFailure(err error) types.OracleFailureKind {
	if err == nil {
		return types.OracleFailureOther
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.OracleFailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.OracleFailureTimeout
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return types.OracleFailureRateLimit
		case apiErr.StatusCode == 413:
			return types.OracleFailureTokenOverflow
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"):
		return types.OracleFailureRateLimit
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return types.OracleFailureTimeout
	case strings.Contains(msg, "token") && (strings.Contains(msg, "exceed") || strings.Contains(msg, "too many") || strings.Contains(msg, "overflow")):
		return types.OracleFailureTokenOverflow
	case strings.Contains(msg, "schema") || strings.Contains(msg, "parse") || strings.Contains(msg, "unmarshal"):
		return types.OracleFailureSchema
	default:
		return types.OracleFailureOther
	}
}
