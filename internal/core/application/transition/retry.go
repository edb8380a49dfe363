package transition

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the retries the driver spends on a transient remote
// outage: a fixed delay between attempts and a hard attempt ceiling. It is
// injected into the driver so retry behavior stays independently testable
// and out of the orchestration logic.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first one.
	MaxAttempts uint64

	// Delay is the fixed pause between attempts.
	Delay time.Duration
}

// DefaultRetryPolicy matches the cadence the remote API tolerates well:
// three attempts, two seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 2 * time.Second}
}

// Run executes op under the policy. Ops signal a non-retryable failure by
// returning backoff.Permanent; those surface immediately with the original
// error. Context cancellation stops the retry loop.
func (p RetryPolicy) Run(ctx context.Context, op backoff.Operation) error {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), attempts-1),
		ctx,
	)
	return backoff.Retry(op, b)
}
