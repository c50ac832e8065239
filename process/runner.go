package process

import (
	"context"
	"os/exec"

	"github.com/imchangchang/video2markdown/resilience"
)

// Runner wraps subprocess execution with retry and concurrency limiting.
// Use NewRunner to create one, then call Run repeatedly.
type Runner struct {
	retry    *resilience.RetryConfig
	bulkhead *resilience.Bulkhead
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRetry enables retry for transient subprocess failures.
func WithRetry(cfg resilience.RetryConfig) RunnerOption {
	return func(r *Runner) { r.retry = &cfg }
}

// WithBulkhead limits concurrent subprocess executions.
func WithBulkhead(b *resilience.Bulkhead) RunnerOption {
	return func(r *Runner) { r.bulkhead = b }
}

// NewRunner creates a Runner. With no options Run() calls process.Run directly.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a subprocess through the configured resilience chain.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	run := func() (*Result, error) {
		return Run(ctx, cmd)
	}
	if r.retry != nil {
		inner := run
		run = func() (*Result, error) {
			return resilience.Retry(ctx, *r.retry, inner)
		}
	}
	if r.bulkhead != nil {
		return resilience.ExecuteWithResult(r.bulkhead, ctx, run)
	}
	return run()
}

// BinaryAvailable reports whether a binary can be resolved via PATH.
func BinaryAvailable(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}
