// Package retry wraps outbound HTTP calls with a bounded retry policy.
package retry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultMaxAttempts is the total number of tries per call,
	// including the first.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the delay before the first retry.
	DefaultBaseDelay = 250 * time.Millisecond

	// DefaultMaxDelay caps the exponential backoff so total latency per
	// call stays bounded.
	DefaultMaxDelay = 2 * time.Second
)

// Transient reports whether an HTTP status is worth retrying: rate
// limiting and server-side failures. Other 4xx statuses are definitive and
// returned immediately.
func Transient(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// Policy retries transient failures of an outbound call with capped
// exponential backoff. It is stateless configuration; one Policy may be
// shared across concurrent calls.
type Policy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// Option configures a Policy.
type Option func(*Policy)

// WithMaxAttempts sets the total number of tries per call.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBackoff sets the initial retry delay and its cap.
func WithBackoff(base, max time.Duration) Option {
	return func(p *Policy) {
		p.baseDelay = base
		p.maxDelay = max
	}
}

// New creates a retry policy with the provided options.
func New(opts ...Option) *Policy {
	p := &Policy{
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		maxDelay:    DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Do executes fn until it returns a non-transient outcome or attempts are
// exhausted. fn must issue a fresh request on every invocation. On
// exhaustion the last response or error is returned so the caller can
// classify the terminal outcome. A cancelled context aborts immediately;
// cancelled calls are never retried.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) (*http.Response, error)) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 1; ; attempt++ {
		resp, err = fn(ctx)
		if err == nil && !Transient(resp.StatusCode) {
			return resp, nil
		}
		if err != nil && ctx.Err() != nil {
			return nil, err
		}
		if attempt >= p.maxAttempts {
			return resp, err
		}

		// The transient response body must be drained before the
		// connection can be reused.
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		if serr := sleep(ctx, p.delay(attempt)); serr != nil {
			return nil, fmt.Errorf("retry aborted: %w", serr)
		}
	}
}

// delay computes the backoff before the given retry, doubling from
// baseDelay and capped at maxDelay.
func (p *Policy) delay(attempt int) time.Duration {
	d := p.baseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.maxDelay {
			return p.maxDelay
		}
	}
	if d > p.maxDelay {
		return p.maxDelay
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
