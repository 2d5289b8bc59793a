// Package admission bounds in-flight calls to external backends and
// retries transient failures with exponential backoff.
package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// Category identifies an external resource class with its own permit pool.
type Category string

// Resource categories.
const (
	CategoryChat      Category = "chat"
	CategoryEmbedding Category = "embedding"
	CategoryRerank    Category = "rerank"
	CategoryTool      Category = "tool"
)

// ErrInterrupted marks a wait (permit acquisition or retry backoff)
// that was cut short by context cancellation, as opposed to a failure
// of the guarded operation itself.
var ErrInterrupted = errors.New("wait interrupted")

// unlimitedPermits stands in for "no limit configured". Saturation
// behavior stays uniform: acquisition still goes through the pool.
const unlimitedPermits = int64(1) << 31

// Limits configures the permit count per category. A limit <= 0 means
// unbounded.
type Limits struct {
	Chat      int `json:"chat"`
	Embedding int `json:"embedding"`
	Rerank    int `json:"rerank"`
	Tool      int `json:"tool"`
}

// Controller gates calls to external backends with one FIFO permit
// pool per category. Safe for concurrent use.
type Controller struct {
	pools map[Category]*semaphore.Weighted
}

// NewController builds a controller from the configured limits.
func NewController(limits Limits) *Controller {
	return &Controller{
		pools: map[Category]*semaphore.Weighted{
			CategoryChat:      semaphore.NewWeighted(normalizeLimit(limits.Chat)),
			CategoryEmbedding: semaphore.NewWeighted(normalizeLimit(limits.Embedding)),
			CategoryRerank:    semaphore.NewWeighted(normalizeLimit(limits.Rerank)),
			CategoryTool:      semaphore.NewWeighted(normalizeLimit(limits.Tool)),
		},
	}
}

func normalizeLimit(n int) int64 {
	if n <= 0 {
		return unlimitedPermits
	}
	return int64(n)
}

// Do acquires a permit for the category, runs fn, and releases the
// permit on every exit path. Cancellation while waiting for a permit
// returns an error wrapping ErrInterrupted.
func (c *Controller) Do(ctx context.Context, cat Category, fn func(ctx context.Context) error) error {
	sem, ok := c.pools[cat]
	if !ok {
		return fmt.Errorf("unknown admission category %q", cat)
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire %s permit: %w: %w", cat, ErrInterrupted, err)
	}
	defer sem.Release(1)
	return fn(ctx)
}

// Policy configures retry behavior. Total attempts are MaxRetries+1.
type Policy struct {
	MaxRetries   int           `json:"max_retries"`
	InitialDelay time.Duration `json:"initial_delay"`
	Multiplier   float64       `json:"multiplier"`
	MaxDelay     time.Duration `json:"max_delay"`
}

// DefaultPolicy is the retry policy applied to embedding and LLM calls.
var DefaultPolicy = Policy{
	MaxRetries:   3,
	InitialDelay: 500 * time.Millisecond,
	Multiplier:   2.0,
	MaxDelay:     10 * time.Second,
}

// Retry runs fn up to MaxRetries+1 times, sleeping
// min(InitialDelay*Multiplier^(attempt-1), MaxDelay) between attempts.
// Cancellation during the sleep returns an error wrapping
// ErrInterrupted. When all attempts fail, the last failure is wrapped
// so the original error stays inspectable.
func Retry(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	attempts := policy.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	delay := policy.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry backoff: %w: %w", ErrInterrupted, ctx.Err())
		case <-timer.C:
		}
		if policy.Multiplier > 1 {
			delay = time.Duration(float64(delay) * policy.Multiplier)
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}
