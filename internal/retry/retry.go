// Package retry provides the retry policy shared by the Raindrop client and
// the AI categorizer, plus a pacer for spacing successive API calls.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Policy controls how often and how long an operation is retried.
type Policy struct {
	MaxAttempts int           // Total attempts, including the first
	BaseDelay   time.Duration // Wait before the second attempt, doubled each retry
	MaxDelay    time.Duration // Upper bound for a single wait
	Jitter      float64       // Random extra wait as a fraction of the delay, 0 to disable
}

// DefaultPolicy returns the defaults used for Raindrop API calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Minute,
	}
}

// Retryable is implemented by errors that may succeed on a later attempt.
type Retryable interface {
	IsRetryable() bool
}

// DelayHinter is implemented by errors that carry a server-mandated wait,
// such as a Retry-After header.
type DelayHinter interface {
	DelayHint() time.Duration
}

// Do runs fn up to p.MaxAttempts times, waiting between attempts with
// exponential backoff. A nil error stops immediately. Errors that do not
// implement Retryable, or whose IsRetryable reports false, are returned
// without further attempts. When the attempts run out the last error is
// returned wrapped, so errors.As still reaches the typed error.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.Debug().
					Str("operation", op).
					Int("attempt", attempt+1).
					Msg("Retry succeeded")
			}
			return nil
		}

		if !isRetryable(err) {
			return err
		}
		lastErr = err

		if attempt == p.MaxAttempts-1 {
			break
		}

		delay := p.Delay(attempt)
		if hint := delayHint(err); hint > 0 {
			delay = hint
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}

		log.Warn().
			Err(err).
			Str("operation", op).
			Int("attempt", attempt+1).
			Int("max_attempts", p.MaxAttempts).
			Dur("delay", delay).
			Msg("Retrying after transient error")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("%s: %d attempts: %w", op, p.MaxAttempts, lastErr)
}

// Delay reports the backoff that follows the given zero-based failed attempt.
func (p Policy) Delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(2, float64(attempt))

	if p.Jitter > 0 {
		d += d * p.Jitter * rand.Float64()
	}

	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}

	return time.Duration(d)
}

func isRetryable(err error) bool {
	var r Retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return false
}

func delayHint(err error) time.Duration {
	var h DelayHinter
	if errors.As(err, &h) {
		return h.DelayHint()
	}
	return 0
}

// Pacer spaces successive calls by a fixed minimum interval. A nil Pacer
// or a zero interval performs no waiting.
type Pacer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Wait blocks until at least the configured interval has passed since the
// previous call. The first call returns immediately. Concurrent callers
// each reserve their own slot, so the interval holds pairwise.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.interval <= 0 {
		return nil
	}

	p.mu.Lock()
	now := time.Now()
	next := p.last.Add(p.interval)
	if next.Before(now) {
		next = now
	}
	p.last = next
	p.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
