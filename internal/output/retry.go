package output

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/quantmind-br/cargofmt/internal/domain"
)

// Retrier handles retry logic with exponential backoff
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
}

// RetrierOptions contains options for creating a Retrier
type RetrierOptions struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetrierOptions returns options tuned for local filesystem contention
func DefaultRetrierOptions() RetrierOptions {
	return RetrierOptions{
		MaxRetries:      4,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
		Multiplier:      2.0,
	}
}

// NewRetrier creates a new Retrier; zero fields take the defaults
func NewRetrier(opts RetrierOptions) *Retrier {
	def := DefaultRetrierOptions()
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = def.MaxRetries
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = def.InitialInterval
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = def.MaxInterval
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = def.Multiplier
	}

	return &Retrier{
		maxRetries:      opts.MaxRetries,
		initialInterval: opts.InitialInterval,
		maxInterval:     opts.MaxInterval,
		multiplier:      opts.Multiplier,
	}
}

func (r *Retrier) newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.Multiplier = r.multiplier
	b.RandomizationFactor = 0.5
	b.Reset()

	return backoff.WithMaxRetries(b, uint64(r.maxRetries))
}

// Retry executes an operation with exponential backoff. Errors that
// domain.IsRetryable rejects stop the loop at once; the last error is
// returned unwrapped.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.WithContext(r.newBackoff(), ctx)

	var lastErr error
	err := backoff.Retry(func() error {
		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if !domain.IsRetryable(lastErr) {
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}, b)

	if err != nil && lastErr != nil {
		return lastErr
	}
	return err
}
