package retry

import (
	"context"
	"errors"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultDelay       = 200 * time.Millisecond
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNilBackoff is returned when a nil backoff function is provided.
	ErrNilBackoff = errors.New("backoff must not be nil")

	// ErrNilSleep is returned when a nil sleep function is provided.
	ErrNilSleep = errors.New("sleep must not be nil")
)

// Func is one attempt. attempt starts at 1.
type Func func(ctx context.Context, attempt int) error

// Backoff returns the delay to wait after the given failed attempt.
type Backoff func(attempt int) time.Duration

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy is a bounded retry policy. The zero value is not usable, build one with New.
type Policy struct {
	maxAttempts int
	backoff     Backoff
	sleep       SleepFunc
}

// Option configures a Policy using the functional options pattern.
type Option func(*Policy) error

// Fixed returns a backoff that always waits d.
func Fixed(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// New returns a policy of 3 attempts with a fixed 200ms delay unless overridden.
func New(options ...Option) (Policy, error) {
	p := Policy{
		maxAttempts: defaultMaxAttempts,
		backoff:     Fixed(defaultDelay),
		sleep:       Sleep,
	}
	for _, option := range options {
		if err := option(&p); err != nil {
			return Policy{}, err
		}
	}
	return p, nil
}

// WithMaxAttempts sets the total number of attempts, the first one included.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) error {
		if n <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = n
		return nil
	}
}

func WithBackoff(b Backoff) Option {
	return func(p *Policy) error {
		if b == nil {
			return ErrNilBackoff
		}
		p.backoff = b
		return nil
	}
}

// WithSleep replaces the wait between attempts, e.g. with a no-op in tests.
func WithSleep(s SleepFunc) Option {
	return func(p *Policy) error {
		if s == nil {
			return ErrNilSleep
		}
		p.sleep = s
		return nil
	}
}

func (p Policy) MaxAttempts() int { return p.maxAttempts }

// Do runs fn until it succeeds, returns a permanent error, or the attempts
// are used up. It returns the number of attempts made and the last error.
// Only the calling goroutine waits between attempts.
func (p Policy) Do(ctx context.Context, fn Func) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, p.backoff(attempt-1)); err != nil {
				return attempt - 1, lastErr
			}
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return attempt, perm.err
		}
	}
	return p.maxAttempts, lastErr
}

// Sleep waits for d, returning early with ctx.Err() if ctx is done first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
