package convergence

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultDeadline = 30 * time.Second
	DefaultInterval = 100 * time.Millisecond
	MinInterval     = 10 * time.Millisecond
)

var (
	ErrTimeout    = errors.New("convergence: deadline exceeded")
	ErrNilProbe   = errors.New("convergence: nil probe")
	errNoProgress = errors.New("convergence: probe reported pending without a reason")
)

// Outcome classifies one probe evaluation.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeConverged
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConverged:
		return "converged"
	case OutcomeFatal:
		return "fatal"
	default:
		return "pending"
	}
}

// Result is the value a probe hands back to Await.
type Result[T any] struct {
	Outcome Outcome
	Value   T
	Err     error
}

// Pending reports "not yet"; reason is kept for timeout diagnostics.
func Pending[T any](reason error) Result[T] {
	return Result[T]{Outcome: OutcomePending, Err: reason}
}

func Converged[T any](v T) Result[T] {
	return Result[T]{Outcome: OutcomeConverged, Value: v}
}

// Fatal stops Await immediately with err.
func Fatal[T any](err error) Result[T] {
	return Result[T]{Outcome: OutcomeFatal, Err: err}
}

// Probe re-queries remote state once.
type Probe[T any] func(ctx context.Context) Result[T]

type Config struct {
	Deadline time.Duration
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Deadline: DefaultDeadline,
		Interval: DefaultInterval,
	}
}

// WithDefaults fills zero fields and clamps the interval to MinInterval.
func (c Config) WithDefaults() Config {
	if c.Deadline <= 0 {
		c.Deadline = DefaultDeadline
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Interval < MinInterval {
		c.Interval = MinInterval
	}
	return c
}

// TimeoutError is returned when the deadline elapses before convergence.
type TimeoutError struct {
	Deadline time.Duration
	Elapsed  time.Duration
	Attempts int
	Last     error
}

func (e *TimeoutError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%v after %s (%d attempts)", ErrTimeout, e.Deadline, e.Attempts)
	}
	return fmt.Sprintf("%v after %s (%d attempts): last: %v", ErrTimeout, e.Deadline, e.Attempts, e.Last)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *TimeoutError) Unwrap() error {
	return e.Last
}

// Await evaluates probe until it converges, reports a fatal condition, or
// cfg.Deadline elapses. Attempts are spaced by a constant cfg.Interval; the
// final sleep is shortened so the last attempt lands on the deadline.
func Await[T any](ctx context.Context, cfg Config, probe Probe[T]) (T, error) {
	var zero T
	if probe == nil {
		return zero, ErrNilProbe
	}
	cfg = cfg.WithDefaults()

	start := time.Now()
	var (
		attempts int
		last     error
	)
	for {
		attempts++
		res := probe(ctx)
		switch res.Outcome {
		case OutcomeConverged:
			return res.Value, nil
		case OutcomeFatal:
			if res.Err == nil {
				return zero, fmt.Errorf("convergence: fatal probe outcome on attempt %d", attempts)
			}
			return zero, res.Err
		}
		if res.Err != nil {
			last = res.Err
		} else if last == nil {
			last = errNoProgress
		}

		elapsed := time.Since(start)
		remaining := cfg.Deadline - elapsed
		if remaining <= 0 {
			return zero, &TimeoutError{
				Deadline: cfg.Deadline,
				Elapsed:  elapsed,
				Attempts: attempts,
				Last:     last,
			}
		}
		if err := sleep(ctx, min(cfg.Interval, remaining)); err != nil {
			return zero, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
