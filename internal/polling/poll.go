package polling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bootbench/internal/telemetry"
)

// Options controls a Poll loop.
type Options struct {
	// Timeout is the nominal deadline, measured from the first attempt.
	Timeout time.Duration
	// Interval is the fixed pause between failed attempts.
	Interval time.Duration
	Clock    Clock
	Logger   *slog.Logger
	// RetryLevel is the level transient failures are logged at. Zero is Info.
	RetryLevel slog.Level
}

// TimeoutError is returned by Poll when attempts kept failing past the deadline.
type TimeoutError struct {
	Op       string
	Attempts int
	Timeout  time.Duration
	Last     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("failed to %s (%d attempts, timeout %v): %v", e.Op, e.Attempts, e.Timeout, e.Last)
}

func (e *TimeoutError) Unwrap() error { return e.Last }

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Poll stops at once and returns err.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Poll calls attempt until it returns nil.
//
// The deadline is checked after each failed attempt, so an attempt that starts
// just before the deadline always runs to completion; the loop may overrun
// Timeout by up to one Interval. An attempt error wrapped with Permanent ends
// the loop immediately without sleeping.
func Poll(ctx context.Context, op string, opts Options, attempt func(ctx context.Context) error) error {
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	deadline := clock.Now().Add(opts.Timeout)
	for n := 1; ; n++ {
		err := attempt(ctx)
		if err == nil {
			telemetry.TrackPollAttempt(op, telemetry.OutcomeSuccess)
			logger.Debug("attempt succeeded", "op", op, "attempt", n)
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			telemetry.TrackPollAttempt(op, telemetry.OutcomePermanent)
			logger.Error("attempt failed permanently", "op", op, "attempt", n, "error", perm.err)
			return perm.err
		}

		telemetry.TrackPollAttempt(op, telemetry.OutcomeRetry)
		logger.Log(ctx, opts.RetryLevel, "attempt failed", "op", op, "attempt", n, "error", err)

		if clock.Now().After(deadline) {
			logger.Error("attempts exhausted", "op", op, "attempts", n, "timeout", opts.Timeout)
			return &TimeoutError{Op: op, Attempts: n, Timeout: opts.Timeout, Last: err}
		}

		if err := clock.Sleep(ctx, opts.Interval); err != nil {
			return fmt.Errorf("%s: polling aborted: %w", op, err)
		}
	}
}
