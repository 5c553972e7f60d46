package retry

import (
	"context"
	"time"
)

type growth int

const (
	growthExponential growth = iota
	growthLinear
)

// Policy describes a bounded retry schedule. The zero value performs a
// single attempt with no delay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	mode        growth
}

// Exponential returns a policy whose delay doubles after every attempt,
// capped at maxDelay.
func Exponential(attempts int, base, maxDelay time.Duration) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: base, MaxDelay: maxDelay, mode: growthExponential}
}

// Linear returns a policy whose delay grows by base after every attempt.
func Linear(attempts int, base time.Duration) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: base, mode: growthLinear}
}

// Attempts returns the number of attempts the policy allows, at least one.
func (p Policy) Attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns the pause before the attempt following the given 1-based
// attempt number.
func (p Policy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}

	var delay time.Duration
	switch p.mode {
	case growthLinear:
		delay = p.BaseDelay * time.Duration(attempt)
	default:
		delay = p.BaseDelay
		for i := 1; i < attempt; i++ {
			if p.MaxDelay > 0 && delay > p.MaxDelay/2 {
				delay = p.MaxDelay
				break
			}
			delay *= 2
		}
	}

	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Do invokes op up to the policy's attempt limit, sleeping between
// attempts. Retrying stops early when retryable reports an error as
// permanent or the context is done. A nil retryable retries every error.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, op func(attempt int) error) error {
	attempts := p.Attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op(attempt)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if err := Sleep(ctx, p.Delay(attempt)); err != nil {
			return lastErr
		}
	}
	return lastErr
}

// Sleep pauses for the given duration or until the context is done,
// returning the context error in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if ctx != nil {
			return ctx.Err()
		}
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	if ctx == nil {
		<-timer.C
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
