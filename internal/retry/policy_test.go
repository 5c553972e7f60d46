package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExponentialDelayDoublesAndCaps(t *testing.T) {
	p := Exponential(5, 100*time.Millisecond, 300*time.Millisecond)

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{4, 300 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := p.Delay(tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

func TestLinearDelayGrows(t *testing.T) {
	p := Linear(3, 100*time.Millisecond)
	if got := p.Delay(1); got != 100*time.Millisecond {
		t.Fatalf("attempt 1: got %v", got)
	}
	if got := p.Delay(3); got != 300*time.Millisecond {
		t.Fatalf("attempt 3: got %v", got)
	}
}

func TestDoStopsOnSuccess(t *testing.T) {
	p := Linear(3, 0)
	calls := 0
	err := p.Do(context.Background(), nil, func(attempt int) error {
		calls++
		if attempt == 2 {
			return nil
		}
		return errors.New("boom")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	p := Linear(5, 0)
	permanent := errors.New("permanent")
	calls := 0
	err := p.Do(context.Background(), func(err error) bool { return !errors.Is(err, permanent) }, func(int) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	p := Linear(3, 0)
	calls := 0
	err := p.Do(context.Background(), nil, func(int) error {
		calls++
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
