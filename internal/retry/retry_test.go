package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func quickPolicy(attempts int) Policy {
	return Policy{
		Attempts:  attempts,
		BaseDelay: 5 * time.Millisecond,
		MaxDelay:  20 * time.Millisecond,
		Timeout:   time.Second,
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), quickPolicy(3), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("Expected one call returning ok, got %q after %d calls", result, calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), quickPolicy(5), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Expected eventual success, got %v", err)
	}
	if result != 42 || calls != 3 {
		t.Errorf("Expected 42 after 3 calls, got %d after %d", result, calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	wantErr := errors.New("always fails")
	_, err := Do(context.Background(), quickPolicy(3), func(ctx context.Context) (struct{}, error) {
		calls++
		return struct{}{}, wantErr
	})
	if err == nil {
		t.Fatal("Expected failure after exhausting attempts")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected wrapped original error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, quickPolicy(10), func(ctx context.Context) (string, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return "", errors.New("failure")
	})
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls > 3 {
		t.Errorf("Expected at most 3 calls after cancellation, got %d", calls)
	}
}

func TestBackoffDelayBounds(t *testing.T) {
	base := 10 * time.Millisecond
	max := 100 * time.Millisecond

	tests := []struct {
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{0, 5 * time.Millisecond, 15 * time.Millisecond},
		{1, 10 * time.Millisecond, 30 * time.Millisecond},
		{2, 20 * time.Millisecond, 60 * time.Millisecond},
		{5, 50 * time.Millisecond, 100 * time.Millisecond},
		{40, 50 * time.Millisecond, 100 * time.Millisecond}, // must not overflow
	}

	for _, test := range tests {
		// Run several times because of jitter.
		for i := 0; i < 20; i++ {
			got := backoffDelay(test.attempt, base, max)
			if got < test.min || got > test.max {
				t.Errorf("backoffDelay(%d) = %v, expected between %v and %v",
					test.attempt, got, test.min, test.max)
			}
		}
	}
}
