package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() *Config {
	return &Config{
		MaxRetries:    3,
		BackoffFactor: 2.0,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		Jitter:        time.Millisecond,
	}
}

func TestRetrier_SucceedsFirstTry(t *testing.T) {
	r := NewRetrier(fastConfig())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetrier_SucceedsAfterFailures(t *testing.T) {
	r := NewRetrier(fastConfig())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetrier_ExhaustsBudget(t *testing.T) {
	r := NewRetrier(fastConfig())

	wantErr := errors.New("permanent")
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
	// Initial attempt plus MaxRetries.
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}

func TestRetrier_CancelledContext(t *testing.T) {
	r := NewRetrier(&Config{
		MaxRetries:    5,
		BackoffFactor: 2.0,
		InitialDelay:  time.Hour,
		MaxDelay:      time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, func() error {
		return errors.New("always fails")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
