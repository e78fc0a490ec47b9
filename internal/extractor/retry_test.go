package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRetry_SucceedsAfterRetryableErrors(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), fastPolicy(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", &ParseError{Reason: "bad"}
		}
		return "ok", nil
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Errorf("got %q after %d calls", got, calls)
	}
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	fatal := errors.New("connection refused")
	_, err := Retry(context.Background(), fastPolicy(), func() (int, error) {
		calls++
		return 0, fatal
	}, nil)
	if !errors.Is(err, fatal) {
		t.Fatalf("expected the original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(), func() (int, error) {
		calls++
		return 0, &ParseError{Reason: "still bad"}
	}, nil)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_BackoffSchedule(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 4, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	var waits []time.Duration
	Retry(context.Background(), p, func() (int, error) {
		return 0, &ParseError{Reason: "x"}
	}, func(err error, next time.Duration) {
		waits = append(waits, next)
	})

	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 2 * time.Millisecond}
	if len(waits) != len(want) {
		t.Fatalf("waits = %v, want %v", waits, want)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("wait %d = %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestRetry_CustomPredicate(t *testing.T) {
	sentinel := errors.New("flaky")
	p := fastPolicy()
	p.Retryable = func(err error) bool { return errors.Is(err, sentinel) }

	calls := 0
	Retry(context.Background(), p, func() (int, error) {
		calls++
		return 0, sentinel
	}, nil)
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	var syntaxErr *json.SyntaxError
	err := json.Unmarshal([]byte("{"), &struct{}{})
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected a syntax error from json, got %T", err)
	}

	tests := []struct {
		err  error
		want bool
	}{
		{&ParseError{Reason: "x"}, true},
		{err, true},
		{&json.UnmarshalTypeError{Value: "string"}, true},
		{errors.New("timeout"), false},
		{context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.MaxAttempts != 3 || p.BaseDelay != 2*time.Second || p.MaxDelay != 10*time.Second {
		t.Errorf("unexpected default policy: %+v", p)
	}
}
