package agent

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

// flakyAgent fails the first failures executions, then succeeds.
type flakyAgent struct {
	failures  int
	execCount atomic.Int32
}

func (f *flakyAgent) Execute(ctx context.Context, ec *ExecutionContext, task string) (Result, error) {
	n := f.execCount.Add(1)
	if int(n) <= f.failures {
		return Result{}, fmt.Errorf("transient error %d", n)
	}
	return Result{Content: "done"}, nil
}

func (f *flakyAgent) Contract() Contract { return Contract{Outputs: []string{"artifact"}} }

func (f *flakyAgent) CanHandle(task string) float64 { return 0.5 }

// fastRetryConfig keeps tests quick.
func fastRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval:     time.Millisecond,
		MaxInterval:         5 * time.Millisecond,
		MaxElapsedTime:      2 * time.Second,
		Multiplier:          1.1,
		RandomizationFactor: 0,
	}
}

func TestResilientRetriesTransientFailures(t *testing.T) {
	inner := &flakyAgent{failures: 2}
	r := NewResilient("test-retry", inner, fastRetryConfig())

	result, err := r.Execute(context.Background(), NewExecutionContext("test", ""), "task")
	if err != nil {
		t.Fatalf("expected success after retries, got: %v", err)
	}
	if result.Content != "done" {
		t.Errorf("expected result 'done', got %q", result.Content)
	}
	if got := inner.execCount.Load(); got != 3 {
		t.Errorf("expected 3 executions (2 failures + 1 success), got %d", got)
	}
}

func TestResilientTripsBreakerAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyAgent{failures: 1000}
	r := NewResilient("test-trip", inner, fastRetryConfig())

	_, err := r.Execute(context.Background(), NewExecutionContext("test", ""), "task")
	if err == nil {
		t.Fatal("expected failure")
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open-state error once breaker trips, got: %v", err)
	}

	// The breaker tripped after 5 consecutive failures; a further call fails
	// fast without reaching the inner agent.
	before := inner.execCount.Load()
	_, err = r.Execute(context.Background(), NewExecutionContext("test", ""), "task")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open-state error, got: %v", err)
	}
	if after := inner.execCount.Load(); after != before {
		t.Errorf("inner agent invoked %d more times while breaker open", after-before)
	}
}

func TestResilientRespectsCancellation(t *testing.T) {
	inner := &flakyAgent{failures: 1000}
	r := NewResilient("test-cancel", inner, fastRetryConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Execute(ctx, NewExecutionContext("test", ""), "task")
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestResilientPassesThroughContractAndConfidence(t *testing.T) {
	inner := &flakyAgent{}
	r := NewResilient("test-passthrough", inner, DefaultRetryConfig())

	if got := r.Contract().Outputs; len(got) != 1 || got[0] != "artifact" {
		t.Errorf("contract not passed through: %v", got)
	}
	if got := r.CanHandle("task"); got != 0.5 {
		t.Errorf("confidence not passed through: %v", got)
	}
}
