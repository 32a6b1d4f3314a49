package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tradesettle/internal/models"
	"tradesettle/internal/service"
)

// stubRunner считает запуски и возвращает заданные результаты
type stubRunner struct {
	mu          sync.Mutex
	calls       int
	err         error
	hadDeadline bool
}

func (r *stubRunner) Run(ctx context.Context) (*models.SettlementSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	_, r.hadDeadline = ctx.Deadline()
	if r.err != nil {
		return nil, r.err
	}
	return &models.SettlementSummary{Settled: 1}, nil
}

func (r *stubRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func waitForCalls(t *testing.T, r *stubRunner, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.callCount() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected at least %d runner calls, got %d", n, r.callCount())
}

func TestScheduler_RunsPeriodically(t *testing.T) {
	runner := &stubRunner{}
	s := New(runner, 10*time.Millisecond, 0)

	go s.Start(context.Background())

	waitForCalls(t, runner, 3)
	s.Stop()
}

func TestScheduler_StopTerminatesLoop(t *testing.T) {
	runner := &stubRunner{}
	s := New(runner, 10*time.Millisecond, 0)

	started := make(chan struct{})
	go func() {
		close(started)
		s.Start(context.Background())
	}()
	<-started

	waitForCalls(t, runner, 1)
	s.Stop()

	calls := runner.callCount()
	time.Sleep(50 * time.Millisecond)
	if runner.callCount() != calls {
		t.Error("runner called after Stop")
	}
}

func TestScheduler_ContextCancelStops(t *testing.T) {
	runner := &stubRunner{}
	s := New(runner, 10*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	waitForCalls(t, runner, 1)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after context cancel")
	}
}

func TestScheduler_SkipsWhenRunInProgress(t *testing.T) {
	runner := &stubRunner{err: service.ErrRunInProgress}
	s := New(runner, 10*time.Millisecond, 0)

	go s.Start(context.Background())

	// Пропуски не должны ломать цикл
	waitForCalls(t, runner, 3)
	s.Stop()
}

func TestScheduler_RunErrorDoesNotStopLoop(t *testing.T) {
	runner := &stubRunner{err: errors.New("db down")}
	s := New(runner, 10*time.Millisecond, 0)

	go s.Start(context.Background())

	waitForCalls(t, runner, 3)
	s.Stop()
}

func TestScheduler_AppliesRunTimeout(t *testing.T) {
	runner := &stubRunner{}
	s := New(runner, 10*time.Millisecond, 5*time.Second)

	go s.Start(context.Background())

	waitForCalls(t, runner, 1)
	s.Stop()

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if !runner.hadDeadline {
		t.Error("expected run context to carry a deadline")
	}
}
