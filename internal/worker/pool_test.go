package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countJob struct {
	counter *int32
	err     error
}

type countResult struct {
	err error
}

func (r *countResult) GetError() error { return r.err }

func (j *countJob) Execute(ctx context.Context) Result {
	atomic.AddInt32(j.counter, 1)
	return &countResult{err: j.err}
}

func TestPool_RunsAllJobs(t *testing.T) {
	pool := NewPool(4)
	pool.Start()

	var counter int32
	for i := 0; i < 20; i++ {
		pool.Submit(&countJob{counter: &counter})
	}

	results := pool.Wait()

	if got := atomic.LoadInt32(&counter); got != 20 {
		t.Errorf("expected 20 executions, got %d", got)
	}
	if len(results) != 20 {
		t.Errorf("expected 20 results, got %d", len(results))
	}
}

func TestPool_SubmitManyBeforeWait(t *testing.T) {
	pool := NewPool(1)
	pool.Start()

	// Far more jobs than the single worker's channel buffers hold. Every
	// submission must land without anything draining results yet.
	var counter int32
	done := make(chan []Result, 1)
	go func() {
		for i := 0; i < 10; i++ {
			pool.Submit(&countJob{counter: &counter})
		}
		done <- pool.Wait()
	}()

	select {
	case results := <-done:
		if len(results) != 10 {
			t.Errorf("expected 10 results, got %d", len(results))
		}
		if got := atomic.LoadInt32(&counter); got != 10 {
			t.Errorf("expected 10 executions, got %d", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked with results undrained before Wait")
	}
}

func TestPool_CollectsErrors(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	var counter int32
	wantErr := errors.New("source unavailable")
	pool.Submit(&countJob{counter: &counter, err: wantErr})
	pool.Submit(&countJob{counter: &counter})

	results := pool.Wait()

	failed := 0
	for _, r := range results {
		if r.GetError() != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("expected 1 failed result, got %d", failed)
	}
}

func TestPool_ZeroWorkersClampedToOne(t *testing.T) {
	pool := NewPool(0)
	pool.Start()

	var counter int32
	pool.Submit(&countJob{counter: &counter})
	pool.Wait()

	if counter != 1 {
		t.Errorf("expected the job to run, counter=%d", counter)
	}
}

type slowJob struct{ started *int32 }

func (j *slowJob) Execute(ctx context.Context) Result {
	atomic.AddInt32(j.started, 1)
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
	return &countResult{}
}

func TestPool_ShutdownCancelsWork(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	var started int32
	pool.Submit(&slowJob{started: &started})
	pool.Submit(&slowJob{started: &started})

	// Give workers a moment to pick the jobs up, then cancel.
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not cancel running jobs")
	}
}

func TestLimiter_AllowRespectsBurst(t *testing.T) {
	l := NewLimiter(1, 2)

	if !l.Allow("search") {
		t.Error("first call should be allowed")
	}
	if !l.Allow("search") {
		t.Error("second call within burst should be allowed")
	}
	if l.Allow("search") {
		t.Error("third immediate call should be throttled")
	}

	// Distinct providers have independent budgets.
	if !l.Allow("filing") {
		t.Error("different provider should have its own budget")
	}
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	l := NewLimiter(0.001, 1)
	l.Allow("macro") // Drain the burst.

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "macro"); err == nil {
		t.Error("expected context deadline error while throttled")
	}
}
