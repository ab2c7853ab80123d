package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestQueueRunsEnqueuedJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := New(zap.NewNop(), 4)
	q.Start(ctx, 2)

	done := make(chan string, 2)
	for _, name := range []string{"a", "b"} {
		name := name
		if !q.Enqueue(JobNotificationEmail, func(context.Context) error {
			done <- name
			return nil
		}) {
			t.Fatal("enqueue rejected")
		}
	}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case name := <-done:
			seen[name] = true
		case <-time.After(2 * time.Second):
			t.Fatal("job did not run")
		}
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("unexpected runs %v", seen)
	}

	cancel()
	q.Wait()
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	q := New(zap.NewNop(), 1)
	noop := func(context.Context) error { return nil }
	if !q.Enqueue("x", noop) {
		t.Fatal("first enqueue should fit")
	}
	if q.Enqueue("x", noop) {
		t.Fatal("second enqueue should be dropped without workers")
	}
}

func TestRunNowReturnsError(t *testing.T) {
	q := New(zap.NewNop(), 1)
	want := errors.New("smtp down")
	if err := q.RunNow(context.Background(), JobNotificationEmail, func(context.Context) error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestShutdownRunsQueuedJobs(t *testing.T) {
	q := New(zap.NewNop(), 8)
	var ran, cancelled atomic.Int32
	for i := 0; i < 5; i++ {
		q.Enqueue(JobNotificationEmail, func(ctx context.Context) error {
			if ctx.Err() != nil {
				cancelled.Add(1)
			}
			ran.Add(1)
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Start(ctx, 2)
	q.Wait()

	if ran.Load() != 5 {
		t.Fatalf("expected all 5 queued jobs to run on shutdown, got %d", ran.Load())
	}
	if cancelled.Load() != 0 {
		t.Fatalf("%d jobs saw a cancelled context", cancelled.Load())
	}
}
