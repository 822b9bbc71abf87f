package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/ecomap/internal/domain/model"
)

func joinRequest(id string) model.JoinRequest {
	return model.JoinRequest{RequestID: id, EventID: "1", ParticipantID: "p-" + id}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, joinRequest("r1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	r := <-q.Dequeue(ctx)
	if r.RequestID != "r1" || r.ParticipantID != "p-r1" {
		t.Errorf("unexpected request %+v", r)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for _, id := range []string{"r1", "r2"} {
		if err := q.Enqueue(ctx, joinRequest(id)); err != nil {
			t.Fatalf("expected enqueue to succeed, got %v", err)
		}
	}

	if err := q.Enqueue(ctx, joinRequest("r3")); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 5; i++ {
		if err := q.Enqueue(ctx, joinRequest(fmt.Sprintf("r%d", i))); err != nil {
			t.Fatal(err)
		}
	}
	ch := q.Dequeue(ctx)
	for i := 0; i < 5; i++ {
		if got := (<-ch).RequestID; got != fmt.Sprintf("r%d", i) {
			t.Errorf("position %d: got %s", i, got)
		}
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000))
	ctx := context.Background()
	const producers = 10
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				if err := q.Enqueue(ctx, joinRequest(fmt.Sprintf("r-%d-%d", p, j))); err != nil {
					t.Errorf("enqueue: %v", err)
				}
			}
		}(p)
	}
	wg.Wait()
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	for r := range q.Dequeue(ctx) {
		if seen[r.RequestID] {
			t.Errorf("duplicate delivery of %s", r.RequestID)
		}
		seen[r.RequestID] = true
	}
	if len(seen) != producers*perProducer {
		t.Errorf("expected %d requests, got %d", producers*perProducer, len(seen))
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(5))
	ctx := context.Background()

	if err := q.Enqueue(ctx, joinRequest("before")); err != nil {
		t.Fatal(err)
	}
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if err := q.Enqueue(ctx, joinRequest("after")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// queued requests are still drained after close
	var got []string
	for r := range q.Dequeue(ctx) {
		got = append(got, r.RequestID)
	}
	if len(got) != 1 || got[0] != "before" {
		t.Errorf("expected [before], got %v", got)
	}
}

func TestInMemoryQueue_ContextCancellation(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(5))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Enqueue(cancelled, joinRequest("r1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	ch := q.Dequeue(ctx)
	stop()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected no request after cancellation")
		}
	case <-time.After(time.Second):
		t.Error("dequeue channel was not closed after cancellation")
	}
}
