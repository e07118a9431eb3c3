package queue

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testQueue(t *testing.T) *RedisQueue {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisQueueWithClient(client, "dispatch:test")
}

func TestDispatchRoundTrip(t *testing.T) {
	ctx := context.Background()
	q := testQueue(t)

	if err := q.Dispatch(ctx, "job-1", 10); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if err := q.Dispatch(ctx, "job-2", 0); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	d, err := q.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if d == nil || d.ID != "job-1" || d.Delay != 10 {
		t.Fatalf("expected job-1 delay=10 first, got %+v", d)
	}

	d, err = q.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if d == nil || d.ID != "job-2" || d.Delay != 0 {
		t.Fatalf("expected job-2 delay=0 second, got %+v", d)
	}
}

func TestDepth(t *testing.T) {
	ctx := context.Background()
	q := testQueue(t)

	for i := 0; i < 3; i++ {
		if err := q.Dispatch(ctx, "job", i); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}
	n, err := q.Depth(ctx)
	if err != nil {
		t.Fatalf("depth: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected depth 3, got %d", n)
	}
}
