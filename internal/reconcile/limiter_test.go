package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisPollLimiter_CapsAndReleases(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewRedisPollLimiter(rdb, "polls:active", 1, time.Minute, nil)
	l.retryInterval = 5 * time.Millisecond
	ctx := context.Background()

	release1, err := l.Acquire(ctx)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	// Second acquire must block until the first slot is released.
	got := make(chan struct{})
	go func() {
		release2, err := l.Acquire(ctx)
		if err != nil {
			t.Errorf("second acquire: %v", err)
			close(got)
			return
		}
		release2()
		close(got)
	}()

	select {
	case <-got:
		t.Fatalf("second acquire succeeded while cap was held")
	case <-time.After(30 * time.Millisecond):
	}

	release1()
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatalf("second acquire never completed after release")
	}
}

func TestRedisPollLimiter_AcquireAbortsOnContextDone(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewRedisPollLimiter(rdb, "polls:active", 1, time.Minute, nil)
	l.retryInterval = 5 * time.Millisecond

	release, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx); err == nil {
		t.Fatalf("expected context error while cap held")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Add("a")
	r.Add("b")
	if !r.Contains("a") || r.Len() != 2 {
		t.Fatalf("unexpected registry state")
	}
	if !r.Remove("a") {
		t.Fatalf("expected present on first remove")
	}
	if r.Remove("a") {
		t.Fatalf("expected absent on second remove")
	}
	if r.Contains("a") || r.Len() != 1 {
		t.Fatalf("unexpected registry state after remove")
	}
}
