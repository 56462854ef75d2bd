package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestConcurrencyScriptsCompile(t *testing.T) {
	// Compile-time smoke test: scripts should be initialized.
	if concurrencyAcquireScript == nil || concurrencyReleaseScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}

func TestConcurrencyCap_AcquireRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	const key = "polls:active"
	for i := 0; i < 2; i++ {
		ok, err := AcquireConcurrencyCap(ctx, rdb, key, 2, time.Minute)
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("acquire %d rejected below limit", i)
		}
	}

	ok, err := AcquireConcurrencyCap(ctx, rdb, key, 2, time.Minute)
	if err != nil {
		t.Fatalf("acquire over limit: %v", err)
	}
	if ok {
		t.Fatalf("expected rejection at limit")
	}

	if err := ReleaseConcurrencyCap(ctx, rdb, key); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = AcquireConcurrencyCap(ctx, rdb, key, 2, time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected acquire after release, ok=%v err=%v", ok, err)
	}
}

func TestConcurrencyCap_Validation(t *testing.T) {
	ctx := context.Background()
	if _, err := AcquireConcurrencyCap(ctx, nil, "k", 1, time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	if _, err := AcquireConcurrencyCap(ctx, rdb, "", 1, time.Second); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := AcquireConcurrencyCap(ctx, rdb, "k", 0, time.Second); err == nil {
		t.Fatalf("expected error for zero limit")
	}
}
