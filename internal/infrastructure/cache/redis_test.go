package cache

import (
	"context"
	"testing"
	"time"
)

func TestDisabledCacheBypasses(t *testing.T) {
	r := Disabled()
	ctx := context.Background()

	if r.Available() {
		t.Fatalf("disabled cache reports available")
	}
	if err := r.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	var out map[string]int
	hit, err := r.GetJSON(ctx, "k", &out)
	if err != nil || hit {
		t.Fatalf("GetJSON hit=%v err=%v, want miss", hit, err)
	}
	if err := r.Ping(ctx); err != ErrUnavailable {
		t.Fatalf("Ping err=%v, want ErrUnavailable", err)
	}
}

func TestDisabledCacheGrantsLocks(t *testing.T) {
	r := Disabled()
	ok, err := r.AcquireLock(context.Background(), "lock", "owner", time.Second)
	if err != nil || !ok {
		t.Fatalf("AcquireLock ok=%v err=%v, want granted", ok, err)
	}
	if err := r.ReleaseLock(context.Background(), "lock", "owner"); err != nil {
		t.Fatalf("ReleaseLock: %v", err)
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var r *Redis
	if r.Available() {
		t.Fatalf("nil cache reports available")
	}
	if err := r.Delete(context.Background(), "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
