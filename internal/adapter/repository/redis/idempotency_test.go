package redis

import (
	"context"
	"testing"
	"time"
)

func TestIdempotencyStoreReturnsCachedResponse(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if err := store.Update(ctx, "wd-key", []byte(`{"id":"wd-1"}`), time.Minute); err != nil {
		t.Fatalf("Update: %v", err)
	}

	exists, resp, err := store.CheckAndSet(ctx, "wd-key", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet: %v", err)
	}
	if !exists {
		t.Fatal("expected the cached response to be found")
	}
	if string(resp) != `{"id":"wd-1"}` {
		t.Fatalf("unexpected cached body: %s", resp)
	}
}

func TestIdempotencyStoreClaimsNewKey(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	exists, resp, err := store.CheckAndSet(ctx, "fresh", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet: %v", err)
	}
	if exists || resp != nil {
		t.Fatalf("fresh key should not exist yet, got exists=%v resp=%s", exists, resp)
	}

	// The placeholder keeps a double-submitted withdrawal from running
	// twice while the first request is still in flight.
	val, err := client.Get(ctx, store.prefix+"fresh").Result()
	if err != nil {
		t.Fatalf("get placeholder: %v", err)
	}
	if val != "processing" {
		t.Fatalf("expected processing placeholder, got %q", val)
	}
}

func TestIdempotencyStoreSecondCallerSeesPlaceholder(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "racing", nil, time.Minute); err != nil {
		t.Fatalf("first CheckAndSet: %v", err)
	}

	exists, resp, err := store.CheckAndSet(ctx, "racing", nil, time.Minute)
	if err != nil {
		t.Fatalf("second CheckAndSet: %v", err)
	}
	if !exists {
		t.Fatal("second caller should observe the claimed key")
	}
	if string(resp) != "processing" {
		t.Fatalf("expected placeholder body, got %s", resp)
	}
}

func TestIdempotencyStoreKeyExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if err := store.Update(ctx, "short-lived", []byte("done"), time.Second); err != nil {
		t.Fatalf("Update: %v", err)
	}

	mr.FastForward(2 * time.Second)

	exists, _, err := store.CheckAndSet(ctx, "short-lived", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet after expiry: %v", err)
	}
	if exists {
		t.Fatal("expired key should be reclaimable as a fresh request")
	}
}
