package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, ttl), mr
}

func TestSaveGetDelete(t *testing.T) {
	store, mr := newStore(t, time.Hour)
	ctx := context.Background()

	want := Session{StudentID: "6612345678", Role: "student", Name: "Somchai", YearLevel: 3}
	if err := store.Save(ctx, "jti-1", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("session:jti-1") {
		t.Fatalf("expected session key")
	}

	got, err := store.Get(ctx, "jti-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("unexpected session %+v", got)
	}

	if err := store.Delete(ctx, "jti-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "jti-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetSlidesExpiry(t *testing.T) {
	store, mr := newStore(t, time.Minute)
	ctx := context.Background()

	if err := store.Save(ctx, "jti-1", Session{StudentID: "s1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(50 * time.Second)
	if _, err := store.Get(ctx, "jti-1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	mr.FastForward(50 * time.Second)
	if _, err := store.Get(ctx, "jti-1"); err != nil {
		t.Fatalf("expected session to survive after sliding expiry: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, "jti-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected session to expire, got %v", err)
	}
}

func TestGetCorruptSession(t *testing.T) {
	store, mr := newStore(t, time.Minute)
	if err := mr.Set("session:bad", "not-json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.Get(context.Background(), "bad"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
