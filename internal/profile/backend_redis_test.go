package profile

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/chessmatch/internal/rules"
)

func newTestRedisBackend(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb, err := DialRedis(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisBackend(rdb, "test:profiles"), mr
}

func TestRedisBackendRoundTrip(t *testing.T) {
	backend, mr := newTestRedisBackend(t)
	ctx := context.Background()

	s := NewStore(backend, nil)
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load on empty redis: %v", err)
	}
	a := mustPut(t, s, "alice", "pw")
	b := mustPut(t, s, "bob", "pw")
	s.Pair(a, b, time.Now())
	if _, err := s.StartGame(b, rules.White); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !mr.Exists("test:profiles") {
		t.Fatalf("profiles key not written")
	}
	at, err := backend.SavedAt(ctx)
	if err != nil || at.IsZero() {
		t.Fatalf("SavedAt = %v, %v", at, err)
	}

	r := NewStore(backend, nil)
	if err := r.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	rb, ok := r.Get("bob")
	if !ok || !rb.Owner() || r.StateOf(rb) != InGame {
		t.Fatalf("bob should own the restored game: %+v", rb)
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := parseRedisURL("redis://:secret@localhost:6380/3")
	if err != nil {
		t.Fatalf("parseRedisURL: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 3 {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if _, err := parseRedisURL("http://localhost"); err == nil {
		t.Fatalf("expected scheme error")
	}
}
