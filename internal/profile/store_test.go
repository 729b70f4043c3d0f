package profile

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/park285/chessmatch/internal/rules"
)

type recordingSender struct{ lines []string }

func (r *recordingSender) Send(line string) error {
	r.lines = append(r.lines, line)
	return nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(NewFileBackend(filepath.Join(t.TempDir(), "profiles.txt")), nil)
}

func mustPut(t *testing.T, s *Store, name, pw string) *Profile {
	t.Helper()
	p, err := s.Put(name, pw)
	if err != nil {
		t.Fatalf("Put(%s): %v", name, err)
	}
	return p
}

func TestPutRejectsDuplicatesAndBadNames(t *testing.T) {
	s := newTestStore(t)
	mustPut(t, s, "alice", "pw")
	if _, err := s.Put("alice", "other"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	for _, bad := range []string{"", "a b", "a\tb"} {
		if _, err := s.Put(bad, "pw"); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("Put(%q): expected ErrInvalidName, got %v", bad, err)
		}
	}
	if _, err := s.Put("bob", "p\tw"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if p, ok := s.Get("alice"); !ok || p.Password != "pw" {
		t.Fatalf("Get(alice) = %+v, %v", p, ok)
	}
}

func TestPairingLifecycle(t *testing.T) {
	s := newTestStore(t)
	a := mustPut(t, s, "alice", "pw")
	b := mustPut(t, s, "bob", "pw")

	now := time.Now()
	s.Pair(a, b, now)
	if s.StateOf(a) != Requested || s.StateOf(b) != Requested {
		t.Fatalf("both sides should be requested: %v %v", s.StateOf(a), s.StateOf(b))
	}
	if a.Color != rules.White || b.Color != rules.Black || !a.RequestTime.Equal(now) {
		t.Fatalf("placeholder colors/time wrong: %+v %+v", a, b)
	}

	g, err := s.StartGame(b, rules.White)
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if !b.Owner() || a.Owner() {
		t.Fatalf("accepter took white and must own the game")
	}
	if s.Game(a) != g || s.Game(b) != g {
		t.Fatalf("both sides must read the same game")
	}
	if s.StateOf(a) != InGame || s.StateOf(b) != InGame {
		t.Fatalf("both sides should be in game")
	}

	s.Unpair(a)
	if s.StateOf(a) != Idle || s.StateOf(b) != Idle || s.Game(b) != nil {
		t.Fatalf("unpair must reset both sides")
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	a := mustPut(t, s, "alice", "pw")
	b := mustPut(t, s, "bob", "pw")
	a.Client = &recordingSender{}
	if err := s.Remove("alice"); !errors.Is(err, ErrLinked) {
		t.Fatalf("expected ErrLinked, got %v", err)
	}
	a.Client = nil
	s.Pair(a, b, time.Now())
	if err := s.Remove("bob"); !errors.Is(err, ErrPaired) {
		t.Fatalf("expected ErrPaired, got %v", err)
	}
	s.Unpair(b)
	if err := s.Remove("bob"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove("bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.txt")
	ctx := context.Background()
	s := NewStore(NewFileBackend(path), nil)
	a := mustPut(t, s, "alice", "a-pw")
	b := mustPut(t, s, "bob", "b-pw")
	c := mustPut(t, s, "carol", "c-pw")
	d := mustPut(t, s, "dave", "d-pw")
	mustPut(t, s, "erin", "e-pw")

	s.Pair(a, b, time.Now())
	g, err := s.StartGame(b, rules.Black) // alice white
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if _, err := g.Play(rules.Move{From: rules.Sq(6, 4), To: rules.Sq(4, 4)}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	s.Pair(d, c, time.Now()) // dave requested carol

	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r := NewStore(NewFileBackend(path), nil)
	if err := r.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Len() != 5 {
		t.Fatalf("loaded %d profiles", r.Len())
	}
	ra, _ := r.Get("alice")
	rb, _ := r.Get("bob")
	if ra.Password != "a-pw" || ra.Color != rules.White || rb.Color != rules.Black || rb.Opponent != "alice" {
		t.Fatalf("pair not restored: %+v %+v", ra, rb)
	}
	if got := r.Game(rb); got == nil || got.Encode() != g.Encode() {
		t.Fatalf("game not restored exactly")
	}
	rc, _ := r.Get("carol")
	rd, _ := r.Get("dave")
	if r.StateOf(rc) != Requested || rd.Color != rules.White || rc.Color != rules.Black {
		t.Fatalf("pending request not restored: %+v %+v", rc, rd)
	}
	if !rd.RequestTime.IsZero() {
		t.Fatalf("request time is not persisted")
	}
	re, _ := r.Get("erin")
	if r.StateOf(re) != Idle {
		t.Fatalf("erin should be idle")
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}
