package archive

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSANFoolsMate(t *testing.T) {
	san, err := SAN("", []string{"f2f3", "e7e5", "g2g4", "d8h4"})
	if err != nil {
		t.Fatalf("SAN: %v", err)
	}
	if got := strings.Join(san, " "); got != "f3 e5 g4 Qh4#" {
		t.Fatalf("SAN = %q", got)
	}
}

func TestPGN(t *testing.T) {
	r := Result{
		ID: NewID(), White: "alice", Black: "b\"ob", Winner: WinnerBlack, Method: MethodCheckmate,
		Ended: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	pgn := PGN(r, []string{"f3", "e5", "g4", "Qh4#"})
	for _, want := range []string{
		`[Date "2026.03.01"]`,
		`[Black "b'ob"]`,
		`[Termination "checkmate"]`,
		`[Result "0-1"]`,
		"1. f3 e5 2. g4 Qh4# 0-1",
	} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("PGN missing %q:\n%s", want, pgn)
		}
	}
}

func TestPGNResumedWithBlackToMove(t *testing.T) {
	r := Result{Winner: WinnerDraw, StartFEN: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"}
	pgn := PGN(r, []string{"e5", "Nf3"})
	if !strings.Contains(pgn, `[SetUp "1"]`) || !strings.Contains(pgn, "1... e5 2. Nf3 1/2-1/2") {
		t.Fatalf("unexpected PGN:\n%s", pgn)
	}
}

type memSink struct {
	mu    sync.Mutex
	saved []Result
	fail  bool
}

func (m *memSink) SaveResult(_ context.Context, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("boom")
	}
	m.saved = append(m.saved, r)
	return nil
}

func TestWriterFlushesOnClose(t *testing.T) {
	sink := &memSink{}
	w := NewWriter(sink, 8, nil)
	for i := 0; i < 5; i++ {
		w.Record(Result{ID: NewID()})
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(sink.saved) != 5 {
		t.Fatalf("saved %d results", len(sink.saved))
	}
	w.Record(Result{ID: "late"}) // dropped, must not panic
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestWriterSurvivesSinkErrors(t *testing.T) {
	sink := &memSink{fail: true}
	w := NewWriter(sink, 1, nil)
	w.Record(Result{ID: "a"})
	_ = w.Close()
	if len(sink.saved) != 0 {
		t.Fatalf("nothing should be saved")
	}
}

// Runs only against a real database: TEST_DATABASE_URL=postgres://...
func TestRepositorySaveResult(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	repo, err := NewRepository(url)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	defer repo.Close()
	ctx := context.Background()
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	r := Result{
		ID: NewID(), White: "alice", Black: "bob", Winner: WinnerBlack, Method: MethodCheckmate,
		MovesUCI: []string{"f2f3", "e7e5", "g2g4", "d8h4"}, Started: time.Now().Add(-time.Minute), Ended: time.Now(),
	}
	if err := repo.SaveResult(ctx, r); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if err := repo.SaveResult(ctx, r); err != nil {
		t.Fatalf("SaveResult upsert: %v", err)
	}
}

func TestNewRepositoryRequiresURL(t *testing.T) {
	if _, err := NewRepository(" "); err == nil {
		t.Fatalf("expected error")
	}
}
