package admin

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/park285/chessmatch/internal/match"
	"github.com/park285/chessmatch/internal/profile"
	"github.com/park285/chessmatch/internal/registry"
	"github.com/park285/chessmatch/internal/rules"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

// newBackend runs a coordinator over alice (white) vs bob plus an idle carol.
func newBackend(t *testing.T) *match.Coordinator {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.txt")
	store := profile.NewStore(profile.NewFileBackend(path), nil)
	for _, n := range []string{"alice", "bob", "carol"} {
		if _, err := store.Put(n, "pw"); err != nil {
			t.Fatalf("Put %s: %v", n, err)
		}
	}
	alice, _ := store.Get("alice")
	bob, _ := store.Get("bob")
	store.Pair(alice, bob, time.Now())
	if _, err := store.StartGame(bob, rules.Black); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	c := match.New(registry.New(), store, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-c.Done()
	})
	return c
}

func exec(t *testing.T, con *Console, line string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := con.Exec(context.Background(), line, &out)
	return out.String(), err
}

func TestConsoleCommands(t *testing.T) {
	con := NewConsole(newBackend(t), ConsoleConfig{}, nil)

	out, err := exec(t, con, "players")
	if err != nil || !strings.Contains(out, "alice") || !strings.Contains(out, "in_game") || !strings.Contains(out, "idle") {
		t.Fatalf("players: %v\n%s", err, out)
	}

	out, err = exec(t, con, "game bob")
	if err != nil {
		t.Fatalf("game: %v", err)
	}
	for _, want := range []string{"alice (white) vs bob (black), white to move", "rnbqkbnr", "RNBQKBNR", "01111/"} {
		if !strings.Contains(out, want) {
			t.Fatalf("game output missing %q:\n%s", want, out)
		}
	}

	out, err = exec(t, con, "moves alice")
	if err != nil || !strings.HasPrefix(out, "20 legal moves:") || !strings.Contains(out, "e2e4") {
		t.Fatalf("moves: %v\n%s", err, out)
	}

	if _, err := exec(t, con, "game carol"); !errors.Is(err, match.ErrNotInGame) {
		t.Fatalf("game carol err = %v", err)
	}
	if _, err := exec(t, con, "msg carol hi"); !errors.Is(err, match.ErrOffline) {
		t.Fatalf("msg carol err = %v", err)
	}
	out, err = exec(t, con, "broadcast hello")
	if err != nil || out != "Sent to 0 players\n" {
		t.Fatalf("broadcast: %v %q", err, out)
	}
	if _, err := exec(t, con, "remove bob"); !errors.Is(err, profile.ErrPaired) {
		t.Fatalf("remove bob err = %v", err)
	}
	if out, err := exec(t, con, "remove carol"); err != nil || out != "Removed carol\n" {
		t.Fatalf("remove carol: %v %q", err, out)
	}
	if out, err := exec(t, con, "save"); err != nil || out != "Profiles saved.\n" {
		t.Fatalf("save: %v %q", err, out)
	}
}

func TestConsoleUsageAndUnknown(t *testing.T) {
	con := NewConsole(newBackend(t), ConsoleConfig{}, nil)
	for line, want := range map[string]string{
		"game":        "Usage: game NAME\n",
		"msg alice":   "Usage: msg NAME TEXT\n",
		"render bob":  "Usage: render NAME FILE\n",
		"frobnicate":  "Unknown command: frobnicate\n",
		"   ":         "",
		"broadcast  ": "Usage: broadcast TEXT\n",
	} {
		out, err := exec(t, con, line)
		if err != nil {
			t.Fatalf("%q: %v", line, err)
		}
		if !strings.HasPrefix(out, want) {
			t.Fatalf("%q printed %q, want prefix %q", line, out, want)
		}
	}
	out, _ := exec(t, con, "help")
	if !strings.Contains(out, "msg NAME TEXT") || !strings.Contains(out, "exit") {
		t.Fatalf("help:\n%s", out)
	}
}

func TestConsoleRenderAndExit(t *testing.T) {
	c := newBackend(t)
	con := NewConsole(c, ConsoleConfig{}, nil)
	file := filepath.Join(t.TempDir(), "alice.png")
	if _, err := exec(t, con, "render alice "+file); err != nil {
		t.Fatalf("render: %v", err)
	}
	if fi, err := os.Stat(file); err != nil || fi.Size() == 0 {
		t.Fatalf("png not written: %v", err)
	}

	if _, err := exec(t, con, "exit"); !errors.Is(err, ErrExit) {
		t.Fatalf("exit err = %v", err)
	}
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("coordinator did not stop")
	}
}

func startStatus(t *testing.T, b Backend) *StatusClient {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := NewStatusServer(b, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx, ln)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return NewStatusClient("http://status.test",
		WithRetry(1),
		WithDial(func(string) (net.Conn, error) { return ln.Dial() }),
	)
}

func TestStatusEndpoints(t *testing.T) {
	client := startStatus(t, newBackend(t))
	ctx := context.Background()

	if err := client.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
	players, err := client.Players(ctx)
	if err != nil {
		t.Fatalf("Players: %v", err)
	}
	if len(players.Online) != 0 || len(players.Profiles) != 3 || players.Profiles[1].Opponent != "alice" {
		t.Fatalf("players = %+v", players)
	}
	game, err := client.Game(ctx, "alice")
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if game.State != rules.New().Encode() || len(game.Board) != 8 || game.Board[0] != "rnbqkbnr" || game.White != "alice" {
		t.Fatalf("game = %+v", game)
	}
	if _, err := client.Game(ctx, "carol"); err == nil || !strings.Contains(err.Error(), "status=404") {
		t.Fatalf("Game(carol) err = %v", err)
	}
}

func TestStatusHandlerRejectsOtherMethods(t *testing.T) {
	srv := NewStatusServer(newBackend(t), nil)
	var rc fasthttp.RequestCtx
	rc.Request.Header.SetMethod(fasthttp.MethodPost)
	rc.Request.SetRequestURI("/healthz")
	srv.Handler(&rc)
	if rc.Response.StatusCode() != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rc.Response.StatusCode())
	}

	var missing fasthttp.RequestCtx
	missing.Request.SetRequestURI("/nope")
	srv.Handler(&missing)
	if missing.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("status = %d", missing.Response.StatusCode())
	}
}
