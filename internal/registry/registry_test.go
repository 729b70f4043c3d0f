package registry

import (
	"bufio"
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

func waitFor(t *testing.T, r *Registry, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-r.Wake():
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatalf("condition not met in time")
		}
	}
}

func TestClientQueuesLinesInOrder(t *testing.T) {
	r := New()
	server, peer := net.Pipe()
	c := r.Wrap(server)
	defer c.Close()

	go func() {
		_, _ = peer.Write([]byte("login alice\tpw\r\nrefresh\nchat hi\r\n"))
	}()
	waitFor(t, r, func() bool { return c.Pending() == 3 })

	want := []string{"login alice\tpw", "refresh", "chat hi"}
	for _, w := range want {
		got, ok := c.Next()
		if !ok || got != w {
			t.Fatalf("Next = %q, %v; want %q", got, ok, w)
		}
	}
	if _, ok := c.Next(); ok {
		t.Fatalf("inbox should be empty")
	}
}

func TestClientSendAppendsCRLF(t *testing.T) {
	r := New()
	server, peer := net.Pipe()
	c := r.Wrap(server)
	defer c.Close()

	done := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(peer).ReadString('\n')
		done <- line
	}()
	if err := c.Send("svrmsg Please log in or register."); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := <-done; got != "svrmsg Please log in or register.\r\n" {
		t.Fatalf("peer read %q", got)
	}
}

func TestClientClosedOnPeerHangup(t *testing.T) {
	r := New()
	server, peer := net.Pipe()
	c := r.Wrap(server)
	_ = peer.Close()
	waitFor(t, r, c.Closed)
	if err := c.Send("svrmsg late"); err == nil {
		t.Fatalf("send after close should fail")
	}
}

func TestInboxOverflowClosesClient(t *testing.T) {
	r := New(WithInboxLimit(2))
	server, peer := net.Pipe()
	c := r.Wrap(server)
	go func() {
		_, _ = peer.Write([]byte(strings.Repeat("refresh\n", 5)))
	}()
	waitFor(t, r, c.Closed)
	if c.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", c.Pending())
	}
}

func TestServeEnqueuesConnections(t *testing.T) {
	r := New()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var got []net.Conn
	waitFor(t, r, func() bool {
		got = append(got, r.Drain()...)
		return len(got) == 1
	})
	_ = got[0].Close()

	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("Serve: %v", err)
	}
}

func TestWebSocketGateway(t *testing.T) {
	r := New()
	srv := httptest.NewServer(r.WebSocketHandler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ws, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close(websocket.StatusNormalClosure, "")

	var conns []net.Conn
	waitFor(t, r, func() bool {
		conns = append(conns, r.Drain()...)
		return len(conns) == 1
	})
	c := r.Wrap(conns[0])
	defer c.Close()

	if err := ws.Write(ctx, websocket.MessageText, []byte("refresh\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, r, func() bool { return c.Pending() == 1 })
	if line, _ := c.Next(); line != "refresh" {
		t.Fatalf("line = %q", line)
	}

	if err := c.Send("players alice\t"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	_, msg, err := ws.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != "players alice\t\r\n" {
		t.Fatalf("ws got %q", msg)
	}
}
