package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/park285/chessmatch/internal/admin"
	"github.com/park285/chessmatch/pkg/wire"
	"nhooyr.io/websocket"
)

// chessprobe logs in to a running server, sends the lines given as arguments
// and prints everything the server answers for a short window.
//
//	CHESS_ADDR=localhost:1729 CHESS_NAME=alice CHESS_PASSWORD=pw chessprobe refresh "request bob"
func main() {
	addr := getenv("CHESS_ADDR", fmt.Sprintf("localhost:%d", wire.Port))
	wsURL := os.Getenv("CHESS_WS_URL")
	statusURL := os.Getenv("CHESS_STATUS_URL")
	name := os.Getenv("CHESS_NAME")
	password := os.Getenv("CHESS_PASSWORD")
	register := os.Getenv("CHESS_REGISTER") == "true"
	window := 3 * time.Second
	if v, err := time.ParseDuration(os.Getenv("CHESS_WINDOW")); err == nil && v > 0 {
		window = v
	}

	if statusURL != "" {
		checkStatus(statusURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, err := dial(ctx, addr, wsURL)
	if err != nil {
		log.Fatalf("connect error: %v", err)
	}
	defer conn.Close()

	go func() {
		sc := wire.NewScanner(conn)
		for sc.Scan() {
			fmt.Printf("< %s\n", strings.ReplaceAll(sc.Text(), "\t", "\\t"))
		}
		if err := sc.Err(); err != nil {
			log.Printf("read error: %v", err)
		}
	}()

	w := bufio.NewWriter(conn)
	send := func(line string) {
		fmt.Printf("> %s\n", line)
		_, _ = w.WriteString(line + wire.CRLF)
		if err := w.Flush(); err != nil {
			log.Fatalf("write error: %v", err)
		}
	}

	if name != "" {
		cmd := wire.CmdLogin
		if register {
			cmd = wire.CmdRegister
		}
		send(cmd + " " + name + "\t" + password)
	}
	for _, line := range os.Args[1:] {
		send(line)
	}

	// Observe for a short window
	t := time.NewTimer(window)
	<-t.C
}

func dial(ctx context.Context, addr, wsURL string) (net.Conn, error) {
	if wsURL == "" {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}
	ws, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		return nil, err
	}
	return websocket.NetConn(context.Background(), ws, websocket.MessageText), nil
}

func checkStatus(baseURL string) {
	client := admin.NewStatusClient(baseURL, admin.WithClientTimeout(5*time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Health(ctx); err != nil {
		log.Printf("/healthz error: %v", err)
		return
	}
	players, err := client.Players(ctx)
	if err != nil {
		log.Printf("/players error: %v", err)
		return
	}
	log.Printf("/players ok: online=%v profiles=%d", players.Online, len(players.Profiles))
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
