package registry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// wsConn lets the HTTP handler wait until the coordinator or reader closes the stream.
type wsConn struct {
	net.Conn
	once sync.Once
	done chan struct{}
}

func (c *wsConn) Close() error {
	err := c.Conn.Close()
	c.once.Do(func() { close(c.done) })
	return err
}

// WebSocketHandler upgrades requests and feeds the byte stream of text
// messages into the same accept queue as TCP clients.
func (r *Registry) WebSocketHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ws, err := websocket.Accept(w, req, &websocket.AcceptOptions{
			CompressionMode: websocket.CompressionNoContextTakeover,
		})
		if err != nil {
			r.logger.Warn("ws_accept_failed", zap.String("remote", req.RemoteAddr), zap.Error(err))
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		conn := &wsConn{Conn: websocket.NetConn(ctx, ws, websocket.MessageText), done: make(chan struct{})}
		r.logger.Info("ws_accept", zap.String("remote", req.RemoteAddr))
		r.Enqueue(conn)
		<-conn.done
	})
}

// ServeWebSocket runs an HTTP server exposing the gateway at /ws until ctx ends.
func (r *Registry) ServeWebSocket(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", r.WebSocketHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	r.logger.Info("ws_listen", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
