package registry

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Registry owns the accept side: listeners push raw connections into a queue
// that the coordinator drains, and every push or inbound line signals Wake.
type Registry struct {
	mu      sync.Mutex
	pending []net.Conn

	wake   chan struct{}
	nextID atomic.Uint64

	inboxMax     int
	writeTimeout time.Duration
	logger       *zap.Logger
}

type Option func(*Registry)

func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithInboxLimit bounds queued inbound lines per client; 0 disables the bound.
func WithInboxLimit(n int) Option {
	return func(r *Registry) { r.inboxMax = n }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(r *Registry) { r.writeTimeout = d }
}

func New(opts ...Option) *Registry {
	r := &Registry{
		wake:         make(chan struct{}, 1),
		inboxMax:     256,
		writeTimeout: 5 * time.Second,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Wake fires at least once after any enqueue, inbound line or client close.
func (r *Registry) Wake() <-chan struct{} { return r.wake }

func (r *Registry) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Enqueue hands a freshly accepted connection to the coordinator.
func (r *Registry) Enqueue(conn net.Conn) {
	r.mu.Lock()
	r.pending = append(r.pending, conn)
	r.mu.Unlock()
	r.signal()
}

// Drain removes and returns every queued connection.
func (r *Registry) Drain() []net.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	return out
}

// Wrap turns a connection into a Client and starts its reader.
func (r *Registry) Wrap(conn net.Conn) *Client {
	c := &Client{
		id:           r.nextID.Add(1),
		conn:         conn,
		remote:       conn.RemoteAddr().String(),
		writeTimeout: r.writeTimeout,
		inboxMax:     r.inboxMax,
		wake:         r.signal,
		logger:       r.logger,
	}
	go c.readLoop()
	return c
}

// Serve accepts on ln until ctx is done or the listener fails.
func (r *Registry) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	r.logger.Info("registry_listen", zap.String("addr", ln.Addr().String()))
	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				backoff = nextBackoff(backoff)
				r.logger.Warn("registry_accept_retry", zap.Duration("backoff", backoff), zap.Error(err))
				time.Sleep(backoff)
				continue
			}
			return err
		}
		backoff = 0
		r.logger.Info("registry_accept", zap.String("remote", conn.RemoteAddr().String()))
		r.Enqueue(conn)
	}
}

// ListenAndServe listens on addr (normally ":1729") and serves until ctx ends.
func (r *Registry) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return r.Serve(ctx, ln)
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
