package registry

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/park285/chessmatch/pkg/wire"
	"go.uber.org/zap"
)

var (
	ErrClosed        = errors.New("registry: client closed")
	ErrInboxOverflow = errors.New("registry: inbox overflow")
)

// Client is one live connection: a serialized send path, a FIFO of inbound
// lines filled by its reader goroutine and a closed flag.
type Client struct {
	id     uint64
	conn   net.Conn
	remote string

	sendMu       sync.Mutex
	writeTimeout time.Duration

	inMu     sync.Mutex
	inbox    []string
	inboxMax int

	closed    atomic.Bool
	closeOnce sync.Once
	wake      func()
	logger    *zap.Logger

	// Profile is the linked profile name. Only the coordinator touches it.
	Profile string
}

func (c *Client) ID() uint64     { return c.id }
func (c *Client) Remote() string { return c.remote }

// Closed reports whether the reader has stopped or a write failed.
func (c *Client) Closed() bool { return c.closed.Load() }

// Send writes one line followed by CRLF. Concurrent callers are serialized.
func (c *Client) Send(line string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if _, err := c.conn.Write([]byte(line + wire.CRLF)); err != nil {
		c.logger.Debug("client_write_failed", zap.Uint64("client", c.id), zap.Error(err))
		c.markClosed()
		return err
	}
	return nil
}

// Next pops the oldest inbound line.
func (c *Client) Next() (string, bool) {
	c.inMu.Lock()
	defer c.inMu.Unlock()
	if len(c.inbox) == 0 {
		return "", false
	}
	line := c.inbox[0]
	c.inbox[0] = ""
	c.inbox = c.inbox[1:]
	return line, true
}

// Pending returns the number of queued inbound lines.
func (c *Client) Pending() int {
	c.inMu.Lock()
	defer c.inMu.Unlock()
	return len(c.inbox)
}

// Close shuts the connection; the reader then exits on its own.
func (c *Client) Close() error {
	c.markClosed()
	return nil
}

func (c *Client) markClosed() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		_ = c.conn.Close()
		c.wake()
	})
}

func (c *Client) push(line string) error {
	c.inMu.Lock()
	if c.inboxMax > 0 && len(c.inbox) >= c.inboxMax {
		c.inMu.Unlock()
		return ErrInboxOverflow
	}
	c.inbox = append(c.inbox, line)
	c.inMu.Unlock()
	c.wake()
	return nil
}

func (c *Client) readLoop() {
	defer c.markClosed()
	sc := wire.NewScanner(c.conn)
	for sc.Scan() {
		if err := c.push(sc.Text()); err != nil {
			c.logger.Warn("client_inbox_overflow", zap.Uint64("client", c.id), zap.String("remote", c.remote))
			return
		}
	}
	if err := sc.Err(); err != nil {
		c.logger.Info("client_read_failed", zap.Uint64("client", c.id), zap.String("remote", c.remote), zap.Error(err))
		return
	}
	c.logger.Debug("client_eof", zap.Uint64("client", c.id), zap.String("remote", c.remote))
}
