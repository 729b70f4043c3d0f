package match

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/park285/chessmatch/internal/archive"
	"github.com/park285/chessmatch/internal/msgcat"
	"github.com/park285/chessmatch/internal/profile"
	"github.com/park285/chessmatch/internal/registry"
	"go.uber.org/zap"
)

var ErrStopped = errors.New("match: coordinator stopped")

// Archiver receives finished games. *archive.Writer implements it.
type Archiver interface {
	Record(r archive.Result)
}

type nopArchiver struct{}

func (nopArchiver) Record(archive.Result) {}

// Coordinator is the single goroutine that owns every profile, pairing and
// game. Readers only fill client inboxes; everything else happens in Run.
type Coordinator struct {
	reg     *registry.Registry
	store   *profile.Store
	msgs    *msgcat.Catalog
	archive Archiver
	logger  *zap.Logger

	rng          *rand.Rand
	now          func() time.Time
	cancelWait   time.Duration
	autosave     time.Duration
	saveTimeout  time.Duration
	clients      []*registry.Client
	games        map[string]*gameLog // keyed by the white player's name
	stopping     bool
	dirty        bool
	requests     chan func()
	done         chan struct{}
	shutdownNote bool
}

type Option func(*Coordinator)

func WithSeed(seed int64) Option {
	return func(c *Coordinator) {
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		c.rng = rand.New(rand.NewSource(seed))
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

func WithCancelWait(d time.Duration) Option {
	return func(c *Coordinator) { c.cancelWait = d }
}

// WithAutosave saves profiles every d while anything changed; 0 disables it.
func WithAutosave(d time.Duration) Option {
	return func(c *Coordinator) { c.autosave = d }
}

func WithArchiver(a Archiver) Option {
	return func(c *Coordinator) {
		if a != nil {
			c.archive = a
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithShutdownNotice tells linked clients that the server is going down.
func WithShutdownNotice(on bool) Option {
	return func(c *Coordinator) { c.shutdownNote = on }
}

func New(reg *registry.Registry, store *profile.Store, msgs *msgcat.Catalog, opts ...Option) *Coordinator {
	c := &Coordinator{
		reg:         reg,
		store:       store,
		msgs:        msgs,
		archive:     nopArchiver{},
		logger:      zap.NewNop(),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
		cancelWait:  30 * time.Second,
		saveTimeout: 10 * time.Second,
		games:       make(map[string]*gameLog),
		requests:    make(chan func()),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.msgs == nil {
		c.msgs = msgcat.Default()
	}
	return c
}

// Run drives ticks until an admin shutdown or ctx ends, then saves profiles.
// Persistence failures are logged and do not keep the loop alive.
func (c *Coordinator) Run(ctx context.Context) error {
	defer close(c.done)
	c.logger.Info("coordinator_start", zap.Int("profiles", c.store.Len()))

	var autosave <-chan time.Time
	if c.autosave > 0 {
		t := time.NewTicker(c.autosave)
		defer t.Stop()
		autosave = t.C
	}

	for {
		busy := c.tick()
		if c.stopping {
			c.finish()
			return nil
		}
		if busy {
			// more lines queued; keep draining without blocking, but stay responsive
			select {
			case fn := <-c.requests:
				fn()
			case <-ctx.Done():
				c.finish()
				return ctx.Err()
			default:
			}
			continue
		}
		select {
		case <-c.reg.Wake():
		case fn := <-c.requests:
			fn()
		case <-autosave:
			if c.dirty {
				c.persist()
			}
		case <-ctx.Done():
			c.finish()
			return ctx.Err()
		}
	}
}

// tick runs one pass of the loop and reports whether inbound lines remain.
func (c *Coordinator) tick() bool {
	for _, conn := range c.reg.Drain() {
		cl := c.reg.Wrap(conn)
		c.clients = append(c.clients, cl)
		c.logger.Info("client_connected", zap.Uint64("client", cl.ID()), zap.String("remote", cl.Remote()))
		c.svrmsg(cl, "login.prompt", nil)
	}

	live := c.clients[:0]
	for _, cl := range c.clients {
		if cl.Closed() {
			c.detach(cl)
			continue
		}
		live = append(live, cl)
	}
	for i := len(live); i < len(c.clients); i++ {
		c.clients[i] = nil
	}
	c.clients = live

	busy := false
	for _, cl := range c.clients {
		line, ok := cl.Next()
		if !ok {
			continue
		}
		c.dispatch(cl, line)
		if cl.Pending() > 0 {
			busy = true
		}
	}
	return busy
}

// detach unlinks a closed client's profile. Pairing and game stay as they are.
func (c *Coordinator) detach(cl *registry.Client) {
	c.logger.Info("client_disconnected", zap.Uint64("client", cl.ID()), zap.String("profile", cl.Profile))
	if cl.Profile == "" {
		return
	}
	if p, ok := c.store.Get(cl.Profile); ok && p.Client == cl {
		p.Client = nil
	}
	cl.Profile = ""
}

func (c *Coordinator) finish() {
	if c.shutdownNote {
		for _, cl := range c.clients {
			if cl.Profile != "" {
				c.svrmsg(cl, "admin.shutdown", nil)
			}
		}
	}
	c.persist()
	for _, cl := range c.clients {
		_ = cl.Close()
	}
	c.clients = nil
	c.logger.Info("coordinator_stop")
}

func (c *Coordinator) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), c.saveTimeout)
	defer cancel()
	if err := c.store.Save(ctx); err != nil {
		c.logger.Error("profiles_save_failed", zap.Error(err))
		return
	}
	c.dirty = false
}

// do runs fn on the loop goroutine and waits for it. Once the loop has taken
// fn, do waits for it to return even if ctx ends, so callers may read what fn
// captured.
func (c *Coordinator) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}
	select {
	case c.requests <- wrapped:
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// Done is closed once Run has returned.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

func (c *Coordinator) svrmsg(cl *registry.Client, key string, data any) {
	_ = cl.Send(svrLine(c.msgs.Text(key, data)))
}

// tell sends a catalog message to p if it is online.
func (c *Coordinator) tell(p *profile.Profile, key string, data any) {
	p.Send(svrLine(c.msgs.Text(key, data)))
}

func (c *Coordinator) recoverDispatch(cl *registry.Client, line string) {
	if r := recover(); r != nil {
		c.logger.Error("dispatch_panic",
			zap.Uint64("client", cl.ID()),
			zap.String("profile", cl.Profile),
			zap.String("line", line),
			zap.String("panic", fmt.Sprint(r)),
		)
	}
}
