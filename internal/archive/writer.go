package archive

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sink is where finished games end up. *Repository implements it.
type Sink interface {
	SaveResult(ctx context.Context, r Result) error
}

// Writer hands results to a Sink on a background goroutine so the match loop
// never waits on the database.
type Writer struct {
	sink    Sink
	queue   chan Result
	timeout time.Duration
	logger  *zap.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewWriter(sink Sink, buffer int, logger *zap.Logger) *Writer {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Writer{sink: sink, queue: make(chan Result, buffer), timeout: 5 * time.Second, logger: logger}
	w.wg.Add(1)
	go w.loop()
	return w
}

// Record enqueues r. A full queue drops the result with a warning.
func (w *Writer) Record(r Result) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.logger.Warn("archive_closed_drop", zap.String("game_id", r.ID))
		return
	}
	select {
	case w.queue <- r:
	default:
		w.logger.Warn("archive_queue_full_drop", zap.String("game_id", r.ID))
	}
}

func (w *Writer) loop() {
	defer w.wg.Done()
	for r := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.sink.SaveResult(ctx, r)
		cancel()
		if err != nil {
			w.logger.Error("archive_save_failed", zap.String("game_id", r.ID), zap.Error(err))
			continue
		}
		w.logger.Info("archive_saved",
			zap.String("game_id", r.ID),
			zap.String("white", r.White),
			zap.String("black", r.Black),
			zap.String("winner", r.Winner),
			zap.String("method", r.Method),
			zap.Int("plies", len(r.MovesUCI)),
		)
	}
}

// Close stops accepting results and waits for queued ones to be written.
func (w *Writer) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.queue)
		w.mu.Unlock()
	})
	w.wg.Wait()
	return nil
}
