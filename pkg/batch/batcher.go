package batch

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"
)

// DefaultDelay is the debounce window between the first enqueue and the
// scheduled flush.
const DefaultDelay = 2 * time.Second

// FlushFunc delivers one drained batch. The error return is used only for
// observability; items are never re-enqueued.
type FlushFunc[T any] func(ctx context.Context, items []T) error

// Batcher accumulates items and flushes them in one call after a debounce
// delay. All methods are safe for concurrent use.
type Batcher[T any] struct {
	flush   FlushFunc[T]
	delay   time.Duration
	log     *slog.Logger
	onError func(err error, dropped int)

	mu     sync.Mutex
	items  []T
	timer  *time.Timer
	closed bool
}

// New creates a batcher that delivers drained batches through flush.
func New[T any](flush FlushFunc[T], opts ...Option[T]) (*Batcher[T], error) {
	if flush == nil {
		return nil, ErrNilFlushFunc
	}

	b := &Batcher[T]{
		flush: flush,
		delay: DefaultDelay,
		log:   slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Enqueue appends item to the buffer and, if no flush is currently
// scheduled, arms the debounce timer. Items enqueued on a closed batcher
// are dropped.
func (b *Batcher[T]) Enqueue(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		b.log.Warn("batch: enqueue on closed batcher, item dropped")
		return
	}

	b.items = append(b.items, item)
	if b.timer == nil {
		b.timer = time.AfterFunc(b.delay, func() {
			b.Flush(context.Background())
		})
	}
}

// Len returns the number of buffered items.
func (b *Batcher[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.items)
}

// Flush atomically drains the buffer, clears the scheduled-flush marker,
// and delivers the batch in a single call. A delivery failure is logged and
// reported to the error handler; the drained items are not retried.
func (b *Batcher[T]) Flush(ctx context.Context) {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	items := b.items
	b.items = nil
	b.mu.Unlock()

	if len(items) == 0 {
		return
	}

	if err := b.flush(ctx, items); err != nil {
		b.log.Warn("batch: flush failed, batch dropped",
			slog.Int("dropped", len(items)),
			slog.Any("error", err))
		if b.onError != nil {
			b.onError(err, len(items))
		}
	}
}

// Close cancels any pending timer and performs one final flush of whatever
// remains. Subsequent enqueues are dropped. Close is idempotent.
func (b *Batcher[T]) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.Flush(ctx)
	return nil
}
