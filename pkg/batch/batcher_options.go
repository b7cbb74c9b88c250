package batch

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring a Batcher.
type Option[T any] func(*Batcher[T])

// WithDelay sets the debounce delay between the first enqueue and the
// scheduled flush. Non-positive values are ignored.
func WithDelay[T any](delay time.Duration) Option[T] {
	return func(b *Batcher[T]) {
		if delay > 0 {
			b.delay = delay
		}
	}
}

// WithLogger sets the logger used for dropped-batch reporting.
func WithLogger[T any](log *slog.Logger) Option[T] {
	return func(b *Batcher[T]) {
		if log != nil {
			b.log = log
		}
	}
}

// WithErrorHandler registers a callback invoked with the delivery error and
// the number of dropped items whenever a flush fails.
func WithErrorHandler[T any](fn func(err error, dropped int)) Option[T] {
	return func(b *Batcher[T]) {
		b.onError = fn
	}
}
