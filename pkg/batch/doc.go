// Package batch provides a debounced in-memory batcher for fire-and-forget
// delivery of accumulated items.
//
// Enqueue appends to a buffer and arms a single timer; when the debounce
// delay elapses the buffer is drained and handed to the flush function in
// one call. Flush outcomes are not surfaced to enqueuers: a failed flush is
// logged, reported to the optional error handler, and the items are
// dropped. This matches the analytics use case the batcher was built for,
// where losing a window of events is preferable to blocking the caller.
//
// Close cancels any pending timer and performs a final synchronous flush of
// whatever remains.
//
//	b, _ := batch.New(func(ctx context.Context, items []Event) error {
//		return client.PostEvents(ctx, items)
//	}, batch.WithDelay[Event](2*time.Second))
//
//	b.Enqueue(Event{...})
//	defer b.Close(ctx)
package batch
