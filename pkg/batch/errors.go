package batch

import "errors"

// Predefined errors for the batch package.
var (
	// ErrNilFlushFunc indicates a batcher was constructed without a flush
	// function.
	ErrNilFlushFunc = errors.New("batch: flush function cannot be nil")
)
