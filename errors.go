package featureflow

import "errors"

// Predefined errors for the featureflow package.
var (
	// ErrMissingAPIKey indicates the client was constructed without an API
	// key.
	ErrMissingAPIKey = errors.New("featureflow: API key is required")

	// ErrInvalidConfig indicates the configuration could not be loaded or
	// parsed.
	ErrInvalidConfig = errors.New("featureflow: invalid configuration")

	// ErrNetwork indicates a fetch or flush failed with a transport error,
	// an unexpected status, or a non-JSON response. The client falls back
	// to cached or default features before surfacing it.
	ErrNetwork = errors.New("featureflow: request failed")

	// ErrTimeout indicates a request exceeded the configured timeout.
	ErrTimeout = errors.New("featureflow: request timed out")

	// ErrMalformedCache indicates a cache entry could not be decoded. It is
	// handled internally as a cache miss and never surfaced to callers.
	ErrMalformedCache = errors.New("featureflow: malformed cache entry")
)
