package storage

import "context"

// Storage is the persistent key-value capability injected into the
// featureflow client. Get returns ErrNotFound for absent keys; Set
// overwrites unconditionally.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
