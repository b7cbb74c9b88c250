// Package storage defines the persistent key-value capability used by the
// featureflow client for feature caching and anonymous identity.
//
// The Storage interface is deliberately minimal: get, set, and remove of
// string blobs keyed by string, with no ordering or transaction guarantees.
// The client treats every storage failure as recoverable, so implementations
// may be best-effort.
//
// Three implementations ship with the package:
//
//   - MemoryStorage: process-local map, suitable for tests and hosts
//     without durable storage.
//   - RedisStorage: backed by a go-redis client, for services that want a
//     flag cache shared across instances.
//   - PostgresStorage: backed by a pgx pool, for services already carrying
//     a Postgres connection.
//
// Implementations keyed to the same backend may race last-write-wins on a
// shared key; the client's key namespaces are idempotent writes so no
// coordination is required.
package storage
