package featureflow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/featureflow/featureflow-go/pkg/logger"
	"github.com/featureflow/featureflow-go/pkg/storage"
)

const (
	anonymousIDKey    = "ff-anonymous-id"
	anonymousIDPrefix = "anonymous:"
)

// identityStore lazily generates and persists a stable pseudo-identity for
// unauthenticated users. Identity continuity is best-effort: persistence
// failures are logged and swallowed, so a fresh id may be handed out after
// a restart if the store is unavailable.
type identityStore struct {
	store storage.Storage
	log   *slog.Logger
}

func newIdentityStore(store storage.Storage, log *slog.Logger) *identityStore {
	return &identityStore{store: store, log: log}
}

// anonymousID returns the persisted anonymous id, generating and persisting
// a new one when none exists or the read fails.
func (s *identityStore) anonymousID(ctx context.Context) string {
	id, err := s.store.Get(ctx, anonymousIDKey)
	if err == nil && id != "" {
		return id
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Warn("failed to read anonymous id",
			logger.Component("identity"), logger.Error(err))
	}
	return s.reset(ctx)
}

// reset unconditionally generates a new anonymous id and persists it,
// returning the new value whether or not the persist succeeded.
func (s *identityStore) reset(ctx context.Context) string {
	id := anonymousIDPrefix + uuid.NewString()
	if err := s.store.Set(ctx, anonymousIDKey, id); err != nil {
		s.log.Warn("failed to persist anonymous id",
			logger.Component("identity"), logger.Error(err))
	}
	return id
}
