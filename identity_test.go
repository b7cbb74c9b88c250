package featureflow

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/featureflow/featureflow-go/pkg/logger"
	"github.com/featureflow/featureflow-go/pkg/storage"
)

func TestIdentityStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("generates a prefixed id on first use", func(t *testing.T) {
		t.Parallel()

		s := newIdentityStore(storage.NewMemoryStorage(), logger.Discard())

		id := s.anonymousID(ctx)
		assert.True(t, strings.HasPrefix(id, anonymousIDPrefix))
		assert.Greater(t, len(id), len(anonymousIDPrefix))
	})

	t.Run("id is stable across reads", func(t *testing.T) {
		t.Parallel()

		s := newIdentityStore(storage.NewMemoryStorage(), logger.Discard())

		first := s.anonymousID(ctx)
		assert.Equal(t, first, s.anonymousID(ctx))
	})

	t.Run("reset replaces the id", func(t *testing.T) {
		t.Parallel()

		s := newIdentityStore(storage.NewMemoryStorage(), logger.Discard())

		first := s.anonymousID(ctx)
		reset := s.reset(ctx)
		assert.NotEqual(t, first, reset)
		assert.Equal(t, reset, s.anonymousID(ctx))
	})

	t.Run("persisted id survives a new store instance", func(t *testing.T) {
		t.Parallel()

		store := storage.NewMemoryStorage()
		first := newIdentityStore(store, logger.Discard()).anonymousID(ctx)

		again := newIdentityStore(store, logger.Discard()).anonymousID(ctx)
		assert.Equal(t, first, again)
	})

	t.Run("storage failure still yields an id", func(t *testing.T) {
		t.Parallel()

		s := newIdentityStore(failingStorage{}, logger.Discard())

		id := s.anonymousID(ctx)
		require.True(t, strings.HasPrefix(id, anonymousIDPrefix))
	})
}

// failingStorage errors on every operation.
type failingStorage struct{}

func (failingStorage) Get(context.Context, string) (string, error) {
	return "", assert.AnError
}

func (failingStorage) Set(context.Context, string, string) error {
	return assert.AnError
}

func (failingStorage) Remove(context.Context, string) error {
	return assert.AnError
}
