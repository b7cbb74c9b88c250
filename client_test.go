package featureflow_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featureflow "github.com/featureflow/featureflow-go"
	"github.com/featureflow/featureflow-go/pkg/storage"
)

// featureServer serves a fixed feature payload and counts fetches.
func featureServer(t *testing.T, payload string) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv, &fetches
}

// eventsServer decodes every posted batch onto a channel.
func eventsServer(t *testing.T) (*httptest.Server, chan []map[string]any) {
	t.Helper()

	batches := make(chan []map[string]any, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		batches <- batch
	}))
	t.Cleanup(srv.Close)
	return srv, batches
}

func waitForBatch(t *testing.T, batches chan []map[string]any) []map[string]any {
	t.Helper()

	select {
	case batch := <-batches:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("no event batch arrived")
		return nil
	}
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("empty api key is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := featureflow.NewClient("")
		require.ErrorIs(t, err, featureflow.ErrMissingAPIKey)

		_, err = featureflow.NewClient("   ")
		require.ErrorIs(t, err, featureflow.ErrMissingAPIKey)
	})

	t.Run("no network activity before initialize", func(t *testing.T) {
		t.Parallel()

		srv, fetches := featureServer(t, `{}`)

		client, err := featureflow.NewClient("key", featureflow.WithBaseURL(srv.URL))
		require.NoError(t, err)
		defer client.Close(context.Background())

		assert.False(t, client.IsInitialized())
		assert.Zero(t, fetches.Load())
	})
}

func TestClientOffline(t *testing.T) {
	t.Parallel()

	srv, fetches := featureServer(t, `{"f":"network"}`)

	client, err := featureflow.NewClient("key",
		featureflow.WithBaseURL(srv.URL),
		featureflow.WithEventsURL(srv.URL),
		featureflow.WithOffline(true),
		featureflow.WithDefaultFeatures(map[string]string{"f": "on"}),
	)
	require.NoError(t, err)
	defer client.Close(context.Background())

	evaluated, err := client.Initialize(context.Background(), featureflow.User{ID: "u"})
	require.NoError(t, err)

	assert.Equal(t, featureflow.EvaluatedFeatures{"f": "on"}, evaluated)
	assert.True(t, client.Evaluate("f").IsOn())
	assert.True(t, client.IsInitialized())
	assert.True(t, client.HasReceivedInitialResponse())
	assert.Zero(t, fetches.Load(), "offline clients must not touch the network")

	client.Goal("signup")
	client.Flush(context.Background())
	assert.Zero(t, fetches.Load())
}

func TestClientInitialize(t *testing.T) {
	t.Parallel()

	t.Run("fetch success adopts and caches features", func(t *testing.T) {
		t.Parallel()

		srv, fetches := featureServer(t, `{"f":"variant-a"}`)
		store := storage.NewMemoryStorage()

		client, err := featureflow.NewClient("key",
			featureflow.WithBaseURL(srv.URL),
			featureflow.WithEventsURL(srv.URL),
			featureflow.WithStorage(store),
		)
		require.NoError(t, err)
		defer client.Close(context.Background())

		var order []string
		client.On(featureflow.EventInit, func(any) { order = append(order, featureflow.EventInit) })
		client.On(featureflow.EventLoaded, func(any) { order = append(order, featureflow.EventLoaded) })

		evaluated, err := client.Initialize(context.Background(), featureflow.User{ID: "u"})
		require.NoError(t, err)

		assert.Equal(t, featureflow.EvaluatedFeatures{"f": "variant-a"}, evaluated)
		assert.Equal(t, featureflow.EvaluatedFeatures{"f": "variant-a"}, client.GetFeatures())
		assert.Equal(t, []string{featureflow.EventInit, featureflow.EventLoaded}, order)
		assert.Equal(t, int64(1), fetches.Load())
		assert.True(t, client.IsInitialized())

		// A second client sharing the storage hits the fresh cache and
		// skips the network.
		second, err := featureflow.NewClient("key",
			featureflow.WithBaseURL(srv.URL),
			featureflow.WithEventsURL(srv.URL),
			featureflow.WithStorage(store),
		)
		require.NoError(t, err)
		defer second.Close(context.Background())

		var fromCache bool
		second.On(featureflow.EventLoadedFromCache, func(any) { fromCache = true })

		evaluated, err = second.Initialize(context.Background(), featureflow.User{ID: "u"})
		require.NoError(t, err)
		assert.Equal(t, featureflow.EvaluatedFeatures{"f": "variant-a"}, evaluated)
		assert.True(t, fromCache)
		assert.Equal(t, int64(1), fetches.Load(), "fresh cache hit must not fetch")
	})

	t.Run("fetch failure without fallback still initializes", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		client, err := featureflow.NewClient("key", featureflow.WithBaseURL(srv.URL))
		require.NoError(t, err)
		defer client.Close(context.Background())

		var gotErr error
		client.On(featureflow.EventError, func(payload any) { gotErr, _ = payload.(error) })

		evaluated, err := client.Initialize(context.Background(), featureflow.User{ID: "u"})
		require.ErrorIs(t, err, featureflow.ErrNetwork)

		assert.True(t, client.IsInitialized())
		assert.True(t, client.HasReceivedInitialResponse())
		assert.Empty(t, evaluated)
		assert.Empty(t, client.GetFeatures())
		require.ErrorIs(t, gotErr, featureflow.ErrNetwork)
	})

	t.Run("fetch failure falls back to defaults", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		client, err := featureflow.NewClient("key",
			featureflow.WithBaseURL(srv.URL),
			featureflow.WithEventsURL(srv.URL),
			featureflow.WithDefaultFeatures(map[string]string{"f": "on"}),
		)
		require.NoError(t, err)
		defer client.Close(context.Background())

		evaluated, err := client.Initialize(context.Background(), featureflow.User{ID: "u"})
		require.ErrorIs(t, err, featureflow.ErrNetwork)
		assert.Equal(t, featureflow.EvaluatedFeatures{"f": "on"}, evaluated)
		assert.True(t, client.Evaluate("f").IsOn())
	})

	t.Run("empty user id adopts the anonymous identity", func(t *testing.T) {
		t.Parallel()

		srv, _ := featureServer(t, `{}`)

		client, err := featureflow.NewClient("key", featureflow.WithBaseURL(srv.URL))
		require.NoError(t, err)
		defer client.Close(context.Background())

		_, err = client.Initialize(context.Background(), featureflow.User{})
		require.NoError(t, err)

		id := client.GetUser().ID
		assert.Contains(t, id, "anonymous:")
		assert.Equal(t, id, client.AnonymousID(context.Background()))
		assert.NotEqual(t, id, client.ResetAnonymousID(context.Background()))
	})
}

func TestClientInitOnCache(t *testing.T) {
	t.Parallel()

	srv, fetches := featureServer(t, `{"f":"fresh"}`)
	store := storage.NewMemoryStorage()

	// A stale cache entry: the timestamp is far outside any TTL window.
	require.NoError(t, store.Set(context.Background(),
		"ff:go:v2:u:key", `{"features":{"f":"cached"},"timestamp":1}`))

	client, err := featureflow.NewClient("key",
		featureflow.WithBaseURL(srv.URL),
		featureflow.WithEventsURL(srv.URL),
		featureflow.WithStorage(store),
		featureflow.WithInitOnCache(true),
	)
	require.NoError(t, err)
	defer client.Close(context.Background())

	type emitted struct {
		name    string
		variant string
	}
	var order []emitted
	record := func(name string) featureflow.Callback {
		return func(payload any) {
			features, _ := payload.(featureflow.EvaluatedFeatures)
			order = append(order, emitted{name: name, variant: features["f"]})
		}
	}
	client.On(featureflow.EventLoadedFromCache, record(featureflow.EventLoadedFromCache))
	client.On(featureflow.EventLoaded, record(featureflow.EventLoaded))
	client.On(featureflow.EventInit, func(payload any) {
		// Dependents unblock on INIT, so the client must already be ready.
		assert.True(t, client.IsInitialized())
		record(featureflow.EventInit)(payload)
	})

	evaluated, err := client.Initialize(context.Background(), featureflow.User{ID: "u"})
	require.NoError(t, err)

	// Cached data unblocks dependents first; the refresh re-announces INIT
	// so INIT-only subscribers see the fresh data too.
	assert.Equal(t, []emitted{
		{featureflow.EventLoadedFromCache, "cached"},
		{featureflow.EventInit, "cached"},
		{featureflow.EventInit, "fresh"},
		{featureflow.EventLoaded, "fresh"},
	}, order)
	assert.Equal(t, featureflow.EvaluatedFeatures{"f": "fresh"}, evaluated)
	assert.Equal(t, int64(1), fetches.Load())
}

func TestClientUpdateUser(t *testing.T) {
	t.Parallel()

	srv, fetches := featureServer(t, `{"f":"on"}`)

	client, err := featureflow.NewClient("key",
		featureflow.WithBaseURL(srv.URL),
		featureflow.WithCacheTTL(0),
	)
	require.NoError(t, err)
	defer client.Close(context.Background())

	_, err = client.Initialize(context.Background(), featureflow.User{ID: "u1"})
	require.NoError(t, err)

	var updated bool
	client.On(featureflow.EventUpdated, func(any) { updated = true })

	_, err = client.UpdateUser(context.Background(), featureflow.User{ID: "u2"})
	require.NoError(t, err)

	assert.True(t, updated)
	assert.Equal(t, "u2", client.GetUser().ID)
	assert.Equal(t, int64(2), fetches.Load())
}

func TestClientEventReporting(t *testing.T) {
	t.Parallel()

	t.Run("evaluations batch on the debounce timer", func(t *testing.T) {
		t.Parallel()

		srv, _ := featureServer(t, `{"a":"on","b":"off"}`)
		events, batches := eventsServer(t)

		client, err := featureflow.NewClient("key",
			featureflow.WithBaseURL(srv.URL),
			featureflow.WithEventsURL(events.URL),
			featureflow.WithFlushInterval(50*time.Millisecond),
		)
		require.NoError(t, err)
		defer client.Close(context.Background())

		_, err = client.Initialize(context.Background(), featureflow.User{ID: "u"})
		require.NoError(t, err)

		client.Evaluate("a")
		client.Evaluate("b")
		client.Evaluate("a") // deduplicated

		batch := waitForBatch(t, batches)
		require.Len(t, batch, 2)
		keys := []string{batch[0]["featureKey"].(string), batch[1]["featureKey"].(string)}
		assert.ElementsMatch(t, []string{"a", "b"}, keys)
		assert.Equal(t, "evaluate", batch[0]["type"])
		assert.Equal(t, float64(1), batch[0]["impressions"])
	})

	t.Run("disabling unique evals reports every call", func(t *testing.T) {
		t.Parallel()

		srv, _ := featureServer(t, `{"a":"on"}`)
		events, batches := eventsServer(t)

		client, err := featureflow.NewClient("key",
			featureflow.WithBaseURL(srv.URL),
			featureflow.WithEventsURL(events.URL),
			featureflow.WithUniqueEvals(false),
		)
		require.NoError(t, err)
		defer client.Close(context.Background())

		_, err = client.Initialize(context.Background(), featureflow.User{ID: "u"})
		require.NoError(t, err)

		client.Evaluate("a")
		client.Evaluate("a")
		client.Flush(context.Background())

		batch := waitForBatch(t, batches)
		assert.Len(t, batch, 2)
	})

	t.Run("goal carries the evaluated feature map", func(t *testing.T) {
		t.Parallel()

		srv, _ := featureServer(t, `{"a":"on"}`)
		events, batches := eventsServer(t)

		client, err := featureflow.NewClient("key",
			featureflow.WithBaseURL(srv.URL),
			featureflow.WithEventsURL(events.URL),
		)
		require.NoError(t, err)
		defer client.Close(context.Background())

		_, err = client.Initialize(context.Background(), featureflow.User{ID: "u"})
		require.NoError(t, err)

		client.Goal("signup")
		client.Flush(context.Background())

		batch := waitForBatch(t, batches)

		var goal map[string]any
		for _, ev := range batch {
			if ev["type"] == "goal" {
				goal = ev
			}
		}
		require.NotNil(t, goal)
		assert.Equal(t, "signup", goal["goalKey"])
		assert.Equal(t, map[string]any{"a": "on"}, goal["evaluatedFeatures"])
	})

	t.Run("close flushes the remaining queue", func(t *testing.T) {
		t.Parallel()

		srv, _ := featureServer(t, `{"a":"on"}`)
		events, batches := eventsServer(t)

		client, err := featureflow.NewClient("key",
			featureflow.WithBaseURL(srv.URL),
			featureflow.WithEventsURL(events.URL),
			featureflow.WithFlushInterval(time.Hour),
		)
		require.NoError(t, err)

		_, err = client.Initialize(context.Background(), featureflow.User{ID: "u"})
		require.NoError(t, err)

		client.Evaluate("a")
		require.NoError(t, client.Close(context.Background()))

		batch := waitForBatch(t, batches)
		assert.Len(t, batch, 1)
	})

	t.Run("unknown keys report nothing", func(t *testing.T) {
		t.Parallel()

		srv, _ := featureServer(t, `{}`)
		events, batches := eventsServer(t)

		client, err := featureflow.NewClient("key",
			featureflow.WithBaseURL(srv.URL),
			featureflow.WithEventsURL(events.URL),
		)
		require.NoError(t, err)
		defer client.Close(context.Background())

		_, err = client.Initialize(context.Background(), featureflow.User{ID: "u"})
		require.NoError(t, err)

		assert.True(t, client.Evaluate("missing").IsOff())
		client.Flush(context.Background())

		select {
		case batch := <-batches:
			t.Fatalf("unexpected batch: %v", batch)
		case <-time.After(100 * time.Millisecond):
		}
	})
}

func TestClientSubscriptions(t *testing.T) {
	t.Parallel()

	srv, _ := featureServer(t, `{}`)

	client, err := featureflow.NewClient("key",
		featureflow.WithBaseURL(srv.URL),
		featureflow.WithCacheTTL(0),
	)
	require.NoError(t, err)
	defer client.Close(context.Background())

	var calls int
	sub := client.On(featureflow.EventLoaded, func(any) { calls++ })

	_, err = client.Initialize(context.Background(), featureflow.User{ID: "u"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	client.Off(sub)
	_, err = client.Initialize(context.Background(), featureflow.User{ID: "u"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	client.On(featureflow.EventLoaded, func(any) { calls += 10 })
	client.OffAll(featureflow.EventLoaded)
	_, err = client.Initialize(context.Background(), featureflow.User{ID: "u"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
