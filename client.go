package featureflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/featureflow/featureflow-go/pkg/batch"
	"github.com/featureflow/featureflow-go/pkg/logger"
	"github.com/featureflow/featureflow-go/pkg/metrics"
	"github.com/featureflow/featureflow-go/pkg/storage"
)

// Client evaluates feature flags for a user context. It keeps the last
// fetched feature set in memory, caches it through the configured storage,
// and reports evaluations and goals to the events endpoint in debounced
// batches. All methods are safe for concurrent use.
//
// Overlapping Initialize and UpdateUser calls are not coalesced: each runs
// its own fetch and the last response to arrive wins. Callers that need
// ordering must serialize those calls themselves.
type Client struct {
	cfg      Config
	log      *slog.Logger
	metrics  *metrics.Metrics
	emitter  *emitter
	rest     *restClient
	cache    *featureCache
	identity *identityStore
	batcher  *batch.Batcher[queuedEvent]
	now      func() time.Time

	mu                      sync.RWMutex
	user                    User
	features                Features
	attrs                   evalContext
	evaluated               map[string]bool
	initialized             bool
	receivedInitialResponse bool
}

// NewClient creates a client for the given API key. The client issues no
// network calls until Initialize is invoked.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	o := &clientOptions{
		config: DefaultConfig(),
		log:    logger.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.store == nil {
		o.store = storage.NewMemoryStorage()
	}

	c := &Client{
		cfg:       o.config,
		log:       o.log,
		metrics:   o.metrics,
		emitter:   newEmitter(),
		rest:      newRESTClient(apiKey, o.config, o.httpClient),
		cache:     newFeatureCache(o.store, apiKey, o.config.CacheTTL, o.log, o.now),
		identity:  newIdentityStore(o.store, o.log),
		now:       o.now,
		attrs:     buildContext(nil, o.now()),
		evaluated: make(map[string]bool),
	}

	batcher, err := batch.New(
		func(ctx context.Context, events []queuedEvent) error {
			if err := c.rest.postEvents(ctx, events); err != nil {
				return err
			}
			c.metrics.RecordEventsFlushed(len(events))
			return nil
		},
		batch.WithDelay[queuedEvent](o.config.FlushInterval),
		batch.WithLogger[queuedEvent](o.log),
		batch.WithErrorHandler[queuedEvent](func(_ error, dropped int) {
			c.metrics.RecordEventsDropped(dropped)
		}),
	)
	if err != nil {
		return nil, err
	}
	c.batcher = batcher
	return c, nil
}

// Initialize adopts user as the evaluation context and loads a feature set
// for it: from the cache when fresh, from configured defaults when offline,
// otherwise from the network. It returns the resolved variant of every known
// feature.
//
// A fetch failure still leaves the client initialized with best-effort data
// (cached features or defaults) and is returned alongside that data.
func (c *Client) Initialize(ctx context.Context, user User) (EvaluatedFeatures, error) {
	return c.refresh(ctx, user, false)
}

// UpdateUser replaces the evaluation context and refreshes the feature set
// the same way Initialize does, additionally emitting EventUpdated on
// success.
func (c *Client) UpdateUser(ctx context.Context, user User) (EvaluatedFeatures, error) {
	return c.refresh(ctx, user, true)
}

func (c *Client) refresh(ctx context.Context, user User, emitUpdated bool) (EvaluatedFeatures, error) {
	if user.ID == "" {
		user.ID = c.identity.anonymousID(ctx)
	}
	attrs := buildContext(user.Attributes, c.now())

	c.mu.Lock()
	c.user = user
	c.attrs = attrs
	c.mu.Unlock()

	cached, fresh := c.cache.load(ctx, user.ID)
	switch {
	case cached == nil:
		c.metrics.RecordCacheRead(metrics.CacheMiss)
	case fresh:
		c.metrics.RecordCacheRead(metrics.CacheFresh)
	default:
		c.metrics.RecordCacheRead(metrics.CacheStale)
	}

	if fresh {
		c.adopt(cached, true)
		evaluated := c.snapshot()
		c.emitter.emit(EventLoadedFromCache, evaluated)
		c.emitter.emit(EventInit, evaluated)
		c.emitter.emit(EventLoaded, evaluated)
		if emitUpdated {
			c.emitter.emit(EventUpdated, evaluated)
		}
		return evaluated, nil
	}

	// Stale cached data is adopted as fallback; with InitOnCache it also
	// unblocks dependents before the refresh completes. A second INIT
	// follows the refresh so INIT-only subscribers see the fresh data too.
	if cached != nil {
		c.adopt(cached, false)
		if c.cfg.InitOnCache {
			c.mu.Lock()
			c.initialized = true
			c.mu.Unlock()

			evaluated := c.snapshot()
			c.emitter.emit(EventLoadedFromCache, evaluated)
			c.emitter.emit(EventInit, evaluated)
		}
	}

	if c.cfg.Offline {
		c.adopt(staticFeatures(c.cfg.DefaultFeatures), true)
		evaluated := c.snapshot()
		c.emitter.emit(EventInit, evaluated)
		c.emitter.emit(EventLoaded, evaluated)
		if emitUpdated {
			c.emitter.emit(EventUpdated, evaluated)
		}
		return evaluated, nil
	}

	features, err := c.rest.fetchFeatures(ctx, user)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			c.metrics.RecordFetch(metrics.OutcomeTimeout)
		} else {
			c.metrics.RecordFetch(metrics.OutcomeError)
		}

		c.mu.Lock()
		if len(c.features) == 0 && len(c.cfg.DefaultFeatures) > 0 {
			c.features = staticFeatures(c.cfg.DefaultFeatures)
		}
		c.initialized = true
		c.receivedInitialResponse = true
		c.mu.Unlock()

		c.log.Warn("feature fetch failed, using best-effort data",
			logger.Component("client"), logger.UserID(user.ID), logger.Error(err))
		c.emitter.emit(EventError, err)
		return c.snapshot(), err
	}

	c.metrics.RecordFetch(metrics.OutcomeSuccess)
	c.cache.save(ctx, user.ID, features)
	c.adopt(features, true)

	evaluated := c.snapshot()
	c.emitter.emit(EventInit, evaluated)
	c.emitter.emit(EventLoaded, evaluated)
	if emitUpdated {
		c.emitter.emit(EventUpdated, evaluated)
	}
	return evaluated, nil
}

// adopt installs a feature set; terminal marks the client ready and records
// the first terminal fetch outcome.
func (c *Client) adopt(features Features, terminal bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.features = features
	if terminal {
		c.initialized = true
		c.receivedInitialResponse = true
	}
}

// Evaluate resolves the feature identified by key for the current user
// context. Unknown keys resolve to the "off" sentinel without reporting an
// evaluation event.
func (c *Client) Evaluate(key string) Evaluate {
	c.mu.Lock()
	feature, ok := c.currentFeatures()[key]
	if !ok {
		c.mu.Unlock()
		return newEvaluate(VariantOff)
	}

	variant := resolveVariant(feature, c.attrs)
	if variant == "" {
		variant = VariantOff
	}
	result := newEvaluate(variant)
	c.metrics.RecordEvaluation()

	var pending *queuedEvent
	if !c.cfg.Offline && (!c.cfg.UniqueEvals || !c.evaluated[key]) {
		c.evaluated[key] = true
		pending = &queuedEvent{
			Type:             eventTypeEvaluate,
			FeatureKey:       key,
			EvaluatedVariant: result.Value(),
			Impressions:      1,
			User:             c.user,
			Timestamp:        c.now(),
		}
	}
	c.mu.Unlock()

	if pending != nil {
		c.enqueue(*pending)
	}
	return result
}

// GetFeatures resolves every known feature and returns the full mapping of
// feature key to variant. Under unique evaluation reporting, keys not yet
// reported enqueue their evaluation event as a side effect.
func (c *Client) GetFeatures() EvaluatedFeatures {
	c.mu.Lock()
	out := evaluateAll(c.currentFeatures(), c.attrs)

	var pending []queuedEvent
	if !c.cfg.Offline && c.cfg.UniqueEvals {
		for key, variant := range out {
			if c.evaluated[key] {
				continue
			}
			c.evaluated[key] = true
			pending = append(pending, queuedEvent{
				Type:             eventTypeEvaluate,
				FeatureKey:       key,
				EvaluatedVariant: variant,
				Impressions:      1,
				User:             c.user,
				Timestamp:        c.now(),
			})
		}
	}
	c.mu.Unlock()

	for range out {
		c.metrics.RecordEvaluation()
	}
	for _, ev := range pending {
		c.enqueue(ev)
	}
	return out
}

// Goal reports a business outcome, attributing it to the currently resolved
// feature set. Offline clients report nothing.
func (c *Client) Goal(key string) {
	if c.cfg.Offline {
		return
	}

	evaluated := c.GetFeatures()

	c.mu.RLock()
	user := c.user
	c.mu.RUnlock()

	c.enqueue(queuedEvent{
		Type:              eventTypeGoal,
		GoalKey:           key,
		Impressions:       1,
		EvaluatedFeatures: evaluated,
		User:              user,
		Timestamp:         c.now(),
	})
}

// GetUser returns the current evaluation user context.
func (c *Client) GetUser() User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// IsInitialized reports whether the client has reached its ready state.
func (c *Client) IsInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// HasReceivedInitialResponse reports whether any fetch has reached a
// terminal outcome, success or failure. Once set it is never cleared.
func (c *Client) HasReceivedInitialResponse() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.receivedInitialResponse
}

// On registers fn for the named event and returns the token that removes it.
func (c *Client) On(event string, fn Callback) *Subscription {
	return c.emitter.on(event, fn)
}

// Off removes the listener identified by sub.
func (c *Client) Off(sub *Subscription) {
	c.emitter.off(sub)
}

// OffAll removes every listener registered for the named event.
func (c *Client) OffAll(event string) {
	c.emitter.offAll(event)
}

// AnonymousID returns the persisted anonymous identity, generating one when
// none exists.
func (c *Client) AnonymousID(ctx context.Context) string {
	return c.identity.anonymousID(ctx)
}

// ResetAnonymousID discards the persisted anonymous identity and returns a
// newly generated one.
func (c *Client) ResetAnonymousID(ctx context.Context) string {
	return c.identity.reset(ctx)
}

// Flush delivers any queued analytics events immediately instead of waiting
// for the debounce timer.
func (c *Client) Flush(ctx context.Context) {
	c.batcher.Flush(ctx)
}

// Close flushes remaining analytics events and removes all event listeners.
// The client must not be used after Close.
func (c *Client) Close(ctx context.Context) error {
	err := c.batcher.Close(ctx)
	c.emitter.clear()
	return err
}

func (c *Client) enqueue(ev queuedEvent) {
	c.metrics.RecordEventQueued()
	c.batcher.Enqueue(ev)
}

// currentFeatures returns the feature set evaluation reads from. Offline
// clients resolve strictly against the configured defaults. Callers hold
// c.mu.
func (c *Client) currentFeatures() Features {
	if c.cfg.Offline {
		return staticFeatures(c.cfg.DefaultFeatures)
	}
	return c.features
}

// snapshot resolves every known feature without evaluation-event side
// effects.
func (c *Client) snapshot() EvaluatedFeatures {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return evaluateAll(c.currentFeatures(), c.attrs)
}

// evaluateAll resolves each feature in the set, mapping unresolved features
// to the "off" sentinel and lowercasing variants.
func evaluateAll(features Features, ctx evalContext) EvaluatedFeatures {
	out := make(EvaluatedFeatures, len(features))
	for key, f := range features {
		variant := resolveVariant(f, ctx)
		if variant == "" {
			variant = VariantOff
		}
		out[key] = strings.ToLower(variant)
	}
	return out
}
