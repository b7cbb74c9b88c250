// Package featureflow is a client SDK for evaluating feature flags against
// a user context. It fetches feature definitions from the Featureflow
// service, resolves variants through targeting rules, keeps a
// freshness-bounded local cache to avoid redundant network calls, and
// reports evaluation and goal analytics in debounced batches.
//
// Basic usage:
//
//	client, err := featureflow.NewClient("js-env-key",
//		featureflow.WithDefaultFeatures(map[string]string{"new-checkout": "off"}),
//	)
//	if err != nil {
//		return err
//	}
//	defer client.Close(ctx)
//
//	if _, err := client.Initialize(ctx, featureflow.User{ID: "user-1"}); err != nil {
//		// The client is still usable with cached or default features.
//		log.Printf("featureflow: %v", err)
//	}
//
//	if client.Evaluate("new-checkout").IsOn() {
//		// feature path
//	}
//
// Initialization falls back gracefully: a fresh cache entry skips the
// network entirely, a failed fetch falls back to cached features or the
// configured defaults, and the client always reaches a ready state so
// dependent code never hangs on flag data.
//
// Offline mode (WithOffline) evaluates strictly against the configured
// default features and never touches the network. Persistent state, the
// feature cache and the anonymous identity, lives behind the
// storage.Storage interface with in-memory, Redis, and Postgres
// implementations.
package featureflow
