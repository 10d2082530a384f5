// Package ratelimit implements dynamic, endpoint-aware rate limiting with
// automatic store failover.
//
// Incoming requests are classified along two axes - authentication state and
// endpoint sensitivity - into one of four endpoint types, each carrying its
// own fixed-window rule. A privacy-safe key is derived from the request
// (user id, token id, or client IP, optionally combined with a hashed
// credential identifier) and checked against a counter store.
//
// # Basic Usage
//
// Build the pieces from a configuration snapshot:
//
//	cfg := ratelimit.DefaultConfig()
//	manager := ratelimit.NewConfigManager(cfg)
//	classifier := ratelimit.NewClassifier(manager)
//	resolver := ratelimit.NewKeyResolver()
//
//	store := ratelimit.NewMemoryStore()
//	defer store.Close()
//
//	service := ratelimit.NewCounterService(store)
//
//	classification := classifier.Classify(rctx)
//	key, err := resolver.Resolve(rctx, classification)
//	if err != nil {
//		return err
//	}
//
//	result, err := service.CheckLimit(ctx, key, classification.Rule())
//	if err != nil {
//		return err
//	}
//	if result.IsBlocked() {
//		// reject with 429, Retry-After from result
//	}
//
// # Failover
//
// FailoverService decorates a primary/secondary Service pair. When the
// primary fails, the same check is retried on the secondary with the rule's
// MaxAttempts doubled, and a health check probes the primary every 30
// seconds until it recovers:
//
//	primary := ratelimit.NewCounterService(ratelimit.NewRedisStore(client))
//	secondary := ratelimit.NewCounterService(ratelimit.NewMemoryStore())
//	service := ratelimit.NewFailoverService(primary, secondary, metrics)
//
// Only a double failure (primary and secondary both erroring) propagates to
// the caller.
//
// # HTTP Middleware
//
// Middleware wires classification, key resolution, and limit checks into a
// net/http handler chain, emitting X-RateLimit-* headers and a 429 JSON
// response when a request is blocked:
//
//	mw := ratelimit.Middleware(service, classifier, resolver)
//	http.ListenAndServe(":8080", mw(mux))
//
// The middleware fails open: if the limiter itself errors, the request is
// served and a warning is logged.
//
// # Fixed Window
//
// Counting is a fixed window anchored at the first request for a key: the
// counter expires wholesale after the rule's decay period rather than
// sliding continuously. The counter keeps incrementing past the limit so
// the severity of abuse stays observable.
package ratelimit
