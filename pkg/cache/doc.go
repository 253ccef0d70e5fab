// Package cache provides a generic, thread-safe TTL cache used by the entity
// services to hold serialized read results.
//
// The cache is parameterized by value type and evicts entries after a fixed
// time-to-live, with a background goroutine sweeping expired entries. A no-op
// implementation is returned when caching is disabled via configuration, so
// callers never branch on whether a cache is present.
//
// Statistics are always collected and can additionally be exported as
// Prometheus metrics via the WithMetrics option:
//
//	c, err := cache.NewTTL[[]byte](ctx, time.Hour, time.Minute,
//	    cache.WithMetrics[[]byte](registry, "catalog"))
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	if data, ok := c.Get("booknet:genre:fantasy"); ok {
//	    return data, nil
//	}
package cache
