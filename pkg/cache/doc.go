// Package cache stores fetched listing pages in Redis so repeated crawls of
// the same target within a TTL do not hit the remote site again.
//
// Only successful (2xx) page bodies are cached. Entries expire through the
// Redis key TTL; an entry that outlives its Expires field is treated as a miss
// and removed.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//	manager := cache.NewManager(redisClient)
//
//	key, err := cache.KeyForURL("https://www.ariamarz.com/buy-apartment/tehran?in=&page=2")
//	if err != nil {
//		return err
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch the page, then
//		entry, err = cache.ResponseToEntry(resp, 10*time.Minute)
//		_ = manager.Set(ctx, key, entry)
//	}
//
// # Metrics
//
//   - crawler_cache_hits_total
//   - crawler_cache_misses_total
//   - crawler_cache_stored_bytes
//   - crawler_cache_errors_total{operation}
package cache
