// README: Redis client initialization for the catalog snapshot cache.
package infra

import "github.com/redis/go-redis/v9"

// NewRedis returns nil for an empty address, which disables caching.
func NewRedis(addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr})
}
