// Package cache provides caching of provider responses.
//
// Dashboard generation runs a few times per hour; upstream APIs (weather.gov,
// Strava, Google Calendar) are rate limited and slow relative to the
// scheduling interval, so responses are cached with per-provider TTLs.
//
// The Cache interface has four backends:
//   - FileCache: JSON files under a directory, for CLI usage
//   - SQLiteCache: a single cache table in a SQLite database
//   - RedisCache: Redis-backed, for deployments that already run Redis
//   - NullCache: no-op, for tests and --no-cache
//
// Keys are hashed with SHA-256 before being used as file names or database
// keys, so arbitrary strings (URLs, coordinates) are safe keys.
package cache

import (
	"context"
	"strings"
	"time"
)

// TTLs for the different provider categories. Weather forecasts update
// hourly upstream; activity and calendar data change at human pace.
const (
	TTLWeather  = 30 * time.Minute
	TTLActivity = 15 * time.Minute
	TTLStats    = 6 * time.Hour
	TTLCalendar = 15 * time.Minute
)

// Cache is the interface for caching provider responses.
type Cache interface {
	// Get retrieves a value. Returns (data, true, nil) on a hit,
	// (nil, false, nil) on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A TTL of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// keyType extracts the provider prefix of a cache key ("weather:40.7:-74.0"
// yields "weather") for hook reporting.
func keyType(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
