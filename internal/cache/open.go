package cache

import "context"

// Open selects the store for the process: redis when redisURL is set, the
// in-memory store otherwise. The returned close function releases the redis
// connection and is a no-op for the memory store.
func Open(ctx context.Context, redisURL string) (Store, func() error, error) {
	if redisURL == "" {
		return NewMemoryStore(), func() error { return nil }, nil
	}
	rs, err := NewRedisStore(ctx, redisURL)
	if err != nil {
		return nil, nil, err
	}
	return rs, rs.Close, nil
}
