//go:build !integration

package redis

import (
	"context"
	"sync"
	"time"
)

// memClient is an in-memory RedisClient for unit tests.
type memClient struct {
	mu      sync.Mutex
	vals    map[string]string
	counts  map[string]int64
	expires map[string]time.Duration

	IncrErr   error
	ExpireErr error
}

var _ RedisClient = (*memClient)(nil)

func newMemClient() *memClient {
	return &memClient{vals: map[string]string{}, counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (m *memClient) Ping(ctx context.Context) error { return nil }

func (m *memClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.vals[key] = string(v)
	case string:
		m.vals[key] = v
	}
	m.expires[key] = expiration
	return nil
}

func (m *memClient) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[key]
	if !ok {
		return "", Nil
	}
	return v, nil
}

// IncrWindow mirrors redClient: the TTL is (re)applied whenever the key has none.
func (m *memClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IncrErr != nil {
		return 0, m.IncrErr
	}
	m.counts[key]++
	if _, ok := m.expires[key]; !ok {
		if m.ExpireErr != nil {
			return m.counts[key], m.ExpireErr
		}
		m.expires[key] = window
	}
	return m.counts[key], nil
}

func (m *memClient) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.vals, k)
		delete(m.counts, k)
	}
	return nil
}

func (m *memClient) Close() error { return nil }
