package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PointerStore holds the balancer's shared "last assigned" pointer, one
// key per assignment type. It is an explicit dependency so the rotation
// state can be tested and scaled independently of the process.
type PointerStore interface {
	LastAssigned(key string) (uint, bool, error)
	SetLastAssigned(key string, employeeID uint, ttl time.Duration) error
}

type RedisPointerStore struct {
	client *redis.Client
}

func NewRedisPointerStore(client *redis.Client) *RedisPointerStore {
	return &RedisPointerStore{client: client}
}

func (r *RedisPointerStore) LastAssigned(key string) (uint, bool, error) {
	val, err := r.client.Get(context.Background(), key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		// stale or corrupt pointer, treat as absent
		return 0, false, nil
	}
	return uint(id), true, nil
}

func (r *RedisPointerStore) SetLastAssigned(key string, employeeID uint, ttl time.Duration) error {
	return r.client.Set(context.Background(), key, strconv.FormatUint(uint64(employeeID), 10), ttl).Err()
}

// MemoryPointerStore is the in-process fallback used when no redis is
// configured, and by the test suite.
type MemoryPointerStore struct {
	mu      sync.Mutex
	entries map[string]memoryPointer
}

type memoryPointer struct {
	employeeID uint
	expiresAt  time.Time
}

func NewMemoryPointerStore() *MemoryPointerStore {
	return &MemoryPointerStore{entries: make(map[string]memoryPointer)}
}

func (m *MemoryPointerStore) LastAssigned(key string) (uint, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		return 0, false, nil
	}
	return entry.employeeID, true, nil
}

func (m *MemoryPointerStore) SetLastAssigned(key string, employeeID uint, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryPointer{employeeID: employeeID, expiresAt: time.Now().Add(ttl)}
	return nil
}
