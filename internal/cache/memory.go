package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is an in-process Store for deployments without Redis. Tag
// membership is tracked separately because the underlying cache only evicts
// by key.
type MemoryStore struct {
	values *gocache.Cache

	mutex sync.Mutex
	tags  map[string]map[string]struct{}
}

// NewMemoryStore returns a MemoryStore whose entries expire after ttl unless
// Set overrides it.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{
		values: gocache.New(ttl, 2*ttl),
		tags:   make(map[string]map[string]struct{}),
	}
}

func (store *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	raw, found := store.values.Get(key)
	if !found {
		return nil, false
	}
	value, ok := raw.([]byte)
	return value, ok
}

func (store *MemoryStore) Set(_ context.Context, key string, value []byte, tags []string, ttl time.Duration) {
	store.values.Set(key, value, ttl)
	store.mutex.Lock()
	defer store.mutex.Unlock()
	for _, tag := range tags {
		members, found := store.tags[tag]
		if !found {
			members = make(map[string]struct{})
			store.tags[tag] = members
		}
		members[key] = struct{}{}
	}
}

func (store *MemoryStore) Invalidate(_ context.Context, tags []string) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	for _, tag := range tags {
		for key := range store.tags[tag] {
			store.values.Delete(key)
		}
		delete(store.tags, tag)
	}
}
