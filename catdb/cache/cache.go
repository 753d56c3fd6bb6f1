package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/jellydator/ttlcache/v3"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/gneiss/fossil"
)

// FossilTTL is a bounded fossil response cache.
// Entries expire after the TTL and the least recently used entries
// are evicted beyond capacity.
type FossilTTL struct {
	c *ttlcache.Cache[string, []fossil.Occurrence]
}

func NewFossilTTL(ttl time.Duration, capacity uint64) *FossilTTL {
	return &FossilTTL{
		c: ttlcache.New[string, []fossil.Occurrence](
			ttlcache.WithTTL[string, []fossil.Occurrence](ttl),
			ttlcache.WithCapacity[string, []fossil.Occurrence](capacity),
			ttlcache.WithDisableTouchOnHit[string, []fossil.Occurrence](),
		),
	}
}

func (f *FossilTTL) Get(key string) ([]fossil.Occurrence, bool) {
	item := f.c.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (f *FossilTTL) Set(key string, occs []fossil.Occurrence) {
	f.c.Set(key, occs, ttlcache.DefaultTTL)
}

func (f *FossilTTL) Len() int {
	return f.c.Len()
}

// Start runs the expired item cleaner until Stop is called.
func (f *FossilTTL) Start() {
	go f.c.Start()
}

func (f *FossilTTL) Stop() {
	f.c.Stop()
}

// Recent is a small concurrency-safe LRU for recently handled values,
// eg. enriched rides by id.
type Recent[V any] struct {
	mu  sync.Mutex
	lru *lru.Cache
}

func NewRecent[V any](size int) *Recent[V] {
	return &Recent[V]{lru: lru.New(size)}
}

func (r *Recent[V]) Add(key string, v V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lru.Add(key, v)
}

func (r *Recent[V]) Get(key string) (v V, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	got, ok := r.lru.Get(key)
	if !ok {
		return v, false
	}
	return got.(V), true
}

func (r *Recent[V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lru.Len()
}

// ContentID returns a stable id for any hashable value.
// Identical ride uploads get identical ids.
func ContentID(v interface{}) (string, error) {
	hash, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", hash), nil
}
