// Package lookup wraps the external classification lookup service with
// injected in-memory caching.
package lookup

import (
	"context"
	"sync"
)

// Cache is the injected cache collaborator. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Has(key string) bool
}

// MemoryCache is a map-backed Cache.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemoryCache constructs an empty memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]string)}
}

// Get returns the cached value for key.
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	return v, ok
}

// Set stores a value for key.
func (c *MemoryCache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
}

// Has reports whether key is cached.
func (c *MemoryCache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.m[key]
	return ok
}

// Resolver is the external lookup service surface: visual-asset reference by
// classification tag, classification tag by semantic type, and semantic type
// by classification tag.
type Resolver interface {
	AssetForTag(ctx context.Context, tag string) (string, error)
	TagForType(ctx context.Context, typ string) (string, error)
	TypeForTag(ctx context.Context, tag string) (string, error)
}

// CachingResolver memoizes resolver responses in injected caches. Errors are
// never cached; a failed lookup stays retriable.
type CachingResolver struct {
	next   Resolver
	assets Cache
	tags   Cache
	types  Cache
}

// NewCachingResolver wraps next with the supplied caches. Nil caches default
// to fresh memory caches.
func NewCachingResolver(next Resolver, assets, tags, types Cache) *CachingResolver {
	if assets == nil {
		assets = NewMemoryCache()
	}
	if tags == nil {
		tags = NewMemoryCache()
	}
	if types == nil {
		types = NewMemoryCache()
	}
	return &CachingResolver{next: next, assets: assets, tags: tags, types: types}
}

// AssetForTag resolves the visual-asset reference for a classification tag.
func (r *CachingResolver) AssetForTag(ctx context.Context, tag string) (string, error) {
	return resolveThrough(ctx, r.assets, tag, r.next.AssetForTag)
}

// TagForType resolves the classification tag for a semantic type.
func (r *CachingResolver) TagForType(ctx context.Context, typ string) (string, error) {
	return resolveThrough(ctx, r.tags, typ, r.next.TagForType)
}

// TypeForTag resolves the semantic type for a classification tag.
func (r *CachingResolver) TypeForTag(ctx context.Context, tag string) (string, error) {
	return resolveThrough(ctx, r.types, tag, r.next.TypeForTag)
}

func resolveThrough(ctx context.Context, cache Cache, key string, fn func(context.Context, string) (string, error)) (string, error) {
	if v, ok := cache.Get(key); ok {
		return v, nil
	}
	v, err := fn(ctx, key)
	if err != nil {
		return "", err
	}
	cache.Set(key, v)
	return v, nil
}
