// Package ui provides rendering cache for performance optimization.
package ui

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
)

// RenderCache memoizes rendered card and panel strings across frames.
// The board redraws on every message, but most blocks change far less
// often than the playback timeline ticks; keying renders on content
// revision plus geometry skips the lipgloss work for unchanged cards.
type RenderCache struct {
	cache   sync.Map
	size    atomic.Int64
	maxSize int64
}

// NewRenderCache creates a render cache bounded to maxSize entries.
// Exceeding the bound clears the whole cache; renders repopulate it
// within a frame, so eviction order is not worth tracking.
func NewRenderCache(maxSize int) *RenderCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &RenderCache{maxSize: int64(maxSize)}
}

// DefaultRenderCache is a shared cache for general board rendering.
var DefaultRenderCache = NewRenderCache(100)

// computeHash folds the inputs into an FNV-1a key. Supported types
// are limited to what card keys actually carry, keeping the hot path
// allocation-free.
func computeHash(inputs ...any) uint64 {
	h := fnv.New64a()
	var b [8]byte

	for _, input := range inputs {
		switch v := input.(type) {
		case string:
			h.Write([]byte(v))
		case int:
			binary.LittleEndian.PutUint64(b[:], uint64(v))
			h.Write(b[:])
		case int64:
			binary.LittleEndian.PutUint64(b[:], uint64(v))
			h.Write(b[:])
		case uint64:
			binary.LittleEndian.PutUint64(b[:], v)
			h.Write(b[:])
		case float64:
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
			h.Write(b[:])
		case bool:
			if v {
				h.Write([]byte{1})
			} else {
				h.Write([]byte{0})
			}
		}
	}

	return h.Sum64()
}

// Get retrieves cached content if available.
func (rc *RenderCache) Get(key uint64) (string, bool) {
	if val, ok := rc.cache.Load(key); ok {
		return val.(string), true
	}
	return "", false
}

// Set stores rendered content, clearing first when the bound is hit.
func (rc *RenderCache) Set(key uint64, content string) {
	if rc.size.Load() >= rc.maxSize {
		rc.Clear()
	}
	if _, loaded := rc.cache.LoadOrStore(key, content); !loaded {
		rc.size.Add(1)
	}
}

// Clear empties the cache.
func (rc *RenderCache) Clear() {
	rc.cache.Range(func(key, _ any) bool {
		rc.cache.Delete(key)
		return true
	})
	rc.size.Store(0)
}

// GetOrCompute retrieves from cache or computes if missing.
func (rc *RenderCache) GetOrCompute(key uint64, compute func() string) string {
	if content, ok := rc.Get(key); ok {
		return content
	}

	content := compute()
	rc.Set(key, content)
	return content
}

// ComputeKey generates a cache key from multiple inputs.
func ComputeKey(inputs ...any) uint64 {
	return computeHash(inputs...)
}

// CachedRender wraps one render site with caching plus a same-key fast
// path, so a card that did not change between frames costs a hash and
// a comparison. Owned by a single goroutine; the board's Update loop.
type CachedRender struct {
	cache      *RenderCache
	lastKey    uint64
	lastResult string
}

// NewCachedRender creates a cached render wrapper.
func NewCachedRender(cache *RenderCache) *CachedRender {
	if cache == nil {
		cache = DefaultRenderCache
	}
	return &CachedRender{cache: cache}
}

// Render executes the render function with caching.
func (cr *CachedRender) Render(keyInputs []any, renderFunc func() string) string {
	key := ComputeKey(keyInputs...)

	// Fast path: same as last render.
	if key == cr.lastKey && cr.lastResult != "" {
		return cr.lastResult
	}

	result := cr.cache.GetOrCompute(key, renderFunc)
	cr.lastKey = key
	cr.lastResult = result
	return result
}

// Invalidate clears the last cached result.
func (cr *CachedRender) Invalidate() {
	cr.lastKey = 0
	cr.lastResult = ""
}
