// ============================================================================
// shcst - Lossless Shell CST Toolkit
// ============================================================================
//
// Package:     cache
// Description: Parse-result cache keyed by content hash and parse settings
// Author:      msto63
// Created:     2026-10-04
// License:     MIT
// ============================================================================

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/msto63/shcst/foundation/shell/parser"
)

// TreeCache caches parse results so unchanged files are not parsed again
type TreeCache struct {
	cache *Cache
}

// NewTreeCache creates a tree cache holding at most maxItems results
func NewTreeCache(maxItems int) *TreeCache {
	return &TreeCache{
		cache: New(Config{MaxItems: maxItems}),
	}
}

// Key derives the cache key from the source and the settings that change
// the resulting tree
func Key(src string, root parser.Root, opts parser.Options) string {
	h := sha256.New()
	h.Write([]byte(root.String()))
	h.Write([]byte{0})
	h.Write([]byte(opts.Version.String()))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(opts.Shebang)))
	h.Write([]byte{0})
	h.Write([]byte(src))
	return hex.EncodeToString(h.Sum(nil))
}

// Parse returns the cached result for src or parses and stores it.
// Cancelled parses are returned but never cached.
func (t *TreeCache) Parse(ctx context.Context, src string, opts parser.Options) (res *parser.Result, cached bool, err error) {
	key := Key(src, parser.RootFile, opts)
	if v, ok := t.cache.Get(key); ok {
		return v.(*parser.Result), true, nil
	}

	res, err = parser.Parse(ctx, src, opts)
	if err != nil {
		return res, false, err
	}
	t.cache.Set(key, res)
	return res, false, nil
}

// Invalidate drops the result for src
func (t *TreeCache) Invalidate(src string, opts parser.Options) {
	t.cache.Delete(Key(src, parser.RootFile, opts))
}

// Stats returns hit and miss counts
func (t *TreeCache) Stats() (hits, misses int64, hitRate float64) {
	return t.cache.Stats()
}

// Len returns the number of cached results
func (t *TreeCache) Len() int {
	return t.cache.Size()
}

// Close releases the underlying cache
func (t *TreeCache) Close() {
	t.cache.Close()
}
