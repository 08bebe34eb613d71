// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package nameresolver

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// pathCache memoizes path->oid resolutions per Database (§4.8
// resolveDbName is a hot path for external parsers walking a netlist one
// connection at a time). Lazily initialized so a zero-value Resolver
// doesn't pay for a cache it never needs.
type pathCache[K comparable, V any] struct {
	initOnce sync.Once
	inner    *lru.ARCCache
}

func (c *pathCache[K, V]) init() {
	c.initOnce.Do(func() {
		c.inner, _ = lru.NewARC(1024)
	})
}

func (c *pathCache[K, V]) Add(key K, value V) {
	c.init()
	c.inner.Add(key, value)
}

func (c *pathCache[K, V]) Get(key K) (V, bool) {
	c.init()
	var zero V
	raw, ok := c.inner.Get(key)
	if !ok {
		return zero, false
	}
	return raw.(V), true
}

func (c *pathCache[K, V]) Remove(key K) {
	c.init()
	c.inner.Remove(key)
}

func (c *pathCache[K, V]) Purge() {
	c.init()
	c.inner.Purge()
}
