// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package objtable

import "github.com/opendb-core/odb/internal/oid"

// Map is a transient id-keyed side table, grounded on original_source's
// dbMap.h/dbMap.hpp: external walkers (e.g. the ECO diff pass, or a
// visited-set during name resolution) need to annotate objects without
// touching the record itself or growing the schema. A Map is not part of
// the persisted database; it never survives a stream round-trip.
type Map[T any, V any] struct {
	values map[oid.Oid]V
}

func NewMap[T any, V any]() *Map[T, V] {
	return &Map[T, V]{values: make(map[oid.Oid]V)}
}

func (m *Map[T, V]) Get(id oid.Id[T]) (V, bool) {
	v, ok := m.values[id.Oid()]
	return v, ok
}

func (m *Map[T, V]) Set(id oid.Id[T], v V) {
	m.values[id.Oid()] = v
}

func (m *Map[T, V]) Delete(id oid.Id[T]) {
	delete(m.values, id.Oid())
}

func (m *Map[T, V]) Len() int { return len(m.values) }

func (m *Map[T, V]) Clear() { m.values = make(map[oid.Oid]V) }
