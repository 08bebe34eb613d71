// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package stream

import "github.com/opendb-core/odb/internal/oid"

// idMaps tracks, for every record read off the wire, the oid the writer
// recorded it under (§4.4: "ids are written as-is; a round trip restores
// the same id values"). Every section reader calls schema.Database.
// ForceNextID with the oldID immediately before the matching Create call,
// so newID == oldID always; idMaps.record still exists so every reference
// field in the wire format can be resolved uniformly through resolve
// rather than forcing every call site to assume identity, and so a future
// relaxation of the round-trip guarantee (e.g. merging two streams into
// one Database) would only need to change Alloc's caller, not every
// reader. Resolution happens once the referenced record itself has
// already been read, which the section ordering rule guarantees.
type idMaps struct {
	byTag map[oid.TypeTag]map[oid.Oid]oid.Oid
}

func newIDMaps() *idMaps {
	return &idMaps{byTag: make(map[oid.TypeTag]map[oid.Oid]oid.Oid)}
}

func (m *idMaps) record(tag oid.TypeTag, oldID, newID oid.Oid) {
	tbl, ok := m.byTag[tag]
	if !ok {
		tbl = make(map[oid.Oid]oid.Oid)
		m.byTag[tag] = tbl
	}
	tbl[oldID] = newID
}

// resolve returns the new oid corresponding to oldID, or oid.Null if
// oldID is oid.Null (the common "optional reference" case).
func (m *idMaps) resolve(tag oid.TypeTag, oldID oid.Oid) oid.Oid {
	if oldID == oid.Null {
		return oid.Null
	}
	return m.byTag[tag][oldID]
}
