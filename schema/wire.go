// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package schema

import (
	"github.com/opendb-core/odb/internal/dbset"
	"github.com/opendb-core/odb/internal/objtable"
	"github.com/opendb-core/odb/internal/oid"
)

// WireRecord is a signal Net's routed geometry: a reference into the
// database's opcode byte stream (§3 Wire, §4.5), decoded on demand by
// package wireenc. At most one Wire per Net.
type WireRecord struct {
	hdr objtable.RecordHeader

	Net oid.Id[Net]
}

func (r *WireRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// SWireRecord is a special (power/ground) net's wire: an owner for a
// chain of SBox shapes rather than an opcode stream, since special
// routing is almost always simple rectangles (§3 SWire).
type SWireRecord struct {
	hdr objtable.RecordHeader

	Net        oid.Id[Net]
	WireType   WireShapeType
	SBoxesHead oid.Id[SBox]
	Prev, Next oid.Id[SWire]
}

func (r *SWireRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// CreateWire attaches an (initially empty) opcode stream to net. Calling
// it twice on the same net is a programmer error; use Net.Wire to check
// first.
func (d *Database) CreateWire(net oid.Id[Net]) oid.Id[Wire] {
	rawID, rec := d.wire.Alloc()
	rec.Net = net
	id := oid.Make[Wire](rawID)
	d.net.MustGet(net.Oid()).Wire = id
	return id
}

// WireBytes returns the raw opcode stream for a Wire, for package
// wireenc to decode (§4.5).
func (d *Database) WireBytes(w oid.Id[Wire]) []byte { return d.wireBytes[w.Oid()] }

// SetWireBytes replaces a Wire's opcode stream wholesale. Package
// wireenc does not import schema; callers store the encoded bytes here
// themselves.
func (d *Database) SetWireBytes(w oid.Id[Wire], b []byte) { d.wireBytes[w.Oid()] = b }

func (d *Database) DestroyWire(w oid.Id[Wire]) error {
	r, err := d.wire.Get(w.Oid())
	if err != nil {
		return err
	}
	delete(d.wireBytes, w.Oid())
	d.net.MustGet(r.Net.Oid()).Wire = oid.NullId[Wire]()
	return d.wire.Free(w.Oid())
}

func (d *Database) swireChain(net oid.Id[Net]) dbset.ChainSet[oid.Id[Net], SWire] {
	return dbset.ChainSet[oid.Id[Net], SWire]{
		Head: dbset.ChainHead[oid.Id[Net], SWire]{
			Get: func(n oid.Id[Net]) oid.Id[SWire] { return d.net.MustGet(n.Oid()).SWiresHead },
			Set: func(n oid.Id[Net], h oid.Id[SWire]) { d.net.MustGet(n.Oid()).SWiresHead = h },
		},
		Links: dbset.ChainLinks[SWire]{
			Get: func(id oid.Id[SWire]) (oid.Id[SWire], oid.Id[SWire]) {
				r := d.swire.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[SWire], prev, next oid.Id[SWire]) {
				r := d.swire.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) CreateSWire(net oid.Id[Net], t WireShapeType) oid.Id[SWire] {
	rawID, rec := d.swire.Alloc()
	rec.Net, rec.WireType = net, t
	id := oid.Make[SWire](rawID)
	d.swireChain(net).PushFront(net, id)
	return id
}

func (d *Database) SWires(net oid.Id[Net]) []oid.Id[SWire] {
	return dbset.Walk[oid.Id[Net], SWire](d.swireChain(net), net)
}

func (d *Database) SWire(id oid.Id[SWire]) (*SWireRecord, error) { return d.swire.Get(id.Oid()) }

func (d *Database) DestroySWire(sw oid.Id[SWire]) error {
	r, err := d.swire.Get(sw.Oid())
	if err != nil {
		return err
	}
	for _, b := range d.SBoxes(sw) {
		_ = d.sbox.Free(b.Oid())
	}
	d.swireChain(r.Net).Remove(r.Net, sw)
	return d.swire.Free(sw.Oid())
}
