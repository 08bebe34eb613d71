// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package schema

import (
	"github.com/opendb-core/odb/internal/dbset"
	"github.com/opendb-core/odb/internal/objtable"
	"github.com/opendb-core/odb/internal/odberr"
	"github.com/opendb-core/odb/internal/oid"
)

// NetRecord is a signal or special net (§3 Net). It owns its connected
// ITerms (a chain threaded through ITermRecord.NetPrev/NetNext), its
// BTerms, at most one Wire, zero or more SWires, and the CapNode/RSeg/
// CCSeg records of its RC sub-network (§3 CapNode/RSeg/CCSeg).
type NetRecord struct {
	hdr objtable.RecordHeader

	Block      oid.Id[Block]
	Name       string
	Prev, Next oid.Id[Net]

	SigType SigType
	Flags

	ITermsHead oid.Id[ITerm]
	BTermsHead oid.Id[BTerm]
	Wire       oid.Id[Wire]
	SWiresHead oid.Id[SWire]

	NonDefaultRule oid.Id[NonDefaultRule]

	CapNodesHead oid.Id[CapNode]
	RSegsHead    oid.Id[RSeg]
}

func (r *NetRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// BTermRecord is a block boundary terminal: it belongs to exactly one
// Net and owns zero or more BPins (§3 BTerm).
type BTermRecord struct {
	hdr objtable.RecordHeader

	Net        oid.Id[Net]
	Name       string
	IOType     IOType
	Prev, Next oid.Id[BTerm]
	BPinsHead  oid.Id[BPin]
}

func (r *BTermRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// BPinRecord is a physical pin shape for a BTerm (§3 BPin).
type BPinRecord struct {
	hdr objtable.RecordHeader

	BTerm      oid.Id[BTerm]
	Status     PlacementStatus
	Prev, Next oid.Id[BPin]
}

func (r *BPinRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// ---- chains ----

func (d *Database) netChain(block oid.Id[Block]) dbset.ChainSet[oid.Id[Block], Net] {
	return dbset.ChainSet[oid.Id[Block], Net]{
		Head: dbset.ChainHead[oid.Id[Block], Net]{
			Get: func(b oid.Id[Block]) oid.Id[Net] { return d.block.MustGet(b.Oid()).NetsHead },
			Set: func(b oid.Id[Block], h oid.Id[Net]) { d.block.MustGet(b.Oid()).NetsHead = h },
		},
		Links: dbset.ChainLinks[Net]{
			Get: func(id oid.Id[Net]) (oid.Id[Net], oid.Id[Net]) {
				r := d.net.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Net], prev, next oid.Id[Net]) {
				r := d.net.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) netITermChain(net oid.Id[Net]) dbset.ChainSet[oid.Id[Net], ITerm] {
	return dbset.ChainSet[oid.Id[Net], ITerm]{
		Head: dbset.ChainHead[oid.Id[Net], ITerm]{
			Get: func(n oid.Id[Net]) oid.Id[ITerm] { return d.net.MustGet(n.Oid()).ITermsHead },
			Set: func(n oid.Id[Net], h oid.Id[ITerm]) { d.net.MustGet(n.Oid()).ITermsHead = h },
		},
		Links: dbset.ChainLinks[ITerm]{
			Get: func(id oid.Id[ITerm]) (oid.Id[ITerm], oid.Id[ITerm]) {
				r := d.iterm.MustGet(id.Oid())
				return r.NetPrev, r.NetNext
			},
			Set: func(id oid.Id[ITerm], prev, next oid.Id[ITerm]) {
				r := d.iterm.MustGet(id.Oid())
				r.NetPrev, r.NetNext = prev, next
			},
		},
	}
}

func (d *Database) btermChain(net oid.Id[Net]) dbset.ChainSet[oid.Id[Net], BTerm] {
	return dbset.ChainSet[oid.Id[Net], BTerm]{
		Head: dbset.ChainHead[oid.Id[Net], BTerm]{
			Get: func(n oid.Id[Net]) oid.Id[BTerm] { return d.net.MustGet(n.Oid()).BTermsHead },
			Set: func(n oid.Id[Net], h oid.Id[BTerm]) { d.net.MustGet(n.Oid()).BTermsHead = h },
		},
		Links: dbset.ChainLinks[BTerm]{
			Get: func(id oid.Id[BTerm]) (oid.Id[BTerm], oid.Id[BTerm]) {
				r := d.bterm.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[BTerm], prev, next oid.Id[BTerm]) {
				r := d.bterm.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) bpinChain(bterm oid.Id[BTerm]) dbset.ChainSet[oid.Id[BTerm], BPin] {
	return dbset.ChainSet[oid.Id[BTerm], BPin]{
		Head: dbset.ChainHead[oid.Id[BTerm], BPin]{
			Get: func(b oid.Id[BTerm]) oid.Id[BPin] { return d.bterm.MustGet(b.Oid()).BPinsHead },
			Set: func(b oid.Id[BTerm], h oid.Id[BPin]) { d.bterm.MustGet(b.Oid()).BPinsHead = h },
		},
		Links: dbset.ChainLinks[BPin]{
			Get: func(id oid.Id[BPin]) (oid.Id[BPin], oid.Id[BPin]) {
				r := d.bpin.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[BPin], prev, next oid.Id[BPin]) {
				r := d.bpin.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

// ---- Net creation/destruction ----

func (d *Database) CreateNet(block oid.Id[Block], name string, sig SigType) (oid.Id[Net], error) {
	if !d.FindNet(block, name).IsNull() {
		return oid.NullId[Net](), &odberr.NameCollisionError{Kind: "net", Name: name}
	}
	rawID, rec := d.net.Alloc()
	rec.Block, rec.Name, rec.SigType = block, name, sig
	id := oid.Make[Net](rawID)
	d.netChain(block).PushFront(block, id)
	d.notify(func(o Observer) { o.NetCreated(id) })
	return id, nil
}

func (d *Database) FindNet(block oid.Id[Block], name string) oid.Id[Net] {
	for _, id := range d.Nets(block) {
		if d.net.MustGet(id.Oid()).Name == name {
			return id
		}
	}
	return oid.NullId[Net]()
}

func (d *Database) Nets(block oid.Id[Block]) []oid.Id[Net] {
	return dbset.Walk[oid.Id[Block], Net](d.netChain(block), block)
}

func (d *Database) Net(id oid.Id[Net]) (*NetRecord, error) { return d.net.Get(id.Oid()) }

func (d *Database) RenameNet(net oid.Id[Net], name string) error {
	r := d.net.MustGet(net.Oid())
	if !d.FindNet(r.Block, name).IsNull() {
		return &odberr.NameCollisionError{Kind: "net", Name: name}
	}
	old := r.Name
	r.Name = name
	d.notify(func(o Observer) { o.NetRenamed(net, old) })
	return nil
}

// DestroyNet disconnects every connected ITerm, destroys the net's
// BTerms, and frees every other entity the net exclusively owns (Wire,
// SWires, RC sub-network), then
// the net itself (§3 "Ownership summary").
func (d *Database) DestroyNet(net oid.Id[Net]) error {
	r, err := d.net.Get(net.Oid())
	if err != nil {
		return err
	}
	for _, it := range dbset.Walk[oid.Id[Net], ITerm](d.netITermChain(net), net) {
		d.disconnectITerm(it)
	}
	for _, bt := range d.BTerms(net) {
		_ = d.DestroyBTerm(bt)
	}
	if !r.Wire.IsNull() {
		_ = d.DestroyWire(r.Wire)
	}
	for _, sw := range d.SWires(net) {
		_ = d.DestroySWire(sw)
	}
	d.destroyNetRC(net)
	d.netChain(r.Block).Remove(r.Block, net)
	if err := d.net.Free(net.Oid()); err != nil {
		return err
	}
	d.notify(func(o Observer) { o.NetDestroyed(net) })
	return nil
}

// ---- ITerm <-> Net connection ----

// ConnectITerm attaches iterm to net, disconnecting it from any
// previous net first (§3: "an iterm's net-reference field equals the
// owning Net").
func (d *Database) ConnectITerm(iterm oid.Id[ITerm], net oid.Id[Net]) {
	ir := d.iterm.MustGet(iterm.Oid())
	if !ir.Net.IsNull() {
		d.disconnectITerm(iterm)
	}
	ir.Net = net
	d.netITermChain(net).PushFront(net, iterm)
	d.notify(func(o Observer) { o.ITermConnected(iterm, net) })
}

func (d *Database) DisconnectITerm(iterm oid.Id[ITerm]) { d.disconnectITerm(iterm) }

func (d *Database) disconnectITerm(iterm oid.Id[ITerm]) {
	ir := d.iterm.MustGet(iterm.Oid())
	if ir.Net.IsNull() {
		return
	}
	old := ir.Net
	d.netITermChain(old).Remove(old, iterm)
	ir.Net = oid.NullId[Net]()
	d.notify(func(o Observer) { o.ITermDisconnected(iterm, old) })
}

func (d *Database) NetITerms(net oid.Id[Net]) []oid.Id[ITerm] {
	return dbset.Walk[oid.Id[Net], ITerm](d.netITermChain(net), net)
}

// SetNetSpecial sets or clears net's special-net flag (§4.3 "special"),
// e.g. marking a power/ground net so routers and extraction treat it
// differently from a signal net.
func (d *Database) SetNetSpecial(net oid.Id[Net], special bool) {
	d.net.MustGet(net.Oid()).Special = special
	d.notify(func(o Observer) { o.NetFlagsChanged(net) })
}

// SetNetDontTouch sets or clears net's don't-touch flag (§4.3
// "don't-touch"), excluding it from optimization/ECO passes that would
// otherwise restructure it.
func (d *Database) SetNetDontTouch(net oid.Id[Net], dontTouch bool) {
	d.net.MustGet(net.Oid()).DontTouch = dontTouch
	d.notify(func(o Observer) { o.NetFlagsChanged(net) })
}

// SetNetUserFlags replaces net's caller-owned scratch bits (§4.3
// "user-flags") wholesale.
func (d *Database) SetNetUserFlags(net oid.Id[Net], flags uint16) {
	d.net.MustGet(net.Oid()).UserFlags = flags
	d.notify(func(o Observer) { o.NetFlagsChanged(net) })
}

// ---- BTerm / BPin ----

func (d *Database) CreateBTerm(net oid.Id[Net], name string, io IOType) (oid.Id[BTerm], error) {
	for _, id := range d.BTerms(net) {
		if d.bterm.MustGet(id.Oid()).Name == name {
			return oid.NullId[BTerm](), &odberr.NameCollisionError{Kind: "bterm", Name: name}
		}
	}
	rawID, rec := d.bterm.Alloc()
	rec.Net, rec.Name, rec.IOType = net, name, io
	id := oid.Make[BTerm](rawID)
	d.btermChain(net).PushFront(net, id)
	d.notify(func(o Observer) { o.BTermCreated(id) })
	return id, nil
}

func (d *Database) BTerms(net oid.Id[Net]) []oid.Id[BTerm] {
	return dbset.Walk[oid.Id[Net], BTerm](d.btermChain(net), net)
}

func (d *Database) BTerm(id oid.Id[BTerm]) (*BTermRecord, error) { return d.bterm.Get(id.Oid()) }

func (d *Database) DestroyBTerm(bterm oid.Id[BTerm]) error {
	r, err := d.bterm.Get(bterm.Oid())
	if err != nil {
		return err
	}
	for _, bp := range dbset.Walk[oid.Id[BTerm], BPin](d.bpinChain(bterm), bterm) {
		for _, bx := range d.BPinBoxes(bp) {
			_ = d.destroyBox(bx)
		}
		_ = d.bpin.Free(bp.Oid())
	}
	d.btermChain(r.Net).Remove(r.Net, bterm)
	if err := d.bterm.Free(bterm.Oid()); err != nil {
		return err
	}
	d.notify(func(o Observer) { o.BTermDestroyed(bterm) })
	return nil
}

func (d *Database) CreateBPin(bterm oid.Id[BTerm], status PlacementStatus) oid.Id[BPin] {
	rawID, rec := d.bpin.Alloc()
	rec.BTerm, rec.Status = bterm, status
	id := oid.Make[BPin](rawID)
	d.bpinChain(bterm).PushFront(bterm, id)
	return id
}

func (d *Database) BPins(bterm oid.Id[BTerm]) []oid.Id[BPin] {
	return dbset.Walk[oid.Id[BTerm], BPin](d.bpinChain(bterm), bterm)
}

func (d *Database) BPin(id oid.Id[BPin]) (*BPinRecord, error) { return d.bpin.Get(id.Oid()) }
