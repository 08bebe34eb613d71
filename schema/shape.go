// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package schema

import (
	"github.com/opendb-core/odb/internal/dbset"
	"github.com/opendb-core/odb/internal/objtable"
	"github.com/opendb-core/odb/internal/oid"
)

// Point and Rect are plain value types (manhattan geometry, §3 Box): no
// table, no oid, copied by value the way the teacher's lib/binstruct
// structures pack fixed-width fields.
type Point struct{ X, Y int64 }

type Rect struct{ LX, LY, HX, HY int64 }

func (r Rect) DX() int64 { return r.HX - r.LX }
func (r Rect) DY() int64 { return r.HY - r.LY }

// boxOwnerKind discriminates which owner chain a BoxRecord is threaded
// on (§3: "owned by layer + one of Block/Inst/BPin/Master/MPin/TechVia/
// Via/Region/SWire, multi-chain membership").
type boxOwnerKind uint8

const (
	boxOwnerNone boxOwnerKind = iota
	boxOwnerBlock
	boxOwnerInst
	boxOwnerBPin
	boxOwnerMaster
	boxOwnerMPin
	boxOwnerTechVia
	boxOwnerVia
	boxOwnerRegion
	boxOwnerSWire
)

// BoxRecord is a single rectilinear shape. Every Box belongs to exactly
// one Layer and exactly one non-layer owner; it is threaded on one
// chain only (the owner's shape list — layer membership is a plain
// field lookup, not a
// chain, since nothing iterates "all boxes on a layer" across owners).
type BoxRecord struct {
	hdr objtable.RecordHeader

	Layer      oid.Id[Layer]
	OwnerKind  boxOwnerKind
	OwnerOid   oid.Oid
	Rect       Rect
	Prev, Next oid.Id[Box]
}

func (r *BoxRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// SBoxRecord is a special-net shape: a Box annotated with the
// wire-shape-type/direction pair used by power/ground routing (§3 SBox).
type SBoxRecord struct {
	hdr objtable.RecordHeader

	SWire      oid.Id[SWire]
	Layer      oid.Id[Layer]
	Rect       Rect
	ShapeType  WireShapeType
	Dir        Direction
	Prev, Next oid.Id[SBox]
}

func (r *SBoxRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// ViaRecord is a block-local via instance (as opposed to a TechVia,
// which is a technology-wide via definition) — §3 "Via".
type ViaRecord struct {
	hdr objtable.RecordHeader

	Block      oid.Id[Block]
	Name       string
	TechVia    oid.Id[TechVia]
	Prev, Next oid.Id[Via]
}

func (r *ViaRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// boxChain returns the chain of Boxes belonging to a given (kind, oid)
// owner. Every owner kind reuses the same Prev/Next fields on
// BoxRecord and the same OwnerKind/OwnerOid discriminant, so one
// generic chain implementation serves all nine owner kinds instead of
// nine separate head fields plus nine near-identical chain builders.
type boxOwner struct {
	kind boxOwnerKind
	oid  oid.Oid
}

func (d *Database) boxChain(owner boxOwner) dbset.ChainSet[boxOwner, Box] {
	return dbset.ChainSet[boxOwner, Box]{
		Head: dbset.ChainHead[boxOwner, Box]{
			Get: func(boxOwner) oid.Id[Box] { return d.boxOwnerHeads[owner] },
			Set: func(_ boxOwner, h oid.Id[Box]) { d.boxOwnerHeads[owner] = h },
		},
		Links: dbset.ChainLinks[Box]{
			Get: func(id oid.Id[Box]) (oid.Id[Box], oid.Id[Box]) {
				r := d.box.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Box], prev, next oid.Id[Box]) {
				r := d.box.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) createBox(kind boxOwnerKind, ownerOid oid.Oid, layer oid.Id[Layer], rect Rect) oid.Id[Box] {
	owner := boxOwner{kind, ownerOid}
	rawID, rec := d.box.Alloc()
	rec.Layer, rec.OwnerKind, rec.OwnerOid, rec.Rect = layer, kind, ownerOid, rect
	id := oid.Make[Box](rawID)
	d.boxChain(owner).PushFront(owner, id)
	return id
}

func (d *Database) boxesOf(kind boxOwnerKind, ownerOid oid.Oid) []oid.Id[Box] {
	owner := boxOwner{kind, ownerOid}
	return dbset.Walk[boxOwner, Box](d.boxChain(owner), owner)
}

func (d *Database) destroyBox(id oid.Id[Box]) error {
	r, err := d.box.Get(id.Oid())
	if err != nil {
		return err
	}
	owner := boxOwner{r.OwnerKind, r.OwnerOid}
	d.boxChain(owner).Remove(owner, id)
	return d.box.Free(id.Oid())
}

func (d *Database) CreateBlockBox(block oid.Id[Block], layer oid.Id[Layer], rect Rect) oid.Id[Box] {
	return d.createBox(boxOwnerBlock, block.Oid(), layer, rect)
}

func (d *Database) CreateInstBox(inst oid.Id[Inst], layer oid.Id[Layer], rect Rect) oid.Id[Box] {
	return d.createBox(boxOwnerInst, inst.Oid(), layer, rect)
}

func (d *Database) CreateBPinBox(bpin oid.Id[BPin], layer oid.Id[Layer], rect Rect) oid.Id[Box] {
	return d.createBox(boxOwnerBPin, bpin.Oid(), layer, rect)
}

func (d *Database) CreateMasterBox(master oid.Id[Master], layer oid.Id[Layer], rect Rect) oid.Id[Box] {
	return d.createBox(boxOwnerMaster, master.Oid(), layer, rect)
}

func (d *Database) CreateMPinBox(mpin oid.Id[MPin], layer oid.Id[Layer], rect Rect) oid.Id[Box] {
	return d.createBox(boxOwnerMPin, mpin.Oid(), layer, rect)
}

func (d *Database) CreateTechViaBox(tv oid.Id[TechVia], layer oid.Id[Layer], rect Rect) oid.Id[Box] {
	return d.createBox(boxOwnerTechVia, tv.Oid(), layer, rect)
}

func (d *Database) CreateViaBox(v oid.Id[Via], layer oid.Id[Layer], rect Rect) oid.Id[Box] {
	return d.createBox(boxOwnerVia, v.Oid(), layer, rect)
}

func (d *Database) CreateRegionBox(r oid.Id[Region], layer oid.Id[Layer], rect Rect) oid.Id[Box] {
	return d.createBox(boxOwnerRegion, r.Oid(), layer, rect)
}

func (d *Database) CreateSWireBox(sw oid.Id[SWire], layer oid.Id[Layer], rect Rect) oid.Id[Box] {
	return d.createBox(boxOwnerSWire, sw.Oid(), layer, rect)
}

func (d *Database) BlockBoxes(block oid.Id[Block]) []oid.Id[Box]  { return d.boxesOf(boxOwnerBlock, block.Oid()) }
func (d *Database) InstBoxes(inst oid.Id[Inst]) []oid.Id[Box]     { return d.boxesOf(boxOwnerInst, inst.Oid()) }
func (d *Database) BPinBoxes(bpin oid.Id[BPin]) []oid.Id[Box]     { return d.boxesOf(boxOwnerBPin, bpin.Oid()) }
func (d *Database) MasterBoxes(m oid.Id[Master]) []oid.Id[Box]    { return d.boxesOf(boxOwnerMaster, m.Oid()) }
func (d *Database) MPinBoxes(mp oid.Id[MPin]) []oid.Id[Box]       { return d.boxesOf(boxOwnerMPin, mp.Oid()) }
func (d *Database) TechViaBoxes(tv oid.Id[TechVia]) []oid.Id[Box] { return d.boxesOf(boxOwnerTechVia, tv.Oid()) }
func (d *Database) ViaBoxes(v oid.Id[Via]) []oid.Id[Box]          { return d.boxesOf(boxOwnerVia, v.Oid()) }
func (d *Database) RegionBoxes(r oid.Id[Region]) []oid.Id[Box]    { return d.boxesOf(boxOwnerRegion, r.Oid()) }
func (d *Database) SWireBoxes(sw oid.Id[SWire]) []oid.Id[Box]     { return d.boxesOf(boxOwnerSWire, sw.Oid()) }

func (d *Database) DestroyBox(id oid.Id[Box]) error { return d.destroyBox(id) }

func (d *Database) Box(id oid.Id[Box]) (*BoxRecord, error) { return d.box.Get(id.Oid()) }

// ---- SBox ----

func (d *Database) sboxChain(sw oid.Id[SWire]) dbset.ChainSet[oid.Id[SWire], SBox] {
	return dbset.ChainSet[oid.Id[SWire], SBox]{
		Head: dbset.ChainHead[oid.Id[SWire], SBox]{
			Get: func(s oid.Id[SWire]) oid.Id[SBox] { return d.swire.MustGet(s.Oid()).SBoxesHead },
			Set: func(s oid.Id[SWire], h oid.Id[SBox]) { d.swire.MustGet(s.Oid()).SBoxesHead = h },
		},
		Links: dbset.ChainLinks[SBox]{
			Get: func(id oid.Id[SBox]) (oid.Id[SBox], oid.Id[SBox]) {
				r := d.sbox.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[SBox], prev, next oid.Id[SBox]) {
				r := d.sbox.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) CreateSBox(sw oid.Id[SWire], layer oid.Id[Layer], rect Rect, st WireShapeType, dir Direction) oid.Id[SBox] {
	rawID, rec := d.sbox.Alloc()
	rec.SWire, rec.Layer, rec.Rect, rec.ShapeType, rec.Dir = sw, layer, rect, st, dir
	id := oid.Make[SBox](rawID)
	d.sboxChain(sw).PushFront(sw, id)
	return id
}

func (d *Database) SBoxes(sw oid.Id[SWire]) []oid.Id[SBox] {
	return dbset.Walk[oid.Id[SWire], SBox](d.sboxChain(sw), sw)
}

func (d *Database) SBox(id oid.Id[SBox]) (*SBoxRecord, error) { return d.sbox.Get(id.Oid()) }

// ---- Via (block-local via instance) ----

func (d *Database) viaChain(block oid.Id[Block]) dbset.ChainSet[oid.Id[Block], Via] {
	return d.blockViaChain(block)
}

func (d *Database) CreateVia(block oid.Id[Block], name string, techVia oid.Id[TechVia]) oid.Id[Via] {
	rawID, rec := d.via.Alloc()
	rec.Block, rec.Name, rec.TechVia = block, name, techVia
	id := oid.Make[Via](rawID)
	d.viaChain(block).PushFront(block, id)
	d.notify(func(o Observer) { o.ViaCreated(id) })
	return id
}

func (d *Database) Vias(block oid.Id[Block]) []oid.Id[Via] {
	return dbset.Walk[oid.Id[Block], Via](d.viaChain(block), block)
}

func (d *Database) Via(id oid.Id[Via]) (*ViaRecord, error) { return d.via.Get(id.Oid()) }

// DestroyVia frees via's owned Boxes and the Via record itself.
func (d *Database) DestroyVia(via oid.Id[Via]) error {
	r, err := d.via.Get(via.Oid())
	if err != nil {
		return err
	}
	for _, bx := range d.ViaBoxes(via) {
		_ = d.destroyBox(bx)
	}
	d.viaChain(r.Block).Remove(r.Block, via)
	if err := d.via.Free(via.Oid()); err != nil {
		return err
	}
	d.notify(func(o Observer) { o.ViaDestroyed(via) })
	return nil
}
