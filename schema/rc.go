// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package schema

import (
	"sort"

	"github.com/opendb-core/odb/internal/dbset"
	"github.com/opendb-core/odb/internal/objtable"
	"github.com/opendb-core/odb/internal/oid"
)

// CapNodeKind classifies a CapNode by what it's attached to (§3
// CapNode).
type CapNodeKind uint8

const (
	CapNodeInternal CapNodeKind = iota
	CapNodeITerm
	CapNodeBTerm
	CapNodeBranch
	CapNodeDangling
	CapNodeForeign
)

// CapNodeRecord is one node of a Net's RC sub-network. Num is stable
// and unique within the owning Net; it is what external parasitic
// extraction tools address nodes by (§3 CapNode).
type CapNodeRecord struct {
	hdr objtable.RecordHeader

	Net        oid.Id[Net]
	Num        int
	Kind       CapNodeKind
	ITerm      oid.Id[ITerm]
	BTerm      oid.Id[BTerm]
	Cap        [MaxCorners]float64
	Prev, Next oid.Id[CapNode]
}

func (r *CapNodeRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// RSegRecord is a directed resistive edge between two CapNodes of the
// same Net (§3 RSeg). ShapeLayer/ShapePoint optionally anchor the
// segment to routed geometry for cross-probing.
type RSegRecord struct {
	hdr objtable.RecordHeader

	Net         oid.Id[Net]
	Source, Target oid.Id[CapNode]
	Res         [MaxCorners]float64
	ShapeLayer  oid.Id[Layer]
	ShapePoint  Point
	HasShape    bool
	Prev, Next  oid.Id[RSeg]
}

func (r *RSegRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// CCSegRecord is a coupling-capacitance edge between CapNodes belonging
// to two different Nets (§3 CCSeg). It is threaded onto both nets'
// coupling chains symmetrically, so destroying either net reaches it
// exactly once via that net's chain and must unlink it from the other.
type CCSegRecord struct {
	hdr objtable.RecordHeader

	NodeA, NodeB oid.Id[CapNode]
	NetA, NetB   oid.Id[Net]
	Cap          [MaxCorners]float64

	PrevA, NextA oid.Id[CCSeg]
	PrevB, NextB oid.Id[CCSeg]
}

func (r *CCSegRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// ---- chains ----

func (d *Database) capNodeChain(net oid.Id[Net]) dbset.ChainSet[oid.Id[Net], CapNode] {
	return dbset.ChainSet[oid.Id[Net], CapNode]{
		Head: dbset.ChainHead[oid.Id[Net], CapNode]{
			Get: func(n oid.Id[Net]) oid.Id[CapNode] { return d.net.MustGet(n.Oid()).CapNodesHead },
			Set: func(n oid.Id[Net], h oid.Id[CapNode]) { d.net.MustGet(n.Oid()).CapNodesHead = h },
		},
		Links: dbset.ChainLinks[CapNode]{
			Get: func(id oid.Id[CapNode]) (oid.Id[CapNode], oid.Id[CapNode]) {
				r := d.capnode.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[CapNode], prev, next oid.Id[CapNode]) {
				r := d.capnode.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) rsegChain(net oid.Id[Net]) dbset.ChainSet[oid.Id[Net], RSeg] {
	return dbset.ChainSet[oid.Id[Net], RSeg]{
		Head: dbset.ChainHead[oid.Id[Net], RSeg]{
			Get: func(n oid.Id[Net]) oid.Id[RSeg] { return d.net.MustGet(n.Oid()).RSegsHead },
			Set: func(n oid.Id[Net], h oid.Id[RSeg]) { d.net.MustGet(n.Oid()).RSegsHead = h },
		},
		Links: dbset.ChainLinks[RSeg]{
			Get: func(id oid.Id[RSeg]) (oid.Id[RSeg], oid.Id[RSeg]) {
				r := d.rseg.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[RSeg], prev, next oid.Id[RSeg]) {
				r := d.rseg.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

// ccChain models both sides of a CCSegRecord's symmetric membership
// (the A-side and B-side link pairs) as one chain per net, since
// NetRecord only exposes a single coupling-chain head per net — every
// CCSeg touching that net, regardless of which side (A or B) it was
// created on, is threaded onto that one head via ccHeads.
func (d *Database) ccChain(net oid.Id[Net]) dbset.ChainSet[oid.Id[Net], CCSeg] {
	return dbset.ChainSet[oid.Id[Net], CCSeg]{
		Head: dbset.ChainHead[oid.Id[Net], CCSeg]{
			Get: func(n oid.Id[Net]) oid.Id[CCSeg] { return d.ccHeads[n.Oid()] },
			Set: func(n oid.Id[Net], h oid.Id[CCSeg]) { d.ccHeads[n.Oid()] = h },
		},
		Links: dbset.ChainLinks[CCSeg]{
			Get: func(id oid.Id[CCSeg]) (oid.Id[CCSeg], oid.Id[CCSeg]) {
				r := d.ccseg.MustGet(id.Oid())
				if r.NetA.Equal(net) {
					return r.PrevA, r.NextA
				}
				return r.PrevB, r.NextB
			},
			Set: func(id oid.Id[CCSeg], prev, next oid.Id[CCSeg]) {
				r := d.ccseg.MustGet(id.Oid())
				if r.NetA.Equal(net) {
					r.PrevA, r.NextA = prev, next
				} else {
					r.PrevB, r.NextB = prev, next
				}
			},
		},
	}
}

// ---- creation ----

func (d *Database) CreateCapNode(net oid.Id[Net], kind CapNodeKind) oid.Id[CapNode] {
	rawID, rec := d.capnode.Alloc()
	rec.Net = net
	rec.Kind = kind
	rec.Num = d.nextCapNodeNum(net)
	id := oid.Make[CapNode](rawID)
	d.capNodeChain(net).PushFront(net, id)
	return id
}

func (d *Database) nextCapNodeNum(net oid.Id[Net]) int {
	max := -1
	for _, id := range d.CapNodes(net) {
		if n := d.capnode.MustGet(id.Oid()).Num; n > max {
			max = n
		}
	}
	return max + 1
}

func (d *Database) CapNodes(net oid.Id[Net]) []oid.Id[CapNode] {
	return dbset.Walk[oid.Id[Net], CapNode](d.capNodeChain(net), net)
}

func (d *Database) CapNode(id oid.Id[CapNode]) (*CapNodeRecord, error) { return d.capnode.Get(id.Oid()) }

// CollapseInternalCapNum renumbers net's internal CapNodes to a
// contiguous [0..k) range, preserving relative order, without
// disturbing ITerm/BTerm-kind nodes' external addressability. Safe to
// call repeatedly; a no-op once numbers are already contiguous.
func (d *Database) CollapseInternalCapNum(net oid.Id[Net]) {
	var internal []*CapNodeRecord
	for _, id := range d.CapNodes(net) {
		r := d.capnode.MustGet(id.Oid())
		if r.Kind == CapNodeInternal {
			internal = append(internal, r)
		}
	}
	sort.SliceStable(internal, func(i, j int) bool { return internal[i].Num < internal[j].Num })
	for i, r := range internal {
		r.Num = i
	}
}

func (d *Database) CreateRSeg(net oid.Id[Net], src, dst oid.Id[CapNode]) oid.Id[RSeg] {
	rawID, rec := d.rseg.Alloc()
	rec.Net, rec.Source, rec.Target = net, src, dst
	id := oid.Make[RSeg](rawID)
	d.rsegChain(net).PushFront(net, id)
	return id
}

func (d *Database) RSegs(net oid.Id[Net]) []oid.Id[RSeg] {
	return dbset.Walk[oid.Id[Net], RSeg](d.rsegChain(net), net)
}

func (d *Database) RSeg(id oid.Id[RSeg]) (*RSegRecord, error) { return d.rseg.Get(id.Oid()) }

func (d *Database) SetRSegShape(rseg oid.Id[RSeg], layer oid.Id[Layer], p Point) {
	r := d.rseg.MustGet(rseg.Oid())
	r.ShapeLayer, r.ShapePoint, r.HasShape = layer, p, true
}

// ReverseRSeg swaps a segment's source and target, used when a net's
// driver-to-sink direction is re-derived after a topology edit.
func (d *Database) ReverseRSeg(rseg oid.Id[RSeg]) {
	r := d.rseg.MustGet(rseg.Oid())
	r.Source, r.Target = r.Target, r.Source
}

// ReverseRSegs reverses every RSeg owned by net.
func (d *Database) ReverseRSegs(net oid.Id[Net]) {
	for _, id := range d.RSegs(net) {
		d.ReverseRSeg(id)
	}
}

// DonateRSegEndpoint reassigns rseg's endpoint that currently points at
// from to instead point at to, used by the ECO layer (C9) when an
// ITerm's CapNode moves from one net to another across a net split or
// merge.
func (d *Database) DonateRSegEndpoint(rseg oid.Id[RSeg], from, to oid.Id[CapNode]) {
	r := d.rseg.MustGet(rseg.Oid())
	if r.Source.Equal(from) {
		r.Source = to
	}
	if r.Target.Equal(from) {
		r.Target = to
	}
}

func (d *Database) CreateCCSeg(a, b oid.Id[CapNode]) oid.Id[CCSeg] {
	ar := d.capnode.MustGet(a.Oid())
	br := d.capnode.MustGet(b.Oid())
	rawID, rec := d.ccseg.Alloc()
	rec.NodeA, rec.NodeB = a, b
	rec.NetA, rec.NetB = ar.Net, br.Net
	id := oid.Make[CCSeg](rawID)
	d.ccChain(ar.Net).PushFront(ar.Net, id)
	if !br.Net.Equal(ar.Net) {
		d.ccChain(br.Net).PushFront(br.Net, id)
	}
	return id
}

func (d *Database) CCSegs(net oid.Id[Net]) []oid.Id[CCSeg] {
	return dbset.Walk[oid.Id[Net], CCSeg](d.ccChain(net), net)
}

func (d *Database) CCSeg(id oid.Id[CCSeg]) (*CCSegRecord, error) { return d.ccseg.Get(id.Oid()) }

func (d *Database) destroyCCSeg(id oid.Id[CCSeg]) {
	r := d.ccseg.MustGet(id.Oid())
	d.ccChain(r.NetA).Remove(r.NetA, id)
	if !r.NetB.Equal(r.NetA) {
		d.ccChain(r.NetB).Remove(r.NetB, id)
	}
	_ = d.ccseg.Free(id.Oid())
}

// destroyNetRC frees every CapNode/RSeg/CCSeg net exclusively owns or
// participates in, called from DestroyNet. A CCSeg whose other
// endpoint survives is unlinked from net's chain and freed outright
// (its cross-net partner loses the coupling relationship, matching
// original_source's "destroying one side tears down the whole segment"
// behavior).
func (d *Database) destroyNetRC(net oid.Id[Net]) {
	for _, id := range d.CCSegs(net) {
		d.destroyCCSeg(id)
	}
	for _, id := range d.RSegs(net) {
		_ = d.rseg.Free(id.Oid())
	}
	for _, id := range d.CapNodes(net) {
		_ = d.capnode.Free(id.Oid())
	}
}
