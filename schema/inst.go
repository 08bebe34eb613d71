// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package schema

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/opendb-core/odb/internal/dbset"
	"github.com/opendb-core/odb/internal/objtable"
	"github.com/opendb-core/odb/internal/odberr"
	"github.com/opendb-core/odb/internal/oid"
)

// InstRecord places one Master in a Block (§3 Inst). An Inst may
// optionally bind to a child Block (hierarchical instantiation); when
// bound, every MTerm of its Master must name-match exactly one BTerm of
// the child Block (enforced at bind time, not continuously).
type InstRecord struct {
	hdr objtable.RecordHeader

	Block      oid.Id[Block]
	Name       string
	Master     oid.Id[Master]
	Prev, Next oid.Id[Inst]

	Origin Point
	Orient Orient
	Status PlacementStatus
	Flags

	Bound oid.Id[Block] // child block this inst is bound to, or null

	// ITerms is indexed by the owning Master's MTerm.Index; it is sized
	// and populated once, at creation, to match MTermCount (§3 ITerm:
	// "implicit 1:1 with (Inst, MTerm), indexed inside the Inst by MTerm
	// index").
	ITerms []oid.Id[ITerm]

	Group     oid.Id[Group]
	GroupNext oid.Id[Inst]
}

func (r *InstRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// ITermRecord is an instance terminal: one per (Inst, MTerm), created
// automatically alongside its Inst and destroyed with it. Connection to
// a Net is optional and mutable.
type ITermRecord struct {
	hdr objtable.RecordHeader

	Inst       oid.Id[Inst]
	MTermIndex int
	Net        oid.Id[Net]
	NetPrev, NetNext oid.Id[ITerm]
}

func (r *ITermRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

func (d *Database) instChain(block oid.Id[Block]) dbset.ChainSet[oid.Id[Block], Inst] {
	return dbset.ChainSet[oid.Id[Block], Inst]{
		Head: dbset.ChainHead[oid.Id[Block], Inst]{
			Get: func(b oid.Id[Block]) oid.Id[Inst] { return d.block.MustGet(b.Oid()).InstsHead },
			Set: func(b oid.Id[Block], h oid.Id[Inst]) { d.block.MustGet(b.Oid()).InstsHead = h },
		},
		Links: dbset.ChainLinks[Inst]{
			Get: func(id oid.Id[Inst]) (oid.Id[Inst], oid.Id[Inst]) {
				r := d.inst.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Inst], prev, next oid.Id[Inst]) {
				r := d.inst.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

// CreateInst places a Master in block as a new Inst, implicitly creating
// one ITerm per MTerm. forceITermIDs, if given, must have one entry per
// MTerm index and pins each ITerm to that raw id rather than the table's
// next free slot; stream.Read uses this to restore the exact ids a prior
// write assigned (§4.4).
func (d *Database) CreateInst(block oid.Id[Block], name string, master oid.Id[Master], forceITermIDs ...oid.Oid) (oid.Id[Inst], error) {
	if !d.FindInst(block, name).IsNull() {
		return oid.NullId[Inst](), &odberr.NameCollisionError{Kind: "inst", Name: name}
	}
	mr := d.master.MustGet(master.Oid())
	odberr.Assert(len(forceITermIDs) == 0 || len(forceITermIDs) == mr.MTermCount,
		"CreateInst: forceITermIDs has %d entries, want %d", len(forceITermIDs), mr.MTermCount)
	rawID, rec := d.inst.Alloc()
	rec.Block, rec.Name, rec.Master = block, name, master
	id := oid.Make[Inst](rawID)

	rec.ITerms = make([]oid.Id[ITerm], mr.MTermCount)
	for _, mt := range d.MTerms(master) {
		mtr := d.mterm.MustGet(mt.Oid())
		if len(forceITermIDs) > 0 {
			d.iterm.SetForceNext(forceITermIDs[mtr.Index])
		}
		irawID, irec := d.iterm.Alloc()
		irec.Inst = id
		irec.MTermIndex = mtr.Index
		rec.ITerms[mtr.Index] = oid.Make[ITerm](irawID)
	}

	d.instChain(block).PushFront(block, id)
	d.notify(func(o Observer) { o.InstCreated(id) })
	return id, nil
}

func (d *Database) FindInst(block oid.Id[Block], name string) oid.Id[Inst] {
	for _, id := range d.Insts(block) {
		if d.inst.MustGet(id.Oid()).Name == name {
			return id
		}
	}
	return oid.NullId[Inst]()
}

func (d *Database) Insts(block oid.Id[Block]) []oid.Id[Inst] {
	return dbset.Walk[oid.Id[Block], Inst](d.instChain(block), block)
}

func (d *Database) Inst(id oid.Id[Inst]) (*InstRecord, error) { return d.inst.Get(id.Oid()) }

func (d *Database) SetLocation(inst oid.Id[Inst], p Point, o Orient) {
	r := d.inst.MustGet(inst.Oid())
	oldOrigin, oldOrient := r.Origin, r.Orient
	r.Origin, r.Orient = p, o
	d.notify(func(ob Observer) { ob.InstMoved(inst, oldOrigin, oldOrient) })
}

// SwapMaster rebinds inst to newMaster in place (§3 Inst "swap-master"),
// reusing the existing ITerm records rather than recreating them: the new
// Master must have the same MTermCount as the old one, index-for-index,
// since ITerms is addressed by MTerm.Index.
func (d *Database) SwapMaster(inst oid.Id[Inst], newMaster oid.Id[Master]) {
	r := d.inst.MustGet(inst.Oid())
	oldMaster := r.Master
	oldMr := d.master.MustGet(oldMaster.Oid())
	newMr := d.master.MustGet(newMaster.Oid())
	odberr.Assert(newMr.MTermCount == oldMr.MTermCount, "swap-master: MTerm count mismatch (%d != %d)", newMr.MTermCount, oldMr.MTermCount)
	r.Master = newMaster
	d.notify(func(o Observer) { o.InstSwapped(inst, oldMaster) })
}

func (d *Database) SetPlacementStatus(inst oid.Id[Inst], s PlacementStatus) {
	d.inst.MustGet(inst.Oid()).Status = s
}

// Bind hierarchically instantiates child as inst's implementation,
// requiring every MTerm of inst's Master to name-match exactly one
// BTerm of child (§3 Inst). Returns BindMismatchError on any missing or
// extra terminal.
func (d *Database) Bind(inst oid.Id[Inst], child oid.Id[Block]) error {
	ir := d.inst.MustGet(inst.Oid())
	mr := d.master.MustGet(ir.Master.Oid())
	br := d.block.MustGet(child.Oid())
	mterms := d.MTerms(ir.Master)
	bterms := d.blockBTerms(child)
	if len(mterms) != len(bterms) {
		return &odberr.BindMismatchError{Master: mr.Name, Block: br.Name, Reason: "mterm/bterm count mismatch"}
	}
	seen := make(map[string]bool, len(bterms))
	for _, bt := range bterms {
		seen[d.bterm.MustGet(bt.Oid()).Name] = true
	}
	missing := make(map[string]bool)
	for _, mt := range mterms {
		name := d.mterm.MustGet(mt.Oid()).Name
		if !seen[name] {
			missing[name] = true
		}
	}
	if len(missing) > 0 {
		names := maps.Keys(missing)
		slices.Sort(names)
		return &odberr.BindMismatchError{Master: mr.Name, Block: br.Name, Reason: "no matching bterm for mterm(s): " + strings.Join(names, ", ")}
	}
	ir.Bound = child
	return nil
}

// blockBTerms collects every BTerm owned by any Net of block, since
// BTerm's chain membership is keyed by Net, not Block directly.
func (d *Database) blockBTerms(block oid.Id[Block]) []oid.Id[BTerm] {
	var out []oid.Id[BTerm]
	for _, net := range d.Nets(block) {
		out = append(out, d.BTerms(net)...)
	}
	return out
}

func (d *Database) Unbind(inst oid.Id[Inst]) {
	d.inst.MustGet(inst.Oid()).Bound = oid.NullId[Block]()
}

func (d *Database) ITerm(inst oid.Id[Inst], mtermIndex int) oid.Id[ITerm] {
	r := d.inst.MustGet(inst.Oid())
	if mtermIndex < 0 || mtermIndex >= len(r.ITerms) {
		return oid.NullId[ITerm]()
	}
	return r.ITerms[mtermIndex]
}

func (d *Database) ITerms(inst oid.Id[Inst]) []oid.Id[ITerm] {
	return append([]oid.Id[ITerm](nil), d.inst.MustGet(inst.Oid()).ITerms...)
}

func (d *Database) ITermRec(id oid.Id[ITerm]) (*ITermRecord, error) { return d.iterm.Get(id.Oid()) }

// DestroyInst destroys every ITerm owned by inst (disconnecting each
// from its Net first), then the inst itself. If inst belongs to a
// Group, it is unlinked from the group's member list.
func (d *Database) DestroyInst(inst oid.Id[Inst]) error {
	r, err := d.inst.Get(inst.Oid())
	if err != nil {
		return err
	}
	for _, it := range r.ITerms {
		ir := d.iterm.MustGet(it.Oid())
		if !ir.Net.IsNull() {
			d.disconnectITerm(it)
		}
		_ = d.iterm.Free(it.Oid())
	}
	if !r.Group.IsNull() {
		d.removeGroupMember(r.Group, inst)
	}
	d.instChain(r.Block).Remove(r.Block, inst)
	if err := d.inst.Free(inst.Oid()); err != nil {
		return err
	}
	d.notify(func(o Observer) { o.InstDestroyed(inst) })
	return nil
}

func (d *Database) removeGroupMember(group oid.Id[Group], inst oid.Id[Inst]) {
	gr := d.group.MustGet(group.Oid())
	if gr.MembersHead.Equal(inst) {
		gr.MembersHead = d.inst.MustGet(inst.Oid()).GroupNext
		return
	}
	prev := gr.MembersHead
	for id := prev; !id.IsNull(); {
		r := d.inst.MustGet(id.Oid())
		if r.GroupNext.Equal(inst) {
			r.GroupNext = d.inst.MustGet(inst.Oid()).GroupNext
			return
		}
		id = r.GroupNext
	}
}
