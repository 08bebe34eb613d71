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

type ChipRecord struct {
	hdr objtable.RecordHeader

	TopBlock oid.Id[Block]
}

func (r *ChipRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// BlockRecord is a hierarchical design partition (§3 "Chip / Block"). A
// Block may have a parent Block; the top Block (owned by a Chip) has no
// parent. Block exclusively owns every chain listed below; destroying a
// Block destroys every entity reachable from them (§3 "Ownership
// summary").
type BlockRecord struct {
	hdr objtable.RecordHeader

	Chip               oid.Id[Chip]
	Parent             oid.Id[Block]
	Name               string
	HierarchyDelimiter byte

	InstsHead       oid.Id[Inst]
	NetsHead        oid.Id[Net]
	BTermsHead      oid.Id[BTerm]
	ObstructionHead oid.Id[Obstruction]
	BlockageHead    oid.Id[Blockage]
	ViasHead        oid.Id[Via]
	RowsHead        oid.Id[Row]
	FillsHead       oid.Id[Fill]
	RegionsHead     oid.Id[Region]
	TrackGridsHead  oid.Id[TrackGrid]
	GCellGrid       oid.Id[GCellGrid]
	ModulesHead     oid.Id[Module]
	ModInstsHead    oid.Id[ModInst]
	GroupsHead      oid.Id[Group]
	NDRsHead        oid.Id[NonDefaultRule]
	ChildrenHead    oid.Id[Block]
	Prev, Next      oid.Id[Block] // sibling chain (owner: Parent, or Chip for the top block)
}

func (r *BlockRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

func (d *Database) CreateChip() (oid.Id[Chip], error) {
	if !d.record().Chip.IsNull() {
		return oid.NullId[Chip](), &odberr.AssertError{Msg: "chip already created"}
	}
	rawID, _ := d.chip.Alloc()
	id := oid.Make[Chip](rawID)
	d.record().Chip = id
	return id, nil
}

func (d *Database) Chip() oid.Id[Chip] { return d.record().Chip }

func (d *Database) TopBlock(chip oid.Id[Chip]) oid.Id[Block] {
	return d.chip.MustGet(chip.Oid()).TopBlock
}

// CreateTopBlock creates the Chip's single top-level Block (no parent).
func (d *Database) CreateTopBlock(chip oid.Id[Chip], name string, delim byte) (oid.Id[Block], error) {
	cr := d.chip.MustGet(chip.Oid())
	if !cr.TopBlock.IsNull() {
		return oid.NullId[Block](), &odberr.AssertError{Msg: "top block already created"}
	}
	rawID, rec := d.block.Alloc()
	rec.Chip = chip
	rec.Name = name
	rec.HierarchyDelimiter = delim
	id := oid.Make[Block](rawID)
	cr.TopBlock = id
	return id, nil
}

// CreateChildBlock creates a Block owned by parent. Bound via
// Inst.Bind (§3 Inst).
func (d *Database) CreateChildBlock(parent oid.Id[Block], name string, delim byte) (oid.Id[Block], error) {
	pr := d.block.MustGet(parent.Oid())
	rawID, rec := d.block.Alloc()
	rec.Chip = pr.Chip
	rec.Parent = parent
	rec.Name = name
	rec.HierarchyDelimiter = delim
	id := oid.Make[Block](rawID)
	d.blockSiblingChain(parent).PushFront(parent, id)
	return id, nil
}

func (d *Database) blockSiblingChain(parent oid.Id[Block]) dbset.ChainSet[oid.Id[Block], Block] {
	return dbset.ChainSet[oid.Id[Block], Block]{
		Head: dbset.ChainHead[oid.Id[Block], Block]{
			Get: func(p oid.Id[Block]) oid.Id[Block] { return d.block.MustGet(p.Oid()).ChildrenHead },
			Set: func(p oid.Id[Block], h oid.Id[Block]) { d.block.MustGet(p.Oid()).ChildrenHead = h },
		},
		Links: dbset.ChainLinks[Block]{
			Get: func(id oid.Id[Block]) (oid.Id[Block], oid.Id[Block]) {
				r := d.block.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Block], prev, next oid.Id[Block]) {
				r := d.block.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) ChildBlocks(parent oid.Id[Block]) []oid.Id[Block] {
	return dbset.Walk[oid.Id[Block], Block](d.blockSiblingChain(parent), parent)
}

func (d *Database) Block(id oid.Id[Block]) (*BlockRecord, error) { return d.block.Get(id.Oid()) }

// DestroyBlock destroys every entity the block exclusively owns, then
// frees the block's own slot (§3 "Ownership summary": "destroying a
// Block destroys all owned entities").
func (d *Database) DestroyBlock(block oid.Id[Block]) error {
	br, err := d.block.Get(block.Oid())
	if err != nil {
		return err
	}
	for _, id := range d.ChildBlocks(block) {
		_ = d.DestroyBlock(id)
	}
	for _, id := range d.Nets(block) {
		_ = d.DestroyNet(id)
	}
	for _, id := range d.Insts(block) {
		_ = d.DestroyInst(id)
	}
	for _, id := range dbset.Walk[oid.Id[Block], Via](d.blockViaChain(block), block) {
		_ = d.via.Free(id.Oid())
	}
	for _, id := range dbset.Walk[oid.Id[Block], Row](d.rowChain(block), block) {
		_ = d.row.Free(id.Oid())
	}
	for _, id := range dbset.Walk[oid.Id[Block], Fill](d.fillChain(block), block) {
		_ = d.fill.Free(id.Oid())
	}
	for _, id := range dbset.Walk[oid.Id[Block], Region](d.regionChain(block), block) {
		_ = d.region.Free(id.Oid())
	}
	for _, id := range dbset.Walk[oid.Id[Block], TrackGrid](d.trackGridChain(block), block) {
		_ = d.trackgrd.Free(id.Oid())
	}
	for _, id := range dbset.Walk[oid.Id[Block], Module](d.moduleChain(block), block) {
		_ = d.module.Free(id.Oid())
	}
	for _, id := range dbset.Walk[oid.Id[Block], ModInst](d.modinstChain(block), block) {
		_ = d.modinst.Free(id.Oid())
	}
	for _, id := range dbset.Walk[oid.Id[Block], Group](d.groupChain(block), block) {
		_ = d.group.Free(id.Oid())
	}
	for _, id := range dbset.Walk[oid.Id[Block], Obstruction](d.obsChain(block), block) {
		_ = d.obs.Free(id.Oid())
	}
	for _, id := range dbset.Walk[oid.Id[Block], Blockage](d.blockageChain(block), block) {
		_ = d.blockage.Free(id.Oid())
	}
	for _, id := range dbset.Walk[oid.Id[Block], NonDefaultRule](d.ndrChain(block), block) {
		_ = d.ndr.Free(id.Oid())
	}
	if !br.GCellGrid.IsNull() {
		_ = d.gcellgrd.Free(br.GCellGrid.Oid())
	}
	if !br.Parent.IsNull() {
		d.blockSiblingChain(br.Parent).Remove(br.Parent, block)
	}
	return d.block.Free(block.Oid())
}

// ---- peripheral block-owned entities: minimal named/scan shapes ----

type RowRecord struct {
	hdr        objtable.RecordHeader
	Block      oid.Id[Block]
	Name       string
	Site       oid.Id[Site]
	OrigX      int64
	OrigY      int64
	Orient     Orient
	NumSites   int32
	SpacingX   int64
	Prev, Next oid.Id[Row]
}

func (r *RowRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

type FillRecord struct {
	hdr        objtable.RecordHeader
	Block      oid.Id[Block]
	Layer      oid.Id[Layer]
	Rect       Rect
	Prev, Next oid.Id[Fill]
}

func (r *FillRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

type TrackGridRecord struct {
	hdr        objtable.RecordHeader
	Block      oid.Id[Block]
	Layer      oid.Id[Layer]
	Dir        Direction
	Origin     int64
	Count      int32
	Step       int64
	Prev, Next oid.Id[TrackGrid]
}

func (r *TrackGridRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

type GCellGridRecord struct {
	hdr   objtable.RecordHeader
	Block oid.Id[Block]
	// Origin/Count/Step X and Y hold the (origin,count,step) triple for each axis; the
	// GCellGrid is a database singleton per block (§3) so no chain is
	// needed.
	OriginX, OriginY int64
	CountX, CountY   int32
	StepX, StepY     int64
}

func (r *GCellGridRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

type RegionRecord struct {
	hdr        objtable.RecordHeader
	Block      oid.Id[Block]
	Name       string
	Type       RegionType
	Prev, Next oid.Id[Region]
}

func (r *RegionRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

type ModuleRecord struct {
	hdr        objtable.RecordHeader
	Block      oid.Id[Block]
	Name       string
	Prev, Next oid.Id[Module]
}

func (r *ModuleRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

type ModInstRecord struct {
	hdr        objtable.RecordHeader
	Block      oid.Id[Block]
	Name       string
	Module     oid.Id[Module]
	Prev, Next oid.Id[ModInst]
}

func (r *ModInstRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

type GroupRecord struct {
	hdr        objtable.RecordHeader
	Block      oid.Id[Block]
	Name       string
	Type       GroupType
	Prev, Next oid.Id[Group]
	MembersHead oid.Id[Inst]
}

func (r *GroupRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

type ObstructionRecord struct {
	hdr        objtable.RecordHeader
	Block      oid.Id[Block]
	Layer      oid.Id[Layer]
	Rect       Rect
	Prev, Next oid.Id[Obstruction]
}

func (r *ObstructionRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

type BlockageRecord struct {
	hdr          objtable.RecordHeader
	Block        oid.Id[Block]
	Rect         Rect
	SoftBlockage bool
	Prev, Next   oid.Id[Blockage]
}

func (r *BlockageRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// NonDefaultRuleRecord is a per-Net routing-width/spacing override,
// uniquely named per Block (§3: "name collisions ... nondefault-rules").
type NonDefaultRuleRecord struct {
	hdr        objtable.RecordHeader
	Block      oid.Id[Block]
	Name       string
	Prev, Next oid.Id[NonDefaultRule]
}

func (r *NonDefaultRuleRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// ---- generic block-owned chain helper ----
//
// Each of the eleven entity kinds above is chained off one head field on
// BlockRecord; the accessor boilerplate is mechanical, so it is generated
// inline per type rather than via reflection (keeping Get/Set allocation-
// free and type-safe).

func (d *Database) blockViaChain(b oid.Id[Block]) dbset.ChainSet[oid.Id[Block], Via] {
	return dbset.ChainSet[oid.Id[Block], Via]{
		Head: dbset.ChainHead[oid.Id[Block], Via]{
			Get: func(b oid.Id[Block]) oid.Id[Via] { return d.block.MustGet(b.Oid()).ViasHead },
			Set: func(b oid.Id[Block], h oid.Id[Via]) { d.block.MustGet(b.Oid()).ViasHead = h },
		},
		Links: dbset.ChainLinks[Via]{
			Get: func(id oid.Id[Via]) (oid.Id[Via], oid.Id[Via]) {
				r := d.via.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Via], prev, next oid.Id[Via]) {
				r := d.via.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) rowChain(b oid.Id[Block]) dbset.ChainSet[oid.Id[Block], Row] {
	return dbset.ChainSet[oid.Id[Block], Row]{
		Head: dbset.ChainHead[oid.Id[Block], Row]{
			Get: func(b oid.Id[Block]) oid.Id[Row] { return d.block.MustGet(b.Oid()).RowsHead },
			Set: func(b oid.Id[Block], h oid.Id[Row]) { d.block.MustGet(b.Oid()).RowsHead = h },
		},
		Links: dbset.ChainLinks[Row]{
			Get: func(id oid.Id[Row]) (oid.Id[Row], oid.Id[Row]) {
				r := d.row.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Row], prev, next oid.Id[Row]) {
				r := d.row.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) fillChain(b oid.Id[Block]) dbset.ChainSet[oid.Id[Block], Fill] {
	return dbset.ChainSet[oid.Id[Block], Fill]{
		Head: dbset.ChainHead[oid.Id[Block], Fill]{
			Get: func(b oid.Id[Block]) oid.Id[Fill] { return d.block.MustGet(b.Oid()).FillsHead },
			Set: func(b oid.Id[Block], h oid.Id[Fill]) { d.block.MustGet(b.Oid()).FillsHead = h },
		},
		Links: dbset.ChainLinks[Fill]{
			Get: func(id oid.Id[Fill]) (oid.Id[Fill], oid.Id[Fill]) {
				r := d.fill.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Fill], prev, next oid.Id[Fill]) {
				r := d.fill.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) regionChain(b oid.Id[Block]) dbset.ChainSet[oid.Id[Block], Region] {
	return dbset.ChainSet[oid.Id[Block], Region]{
		Head: dbset.ChainHead[oid.Id[Block], Region]{
			Get: func(b oid.Id[Block]) oid.Id[Region] { return d.block.MustGet(b.Oid()).RegionsHead },
			Set: func(b oid.Id[Block], h oid.Id[Region]) { d.block.MustGet(b.Oid()).RegionsHead = h },
		},
		Links: dbset.ChainLinks[Region]{
			Get: func(id oid.Id[Region]) (oid.Id[Region], oid.Id[Region]) {
				r := d.region.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Region], prev, next oid.Id[Region]) {
				r := d.region.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) trackGridChain(b oid.Id[Block]) dbset.ChainSet[oid.Id[Block], TrackGrid] {
	return dbset.ChainSet[oid.Id[Block], TrackGrid]{
		Head: dbset.ChainHead[oid.Id[Block], TrackGrid]{
			Get: func(b oid.Id[Block]) oid.Id[TrackGrid] { return d.block.MustGet(b.Oid()).TrackGridsHead },
			Set: func(b oid.Id[Block], h oid.Id[TrackGrid]) { d.block.MustGet(b.Oid()).TrackGridsHead = h },
		},
		Links: dbset.ChainLinks[TrackGrid]{
			Get: func(id oid.Id[TrackGrid]) (oid.Id[TrackGrid], oid.Id[TrackGrid]) {
				r := d.trackgrd.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[TrackGrid], prev, next oid.Id[TrackGrid]) {
				r := d.trackgrd.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) moduleChain(b oid.Id[Block]) dbset.ChainSet[oid.Id[Block], Module] {
	return dbset.ChainSet[oid.Id[Block], Module]{
		Head: dbset.ChainHead[oid.Id[Block], Module]{
			Get: func(b oid.Id[Block]) oid.Id[Module] { return d.block.MustGet(b.Oid()).ModulesHead },
			Set: func(b oid.Id[Block], h oid.Id[Module]) { d.block.MustGet(b.Oid()).ModulesHead = h },
		},
		Links: dbset.ChainLinks[Module]{
			Get: func(id oid.Id[Module]) (oid.Id[Module], oid.Id[Module]) {
				r := d.module.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Module], prev, next oid.Id[Module]) {
				r := d.module.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) modinstChain(b oid.Id[Block]) dbset.ChainSet[oid.Id[Block], ModInst] {
	return dbset.ChainSet[oid.Id[Block], ModInst]{
		Head: dbset.ChainHead[oid.Id[Block], ModInst]{
			Get: func(b oid.Id[Block]) oid.Id[ModInst] { return d.block.MustGet(b.Oid()).ModInstsHead },
			Set: func(b oid.Id[Block], h oid.Id[ModInst]) { d.block.MustGet(b.Oid()).ModInstsHead = h },
		},
		Links: dbset.ChainLinks[ModInst]{
			Get: func(id oid.Id[ModInst]) (oid.Id[ModInst], oid.Id[ModInst]) {
				r := d.modinst.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[ModInst], prev, next oid.Id[ModInst]) {
				r := d.modinst.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) groupChain(b oid.Id[Block]) dbset.ChainSet[oid.Id[Block], Group] {
	return dbset.ChainSet[oid.Id[Block], Group]{
		Head: dbset.ChainHead[oid.Id[Block], Group]{
			Get: func(b oid.Id[Block]) oid.Id[Group] { return d.block.MustGet(b.Oid()).GroupsHead },
			Set: func(b oid.Id[Block], h oid.Id[Group]) { d.block.MustGet(b.Oid()).GroupsHead = h },
		},
		Links: dbset.ChainLinks[Group]{
			Get: func(id oid.Id[Group]) (oid.Id[Group], oid.Id[Group]) {
				r := d.group.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Group], prev, next oid.Id[Group]) {
				r := d.group.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) obsChain(b oid.Id[Block]) dbset.ChainSet[oid.Id[Block], Obstruction] {
	return dbset.ChainSet[oid.Id[Block], Obstruction]{
		Head: dbset.ChainHead[oid.Id[Block], Obstruction]{
			Get: func(b oid.Id[Block]) oid.Id[Obstruction] { return d.block.MustGet(b.Oid()).ObstructionHead },
			Set: func(b oid.Id[Block], h oid.Id[Obstruction]) { d.block.MustGet(b.Oid()).ObstructionHead = h },
		},
		Links: dbset.ChainLinks[Obstruction]{
			Get: func(id oid.Id[Obstruction]) (oid.Id[Obstruction], oid.Id[Obstruction]) {
				r := d.obs.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Obstruction], prev, next oid.Id[Obstruction]) {
				r := d.obs.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) blockageChain(b oid.Id[Block]) dbset.ChainSet[oid.Id[Block], Blockage] {
	return dbset.ChainSet[oid.Id[Block], Blockage]{
		Head: dbset.ChainHead[oid.Id[Block], Blockage]{
			Get: func(b oid.Id[Block]) oid.Id[Blockage] { return d.block.MustGet(b.Oid()).BlockageHead },
			Set: func(b oid.Id[Block], h oid.Id[Blockage]) { d.block.MustGet(b.Oid()).BlockageHead = h },
		},
		Links: dbset.ChainLinks[Blockage]{
			Get: func(id oid.Id[Blockage]) (oid.Id[Blockage], oid.Id[Blockage]) {
				r := d.blockage.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Blockage], prev, next oid.Id[Blockage]) {
				r := d.blockage.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) ndrChain(b oid.Id[Block]) dbset.ChainSet[oid.Id[Block], NonDefaultRule] {
	return dbset.ChainSet[oid.Id[Block], NonDefaultRule]{
		Head: dbset.ChainHead[oid.Id[Block], NonDefaultRule]{
			Get: func(b oid.Id[Block]) oid.Id[NonDefaultRule] { return d.block.MustGet(b.Oid()).NDRsHead },
			Set: func(b oid.Id[Block], h oid.Id[NonDefaultRule]) { d.block.MustGet(b.Oid()).NDRsHead = h },
		},
		Links: dbset.ChainLinks[NonDefaultRule]{
			Get: func(id oid.Id[NonDefaultRule]) (oid.Id[NonDefaultRule], oid.Id[NonDefaultRule]) {
				r := d.ndr.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[NonDefaultRule], prev, next oid.Id[NonDefaultRule]) {
				r := d.ndr.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

// ---- minimal creation contracts for the peripheral entities ----

func (d *Database) CreateRow(block oid.Id[Block], name string, site oid.Id[Site], x, y int64, o Orient, numSites int32, spacing int64) (oid.Id[Row], error) {
	for _, id := range dbset.Walk[oid.Id[Block], Row](d.rowChain(block), block) {
		if d.row.MustGet(id.Oid()).Name == name {
			return oid.NullId[Row](), &odberr.NameCollisionError{Kind: "row", Name: name}
		}
	}
	rawID, rec := d.row.Alloc()
	rec.Block, rec.Name, rec.Site = block, name, site
	rec.OrigX, rec.OrigY, rec.Orient, rec.NumSites, rec.SpacingX = x, y, o, numSites, spacing
	id := oid.Make[Row](rawID)
	d.rowChain(block).PushFront(block, id)
	return id, nil
}

func (d *Database) Rows(block oid.Id[Block]) []oid.Id[Row] {
	return dbset.Walk[oid.Id[Block], Row](d.rowChain(block), block)
}

func (d *Database) Row(id oid.Id[Row]) (*RowRecord, error) { return d.row.Get(id.Oid()) }

func (d *Database) CreateFill(block oid.Id[Block], layer oid.Id[Layer], rect Rect) oid.Id[Fill] {
	rawID, rec := d.fill.Alloc()
	rec.Block, rec.Layer, rec.Rect = block, layer, rect
	id := oid.Make[Fill](rawID)
	d.fillChain(block).PushFront(block, id)
	return id
}

func (d *Database) Fills(block oid.Id[Block]) []oid.Id[Fill] {
	return dbset.Walk[oid.Id[Block], Fill](d.fillChain(block), block)
}

func (d *Database) Fill(id oid.Id[Fill]) (*FillRecord, error) { return d.fill.Get(id.Oid()) }

func (d *Database) CreateTrackGrid(block oid.Id[Block], layer oid.Id[Layer], dir Direction, origin int64, count int32, step int64) oid.Id[TrackGrid] {
	rawID, rec := d.trackgrd.Alloc()
	rec.Block, rec.Layer, rec.Dir, rec.Origin, rec.Count, rec.Step = block, layer, dir, origin, count, step
	id := oid.Make[TrackGrid](rawID)
	d.trackGridChain(block).PushFront(block, id)
	return id
}

func (d *Database) TrackGrids(block oid.Id[Block]) []oid.Id[TrackGrid] {
	return dbset.Walk[oid.Id[Block], TrackGrid](d.trackGridChain(block), block)
}

func (d *Database) TrackGrid(id oid.Id[TrackGrid]) (*TrackGridRecord, error) {
	return d.trackgrd.Get(id.Oid())
}

// CreateGCellGrid creates the block's single GCellGrid. Calling it twice
// on the same block is a programmer error.
func (d *Database) CreateGCellGrid(block oid.Id[Block]) (oid.Id[GCellGrid], error) {
	br := d.block.MustGet(block.Oid())
	if !br.GCellGrid.IsNull() {
		return oid.NullId[GCellGrid](), &odberr.AssertError{Msg: "gcellgrid already created"}
	}
	rawID, rec := d.gcellgrd.Alloc()
	rec.Block = block
	id := oid.Make[GCellGrid](rawID)
	br.GCellGrid = id
	return id, nil
}

func (d *Database) GCellGrid(id oid.Id[GCellGrid]) (*GCellGridRecord, error) { return d.gcellgrd.Get(id.Oid()) }

func (d *Database) CreateRegion(block oid.Id[Block], name string, t RegionType) (oid.Id[Region], error) {
	for _, id := range dbset.Walk[oid.Id[Block], Region](d.regionChain(block), block) {
		if d.region.MustGet(id.Oid()).Name == name {
			return oid.NullId[Region](), &odberr.NameCollisionError{Kind: "region", Name: name}
		}
	}
	rawID, rec := d.region.Alloc()
	rec.Block, rec.Name, rec.Type = block, name, t
	id := oid.Make[Region](rawID)
	d.regionChain(block).PushFront(block, id)
	return id, nil
}

func (d *Database) Regions(block oid.Id[Block]) []oid.Id[Region] {
	return dbset.Walk[oid.Id[Block], Region](d.regionChain(block), block)
}

func (d *Database) Region(id oid.Id[Region]) (*RegionRecord, error) { return d.region.Get(id.Oid()) }

func (d *Database) CreateModule(block oid.Id[Block], name string) (oid.Id[Module], error) {
	for _, id := range dbset.Walk[oid.Id[Block], Module](d.moduleChain(block), block) {
		if d.module.MustGet(id.Oid()).Name == name {
			return oid.NullId[Module](), &odberr.NameCollisionError{Kind: "module", Name: name}
		}
	}
	rawID, rec := d.module.Alloc()
	rec.Block, rec.Name = block, name
	id := oid.Make[Module](rawID)
	d.moduleChain(block).PushFront(block, id)
	return id, nil
}

func (d *Database) Modules(block oid.Id[Block]) []oid.Id[Module] {
	return dbset.Walk[oid.Id[Block], Module](d.moduleChain(block), block)
}

func (d *Database) Module(id oid.Id[Module]) (*ModuleRecord, error) { return d.module.Get(id.Oid()) }

func (d *Database) CreateModInst(block oid.Id[Block], name string, module oid.Id[Module]) (oid.Id[ModInst], error) {
	for _, id := range dbset.Walk[oid.Id[Block], ModInst](d.modinstChain(block), block) {
		if d.modinst.MustGet(id.Oid()).Name == name {
			return oid.NullId[ModInst](), &odberr.NameCollisionError{Kind: "modinst", Name: name}
		}
	}
	rawID, rec := d.modinst.Alloc()
	rec.Block, rec.Name, rec.Module = block, name, module
	id := oid.Make[ModInst](rawID)
	d.modinstChain(block).PushFront(block, id)
	return id, nil
}

func (d *Database) ModInsts(block oid.Id[Block]) []oid.Id[ModInst] {
	return dbset.Walk[oid.Id[Block], ModInst](d.modinstChain(block), block)
}

func (d *Database) ModInst(id oid.Id[ModInst]) (*ModInstRecord, error) { return d.modinst.Get(id.Oid()) }

func (d *Database) CreateGroup(block oid.Id[Block], name string, t GroupType) (oid.Id[Group], error) {
	for _, id := range dbset.Walk[oid.Id[Block], Group](d.groupChain(block), block) {
		if d.group.MustGet(id.Oid()).Name == name {
			return oid.NullId[Group](), &odberr.NameCollisionError{Kind: "group", Name: name}
		}
	}
	rawID, rec := d.group.Alloc()
	rec.Block, rec.Name, rec.Type = block, name, t
	id := oid.Make[Group](rawID)
	d.groupChain(block).PushFront(block, id)
	return id, nil
}

func (d *Database) Groups(block oid.Id[Block]) []oid.Id[Group] {
	return dbset.Walk[oid.Id[Block], Group](d.groupChain(block), block)
}

// AddGroupMember adds inst to group's flat member list (original_source's
// db.h models Group as a flat named container of Insts; see SPEC_FULL.md
// §3 item 5).
func (d *Database) AddGroupMember(group oid.Id[Group], inst oid.Id[Inst]) {
	gr := d.group.MustGet(group.Oid())
	ir := d.inst.MustGet(inst.Oid())
	ir.GroupNext = gr.MembersHead
	gr.MembersHead = inst
	ir.Group = group
}

func (d *Database) Group(id oid.Id[Group]) (*GroupRecord, error) { return d.group.Get(id.Oid()) }

func (d *Database) GroupMembers(group oid.Id[Group]) []oid.Id[Inst] {
	var out []oid.Id[Inst]
	gr := d.group.MustGet(group.Oid())
	for id := gr.MembersHead; !id.IsNull(); id = d.inst.MustGet(id.Oid()).GroupNext {
		out = append(out, id)
	}
	return out
}

func (d *Database) CreateObstruction(block oid.Id[Block], layer oid.Id[Layer], rect Rect) oid.Id[Obstruction] {
	rawID, rec := d.obs.Alloc()
	rec.Block, rec.Layer, rec.Rect = block, layer, rect
	id := oid.Make[Obstruction](rawID)
	d.obsChain(block).PushFront(block, id)
	return id
}

func (d *Database) Obstructions(block oid.Id[Block]) []oid.Id[Obstruction] {
	return dbset.Walk[oid.Id[Block], Obstruction](d.obsChain(block), block)
}

func (d *Database) Obstruction(id oid.Id[Obstruction]) (*ObstructionRecord, error) {
	return d.obs.Get(id.Oid())
}

func (d *Database) CreateBlockage(block oid.Id[Block], rect Rect, soft bool) oid.Id[Blockage] {
	rawID, rec := d.blockage.Alloc()
	rec.Block, rec.Rect, rec.SoftBlockage = block, rect, soft
	id := oid.Make[Blockage](rawID)
	d.blockageChain(block).PushFront(block, id)
	return id
}

func (d *Database) Blockages(block oid.Id[Block]) []oid.Id[Blockage] {
	return dbset.Walk[oid.Id[Block], Blockage](d.blockageChain(block), block)
}

func (d *Database) Blockage(id oid.Id[Blockage]) (*BlockageRecord, error) {
	return d.blockage.Get(id.Oid())
}

func (d *Database) CreateNonDefaultRule(block oid.Id[Block], name string) (oid.Id[NonDefaultRule], error) {
	for _, id := range dbset.Walk[oid.Id[Block], NonDefaultRule](d.ndrChain(block), block) {
		if d.ndr.MustGet(id.Oid()).Name == name {
			return oid.NullId[NonDefaultRule](), &odberr.NameCollisionError{Kind: "nondefaultrule", Name: name}
		}
	}
	rawID, rec := d.ndr.Alloc()
	rec.Block, rec.Name = block, name
	id := oid.Make[NonDefaultRule](rawID)
	d.ndrChain(block).PushFront(block, id)
	return id, nil
}

func (d *Database) NonDefaultRules(block oid.Id[Block]) []oid.Id[NonDefaultRule] {
	return dbset.Walk[oid.Id[Block], NonDefaultRule](d.ndrChain(block), block)
}

func (d *Database) NonDefaultRule(id oid.Id[NonDefaultRule]) (*NonDefaultRuleRecord, error) {
	return d.ndr.Get(id.Oid())
}
