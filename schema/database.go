// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package schema

import (
	"github.com/opendb-core/odb/internal/objtable"
	"github.com/opendb-core/odb/internal/odberr"
	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/internal/property"
	"github.com/opendb-core/odb/registry"
)

// Magic is the 4-byte file magic written at the start of a stream (§4.4).
var Magic = [4]byte{'O', 'D', 'B', '1'}

// SchemaVersion is the current schema generation number (§4.4).
const SchemaVersion = 1

// MaxCorners bounds the inline per-corner arrays on CapNode/RSeg/CCSeg
// records (§3: "up to 256 corners").
const MaxCorners = 256

// DatabaseRecord is the single per-process entity of kind Database (§3:
// "Exactly one per open instance").
type DatabaseRecord struct {
	hdr objtable.RecordHeader

	Flags
	SchemaVersion uint32
	Tech          oid.Id[Tech]
	Chip          oid.Id[Chip]
	LibsHead      oid.Id[Lib]
	CornerCount   int
}

func (r *DatabaseRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// Database is the live, in-memory object graph: every table plus the
// auxiliary, non-persisted indexes (property engine, wire byte streams,
// chain-head maps for owner relations that aren't 1:1 with a single
// "owner record"). It is the schema's top-level handle and the unit the
// stream codec (§4.4) reads and writes.
type Database struct {
	name string

	self oid.Id[Database]
	db   *objtable.Table[DatabaseRecord, *DatabaseRecord]

	tech      *objtable.Table[TechRecord, *TechRecord]
	layer     *objtable.Table[LayerRecord, *LayerRecord]
	layerRule *objtable.Table[LayerRuleRecord, *LayerRuleRecord]
	techVia   *objtable.Table[TechViaRecord, *TechViaRecord]
	viaRule   *objtable.Table[ViaRuleRecord, *ViaRuleRecord]
	viaGenRule *objtable.Table[ViaGenRuleRecord, *ViaGenRuleRecord]
	antRule   *objtable.Table[AntennaRuleRecord, *AntennaRuleRecord]

	lib    *objtable.Table[LibRecord, *LibRecord]
	master *objtable.Table[MasterRecord, *MasterRecord]
	mterm  *objtable.Table[MTermRecord, *MTermRecord]
	mpin   *objtable.Table[MPinRecord, *MPinRecord]
	site   *objtable.Table[SiteRecord, *SiteRecord]

	chip  *objtable.Table[ChipRecord, *ChipRecord]
	block *objtable.Table[BlockRecord, *BlockRecord]

	inst  *objtable.Table[InstRecord, *InstRecord]
	iterm *objtable.Table[ITermRecord, *ITermRecord]
	bterm *objtable.Table[BTermRecord, *BTermRecord]
	bpin  *objtable.Table[BPinRecord, *BPinRecord]
	net   *objtable.Table[NetRecord, *NetRecord]

	box  *objtable.Table[BoxRecord, *BoxRecord]
	sbox *objtable.Table[SBoxRecord, *SBoxRecord]
	via  *objtable.Table[ViaRecord, *ViaRecord]

	wire  *objtable.Table[WireRecord, *WireRecord]
	swire *objtable.Table[SWireRecord, *SWireRecord]

	region   *objtable.Table[RegionRecord, *RegionRecord]
	module   *objtable.Table[ModuleRecord, *ModuleRecord]
	modinst  *objtable.Table[ModInstRecord, *ModInstRecord]
	group    *objtable.Table[GroupRecord, *GroupRecord]
	row      *objtable.Table[RowRecord, *RowRecord]
	fill     *objtable.Table[FillRecord, *FillRecord]
	trackgrd *objtable.Table[TrackGridRecord, *TrackGridRecord]
	gcellgrd *objtable.Table[GCellGridRecord, *GCellGridRecord]
	obs      *objtable.Table[ObstructionRecord, *ObstructionRecord]
	blockage *objtable.Table[BlockageRecord, *BlockageRecord]
	ndr      *objtable.Table[NonDefaultRuleRecord, *NonDefaultRuleRecord]

	capnode *objtable.Table[CapNodeRecord, *CapNodeRecord]
	rseg    *objtable.Table[RSegRecord, *RSegRecord]
	ccseg   *objtable.Table[CCSegRecord, *CCSegRecord]

	props *property.Engine

	// wireBytes holds the lazily-decoded opcode stream for each Wire/SWire
	// (§3 Wire, §4.5): an overflow byte-stream table keyed by oid, exactly
	// the "per-net opcode stream held in a separate byte-stream table"
	// named in §4.3.
	wireBytes map[oid.Oid][]byte

	// boxOwnerHeads holds the Box chain head for every (ownerKind, ownerOid)
	// pair (§3 Box: "owned by layer + one of Block/Inst/BPin/Master/MPin/
	// TechVia/Via/Region/SWire"); a map keeps BoxRecord itself free of nine
	// mostly-unused head fields.
	boxOwnerHeads map[boxOwner]oid.Id[Box]

	// ccHeads holds the CCSeg chain head per Net (§3 CCSeg: "symmetric
	// dual-chain membership"); kept as a map rather than two head fields
	// on NetRecord because a CCSeg threads onto whichever side's head it
	// is walked from, via ccChain's NetA/NetB branch.
	ccHeads map[oid.Oid]oid.Id[CCSeg]

	observers []Observer
}

// New creates an empty Database, registers it under name (or an
// autogenerated name if name == ""), and returns it. cornerCount fixes
// the block's parasitic corner count for the database's lifetime (§4.3:
// "the corner count is per-block and is a constant for the block's
// lifetime after first allocation"); this implementation applies it
// database-wide for simplicity.
func New(name string, cornerCount int) (*Database, error) {
	if cornerCount < 0 || cornerCount > MaxCorners {
		return nil, &odberr.AssertError{Msg: "corner count out of range"}
	}
	d := &Database{
		db:        objtable.New[DatabaseRecord, *DatabaseRecord](oid.TagDatabase),
		tech:      objtable.New[TechRecord, *TechRecord](oid.TagTech),
		layer:     objtable.New[LayerRecord, *LayerRecord](oid.TagLayer),
		layerRule: objtable.New[LayerRuleRecord, *LayerRuleRecord](oid.TagLayerRule),
		techVia:   objtable.New[TechViaRecord, *TechViaRecord](oid.TagTechVia),
		viaRule:    objtable.New[ViaRuleRecord, *ViaRuleRecord](oid.TagViaRule),
		viaGenRule: objtable.New[ViaGenRuleRecord, *ViaGenRuleRecord](oid.TagViaGenRule),
		antRule:    objtable.New[AntennaRuleRecord, *AntennaRuleRecord](oid.TagAntennaRule),
		lib:       objtable.New[LibRecord, *LibRecord](oid.TagLib),
		master:    objtable.New[MasterRecord, *MasterRecord](oid.TagMaster),
		mterm:     objtable.New[MTermRecord, *MTermRecord](oid.TagMTerm),
		mpin:      objtable.New[MPinRecord, *MPinRecord](oid.TagMPin),
		site:      objtable.New[SiteRecord, *SiteRecord](oid.TagSite),
		chip:      objtable.New[ChipRecord, *ChipRecord](oid.TagChip),
		block:     objtable.New[BlockRecord, *BlockRecord](oid.TagBlock),
		inst:      objtable.New[InstRecord, *InstRecord](oid.TagInst),
		iterm:     objtable.New[ITermRecord, *ITermRecord](oid.TagITerm),
		bterm:     objtable.New[BTermRecord, *BTermRecord](oid.TagBTerm),
		bpin:      objtable.New[BPinRecord, *BPinRecord](oid.TagBPin),
		net:       objtable.New[NetRecord, *NetRecord](oid.TagNet),
		box:       objtable.New[BoxRecord, *BoxRecord](oid.TagBox),
		sbox:      objtable.New[SBoxRecord, *SBoxRecord](oid.TagSBox),
		via:       objtable.New[ViaRecord, *ViaRecord](oid.TagVia),
		wire:      objtable.New[WireRecord, *WireRecord](oid.TagWire),
		swire:     objtable.New[SWireRecord, *SWireRecord](oid.TagSWire),
		region:    objtable.New[RegionRecord, *RegionRecord](oid.TagRegion),
		module:    objtable.New[ModuleRecord, *ModuleRecord](oid.TagModule),
		modinst:   objtable.New[ModInstRecord, *ModInstRecord](oid.TagModInst),
		group:     objtable.New[GroupRecord, *GroupRecord](oid.TagGroup),
		row:       objtable.New[RowRecord, *RowRecord](oid.TagRow),
		fill:      objtable.New[FillRecord, *FillRecord](oid.TagFill),
		trackgrd:  objtable.New[TrackGridRecord, *TrackGridRecord](oid.TagTrackGrid),
		gcellgrd:  objtable.New[GCellGridRecord, *GCellGridRecord](oid.TagGCellGrid),
		obs:       objtable.New[ObstructionRecord, *ObstructionRecord](oid.TagObstruction),
		blockage:  objtable.New[BlockageRecord, *BlockageRecord](oid.TagBlockage),
		ndr:       objtable.New[NonDefaultRuleRecord, *NonDefaultRuleRecord](oid.TagNonDefaultRule),
		capnode:   objtable.New[CapNodeRecord, *CapNodeRecord](oid.TagCapNode),
		rseg:      objtable.New[RSegRecord, *RSegRecord](oid.TagRSeg),
		ccseg:     objtable.New[CCSegRecord, *CCSegRecord](oid.TagCCSeg),
		props:         property.NewEngine(),
		wireBytes:     make(map[oid.Oid][]byte),
		boxOwnerHeads: make(map[boxOwner]oid.Id[Box]),
		ccHeads:       make(map[oid.Oid]oid.Id[CCSeg]),
	}
	rawID, rec := d.db.Alloc()
	rec.SchemaVersion = SchemaVersion
	rec.CornerCount = cornerCount
	d.self = oid.Make[Database](rawID)
	d.name = registry.Global().Register(name, d)
	return d, nil
}

// RegistryName implements registry.Handle.
func (d *Database) RegistryName() string { return d.name }

// Close unregisters the database. The in-memory graph is simply garbage
// collected afterward; there is no crash-durability layer (Non-goal).
func (d *Database) Close() {
	registry.Global().Unregister(d.name)
}

func (d *Database) record() *DatabaseRecord { return d.db.MustGet(d.self.Oid()) }

// Self returns this Database's own id, the root of every entity path
// (§4.8: "/D<dbname>[...]").
func (d *Database) Self() oid.Id[Database] { return d.self }

func (d *Database) CornerCount() int { return d.record().CornerCount }

// AddObserver registers a structural-event callback (§6, schema.Observer).
func (d *Database) AddObserver(o Observer) { d.observers = append(d.observers, o) }

// RemoveObserver drops a previously registered observer.
func (d *Database) RemoveObserver(o Observer) {
	out := d.observers[:0]
	for _, existing := range d.observers {
		if existing != o {
			out = append(out, existing)
		}
	}
	d.observers = out
}

func (d *Database) notify(fn func(Observer)) {
	for _, o := range d.observers {
		fn(o)
	}
}

// ForceNextID makes the next Create call for the table tagged tag allocate
// exactly id instead of the next free/high-water slot. Used exclusively by
// stream.Read to restore every entity into the slot its writer recorded it
// under, so that a write/read round trip preserves ids (§4.4).
func (d *Database) ForceNextID(tag oid.TypeTag, id oid.Oid) {
	switch tag {
	case oid.TagDatabase:
		d.db.SetForceNext(id)
	case oid.TagTech:
		d.tech.SetForceNext(id)
	case oid.TagLayer:
		d.layer.SetForceNext(id)
	case oid.TagLayerRule:
		d.layerRule.SetForceNext(id)
	case oid.TagTechVia:
		d.techVia.SetForceNext(id)
	case oid.TagViaRule:
		d.viaRule.SetForceNext(id)
	case oid.TagViaGenRule:
		d.viaGenRule.SetForceNext(id)
	case oid.TagAntennaRule:
		d.antRule.SetForceNext(id)
	case oid.TagLib:
		d.lib.SetForceNext(id)
	case oid.TagMaster:
		d.master.SetForceNext(id)
	case oid.TagMTerm:
		d.mterm.SetForceNext(id)
	case oid.TagMPin:
		d.mpin.SetForceNext(id)
	case oid.TagSite:
		d.site.SetForceNext(id)
	case oid.TagChip:
		d.chip.SetForceNext(id)
	case oid.TagBlock:
		d.block.SetForceNext(id)
	case oid.TagInst:
		d.inst.SetForceNext(id)
	case oid.TagITerm:
		d.iterm.SetForceNext(id)
	case oid.TagBTerm:
		d.bterm.SetForceNext(id)
	case oid.TagBPin:
		d.bpin.SetForceNext(id)
	case oid.TagNet:
		d.net.SetForceNext(id)
	case oid.TagBox:
		d.box.SetForceNext(id)
	case oid.TagSBox:
		d.sbox.SetForceNext(id)
	case oid.TagVia:
		d.via.SetForceNext(id)
	case oid.TagWire:
		d.wire.SetForceNext(id)
	case oid.TagSWire:
		d.swire.SetForceNext(id)
	case oid.TagRegion:
		d.region.SetForceNext(id)
	case oid.TagModule:
		d.module.SetForceNext(id)
	case oid.TagModInst:
		d.modinst.SetForceNext(id)
	case oid.TagGroup:
		d.group.SetForceNext(id)
	case oid.TagRow:
		d.row.SetForceNext(id)
	case oid.TagFill:
		d.fill.SetForceNext(id)
	case oid.TagTrackGrid:
		d.trackgrd.SetForceNext(id)
	case oid.TagGCellGrid:
		d.gcellgrd.SetForceNext(id)
	case oid.TagObstruction:
		d.obs.SetForceNext(id)
	case oid.TagBlockage:
		d.blockage.SetForceNext(id)
	case oid.TagNonDefaultRule:
		d.ndr.SetForceNext(id)
	case oid.TagCapNode:
		d.capnode.SetForceNext(id)
	case oid.TagRSeg:
		d.rseg.SetForceNext(id)
	case oid.TagCCSeg:
		d.ccseg.SetForceNext(id)
	default:
		odberr.Assert(false, "ForceNextID: unhandled tag %v", tag)
	}
}
