// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package stream

import (
	"io"

	"github.com/opendb-core/odb/internal/odberr"
	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/schema"
)

// boxOwnerKind is the wire-format discriminant for which of the nine Box
// owner kinds a record belongs to (§3 Box: "owned by one of Block/Inst/
// BPin/Master/MPin/TechVia/Via/Region/SWire"). It mirrors, but is
// independent of, package schema's own unexported owner-kind enum —
// package stream only needs a stable byte-per-kind mapping, not the
// schema package's internal representation.
type boxOwnerKind uint8

const (
	boxOwnerBlock boxOwnerKind = iota + 1
	boxOwnerInst
	boxOwnerBPin
	boxOwnerMaster
	boxOwnerMPin
	boxOwnerTechVia
	boxOwnerVia
	boxOwnerRegion
	boxOwnerSWire
)

// WriteBoxes writes every Box across all nine owner kinds as a single
// section, each record carrying its owner kind plus the owner's old oid
// so the reader can re-attach it to whichever owner already exists by
// the time this section is read (it is written after every section that
// holds a possible owner kind; only the Parasitics sections follow it).
func WriteBoxes(db *schema.Database, techID oid.Id[schema.Tech], libs []oid.Id[schema.Lib], blocks []oid.Id[schema.Block], w io.Writer) error {
	bw := &recWriter{}
	emit := func(kind boxOwnerKind, ownerOid oid.Oid, id oid.Id[schema.Box]) error {
		br, err := db.Box(id)
		if err != nil {
			return err
		}
		bw.u32(uint32(id.Oid()))
		bw.u8(uint8(kind))
		bw.u32(uint32(ownerOid))
		bw.u32(uint32(br.Layer.Oid()))
		writeRect(bw, br.Rect)
		bw.record()
		return nil
	}

	for _, bid := range blocks {
		for _, id := range db.BlockBoxes(bid) {
			if err := emit(boxOwnerBlock, bid.Oid(), id); err != nil {
				return err
			}
		}
		for _, iid := range db.Insts(bid) {
			for _, id := range db.InstBoxes(iid) {
				if err := emit(boxOwnerInst, iid.Oid(), id); err != nil {
					return err
				}
			}
		}
		for _, vid := range db.Vias(bid) {
			for _, id := range db.ViaBoxes(vid) {
				if err := emit(boxOwnerVia, vid.Oid(), id); err != nil {
					return err
				}
			}
		}
		for _, rid := range db.Regions(bid) {
			for _, id := range db.RegionBoxes(rid) {
				if err := emit(boxOwnerRegion, rid.Oid(), id); err != nil {
					return err
				}
			}
		}
		for _, nid := range db.Nets(bid) {
			for _, btid := range db.BTerms(nid) {
				for _, bpid := range db.BPins(btid) {
					for _, id := range db.BPinBoxes(bpid) {
						if err := emit(boxOwnerBPin, bpid.Oid(), id); err != nil {
							return err
						}
					}
				}
			}
			for _, swid := range db.SWires(nid) {
				for _, id := range db.SWireBoxes(swid) {
					if err := emit(boxOwnerSWire, swid.Oid(), id); err != nil {
						return err
					}
				}
			}
		}
	}

	for _, lid := range libs {
		for _, mid := range db.Masters(lid) {
			for _, id := range db.MasterBoxes(mid) {
				if err := emit(boxOwnerMaster, mid.Oid(), id); err != nil {
					return err
				}
			}
			for _, mtid := range db.MTerms(mid) {
				for _, mpid := range db.MPins(mtid) {
					for _, id := range db.MPinBoxes(mpid) {
						if err := emit(boxOwnerMPin, mpid.Oid(), id); err != nil {
							return err
						}
					}
				}
			}
		}
	}

	if !techID.IsNull() {
		for _, tvid := range db.TechVias(techID) {
			for _, id := range db.TechViaBoxes(tvid) {
				if err := emit(boxOwnerTechVia, tvid.Oid(), id); err != nil {
					return err
				}
			}
		}
	}

	return writeSection(w, oid.TagBox.Ordinal(), bw)
}

// ReadBoxes reads the section WriteBoxes produced. Every owner entity
// across all nine kinds must already exist (Blocks/Insts/Vias/Regions/
// BPins/SWires via ReadBlockTree+ReadInstsAndNets+ReadWires, Masters/
// MPins via ReadLib, TechVias via ReadTech).
func ReadBoxes(db *schema.Database, r io.Reader, ids *idMaps) error {
	c := &cursor{r: r}
	sec, err := readSection(c)
	if err != nil {
		return err
	}
	pc := payloadCursor(sec)
	for i := uint32(0); i < sec.count; i++ {
		oldID, _ := pc.u32()
		kind, _ := pc.u8()
		oldOwner, _ := pc.u32()
		oldLayer, _ := pc.u32()
		rect, err := readRect(pc)
		if err != nil {
			return err
		}
		layer := oid.Make[schema.Layer](ids.resolve(oid.TagLayer, oid.Oid(oldLayer)))
		db.ForceNextID(oid.TagBox, oid.Oid(oldID))
		switch boxOwnerKind(kind) {
		case boxOwnerBlock:
			owner := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldOwner)))
			db.CreateBlockBox(owner, layer, rect)
		case boxOwnerInst:
			owner := oid.Make[schema.Inst](ids.resolve(oid.TagInst, oid.Oid(oldOwner)))
			db.CreateInstBox(owner, layer, rect)
		case boxOwnerBPin:
			owner := oid.Make[schema.BPin](ids.resolve(oid.TagBPin, oid.Oid(oldOwner)))
			db.CreateBPinBox(owner, layer, rect)
		case boxOwnerMaster:
			owner := oid.Make[schema.Master](ids.resolve(oid.TagMaster, oid.Oid(oldOwner)))
			db.CreateMasterBox(owner, layer, rect)
		case boxOwnerMPin:
			owner := oid.Make[schema.MPin](ids.resolve(oid.TagMPin, oid.Oid(oldOwner)))
			db.CreateMPinBox(owner, layer, rect)
		case boxOwnerTechVia:
			owner := oid.Make[schema.TechVia](ids.resolve(oid.TagTechVia, oid.Oid(oldOwner)))
			db.CreateTechViaBox(owner, layer, rect)
		case boxOwnerVia:
			owner := oid.Make[schema.Via](ids.resolve(oid.TagVia, oid.Oid(oldOwner)))
			db.CreateViaBox(owner, layer, rect)
		case boxOwnerRegion:
			owner := oid.Make[schema.Region](ids.resolve(oid.TagRegion, oid.Oid(oldOwner)))
			db.CreateRegionBox(owner, layer, rect)
		case boxOwnerSWire:
			owner := oid.Make[schema.SWire](ids.resolve(oid.TagSWire, oid.Oid(oldOwner)))
			db.CreateSWireBox(owner, layer, rect)
		default:
			return &odberr.FormatError{Offset: pc.off, Reason: "unknown box owner kind"}
		}
	}
	return nil
}
