// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package stream

import (
	"io"

	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/schema"
)

// WriteBlockTree writes the Chip and the full Block hierarchy, plus every
// peripheral entity a Block owns directly (Rows, Fills, TrackGrids,
// GCellGrids, Regions, Modules, ModInsts, Groups, Obstructions,
// Blockages, NonDefaultRules, block-local Vias). Insts, Nets and their
// dependents are written separately by WriteInstsAndNets once every
// Block exists, since ITerm/Net cross-reference Blocks freely.
//
// Blocks section order is pre-order (parent before every descendant),
// satisfying the "referenced before referrer" rule for BlockRecord.Parent
// without a second pass.
func WriteBlockTree(db *schema.Database, w io.Writer) error {
	chipID := db.Chip()
	if chipID.IsNull() {
		return writeEmptySections(w, oid.TagBlock, oid.TagRow, oid.TagFill, oid.TagTrackGrid,
			oid.TagGCellGrid, oid.TagRegion, oid.TagModule, oid.TagModInst, oid.TagGroup,
			oid.TagObstruction, oid.TagBlockage, oid.TagNonDefaultRule, oid.TagVia)
	}

	blocks := BlocksOf(db, chipID)

	bw := &recWriter{}
	for _, bid := range blocks {
		br, err := db.Block(bid)
		if err != nil {
			return err
		}
		bw.u32(uint32(bid.Oid()))
		bw.u32(uint32(br.Parent.Oid()))
		bw.str(br.Name)
		bw.u8(br.HierarchyDelimiter)
		bw.record()
	}
	if err := writeSection(w, oid.TagBlock.Ordinal(), bw); err != nil {
		return err
	}

	rw := &recWriter{}
	for _, bid := range blocks {
		for _, id := range db.Rows(bid) {
			rec, err := db.Row(id)
			if err != nil {
				return err
			}
			rw.u32(uint32(id.Oid()))
			rw.u32(uint32(bid.Oid()))
			rw.str(rec.Name)
			rw.u32(uint32(rec.Site.Oid()))
			rw.i64(rec.OrigX)
			rw.i64(rec.OrigY)
			rw.u8(uint8(rec.Orient))
			rw.u32(uint32(rec.NumSites))
			rw.i64(rec.SpacingX)
			rw.record()
		}
	}
	if err := writeSection(w, oid.TagRow.Ordinal(), rw); err != nil {
		return err
	}

	flw := &recWriter{}
	for _, bid := range blocks {
		for _, id := range db.Fills(bid) {
			rec, err := db.Fill(id)
			if err != nil {
				return err
			}
			flw.u32(uint32(id.Oid()))
			flw.u32(uint32(bid.Oid()))
			flw.u32(uint32(rec.Layer.Oid()))
			writeRect(flw, rec.Rect)
			flw.record()
		}
	}
	if err := writeSection(w, oid.TagFill.Ordinal(), flw); err != nil {
		return err
	}

	tgw := &recWriter{}
	for _, bid := range blocks {
		for _, id := range db.TrackGrids(bid) {
			rec, err := db.TrackGrid(id)
			if err != nil {
				return err
			}
			tgw.u32(uint32(id.Oid()))
			tgw.u32(uint32(bid.Oid()))
			tgw.u32(uint32(rec.Layer.Oid()))
			tgw.u8(uint8(rec.Dir))
			tgw.i64(rec.Origin)
			tgw.u32(uint32(rec.Count))
			tgw.i64(rec.Step)
			tgw.record()
		}
	}
	if err := writeSection(w, oid.TagTrackGrid.Ordinal(), tgw); err != nil {
		return err
	}

	gcw := &recWriter{}
	for _, bid := range blocks {
		br, err := db.Block(bid)
		if err != nil {
			return err
		}
		if br.GCellGrid.IsNull() {
			continue
		}
		rec, err := db.GCellGrid(br.GCellGrid)
		if err != nil {
			return err
		}
		gcw.u32(uint32(br.GCellGrid.Oid()))
		gcw.u32(uint32(bid.Oid()))
		gcw.i64(rec.OriginX)
		gcw.i64(rec.OriginY)
		gcw.u32(uint32(rec.CountX))
		gcw.u32(uint32(rec.CountY))
		gcw.i64(rec.StepX)
		gcw.i64(rec.StepY)
		gcw.record()
	}
	if err := writeSection(w, oid.TagGCellGrid.Ordinal(), gcw); err != nil {
		return err
	}

	regw := &recWriter{}
	for _, bid := range blocks {
		for _, id := range db.Regions(bid) {
			rec, err := db.Region(id)
			if err != nil {
				return err
			}
			regw.u32(uint32(id.Oid()))
			regw.u32(uint32(bid.Oid()))
			regw.str(rec.Name)
			regw.u8(uint8(rec.Type))
			regw.record()
		}
	}
	if err := writeSection(w, oid.TagRegion.Ordinal(), regw); err != nil {
		return err
	}

	modw := &recWriter{}
	for _, bid := range blocks {
		for _, id := range db.Modules(bid) {
			rec, err := db.Module(id)
			if err != nil {
				return err
			}
			modw.u32(uint32(id.Oid()))
			modw.u32(uint32(bid.Oid()))
			modw.str(rec.Name)
			modw.record()
		}
	}
	if err := writeSection(w, oid.TagModule.Ordinal(), modw); err != nil {
		return err
	}

	miw := &recWriter{}
	for _, bid := range blocks {
		for _, id := range db.ModInsts(bid) {
			rec, err := db.ModInst(id)
			if err != nil {
				return err
			}
			miw.u32(uint32(id.Oid()))
			miw.u32(uint32(bid.Oid()))
			miw.str(rec.Name)
			miw.u32(uint32(rec.Module.Oid()))
			miw.record()
		}
	}
	if err := writeSection(w, oid.TagModInst.Ordinal(), miw); err != nil {
		return err
	}

	grw := &recWriter{}
	for _, bid := range blocks {
		for _, id := range db.Groups(bid) {
			rec, err := db.Group(id)
			if err != nil {
				return err
			}
			grw.u32(uint32(id.Oid()))
			grw.u32(uint32(bid.Oid()))
			grw.str(rec.Name)
			grw.u8(uint8(rec.Type))
			grw.record()
		}
	}
	if err := writeSection(w, oid.TagGroup.Ordinal(), grw); err != nil {
		return err
	}

	obw := &recWriter{}
	for _, bid := range blocks {
		for _, id := range db.Obstructions(bid) {
			rec, err := db.Obstruction(id)
			if err != nil {
				return err
			}
			obw.u32(uint32(id.Oid()))
			obw.u32(uint32(bid.Oid()))
			obw.u32(uint32(rec.Layer.Oid()))
			writeRect(obw, rec.Rect)
			obw.record()
		}
	}
	if err := writeSection(w, oid.TagObstruction.Ordinal(), obw); err != nil {
		return err
	}

	blkw := &recWriter{}
	for _, bid := range blocks {
		for _, id := range db.Blockages(bid) {
			rec, err := db.Blockage(id)
			if err != nil {
				return err
			}
			blkw.u32(uint32(id.Oid()))
			blkw.u32(uint32(bid.Oid()))
			writeRect(blkw, rec.Rect)
			blkw.boolean(rec.SoftBlockage)
			blkw.record()
		}
	}
	if err := writeSection(w, oid.TagBlockage.Ordinal(), blkw); err != nil {
		return err
	}

	ndrw := &recWriter{}
	for _, bid := range blocks {
		for _, id := range db.NonDefaultRules(bid) {
			rec, err := db.NonDefaultRule(id)
			if err != nil {
				return err
			}
			ndrw.u32(uint32(id.Oid()))
			ndrw.u32(uint32(bid.Oid()))
			ndrw.str(rec.Name)
			ndrw.record()
		}
	}
	if err := writeSection(w, oid.TagNonDefaultRule.Ordinal(), ndrw); err != nil {
		return err
	}

	vw := &recWriter{}
	for _, bid := range blocks {
		for _, id := range db.Vias(bid) {
			rec, err := db.Via(id)
			if err != nil {
				return err
			}
			vw.u32(uint32(id.Oid()))
			vw.u32(uint32(bid.Oid()))
			vw.str(rec.Name)
			vw.u32(uint32(rec.TechVia.Oid()))
			vw.record()
		}
	}
	return writeSection(w, oid.TagVia.Ordinal(), vw)
}

// BlocksOf returns every Block of chip in pre-order (parent before every
// descendant), the traversal WriteBlockTree needs to satisfy §4.4's
// "referenced before referrer" rule for BlockRecord.Parent, reused by
// the top-level orchestrator to scope the Inst/Net/Wire/Box/Parasitics
// sections to exactly the blocks just written.
func BlocksOf(db *schema.Database, chip oid.Id[schema.Chip]) []oid.Id[schema.Block] {
	var blocks []oid.Id[schema.Block]
	var walk func(oid.Id[schema.Block])
	walk = func(b oid.Id[schema.Block]) {
		blocks = append(blocks, b)
		for _, c := range db.ChildBlocks(b) {
			walk(c)
		}
	}
	walk(db.TopBlock(chip))
	return blocks
}

func writeRect(w *recWriter, r schema.Rect) {
	w.i64(r.LX)
	w.i64(r.LY)
	w.i64(r.HX)
	w.i64(r.HY)
}

func readRect(c *cursor) (schema.Rect, error) {
	lx, err := c.i64()
	if err != nil {
		return schema.Rect{}, err
	}
	ly, err := c.i64()
	if err != nil {
		return schema.Rect{}, err
	}
	hx, err := c.i64()
	if err != nil {
		return schema.Rect{}, err
	}
	hy, err := c.i64()
	if err != nil {
		return schema.Rect{}, err
	}
	return schema.Rect{LX: lx, LY: ly, HX: hx, HY: hy}, nil
}

// ReadBlockTree reads the section sequence WriteBlockTree produced.
func ReadBlockTree(db *schema.Database, r io.Reader, ids *idMaps) error {
	c := &cursor{r: r}

	blockSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc := payloadCursor(blockSec)
	chipID, err := db.CreateChip()
	if err != nil {
		return err
	}
	var firstOldID oid.Oid
	for i := uint32(0); i < blockSec.count; i++ {
		oldID, _ := pc.u32()
		oldParent, _ := pc.u32()
		name, _ := pc.str()
		delim, _ := pc.u8()
		var newID oid.Id[schema.Block]
		db.ForceNextID(oid.TagBlock, oid.Oid(oldID))
		if oid.Oid(oldParent).IsNull() {
			firstOldID = oid.Oid(oldID)
			newID, err = db.CreateTopBlock(chipID, name, delim)
		} else {
			parent := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldParent)))
			newID, err = db.CreateChildBlock(parent, name, delim)
		}
		if err != nil {
			return err
		}
		ids.record(oid.TagBlock, oid.Oid(oldID), newID.Oid())
	}
	_ = firstOldID

	rowSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(rowSec)
	for i := uint32(0); i < rowSec.count; i++ {
		oldID, _ := pc.u32()
		oldBlock, _ := pc.u32()
		name, _ := pc.str()
		oldSite, _ := pc.u32()
		x, _ := pc.i64()
		y, _ := pc.i64()
		orient, _ := pc.u8()
		numSites, _ := pc.u32()
		spacing, _ := pc.i64()
		block := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldBlock)))
		site := oid.Make[schema.Site](ids.resolve(oid.TagSite, oid.Oid(oldSite)))
		db.ForceNextID(oid.TagRow, oid.Oid(oldID))
		db.CreateRow(block, name, site, x, y, schema.Orient(orient), int32(numSites), spacing)
	}

	fillSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(fillSec)
	for i := uint32(0); i < fillSec.count; i++ {
		oldID, _ := pc.u32()
		oldBlock, _ := pc.u32()
		oldLayer, _ := pc.u32()
		rect, _ := readRect(pc)
		block := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldBlock)))
		layer := oid.Make[schema.Layer](ids.resolve(oid.TagLayer, oid.Oid(oldLayer)))
		db.ForceNextID(oid.TagFill, oid.Oid(oldID))
		db.CreateFill(block, layer, rect)
	}

	tgSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(tgSec)
	for i := uint32(0); i < tgSec.count; i++ {
		oldID, _ := pc.u32()
		oldBlock, _ := pc.u32()
		oldLayer, _ := pc.u32()
		dir, _ := pc.u8()
		origin, _ := pc.i64()
		count, _ := pc.u32()
		step, _ := pc.i64()
		block := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldBlock)))
		layer := oid.Make[schema.Layer](ids.resolve(oid.TagLayer, oid.Oid(oldLayer)))
		db.ForceNextID(oid.TagTrackGrid, oid.Oid(oldID))
		db.CreateTrackGrid(block, layer, schema.Direction(dir), origin, int32(count), step)
	}

	gcSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(gcSec)
	for i := uint32(0); i < gcSec.count; i++ {
		oldID, _ := pc.u32()
		oldBlock, _ := pc.u32()
		ox, _ := pc.i64()
		oy, _ := pc.i64()
		cx, _ := pc.u32()
		cy, _ := pc.u32()
		sx, _ := pc.i64()
		sy, _ := pc.i64()
		block := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldBlock)))
		db.ForceNextID(oid.TagGCellGrid, oid.Oid(oldID))
		id, err := db.CreateGCellGrid(block)
		if err != nil {
			return err
		}
		rec, _ := db.GCellGrid(id)
		rec.OriginX, rec.OriginY = ox, oy
		rec.CountX, rec.CountY = int32(cx), int32(cy)
		rec.StepX, rec.StepY = sx, sy
	}

	regSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(regSec)
	for i := uint32(0); i < regSec.count; i++ {
		oldID, _ := pc.u32()
		oldBlock, _ := pc.u32()
		name, _ := pc.str()
		typ, _ := pc.u8()
		block := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldBlock)))
		db.ForceNextID(oid.TagRegion, oid.Oid(oldID))
		db.CreateRegion(block, name, schema.RegionType(typ))
	}

	modSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(modSec)
	for i := uint32(0); i < modSec.count; i++ {
		oldID, _ := pc.u32()
		oldBlock, _ := pc.u32()
		name, _ := pc.str()
		block := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldBlock)))
		db.ForceNextID(oid.TagModule, oid.Oid(oldID))
		newID, err := db.CreateModule(block, name)
		if err != nil {
			return err
		}
		ids.record(oid.TagModule, oid.Oid(oldID), newID.Oid())
	}

	miSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(miSec)
	for i := uint32(0); i < miSec.count; i++ {
		oldID, _ := pc.u32()
		oldBlock, _ := pc.u32()
		name, _ := pc.str()
		oldModule, _ := pc.u32()
		block := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldBlock)))
		module := oid.Make[schema.Module](ids.resolve(oid.TagModule, oid.Oid(oldModule)))
		db.ForceNextID(oid.TagModInst, oid.Oid(oldID))
		db.CreateModInst(block, name, module)
	}

	grSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(grSec)
	for i := uint32(0); i < grSec.count; i++ {
		oldID, _ := pc.u32()
		oldBlock, _ := pc.u32()
		name, _ := pc.str()
		typ, _ := pc.u8()
		block := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldBlock)))
		db.ForceNextID(oid.TagGroup, oid.Oid(oldID))
		newID, err := db.CreateGroup(block, name, schema.GroupType(typ))
		if err != nil {
			return err
		}
		ids.record(oid.TagGroup, oid.Oid(oldID), newID.Oid())
	}

	obSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(obSec)
	for i := uint32(0); i < obSec.count; i++ {
		oldID, _ := pc.u32()
		oldBlock, _ := pc.u32()
		oldLayer, _ := pc.u32()
		rect, _ := readRect(pc)
		block := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldBlock)))
		layer := oid.Make[schema.Layer](ids.resolve(oid.TagLayer, oid.Oid(oldLayer)))
		db.ForceNextID(oid.TagObstruction, oid.Oid(oldID))
		db.CreateObstruction(block, layer, rect)
	}

	blkSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(blkSec)
	for i := uint32(0); i < blkSec.count; i++ {
		oldID, _ := pc.u32()
		oldBlock, _ := pc.u32()
		rect, _ := readRect(pc)
		soft, _ := pc.boolean()
		block := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldBlock)))
		db.ForceNextID(oid.TagBlockage, oid.Oid(oldID))
		db.CreateBlockage(block, rect, soft)
	}

	ndrSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(ndrSec)
	for i := uint32(0); i < ndrSec.count; i++ {
		oldID, _ := pc.u32()
		oldBlock, _ := pc.u32()
		name, _ := pc.str()
		block := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldBlock)))
		db.ForceNextID(oid.TagNonDefaultRule, oid.Oid(oldID))
		newID, err := db.CreateNonDefaultRule(block, name)
		if err != nil {
			return err
		}
		ids.record(oid.TagNonDefaultRule, oid.Oid(oldID), newID.Oid())
	}

	viaSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(viaSec)
	for i := uint32(0); i < viaSec.count; i++ {
		oldID, _ := pc.u32()
		oldBlock, _ := pc.u32()
		name, _ := pc.str()
		oldTechVia, _ := pc.u32()
		block := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldBlock)))
		techVia := oid.Make[schema.TechVia](ids.resolve(oid.TagTechVia, oid.Oid(oldTechVia)))
		db.ForceNextID(oid.TagVia, oid.Oid(oldID))
		newID := db.CreateVia(block, name, techVia)
		ids.record(oid.TagVia, oid.Oid(oldID), newID.Oid())
	}

	return nil
}
