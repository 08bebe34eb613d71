// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package stream

import (
	"io"

	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/schema"
)

func writeFlags(w *recWriter, f schema.Flags) {
	w.u32(uint32(f.UserFlags))
	var bits uint8
	if f.Marked {
		bits |= 1 << 0
	}
	if f.Visited {
		bits |= 1 << 1
	}
	if f.Special {
		bits |= 1 << 2
	}
	if f.DontTouch {
		bits |= 1 << 3
	}
	if f.EcoCreate {
		bits |= 1 << 4
	}
	if f.EcoDestroy {
		bits |= 1 << 5
	}
	if f.EcoModify {
		bits |= 1 << 6
	}
	w.u8(bits)
}

func readFlags(c *cursor) (schema.Flags, error) {
	uf, err := c.u32()
	if err != nil {
		return schema.Flags{}, err
	}
	bits, err := c.u8()
	if err != nil {
		return schema.Flags{}, err
	}
	return schema.Flags{
		UserFlags:  uint16(uf),
		Marked:     bits&(1<<0) != 0,
		Visited:    bits&(1<<1) != 0,
		Special:    bits&(1<<2) != 0,
		DontTouch:  bits&(1<<3) != 0,
		EcoCreate:  bits&(1<<4) != 0,
		EcoDestroy: bits&(1<<5) != 0,
		EcoModify:  bits&(1<<6) != 0,
	}, nil
}

// WriteInstsAndNets writes every Inst (with its implicit, index-ordered
// ITerms named by old oid so the reader can recover the id mapping
// without a separate ITerm section) and every Net, BTerm, BPin and
// ITerm-Net connection across the whole Block tree.
func WriteInstsAndNets(db *schema.Database, blocks []oid.Id[schema.Block], w io.Writer) error {
	iw := &recWriter{}
	for _, bid := range blocks {
		for _, id := range db.Insts(bid) {
			ir, err := db.Inst(id)
			if err != nil {
				return err
			}
			iw.u32(uint32(id.Oid()))
			iw.u32(uint32(bid.Oid()))
			iw.str(ir.Name)
			iw.u32(uint32(ir.Master.Oid()))
			iw.i64(ir.Origin.X)
			iw.i64(ir.Origin.Y)
			iw.u8(uint8(ir.Orient))
			iw.u8(uint8(ir.Status))
			writeFlags(iw, ir.Flags)
			iw.u32(uint32(ir.Bound.Oid()))
			iw.u32(uint32(ir.Group.Oid()))
			iterms := db.ITerms(id)
			iw.u32(uint32(len(iterms)))
			for _, it := range iterms {
				iw.u32(uint32(it.Oid()))
			}
			iw.record()
		}
	}
	if err := writeSection(w, oid.TagInst.Ordinal(), iw); err != nil {
		return err
	}

	var nets []oid.Id[schema.Net]
	nw := &recWriter{}
	for _, bid := range blocks {
		for _, id := range db.Nets(bid) {
			nr, err := db.Net(id)
			if err != nil {
				return err
			}
			nw.u32(uint32(id.Oid()))
			nw.u32(uint32(bid.Oid()))
			nw.str(nr.Name)
			nw.u8(uint8(nr.SigType))
			writeFlags(nw, nr.Flags)
			nw.u32(uint32(nr.NonDefaultRule.Oid()))
			nw.record()
			nets = append(nets, id)
		}
	}
	if err := writeSection(w, oid.TagNet.Ordinal(), nw); err != nil {
		return err
	}

	cw := &recWriter{}
	for _, nid := range nets {
		for _, it := range db.NetITerms(nid) {
			cw.u32(uint32(it.Oid()))
			cw.u32(uint32(nid.Oid()))
			cw.record()
		}
	}
	if err := writeSection(w, oid.TagITerm.Ordinal(), cw); err != nil {
		return err
	}

	var bterms []oid.Id[schema.BTerm]
	bw := &recWriter{}
	for _, nid := range nets {
		for _, id := range db.BTerms(nid) {
			br, err := db.BTerm(id)
			if err != nil {
				return err
			}
			bw.u32(uint32(id.Oid()))
			bw.u32(uint32(nid.Oid()))
			bw.str(br.Name)
			bw.u8(uint8(br.IOType))
			bw.record()
			bterms = append(bterms, id)
		}
	}
	if err := writeSection(w, oid.TagBTerm.Ordinal(), bw); err != nil {
		return err
	}

	pw := &recWriter{}
	for _, btid := range bterms {
		for _, id := range db.BPins(btid) {
			br, err := db.BPin(id)
			if err != nil {
				return err
			}
			pw.u32(uint32(id.Oid()))
			pw.u32(uint32(btid.Oid()))
			pw.u8(uint8(br.Status))
			pw.record()
		}
	}
	if err := writeSection(w, oid.TagBPin.Ordinal(), pw); err != nil {
		return err
	}
	return nil
}

// ReadInstsAndNets reads the section sequence WriteInstsAndNets produced.
func ReadInstsAndNets(db *schema.Database, r io.Reader, ids *idMaps) error {
	c := &cursor{r: r}

	instSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc := payloadCursor(instSec)
	for i := uint32(0); i < instSec.count; i++ {
		oldID, _ := pc.u32()
		oldBlock, _ := pc.u32()
		name, _ := pc.str()
		oldMaster, _ := pc.u32()
		x, _ := pc.i64()
		y, _ := pc.i64()
		orient, _ := pc.u8()
		status, _ := pc.u8()
		flags, _ := readFlags(pc)
		oldBound, _ := pc.u32()
		oldGroup, _ := pc.u32()
		itermCount, _ := pc.u32()
		oldITerms := make([]oid.Oid, itermCount)
		for j := range oldITerms {
			v, _ := pc.u32()
			oldITerms[j] = oid.Oid(v)
		}

		block := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldBlock)))
		master := oid.Make[schema.Master](ids.resolve(oid.TagMaster, oid.Oid(oldMaster)))
		db.ForceNextID(oid.TagInst, oid.Oid(oldID))
		newID, err := db.CreateInst(block, name, master, oldITerms...)
		if err != nil {
			return err
		}
		ids.record(oid.TagInst, oid.Oid(oldID), newID.Oid())
		db.SetLocation(newID, schema.Point{X: x, Y: y}, schema.Orient(orient))
		db.SetPlacementStatus(newID, schema.PlacementStatus(status))
		ir, _ := db.Inst(newID)
		ir.Flags = flags

		newITerms := db.ITerms(newID)
		for j, oldIt := range oldITerms {
			if j < len(newITerms) {
				ids.record(oid.TagITerm, oldIt, newITerms[j].Oid())
			}
		}

		if !oid.Oid(oldBound).IsNull() {
			db.Bind(newID, oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldBound))))
		}
		if !oid.Oid(oldGroup).IsNull() {
			db.AddGroupMember(oid.Make[schema.Group](ids.resolve(oid.TagGroup, oid.Oid(oldGroup))), newID)
		}
	}

	netSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(netSec)
	for i := uint32(0); i < netSec.count; i++ {
		oldID, _ := pc.u32()
		oldBlock, _ := pc.u32()
		name, _ := pc.str()
		sig, _ := pc.u8()
		flags, _ := readFlags(pc)
		oldNDR, _ := pc.u32()
		block := oid.Make[schema.Block](ids.resolve(oid.TagBlock, oid.Oid(oldBlock)))
		db.ForceNextID(oid.TagNet, oid.Oid(oldID))
		newID, err := db.CreateNet(block, name, schema.SigType(sig))
		if err != nil {
			return err
		}
		ids.record(oid.TagNet, oid.Oid(oldID), newID.Oid())
		nr, _ := db.Net(newID)
		nr.Flags = flags
		if !oid.Oid(oldNDR).IsNull() {
			nr.NonDefaultRule = oid.Make[schema.NonDefaultRule](ids.resolve(oid.TagNonDefaultRule, oid.Oid(oldNDR)))
		}
	}

	connSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(connSec)
	for i := uint32(0); i < connSec.count; i++ {
		oldITerm, _ := pc.u32()
		oldNet, _ := pc.u32()
		iterm := oid.Make[schema.ITerm](ids.resolve(oid.TagITerm, oid.Oid(oldITerm)))
		net := oid.Make[schema.Net](ids.resolve(oid.TagNet, oid.Oid(oldNet)))
		db.ConnectITerm(iterm, net)
	}

	btermSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(btermSec)
	var bterms []oid.Id[schema.BTerm]
	for i := uint32(0); i < btermSec.count; i++ {
		oldID, _ := pc.u32()
		oldNet, _ := pc.u32()
		name, _ := pc.str()
		io_, _ := pc.u8()
		net := oid.Make[schema.Net](ids.resolve(oid.TagNet, oid.Oid(oldNet)))
		db.ForceNextID(oid.TagBTerm, oid.Oid(oldID))
		newID, err := db.CreateBTerm(net, name, schema.IOType(io_))
		if err != nil {
			return err
		}
		ids.record(oid.TagBTerm, oid.Oid(oldID), newID.Oid())
		bterms = append(bterms, newID)
	}
	_ = bterms

	bpinSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(bpinSec)
	for i := uint32(0); i < bpinSec.count; i++ {
		oldID, _ := pc.u32()
		oldBTerm, _ := pc.u32()
		status, _ := pc.u8()
		bterm := oid.Make[schema.BTerm](ids.resolve(oid.TagBTerm, oid.Oid(oldBTerm)))
		db.ForceNextID(oid.TagBPin, oid.Oid(oldID))
		newID := db.CreateBPin(bterm, schema.PlacementStatus(status))
		ids.record(oid.TagBPin, oid.Oid(oldID), newID.Oid())
	}

	return nil
}
