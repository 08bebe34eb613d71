// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package stream

import (
	"io"

	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/schema"
)

// WriteWires writes every Net's routed geometry: its opcode stream (one
// Wire at most, stored and restored as an opaque blob — package stream
// has no reason to decode it, only package wireenc's caller does) and
// its SWires with their owned SBox shapes.
func WriteWires(db *schema.Database, nets []oid.Id[schema.Net], w io.Writer) error {
	ww := &recWriter{}
	for _, nid := range nets {
		nr, err := db.Net(nid)
		if err != nil {
			return err
		}
		if nr.Wire.IsNull() {
			continue
		}
		ww.u32(uint32(nr.Wire.Oid()))
		ww.u32(uint32(nid.Oid()))
		ww.rawBytes(db.WireBytes(nr.Wire))
		ww.record()
	}
	if err := writeSection(w, oid.TagWire.Ordinal(), ww); err != nil {
		return err
	}

	var swires []oid.Id[schema.SWire]
	sw := &recWriter{}
	for _, nid := range nets {
		for _, id := range db.SWires(nid) {
			sr, err := db.SWire(id)
			if err != nil {
				return err
			}
			sw.u32(uint32(id.Oid()))
			sw.u32(uint32(nid.Oid()))
			sw.u8(uint8(sr.WireType))
			sw.record()
			swires = append(swires, id)
		}
	}
	if err := writeSection(w, oid.TagSWire.Ordinal(), sw); err != nil {
		return err
	}

	bw := &recWriter{}
	for _, swid := range swires {
		for _, id := range db.SBoxes(swid) {
			br, err := db.SBox(id)
			if err != nil {
				return err
			}
			bw.u32(uint32(id.Oid()))
			bw.u32(uint32(swid.Oid()))
			bw.u32(uint32(br.Layer.Oid()))
			writeRect(bw, br.Rect)
			bw.u8(uint8(br.ShapeType))
			bw.u8(uint8(br.Dir))
			bw.record()
		}
	}
	if err := writeSection(w, oid.TagSBox.Ordinal(), bw); err != nil {
		return err
	}
	return nil
}

// ReadWires reads the section sequence WriteWires produced. Every Net
// referenced must already have been created (via ReadInstsAndNets), and
// every Layer referenced must already exist (via ReadTech).
func ReadWires(db *schema.Database, r io.Reader, ids *idMaps) error {
	c := &cursor{r: r}

	wireSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc := payloadCursor(wireSec)
	for i := uint32(0); i < wireSec.count; i++ {
		oldID, _ := pc.u32()
		oldNet, _ := pc.u32()
		n, _ := pc.u32()
		blob, err := pc.bytes(n)
		if err != nil {
			return err
		}
		net := oid.Make[schema.Net](ids.resolve(oid.TagNet, oid.Oid(oldNet)))
		db.ForceNextID(oid.TagWire, oid.Oid(oldID))
		newID := db.CreateWire(net)
		db.SetWireBytes(newID, blob)
		ids.record(oid.TagWire, oid.Oid(oldID), newID.Oid())
	}

	swireSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(swireSec)
	for i := uint32(0); i < swireSec.count; i++ {
		oldID, _ := pc.u32()
		oldNet, _ := pc.u32()
		wt, _ := pc.u8()
		net := oid.Make[schema.Net](ids.resolve(oid.TagNet, oid.Oid(oldNet)))
		db.ForceNextID(oid.TagSWire, oid.Oid(oldID))
		newID := db.CreateSWire(net, schema.WireShapeType(wt))
		ids.record(oid.TagSWire, oid.Oid(oldID), newID.Oid())
	}

	sboxSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(sboxSec)
	for i := uint32(0); i < sboxSec.count; i++ {
		oldID, _ := pc.u32()
		oldSWire, _ := pc.u32()
		oldLayer, _ := pc.u32()
		rect, err := readRect(pc)
		if err != nil {
			return err
		}
		st, _ := pc.u8()
		dir, _ := pc.u8()
		swid := oid.Make[schema.SWire](ids.resolve(oid.TagSWire, oid.Oid(oldSWire)))
		layer := oid.Make[schema.Layer](ids.resolve(oid.TagLayer, oid.Oid(oldLayer)))
		db.ForceNextID(oid.TagSBox, oid.Oid(oldID))
		newID := db.CreateSBox(swid, layer, rect, schema.WireShapeType(st), schema.Direction(dir))
		ids.record(oid.TagSBox, oid.Oid(oldID), newID.Oid())
	}

	return nil
}
