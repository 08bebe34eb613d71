// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package stream

import (
	"io"

	"github.com/opendb-core/odb/internal/objtable"
	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/schema"
)

// writeCorners writes only the database's live corner count out of the
// MaxCorners-wide array (§4.3: "the corner count is per-block and is a
// constant for the block's lifetime"), instead of the full 256 slots,
// most of which are unused zero-fill on any real design.
func writeCorners(w *recWriter, n int, cap [schema.MaxCorners]float64) {
	for i := 0; i < n; i++ {
		w.f64(cap[i])
	}
}

func readCorners(c *cursor, n int) ([schema.MaxCorners]float64, error) {
	var out [schema.MaxCorners]float64
	for i := 0; i < n; i++ {
		v, err := c.f64()
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

// WriteParasitics writes every Net's RC sub-network: CapNodes, RSegs,
// and the coupling-capacitance CCSegs between them (§3 CapNode/RSeg/
// CCSeg). CCSegs are written once each even though they're threaded
// onto two nets' chains.
func WriteParasitics(db *schema.Database, nets []oid.Id[schema.Net], w io.Writer) error {
	corners := db.CornerCount()

	cw := &recWriter{}
	for _, nid := range nets {
		for _, id := range db.CapNodes(nid) {
			r, err := db.CapNode(id)
			if err != nil {
				return err
			}
			cw.u32(uint32(id.Oid()))
			cw.u32(uint32(nid.Oid()))
			cw.i64(int64(r.Num))
			cw.u8(uint8(r.Kind))
			cw.u32(uint32(r.ITerm.Oid()))
			cw.u32(uint32(r.BTerm.Oid()))
			writeCorners(cw, corners, r.Cap)
			cw.record()
		}
	}
	if err := writeSection(w, oid.TagCapNode.Ordinal(), cw); err != nil {
		return err
	}

	rw := &recWriter{}
	for _, nid := range nets {
		for _, id := range db.RSegs(nid) {
			r, err := db.RSeg(id)
			if err != nil {
				return err
			}
			rw.u32(uint32(id.Oid()))
			rw.u32(uint32(nid.Oid()))
			rw.u32(uint32(r.Source.Oid()))
			rw.u32(uint32(r.Target.Oid()))
			writeCorners(rw, corners, r.Res)
			rw.boolean(r.HasShape)
			rw.u32(uint32(r.ShapeLayer.Oid()))
			rw.i64(r.ShapePoint.X)
			rw.i64(r.ShapePoint.Y)
			rw.record()
		}
	}
	if err := writeSection(w, oid.TagRSeg.Ordinal(), rw); err != nil {
		return err
	}

	seen := objtable.NewMap[schema.CCSeg, bool]()
	ccw := &recWriter{}
	for _, nid := range nets {
		for _, id := range db.CCSegs(nid) {
			if _, ok := seen.Get(id); ok {
				continue
			}
			seen.Set(id, true)
			r, err := db.CCSeg(id)
			if err != nil {
				return err
			}
			ccw.u32(uint32(id.Oid()))
			ccw.u32(uint32(r.NodeA.Oid()))
			ccw.u32(uint32(r.NodeB.Oid()))
			writeCorners(ccw, corners, r.Cap)
			ccw.record()
		}
	}
	if err := writeSection(w, oid.TagCCSeg.Ordinal(), ccw); err != nil {
		return err
	}
	return nil
}

// ReadParasitics reads the section sequence WriteParasitics produced.
// Every Net and (for RSeg) Layer referenced must already exist.
func ReadParasitics(db *schema.Database, r io.Reader, ids *idMaps) error {
	corners := db.CornerCount()
	c := &cursor{r: r}

	capSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc := payloadCursor(capSec)
	for i := uint32(0); i < capSec.count; i++ {
		oldID, _ := pc.u32()
		oldNet, _ := pc.u32()
		num, _ := pc.i64()
		kind, _ := pc.u8()
		oldITerm, _ := pc.u32()
		oldBTerm, _ := pc.u32()
		cap, err := readCorners(pc, corners)
		if err != nil {
			return err
		}
		net := oid.Make[schema.Net](ids.resolve(oid.TagNet, oid.Oid(oldNet)))
		db.ForceNextID(oid.TagCapNode, oid.Oid(oldID))
		newID := db.CreateCapNode(net, schema.CapNodeKind(kind))
		ids.record(oid.TagCapNode, oid.Oid(oldID), newID.Oid())
		nr, _ := db.CapNode(newID)
		nr.Num = int(num)
		nr.Cap = cap
		if !oid.Oid(oldITerm).IsNull() {
			nr.ITerm = oid.Make[schema.ITerm](ids.resolve(oid.TagITerm, oid.Oid(oldITerm)))
		}
		if !oid.Oid(oldBTerm).IsNull() {
			nr.BTerm = oid.Make[schema.BTerm](ids.resolve(oid.TagBTerm, oid.Oid(oldBTerm)))
		}
	}

	rsegSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(rsegSec)
	for i := uint32(0); i < rsegSec.count; i++ {
		oldID, _ := pc.u32()
		oldNet, _ := pc.u32()
		oldSrc, _ := pc.u32()
		oldDst, _ := pc.u32()
		res, err := readCorners(pc, corners)
		if err != nil {
			return err
		}
		hasShape, _ := pc.boolean()
		oldLayer, _ := pc.u32()
		x, _ := pc.i64()
		y, _ := pc.i64()

		net := oid.Make[schema.Net](ids.resolve(oid.TagNet, oid.Oid(oldNet)))
		src := oid.Make[schema.CapNode](ids.resolve(oid.TagCapNode, oid.Oid(oldSrc)))
		dst := oid.Make[schema.CapNode](ids.resolve(oid.TagCapNode, oid.Oid(oldDst)))
		db.ForceNextID(oid.TagRSeg, oid.Oid(oldID))
		newID := db.CreateRSeg(net, src, dst)
		ids.record(oid.TagRSeg, oid.Oid(oldID), newID.Oid())
		rr, _ := db.RSeg(newID)
		rr.Res = res
		if hasShape {
			layer := oid.Make[schema.Layer](ids.resolve(oid.TagLayer, oid.Oid(oldLayer)))
			db.SetRSegShape(newID, layer, schema.Point{X: x, Y: y})
		}
	}

	ccSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(ccSec)
	for i := uint32(0); i < ccSec.count; i++ {
		oldID, _ := pc.u32()
		oldA, _ := pc.u32()
		oldB, _ := pc.u32()
		cap, err := readCorners(pc, corners)
		if err != nil {
			return err
		}
		a := oid.Make[schema.CapNode](ids.resolve(oid.TagCapNode, oid.Oid(oldA)))
		b := oid.Make[schema.CapNode](ids.resolve(oid.TagCapNode, oid.Oid(oldB)))
		db.ForceNextID(oid.TagCCSeg, oid.Oid(oldID))
		newID := db.CreateCCSeg(a, b)
		ids.record(oid.TagCCSeg, oid.Oid(oldID), newID.Oid())
		cr, _ := db.CCSeg(newID)
		cr.Cap = cap
	}

	return nil
}
