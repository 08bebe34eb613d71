// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package stream

import (
	"io"

	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/schema"
)

// WriteTech writes the Tech section and everything it transitively owns
// (Layers, LayerRules, TechVias, ViaRules, ViaGenRules, AntennaRules),
// in that order, each its own section, so every later reference (a Box
// naming a Layer, say) has already been read back by the time it's
// needed (§4.4 "referenced sections before referrers").
func WriteTech(db *schema.Database, w io.Writer) error {
	techID := db.Tech()
	if techID.IsNull() {
		return writeEmptySections(w, oid.TagTech, oid.TagLayer, oid.TagLayerRule, oid.TagTechVia, oid.TagViaRule, oid.TagViaGenRule, oid.TagAntennaRule)
	}
	tr, err := db.TechRecord(techID)
	if err != nil {
		return err
	}

	tw := &recWriter{}
	tw.u32(uint32(techID.Oid()))
	tw.u32(uint32(tr.DBUPerMicron))
	tw.str(tr.LefVersion)
	tw.u32(uint32(tr.ManufacturingGrid))
	tw.boolean(tr.CaseSensitive)
	tw.record()
	if err := writeSection(w, oid.TagTech.Ordinal(), tw); err != nil {
		return err
	}

	layers := db.Layers(techID)
	lw := &recWriter{}
	for _, lid := range layers {
		lr, err := db.Layer(lid)
		if err != nil {
			return err
		}
		lw.u32(uint32(lid.Oid()))
		lw.str(lr.Name)
		lw.u32(uint32(lr.MaskNumber))
		lw.u32(uint32(lr.RouteLevel))
		lw.record()
	}
	if err := writeSection(w, oid.TagLayer.Ordinal(), lw); err != nil {
		return err
	}

	rw := &recWriter{}
	for _, lid := range layers {
		for _, ruleID := range db.LayerRules(lid) {
			rec, err := db.LayerRule(ruleID)
			if err != nil {
				return err
			}
			rw.u32(uint32(ruleID.Oid()))
			rw.u32(uint32(lid.Oid()))
			rw.u8(uint8(rec.Kind))
			rw.i64(rec.A)
			rw.i64(rec.B)
			rw.i64(rec.C)
			rw.i64(rec.D)
			rw.record()
		}
	}
	if err := writeSection(w, oid.TagLayerRule.Ordinal(), rw); err != nil {
		return err
	}

	tvw := &recWriter{}
	for _, tvID := range db.TechVias(techID) {
		tv, err := db.TechVia(tvID)
		if err != nil {
			return err
		}
		tvw.u32(uint32(tvID.Oid()))
		tvw.str(tv.Name)
		tvw.u32(uint32(tv.TopLayer.Oid()))
		tvw.u32(uint32(tv.CutLayer.Oid()))
		tvw.u32(uint32(tv.BotLayer.Oid()))
		tvw.record()
	}
	if err := writeSection(w, oid.TagTechVia.Ordinal(), tvw); err != nil {
		return err
	}

	// ViaRule/ViaGenRule/AntennaRule are minimal named entities (see
	// schema/tech.go); one shared compact layout serves all three.
	vrw := &recWriter{}
	for _, id := range db.ViaRules(techID) {
		rec, err := db.ViaRule(id)
		if err != nil {
			return err
		}
		vrw.u32(uint32(id.Oid()))
		vrw.str(rec.Name)
		vrw.record()
	}
	if err := writeSection(w, oid.TagViaRule.Ordinal(), vrw); err != nil {
		return err
	}

	vgrw := &recWriter{}
	for _, id := range db.ViaGenRules(techID) {
		rec, err := db.ViaGenRule(id)
		if err != nil {
			return err
		}
		vgrw.u32(uint32(id.Oid()))
		vgrw.str(rec.Name)
		vgrw.record()
	}
	if err := writeSection(w, oid.TagViaGenRule.Ordinal(), vgrw); err != nil {
		return err
	}

	arw := &recWriter{}
	for _, id := range db.AntennaRules(techID) {
		rec, err := db.AntennaRule(id)
		if err != nil {
			return err
		}
		arw.u32(uint32(id.Oid()))
		arw.str(rec.Name)
		arw.record()
	}
	return writeSection(w, oid.TagAntennaRule.Ordinal(), arw)
}

func writeEmptySections(w io.Writer, tags ...oid.TypeTag) error {
	for _, t := range tags {
		if err := writeSection(w, t.Ordinal(), &recWriter{}); err != nil {
			return err
		}
	}
	return nil
}

// ReadTech reads the section sequence WriteTech produced and
// reconstructs Tech/Layer/LayerRule/TechVia/ViaRule/ViaGenRule/
// AntennaRule on db, recording every old->new oid mapping in ids.
func ReadTech(db *schema.Database, r io.Reader, ids *idMaps) error {
	c := &cursor{r: r}

	techSec, err := readSection(c)
	if err != nil {
		return err
	}
	if techSec.count == 1 {
		pc := payloadCursor(techSec)
		oldID, _ := pc.u32()
		dbu, _ := pc.u32()
		lef, _ := pc.str()
		grid, _ := pc.u32()
		caseSensitive, _ := pc.boolean()
		db.ForceNextID(oid.TagTech, oid.Oid(oldID))
		newID, err := db.CreateTech(int32(dbu), lef, int32(grid))
		if err != nil {
			return err
		}
		tr, _ := db.TechRecord(newID)
		tr.CaseSensitive = caseSensitive
		ids.record(oid.TagTech, oid.Oid(oldID), newID.Oid())
	}
	techID := db.Tech()

	layerSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc := payloadCursor(layerSec)
	for i := uint32(0); i < layerSec.count; i++ {
		oldID, _ := pc.u32()
		name, _ := pc.str()
		_, _ = pc.u32() // mask number is re-derived from append order
		routeLevel, _ := pc.u32()
		db.ForceNextID(oid.TagLayer, oid.Oid(oldID))
		newID, err := db.CreateLayer(techID, name, routeLevel > 0)
		if err != nil {
			return err
		}
		ids.record(oid.TagLayer, oid.Oid(oldID), newID.Oid())
	}

	ruleSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(ruleSec)
	for i := uint32(0); i < ruleSec.count; i++ {
		oldID, _ := pc.u32()
		oldLayerID, _ := pc.u32()
		kind, _ := pc.u8()
		a, _ := pc.i64()
		b, _ := pc.i64()
		cc, _ := pc.i64()
		dd, _ := pc.i64()
		layerID := oid.Make[schema.Layer](ids.resolve(oid.TagLayer, oid.Oid(oldLayerID)))
		db.ForceNextID(oid.TagLayerRule, oid.Oid(oldID))
		db.CreateLayerRule(layerID, schema.RuleKind(kind), a, b, cc, dd)
	}

	tvSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(tvSec)
	for i := uint32(0); i < tvSec.count; i++ {
		oldID, _ := pc.u32()
		name, _ := pc.str()
		oldTop, _ := pc.u32()
		oldCut, _ := pc.u32()
		oldBot, _ := pc.u32()
		top := oid.Make[schema.Layer](ids.resolve(oid.TagLayer, oid.Oid(oldTop)))
		cut := oid.Make[schema.Layer](ids.resolve(oid.TagLayer, oid.Oid(oldCut)))
		bot := oid.Make[schema.Layer](ids.resolve(oid.TagLayer, oid.Oid(oldBot)))
		db.ForceNextID(oid.TagTechVia, oid.Oid(oldID))
		newID, err := db.CreateTechVia(techID, name, top, cut, bot)
		if err != nil {
			return err
		}
		ids.record(oid.TagTechVia, oid.Oid(oldID), newID.Oid())
	}

	if err := readNamedTechEntities(db, c, oid.TagViaRule, func(name string) (oid.Oid, error) {
		id, err := db.CreateViaRule(techID, name)
		return id.Oid(), err
	}, ids); err != nil {
		return err
	}
	if err := readNamedTechEntities(db, c, oid.TagViaGenRule, func(name string) (oid.Oid, error) {
		id, err := db.CreateViaGenRule(techID, name)
		return id.Oid(), err
	}, ids); err != nil {
		return err
	}
	return readNamedTechEntities(db, c, oid.TagAntennaRule, func(name string) (oid.Oid, error) {
		id, err := db.CreateAntennaRule(techID, name)
		return id.Oid(), err
	}, ids)
}

func readNamedTechEntities(db *schema.Database, c *cursor, tag oid.TypeTag, create func(name string) (oid.Oid, error), ids *idMaps) error {
	sec, err := readSection(c)
	if err != nil {
		return err
	}
	pc := payloadCursor(sec)
	for i := uint32(0); i < sec.count; i++ {
		oldID, _ := pc.u32()
		name, _ := pc.str()
		db.ForceNextID(tag, oid.Oid(oldID))
		newID, err := create(name)
		if err != nil {
			return err
		}
		ids.record(tag, oid.Oid(oldID), newID)
	}
	return nil
}
