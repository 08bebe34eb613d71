// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package stream

import (
	"io"

	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/schema"
)

// WriteLib writes every Lib and its owned Masters/MTerms/MPins/Sites.
// MPin's owned Boxes are written later, by WriteBoxes, once every
// possible box owner kind exists.
func WriteLib(db *schema.Database, w io.Writer) error {
	libs := db.Libs()
	lw := &recWriter{}
	for _, lid := range libs {
		lr, err := db.Lib(lid)
		if err != nil {
			return err
		}
		lw.u32(uint32(lid.Oid()))
		lw.str(lr.Name)
		lw.record()
	}
	if err := writeSection(w, oid.TagLib.Ordinal(), lw); err != nil {
		return err
	}

	mw := &recWriter{}
	var masters []oid.Id[schema.Master]
	for _, lid := range libs {
		for _, mid := range db.Masters(lid) {
			mr, err := db.Master(mid)
			if err != nil {
				return err
			}
			mw.u32(uint32(mid.Oid()))
			mw.u32(uint32(lid.Oid()))
			mw.str(mr.Name)
			mw.i64(mr.Width)
			mw.i64(mr.Height)
			mw.boolean(mr.Frozen)
			mw.record()
			masters = append(masters, mid)
		}
	}
	if err := writeSection(w, oid.TagMaster.Ordinal(), mw); err != nil {
		return err
	}

	tw := &recWriter{}
	var mterms []oid.Id[schema.MTerm]
	for _, mid := range masters {
		for _, tid := range db.MTerms(mid) {
			tr, err := db.MTerm(tid)
			if err != nil {
				return err
			}
			tw.u32(uint32(tid.Oid()))
			tw.u32(uint32(mid.Oid()))
			tw.str(tr.Name)
			tw.u8(uint8(tr.SigType))
			tw.u8(uint8(tr.IOType))
			tw.record()
			mterms = append(mterms, tid)
		}
	}
	if err := writeSection(w, oid.TagMTerm.Ordinal(), tw); err != nil {
		return err
	}

	pw := &recWriter{}
	for _, tid := range mterms {
		for _, pid := range db.MPins(tid) {
			pw.u32(uint32(pid.Oid()))
			pw.u32(uint32(tid.Oid()))
			pw.record()
		}
	}
	if err := writeSection(w, oid.TagMPin.Ordinal(), pw); err != nil {
		return err
	}

	sw := &recWriter{}
	for _, lid := range libs {
		for _, sid := range db.Sites(lid) {
			sr, err := db.Site(sid)
			if err != nil {
				return err
			}
			sw.u32(uint32(sid.Oid()))
			sw.u32(uint32(lid.Oid()))
			sw.str(sr.Name)
			sw.i64(sr.Width)
			sw.i64(sr.Height)
			sw.record()
		}
	}
	return writeSection(w, oid.TagSite.Ordinal(), sw)
}

// ReadLib reads the section sequence WriteLib produced.
func ReadLib(db *schema.Database, r io.Reader, ids *idMaps) error {
	c := &cursor{r: r}

	libSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc := payloadCursor(libSec)
	for i := uint32(0); i < libSec.count; i++ {
		oldID, _ := pc.u32()
		name, _ := pc.str()
		db.ForceNextID(oid.TagLib, oid.Oid(oldID))
		newID, err := db.CreateLib(name)
		if err != nil {
			return err
		}
		ids.record(oid.TagLib, oid.Oid(oldID), newID.Oid())
	}

	masterSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(masterSec)
	var toFreeze []oid.Id[schema.Master]
	for i := uint32(0); i < masterSec.count; i++ {
		oldID, _ := pc.u32()
		oldLib, _ := pc.u32()
		name, _ := pc.str()
		width, _ := pc.i64()
		height, _ := pc.i64()
		frozen, _ := pc.boolean()
		lib := oid.Make[schema.Lib](ids.resolve(oid.TagLib, oid.Oid(oldLib)))
		db.ForceNextID(oid.TagMaster, oid.Oid(oldID))
		newID, err := db.CreateMaster(lib, name, width, height)
		if err != nil {
			return err
		}
		ids.record(oid.TagMaster, oid.Oid(oldID), newID.Oid())
		if frozen {
			toFreeze = append(toFreeze, newID)
		}
	}

	mtermSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(mtermSec)
	for i := uint32(0); i < mtermSec.count; i++ {
		oldID, _ := pc.u32()
		oldMaster, _ := pc.u32()
		name, _ := pc.str()
		sig, _ := pc.u8()
		io_, _ := pc.u8()
		master := oid.Make[schema.Master](ids.resolve(oid.TagMaster, oid.Oid(oldMaster)))
		db.ForceNextID(oid.TagMTerm, oid.Oid(oldID))
		newID, err := db.CreateMTerm(master, name, schema.SigType(sig), schema.IOType(io_))
		if err != nil {
			return err
		}
		ids.record(oid.TagMTerm, oid.Oid(oldID), newID.Oid())
	}

	mpinSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(mpinSec)
	for i := uint32(0); i < mpinSec.count; i++ {
		oldID, _ := pc.u32()
		oldMTerm, _ := pc.u32()
		mterm := oid.Make[schema.MTerm](ids.resolve(oid.TagMTerm, oid.Oid(oldMTerm)))
		db.ForceNextID(oid.TagMPin, oid.Oid(oldID))
		newID := db.CreateMPin(mterm)
		ids.record(oid.TagMPin, oid.Oid(oldID), newID.Oid())
	}

	for _, m := range toFreeze {
		db.FreezeMaster(m)
	}

	siteSec, err := readSection(c)
	if err != nil {
		return err
	}
	pc = payloadCursor(siteSec)
	for i := uint32(0); i < siteSec.count; i++ {
		oldID, _ := pc.u32()
		oldLib, _ := pc.u32()
		name, _ := pc.str()
		width, _ := pc.i64()
		height, _ := pc.i64()
		lib := oid.Make[schema.Lib](ids.resolve(oid.TagLib, oid.Oid(oldLib)))
		db.ForceNextID(oid.TagSite, oid.Oid(oldID))
		newID, err := db.CreateSite(lib, name, width, height)
		if err != nil {
			return err
		}
		ids.record(oid.TagSite, oid.Oid(oldID), newID.Oid())
	}

	return nil
}
