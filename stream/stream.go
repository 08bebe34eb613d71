// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package stream

import (
	"bytes"
	"io"

	"github.com/opendb-core/odb/internal/odberr"
	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/schema"
)

// blocksOf returns every Block in the database in pre-order, or nil if
// no Chip has been created yet.
func blocksOf(db *schema.Database) []oid.Id[schema.Block] {
	chipID := db.Chip()
	if chipID.IsNull() {
		return nil
	}
	return BlocksOf(db, chipID)
}

// netsOf returns every Net owned by any of blocks, in block order.
func netsOf(db *schema.Database, blocks []oid.Id[schema.Block]) []oid.Id[schema.Net] {
	var nets []oid.Id[schema.Net]
	for _, bid := range blocks {
		nets = append(nets, db.Nets(bid)...)
	}
	return nets
}

// Write serializes db in full: magic, a database-level header section
// carrying the schema version and corner count, then every section in the fixed dependency
// order Tech -> Lib -> BlockTree -> InstsAndNets -> Wires -> Boxes ->
// Parasitics (§4.4 "a referenced record's section always precedes its
// referrer").
func Write(db *schema.Database, w io.Writer) error {
	if _, err := w.Write(schema.Magic[:]); err != nil {
		return &odberr.IOError{Err: err}
	}
	hdr := &recWriter{}
	hdr.u32(schema.SchemaVersion)
	hdr.u32(uint32(db.CornerCount()))
	hdr.record()
	if err := writeSection(w, 0, hdr); err != nil {
		return err
	}

	if err := WriteTech(db, w); err != nil {
		return err
	}
	if err := WriteLib(db, w); err != nil {
		return err
	}
	if err := WriteBlockTree(db, w); err != nil {
		return err
	}

	blocks := blocksOf(db)
	if err := WriteInstsAndNets(db, blocks, w); err != nil {
		return err
	}

	nets := netsOf(db, blocks)
	if err := WriteWires(db, nets, w); err != nil {
		return err
	}

	libs := db.Libs()
	techID := db.Tech()
	if err := WriteBoxes(db, techID, libs, blocks, w); err != nil {
		return err
	}

	return WriteParasitics(db, nets, w)
}

// Read restores a Database previously written by Write. It builds the
// new database in a private, not-yet-registered instance first and only
// returns it once every section has decoded cleanly (§4.4: "the
// in-memory database is left unchanged [on failure]; reads are staged
// to a shadow and swapped on success") — the caller never observes a
// partially-populated Database.
func Read(name string, r io.Reader) (*schema.Database, error) {
	c := &cursor{r: r}
	var magic [4]byte
	if err := c.read(magic[:]); err != nil {
		return nil, err
	}
	if magic != schema.Magic {
		return nil, &odberr.FormatError{Offset: c.off, Reason: "bad magic"}
	}

	hdrSec, err := readSection(c)
	if err != nil {
		return nil, err
	}
	pc := payloadCursor(hdrSec)
	version, _ := pc.u32()
	corners, _ := pc.u32()
	if version != schema.SchemaVersion {
		return nil, &odberr.FormatError{Offset: c.off, Reason: "unsupported schema version"}
	}

	shadow, err := schema.New(name, int(corners))
	if err != nil {
		return nil, err
	}
	ids := newIDMaps()

	if err := ReadTech(shadow, c.r, ids); err != nil {
		return nil, err
	}
	if err := ReadLib(shadow, c.r, ids); err != nil {
		return nil, err
	}
	if err := ReadBlockTree(shadow, c.r, ids); err != nil {
		return nil, err
	}
	if err := ReadInstsAndNets(shadow, c.r, ids); err != nil {
		return nil, err
	}
	if err := ReadWires(shadow, c.r, ids); err != nil {
		return nil, err
	}
	if err := ReadBoxes(shadow, c.r, ids); err != nil {
		return nil, err
	}
	if err := ReadParasitics(shadow, c.r, ids); err != nil {
		return nil, err
	}

	return shadow, nil
}

// WriteToBuffer is a convenience used by callers (and by the ECO
// journal, C9) that need the encoded form in memory before deciding
// whether to commit it to a file, matching the "stage then swap"
// discipline §4.4 requires of readers and extending it to writers: a
// write that fails partway never touches the destination at all.
func WriteToBuffer(db *schema.Database) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(db, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
