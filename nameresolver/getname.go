// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package nameresolver

import (
	"fmt"

	"github.com/opendb-core/odb/internal/odberr"
	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/schema"
)

// GetDBName produces the canonical path of the entity (tag, raw) names in
// db (§4.8 getDbName(out)). It is the inverse of Resolve for the entity
// kinds external collaborators actually address by path: Block, Net,
// Inst, BTerm, Lib, Master, MTerm.
func GetDBName(db *schema.Database, tag oid.TypeTag, raw oid.Oid) (string, error) {
	segs, err := segmentsFor(db, tag, raw)
	if err != nil {
		return "", err
	}
	prefix := Segment{Code: oid.TagDatabase.Code(), Name: db.RegistryName()}
	return String(append([]Segment{prefix}, segs...)), nil
}

func segmentsFor(db *schema.Database, tag oid.TypeTag, raw oid.Oid) ([]Segment, error) {
	notFound := &odberr.NotFoundError{Path: fmt.Sprintf("%s:%s", tag, raw)}
	switch tag {
	case oid.TagBlock:
		return blockPath(db, oid.Make[schema.Block](raw))
	case oid.TagNet:
		id := oid.Make[schema.Net](raw)
		r, err := db.Net(id)
		if err != nil {
			return nil, notFound
		}
		block, err := blockPath(db, r.Block)
		if err != nil {
			return nil, err
		}
		return append(block, Segment{Code: oid.TagNet.Code(), Name: r.Name}), nil
	case oid.TagInst:
		id := oid.Make[schema.Inst](raw)
		r, err := db.Inst(id)
		if err != nil {
			return nil, notFound
		}
		block, err := blockPath(db, r.Block)
		if err != nil {
			return nil, err
		}
		return append(block, Segment{Code: oid.TagInst.Code(), Name: r.Name}), nil
	case oid.TagBTerm:
		id := oid.Make[schema.BTerm](raw)
		r, err := db.BTerm(id)
		if err != nil {
			return nil, notFound
		}
		netSegs, err := segmentsFor(db, oid.TagNet, r.Net.Oid())
		if err != nil {
			return nil, err
		}
		return append(netSegs, Segment{Code: oid.TagBTerm.Code(), Name: r.Name}), nil
	case oid.TagLib:
		id := oid.Make[schema.Lib](raw)
		r, err := db.Lib(id)
		if err != nil {
			return nil, notFound
		}
		return []Segment{{Code: oid.TagLib.Code(), Name: r.Name}}, nil
	case oid.TagMaster:
		id := oid.Make[schema.Master](raw)
		r, err := db.Master(id)
		if err != nil {
			return nil, notFound
		}
		lib, err := segmentsFor(db, oid.TagLib, r.Lib.Oid())
		if err != nil {
			return nil, err
		}
		return append(lib, Segment{Code: oid.TagMaster.Code(), Name: r.Name}), nil
	case oid.TagMTerm:
		id := oid.Make[schema.MTerm](raw)
		r, err := db.MTerm(id)
		if err != nil {
			return nil, notFound
		}
		master, err := segmentsFor(db, oid.TagMaster, r.Master.Oid())
		if err != nil {
			return nil, err
		}
		return append(master, Segment{Code: oid.TagMTerm.Code(), Name: r.Name}), nil
	default:
		return nil, notFound
	}
}

// blockPath returns the segment chain from the top block down to block,
// inclusive (a Block's path is rooted at the Chip's top block, §3 "the
// top Block has no parent").
func blockPath(db *schema.Database, block oid.Id[schema.Block]) ([]Segment, error) {
	r, err := db.Block(block)
	if err != nil {
		return nil, &odberr.NotFoundError{Path: fmt.Sprintf("block:%s", block)}
	}
	seg := Segment{Code: oid.TagBlock.Code(), Name: r.Name}
	if r.Parent.IsNull() {
		return []Segment{seg}, nil
	}
	parent, err := blockPath(db, r.Parent)
	if err != nil {
		return nil, err
	}
	return append(parent, seg), nil
}
