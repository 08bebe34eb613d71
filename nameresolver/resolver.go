// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package nameresolver

import (
	"golang.org/x/text/cases"

	"github.com/opendb-core/odb/internal/odberr"
	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/registry"
	"github.com/opendb-core/odb/schema"
)

// Resolved is the (type, id) pair a path segment names. A plain Oid
// cannot be returned on its own since the resolver doesn't know its
// caller's expected generic parameter; callers type-switch on Tag and
// wrap with oid.Make[T] for the concrete entity kind they expect.
type Resolved struct {
	Tag oid.TypeTag
	Oid oid.Oid
}

// cacheKey scopes a cached lookup to the exact *schema.Database instance
// it was resolved against, not just the path string. A registry name can
// be unregistered and reused by a brand new Database (registry.Register's
// overwrite behavior), and that new Database is always a distinct
// pointer, so keying on db as well as path prevents a stale Resolved from
// one Database leaking into a lookup against another that merely shares
// its old name.
type cacheKey struct {
	db   *schema.Database
	path string
}

// A Resolver caches path->Resolved lookups per Database instance (§4.8:
// resolveDbName is called once per path segment by external path
// walkers, so repeat prefixes are common).
type Resolver struct {
	cache pathCache[cacheKey, Resolved]
}

// Global is the package-level Resolver external collaborators normally
// use; a Resolver carries no per-database state, so sharing one instance
// is safe.
var Global = &Resolver{}

// ResolveDBName looks up the *schema.Database named by path's leading
// "/D<dbname>" segment (§4.10 resolveDB(name)), returning it along with
// the path's remaining segments.
func ResolveDBName(path string) (*schema.Database, []Segment, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, nil, err
	}
	if len(segs) == 0 || segs[0].Code != oid.TagDatabase.Code() {
		return nil, nil, &odberr.NotFoundError{Path: path}
	}
	h, ok := registry.Global().Resolve(segs[0].Name)
	if !ok {
		return nil, nil, &odberr.NotFoundError{Path: path}
	}
	db, ok := h.(*schema.Database)
	if !ok {
		return nil, nil, &odberr.NotFoundError{Path: path}
	}
	return db, segs[1:], nil
}

func foldIfInsensitive(tech *schema.TechRecord, s string) string {
	if tech != nil && tech.CaseSensitive {
		return s
	}
	return cases.Fold(cases.Compact).String(s)
}

func namesEqual(tech *schema.TechRecord, a, b string) bool {
	return foldIfInsensitive(tech, a) == foldIfInsensitive(tech, b)
}

// Resolve walks path (including its leading "/D<dbname>" segment) one
// segment at a time through db's live graph (§4.8 resolveDbName(db,
// path)) and returns what the final segment names.
func (r *Resolver) Resolve(db *schema.Database, path string) (Resolved, error) {
	key := cacheKey{db: db, path: path}
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}
	res, err := resolveUncached(db, path)
	if err != nil {
		return Resolved{}, err
	}
	r.cache.Add(key, res)
	return res, nil
}

func resolveUncached(db *schema.Database, path string) (Resolved, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return Resolved{}, err
	}
	if len(segs) == 0 {
		return Resolved{}, &odberr.NotFoundError{Path: path}
	}
	if segs[0].Code == oid.TagDatabase.Code() {
		segs = segs[1:]
	}
	if len(segs) == 0 {
		return Resolved{Tag: oid.TagDatabase, Oid: db.Self().Oid()}, nil
	}

	var tech *schema.TechRecord
	if t := db.Tech(); !t.IsNull() {
		tech, _ = db.TechRecord(t)
	}

	switch segs[0].Code {
	case oid.TagLib.Code():
		return resolveUnderLib(db, tech, segs, path)
	case oid.TagBlock.Code():
		chip := db.Chip()
		if chip.IsNull() {
			return Resolved{}, &odberr.NotFoundError{Path: path}
		}
		top := db.TopBlock(chip)
		return resolveUnderBlock(db, tech, top, segs, path)
	default:
		return Resolved{}, &odberr.NotFoundError{Path: path}
	}
}

func resolveUnderLib(db *schema.Database, tech *schema.TechRecord, segs []Segment, path string) (Resolved, error) {
	var found oid.Id[schema.Lib]
	for _, id := range db.Libs() {
		r, err := db.Lib(id)
		if err == nil && namesEqual(tech, r.Name, segs[0].Name) {
			found = id
			break
		}
	}
	if found.IsNull() {
		return Resolved{}, &odberr.NotFoundError{Path: path}
	}
	if len(segs) == 1 {
		return Resolved{Tag: oid.TagLib, Oid: found.Oid()}, nil
	}
	if segs[1].Code != oid.TagMaster.Code() {
		return Resolved{}, &odberr.NotFoundError{Path: path}
	}
	var master oid.Id[schema.Master]
	for _, id := range db.Masters(found) {
		r, err := db.Master(id)
		if err == nil && namesEqual(tech, r.Name, segs[1].Name) {
			master = id
			break
		}
	}
	if master.IsNull() {
		return Resolved{}, &odberr.NotFoundError{Path: path}
	}
	if len(segs) == 2 {
		return Resolved{Tag: oid.TagMaster, Oid: master.Oid()}, nil
	}
	if segs[2].Code != oid.TagMTerm.Code() {
		return Resolved{}, &odberr.NotFoundError{Path: path}
	}
	for _, id := range db.MTerms(master) {
		r, err := db.MTerm(id)
		if err == nil && namesEqual(tech, r.Name, segs[2].Name) {
			if len(segs) == 3 {
				return Resolved{Tag: oid.TagMTerm, Oid: id.Oid()}, nil
			}
			return Resolved{}, &odberr.NotFoundError{Path: path}
		}
	}
	return Resolved{}, &odberr.NotFoundError{Path: path}
}

func resolveUnderBlock(db *schema.Database, tech *schema.TechRecord, block oid.Id[schema.Block], segs []Segment, path string) (Resolved, error) {
	br, err := db.Block(block)
	if err != nil || !namesEqual(tech, br.Name, segs[0].Name) {
		return Resolved{}, &odberr.NotFoundError{Path: path}
	}
	if len(segs) == 1 {
		return Resolved{Tag: oid.TagBlock, Oid: block.Oid()}, nil
	}

	rest := segs[1:]
	switch rest[0].Code {
	case oid.TagBlock.Code():
		for _, child := range db.ChildBlocks(block) {
			if res, err := resolveUnderBlock(db, tech, child, rest, path); err == nil {
				return res, nil
			}
		}
		return Resolved{}, &odberr.NotFoundError{Path: path}
	case oid.TagNet.Code():
		for _, id := range db.Nets(block) {
			r, err := db.Net(id)
			if err == nil && namesEqual(tech, r.Name, rest[0].Name) {
				if len(rest) == 1 {
					return Resolved{Tag: oid.TagNet, Oid: id.Oid()}, nil
				}
				return resolveUnderNet(db, tech, id, rest[1:], path)
			}
		}
	case oid.TagInst.Code():
		for _, id := range db.Insts(block) {
			r, err := db.Inst(id)
			if err == nil && namesEqual(tech, r.Name, rest[0].Name) && len(rest) == 1 {
				return Resolved{Tag: oid.TagInst, Oid: id.Oid()}, nil
			}
		}
	}
	return Resolved{}, &odberr.NotFoundError{Path: path}
}

func resolveUnderNet(db *schema.Database, tech *schema.TechRecord, net oid.Id[schema.Net], segs []Segment, path string) (Resolved, error) {
	if len(segs) != 1 || segs[0].Code != oid.TagBTerm.Code() {
		return Resolved{}, &odberr.NotFoundError{Path: path}
	}
	for _, id := range db.BTerms(net) {
		r, err := db.BTerm(id)
		if err == nil && namesEqual(tech, r.Name, segs[0].Name) {
			return Resolved{Tag: oid.TagBTerm, Oid: id.Oid()}, nil
		}
	}
	return Resolved{}, &odberr.NotFoundError{Path: path}
}
