// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package property implements the property engine (§3 "Property", C3):
// named typed properties of kind {bool,int,double,string} attached to any
// object in the database, identified by (owner type tag, owner oid).
package property

import (
	"github.com/opendb-core/odb/internal/dbset"
	"github.com/opendb-core/odb/internal/objtable"
	"github.com/opendb-core/odb/internal/odberr"
	"github.com/opendb-core/odb/internal/oid"
)

type Kind uint8

const (
	KindBool Kind = iota
	KindInt
	KindDouble
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Property is the marker type used for Id[Property] — properties are
// themselves objects with stable ids, addressable like any other record.
type Property struct{}

// Record is the on-heap representation of one (name, kind, value) triple.
// OwnerTag+OwnerID identify the owning object without requiring a generic
// parameter on the whole package, since an owner can be any entity kind.
type Record struct {
	hdr objtable.RecordHeader

	OwnerTag oid.TypeTag
	OwnerID  oid.Oid
	Prev     oid.Id[Property]
	Next     oid.Id[Property]

	Name   string
	Kind   Kind
	Bool   bool
	Int    int64
	Double float64
	String string
}

func (r *Record) Hdr() *objtable.RecordHeader { return &r.hdr }

// owner is the key used to look up an owner's chain head; a plain
// (tag,id) pair rather than a generic type parameter so the same Table
// serves every entity kind.
type owner struct {
	tag oid.TypeTag
	id  oid.Oid
}

// Engine stores every Property in the database in one table and maintains
// a per-owner chain head map (heads aren't stored on arbitrary owner
// records, since any record kind can own properties).
type Engine struct {
	table *objtable.Table[Record, *Record]
	heads map[owner]oid.Id[Property]
}

func NewEngine() *Engine {
	return &Engine{
		table: objtable.New[Record, *Record](oid.TagProperty),
		heads: make(map[owner]oid.Id[Property]),
	}
}

func (e *Engine) chainSet() dbset.ChainSet[owner, Property] {
	return dbset.ChainSet[owner, Property]{
		Head: dbset.ChainHead[owner, Property]{
			Get: func(o owner) oid.Id[Property] { return e.heads[o] },
			Set: func(o owner, head oid.Id[Property]) {
				if head.IsNull() {
					delete(e.heads, o)
				} else {
					e.heads[o] = head
				}
			},
		},
		Links: dbset.ChainLinks[Property]{
			Get: func(id oid.Id[Property]) (prev, next oid.Id[Property]) {
				r := e.table.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Property], prev, next oid.Id[Property]) {
				r := e.table.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func findByName(e *Engine, tag oid.TypeTag, ownerID oid.Oid, name string) oid.Id[Property] {
	o := owner{tag, ownerID}
	cs := e.chainSet()
	for id := cs.Begin(o); !id.IsNull(); id = cs.Next(id) {
		if e.table.MustGet(id.Oid()).Name == name {
			return id
		}
	}
	return oid.NullId[Property]()
}

// create is shared by the four typed constructors; names are unique per
// owner (§3), so a collision returns a *odberr.NameCollisionError and a
// null id rather than creating a duplicate.
func (e *Engine) create(tag oid.TypeTag, ownerID oid.Oid, name string, kind Kind) (oid.Id[Property], error) {
	if !findByName(e, tag, ownerID, name).IsNull() {
		return oid.NullId[Property](), &odberr.NameCollisionError{Kind: "property", Name: name}
	}
	rawID, rec := e.table.Alloc()
	rec.OwnerTag = tag
	rec.OwnerID = ownerID
	rec.Name = name
	rec.Kind = kind
	id := oid.Make[Property](rawID)
	e.chainSet().PushFront(owner{tag, ownerID}, id)
	return id, nil
}

func (e *Engine) CreateBool(tag oid.TypeTag, ownerID oid.Oid, name string, v bool) (oid.Id[Property], error) {
	id, err := e.create(tag, ownerID, name, KindBool)
	if err == nil {
		e.table.MustGet(id.Oid()).Bool = v
	}
	return id, err
}

func (e *Engine) CreateInt(tag oid.TypeTag, ownerID oid.Oid, name string, v int64) (oid.Id[Property], error) {
	id, err := e.create(tag, ownerID, name, KindInt)
	if err == nil {
		e.table.MustGet(id.Oid()).Int = v
	}
	return id, err
}

func (e *Engine) CreateDouble(tag oid.TypeTag, ownerID oid.Oid, name string, v float64) (oid.Id[Property], error) {
	id, err := e.create(tag, ownerID, name, KindDouble)
	if err == nil {
		e.table.MustGet(id.Oid()).Double = v
	}
	return id, err
}

func (e *Engine) CreateString(tag oid.TypeTag, ownerID oid.Oid, name string, v string) (oid.Id[Property], error) {
	id, err := e.create(tag, ownerID, name, KindString)
	if err == nil {
		e.table.MustGet(id.Oid()).String = v
	}
	return id, err
}

// Find looks up a property by owner and name, returning a null id if
// there is none.
func (e *Engine) Find(tag oid.TypeTag, ownerID oid.Oid, name string) oid.Id[Property] {
	return findByName(e, tag, ownerID, name)
}

// Get returns the record for id. Callers destructure Kind to know which
// value field is meaningful.
func (e *Engine) Get(id oid.Id[Property]) (*Record, error) {
	return e.table.Get(id.Oid())
}

// All iterates every property of one owner, in most-recently-created-first
// order (head-insert chain).
func (e *Engine) All(tag oid.TypeTag, ownerID oid.Oid) []oid.Id[Property] {
	return dbset.Walk[owner, Property](e.chainSet(), owner{tag, ownerID})
}

// Destroy removes a single property.
func (e *Engine) Destroy(id oid.Id[Property]) error {
	rec, err := e.table.Get(id.Oid())
	if err != nil {
		return err
	}
	e.chainSet().Remove(owner{rec.OwnerTag, rec.OwnerID}, id)
	return e.table.Free(id.Oid())
}

// DestroyAll removes every property of one owner; called by an entity's
// destroy() per §3's Lifecycle section ("destroys dependents
// (properties, ...)").
func (e *Engine) DestroyAll(tag oid.TypeTag, ownerID oid.Oid) {
	o := owner{tag, ownerID}
	cs := e.chainSet()
	var ids []oid.Id[Property]
	for id := cs.Begin(o); !id.IsNull(); id = cs.Next(id) {
		ids = append(ids, id)
	}
	for _, id := range ids {
		_ = e.Destroy(id)
	}
}

// Table exposes the underlying objtable.Table for the stream codec (§4.4),
// which needs to walk every property in the database regardless of owner
// to write the "property payloads" side stream.
func (e *Engine) Table() *objtable.Table[Record, *Record] { return e.table }
