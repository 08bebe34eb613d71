// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package oid defines the stable object identifiers used to address every
// record in the database, and the closed enumeration of record kinds those
// identifiers are tagged with.
package oid

import "fmt"

// Oid is a stable, process-local 32-bit object identifier. The zero value is
// the null sentinel and never names a live object. Ids are only meaningful
// paired with the TypeTag of the table they were allocated from; an Oid from
// one table must never be looked up in another.
type Oid uint32

// Null is "no object". Every table reserves index 0 for it; no record is
// ever allocated there.
const Null Oid = 0

func (o Oid) IsNull() bool { return o == Null }

func (o Oid) String() string {
	if o == Null {
		return "<null>"
	}
	return fmt.Sprintf("0x%x", uint32(o))
}

// Id is a typed wrapper around an Oid: a phantom type parameter T pins the
// record kind at compile time so that, e.g., a Net's Id[Net] cannot be
// passed where an Id[Inst] is expected, even though both are Oid under the
// hood.
type Id[T any] struct {
	raw Oid
}

// Make wraps a raw Oid as an Id[T]. Callers normally get an Id[T] back from
// a table's Alloc/Begin/Next rather than constructing one directly; Make
// exists for deserialization, where the raw id is read off the wire.
func Make[T any](raw Oid) Id[T] { return Id[T]{raw: raw} }

// NullId is the typed equivalent of Null.
func NullId[T any]() Id[T] { return Id[T]{raw: Null} }

func (id Id[T]) Oid() Oid       { return id.raw }
func (id Id[T]) IsNull() bool   { return id.raw == Null }
func (id Id[T]) String() string { return id.raw.String() }

// Equal reports whether two typed ids name the same object.
func (id Id[T]) Equal(other Id[T]) bool { return id.raw == other.raw }

// TypeTag is the closed enumeration of every record kind the core knows how
// to store. Each tag carries a human-readable Name, a single-letter path
// Code used by the name resolver (§4.8), and its own zero value is not a
// valid tag (mirrors Oid's null-is-zero convention so a zeroed struct field
// reads as "untagged" rather than aliasing a real kind).
type TypeTag uint8

const (
	TagInvalid TypeTag = iota
	TagDatabase
	TagTech
	TagLib
	TagMaster
	TagMTerm
	TagMPin
	TagSite
	TagChip
	TagBlock
	TagInst
	TagITerm
	TagBTerm
	TagBPin
	TagNet
	TagBox
	TagSBox
	TagVia
	TagTechVia
	TagWire
	TagSWire
	TagLayer
	TagRow
	TagRegion
	TagModule
	TagModInst
	TagGroup
	TagFill
	TagTrackGrid
	TagGCellGrid
	TagObstruction
	TagBlockage
	TagNonDefaultRule
	TagProperty
	TagName
	TagRSeg
	TagCapNode
	TagCCSeg
	TagLayerRule
	TagViaRule
	TagViaGenRule
	TagAntennaRule
	tagCount // sentinel; not a real tag
)

type tagInfo struct {
	name string
	code byte
}

var tagTable = [tagCount]tagInfo{
	TagInvalid:        {"invalid", 0},
	TagDatabase:       {"database", 'D'},
	TagTech:           {"tech", 'T'},
	TagLib:            {"lib", 'L'},
	TagMaster:         {"master", 'M'},
	TagMTerm:          {"mterm", 'm'},
	TagMPin:           {"mpin", 'p'},
	TagSite:           {"site", 's'},
	TagChip:           {"chip", 'C'},
	TagBlock:          {"block", 'B'},
	TagInst:           {"inst", 'I'},
	TagITerm:          {"iterm", 'i'},
	TagBTerm:          {"bterm", 't'},
	TagBPin:           {"bpin", 'P'},
	TagNet:            {"net", 'N'},
	TagBox:            {"box", 'x'},
	TagSBox:           {"sbox", 'X'},
	TagVia:            {"via", 'V'},
	TagTechVia:        {"techvia", 'v'},
	TagWire:           {"wire", 'W'},
	TagSWire:          {"swire", 'w'},
	TagLayer:          {"layer", 'y'},
	TagRow:            {"row", 'R'},
	TagRegion:         {"region", 'g'},
	TagModule:         {"module", 'u'},
	TagModInst:        {"modinst", 'U'},
	TagGroup:          {"group", 'G'},
	TagFill:           {"fill", 'f'},
	TagTrackGrid:      {"trackgrid", 'k'},
	TagGCellGrid:      {"gcellgrid", 'c'},
	TagObstruction:    {"obstruction", 'o'},
	TagBlockage:       {"blockage", 'b'},
	TagNonDefaultRule: {"nondefaultrule", 'r'},
	TagProperty:       {"property", 'h'},
	TagName:           {"name", 'n'},
	TagRSeg:           {"rseg", 'e'},
	TagCapNode:        {"capnode", 'a'},
	TagCCSeg:          {"ccseg", 'E'},
	TagLayerRule:      {"layerrule", 'l'},
	TagViaRule:        {"viarule", 'q'},
	TagViaGenRule:     {"viagenrule", 'Q'},
	TagAntennaRule:    {"antennarule", 'A'},
}

func (t TypeTag) Name() string {
	if t >= tagCount {
		return "unknown"
	}
	return tagTable[t].name
}

func (t TypeTag) Code() byte {
	if t >= tagCount {
		return '?'
	}
	return tagTable[t].code
}

// Ordinal is the stable integer written to the binary stream (§4.4). It is
// simply the enum value, but is named explicitly so callers don't encode
// TypeTag's Go representation (which may grow) directly into files.
func (t TypeTag) Ordinal() uint8 { return uint8(t) }

func TagFromOrdinal(v uint8) (TypeTag, bool) {
	if v == 0 || TypeTag(v) >= tagCount {
		return TagInvalid, false
	}
	return TypeTag(v), true
}

func (t TypeTag) String() string { return t.Name() }
