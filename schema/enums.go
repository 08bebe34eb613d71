// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package schema

// Orient is an instance/shape orientation (R0, R90, MX, MY, ...). The
// numeric values are stable across the wire format.
type Orient uint8

const (
	OrientR0 Orient = iota
	OrientR90
	OrientR180
	OrientR270
	OrientMY
	OrientMYR90
	OrientMX
	OrientMXR90
)

// PlacementStatus tracks how firmly an Inst/BPin is placed.
type PlacementStatus uint8

const (
	PlacementNone PlacementStatus = iota
	PlacementUnplaced
	PlacementSuggested
	PlacementPlaced
	PlacementLocked
	PlacementFirm
	PlacementCover
)

// SigType classifies a Net/BTerm/MTerm electrically.
type SigType uint8

const (
	SigSignal SigType = iota
	SigPower
	SigGround
	SigClock
	SigReset
	SigScan
	SigTieOff
	SigAnalog
)

// IOType classifies a terminal's direction.
type IOType uint8

const (
	IOInput IOType = iota
	IOOutput
	IOInout
	IOFeedthru
)

// WireShapeType classifies a special-wire shape (§3 SBox).
type WireShapeType uint8

const (
	WireShapeNone WireShapeType = iota
	WireShapeRing
	WireShapeStripe
	WireShapeFollowPin
	WireShapeIOWire
	WireShapeCore
	WireShapePadRing
	WireShapeBlockRing
	WireShapeFillWire
	WireShapeDrcFill
)

// Direction is a wire/sbox routing direction.
type Direction uint8

const (
	DirUndefined Direction = iota
	DirHorizontal
	DirVertical
	DirOctilinear
)

// RegionType mirrors original_source's Region type enum.
type RegionType uint8

const (
	RegionInclusive RegionType = iota
	RegionExclusive
	RegionSuggested
)

// GroupType mirrors original_source's Group type enum.
type GroupType uint8

const (
	GroupPhysicalCluster GroupType = iota
	GroupVoltageDomain
	GroupPowerDomain
)

// RuleKind is the discriminant for a Layer's generic rule subtable entry
// (§4.3: "layer owns rule subtables (spacing, min-cut, min-enc, V55
// influence, corner spacing, EOL, cut-class, cut spacing, spacing table
// PRL, ...)"). Rather than one Go type per C++ rule subtype, every rule is
// one LayerRule record tagged by Kind, with a small fixed set of generic
// numeric fields.
type RuleKind uint8

const (
	RuleSpacing RuleKind = iota
	RuleMinCut
	RuleMinEnclosure
	RuleV55Influence
	RuleCornerSpacing
	RuleEOL
	RuleCutClass
	RuleCutSpacing
	RuleSpacingTablePRL
)

// Flags packs the small boolean/bit-field attributes named in §4.3
// ("bit fields pack flags ... user-flags, marked, visited, special,
// don't-touch, sig-type, io-type, wire-type, placement-status,
// orientation") that are orthogonal to the typed fields above. It is
// embedded by records that need scratch marker bits for external walkers
// (e.g. the ECO journal's per-object eco-create/destroy/modify bits).
type Flags struct {
	UserFlags  uint16
	Marked     bool
	Visited    bool
	Special    bool
	DontTouch  bool
	EcoCreate  bool
	EcoDestroy bool
	EcoModify  bool
}
