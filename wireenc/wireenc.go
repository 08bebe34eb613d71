// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package wireenc implements the wire opcode codec (C7, §4.5): a compact
// token stream describing a Net's routed geometry as a sequence of moves,
// vias and shape annotations, grounded on original_source's dbWireCodec.h
// opcode table and on the teacher's lib/binstruct field-at-a-time decode
// style (git.lukeshu.com/btrfs-progs-ng lib/binstruct).
package wireenc

import (
	"fmt"

	"github.com/opendb-core/odb/internal/odberr"
)

// Opcode is one token of the wire stream (§4.5).
type Opcode uint8

const (
	OpDone Opcode = iota
	OpLayer
	OpVia
	OpViaRotation
	OpWidth
	OpPoint
	OpExtPoint
	OpTaper
	OpShape
	OpStyle
	OpTaperRule
	OpViaData
	OpRect
	OpVPoint
	OpMask
	OpViaMask
)

func (op Opcode) String() string {
	switch op {
	case OpDone:
		return "DONE"
	case OpLayer:
		return "LAYER"
	case OpVia:
		return "VIA"
	case OpViaRotation:
		return "VIAROTATION"
	case OpWidth:
		return "WIDTH"
	case OpPoint:
		return "POINT"
	case OpExtPoint:
		return "EXT_POINT"
	case OpTaper:
		return "TAPER"
	case OpShape:
		return "SHAPE"
	case OpStyle:
		return "STYLE"
	case OpTaperRule:
		return "TAPERRULE"
	case OpViaData:
		return "VIADATA"
	case OpRect:
		return "RECT"
	case OpVPoint:
		return "VPOINT"
	case OpMask:
		return "MASK"
	case OpViaMask:
		return "VIAMASK"
	default:
		return fmt.Sprintf("OP(%d)", op)
	}
}

// Point is a manhattan coordinate pair, matching schema.Point's shape
// without importing package schema; wireenc does not depend on schema,
// and package stream stores wire bytes without decoding them.
type Point struct{ X, Y int64 }

// Segment is a decoded routed-wire view: a straight run on one layer
// between two points.
type Segment struct {
	Layer      int32
	From, To   Point
	ExtFrom    int64
	ExtTo      int64
	HasExtFrom bool
	HasExtTo   bool
}

// Via is a decoded junction view: a via template dropped at a point.
type Via struct {
	Name   string
	Origin Point
	Rotation int32
	Mask     int32
}

// Junction is one decoded element of a wire: either a Segment or a Via,
// discriminated by IsVia.
type Junction struct {
	IsVia   bool
	Segment Segment
	Via     Via
}

// decoderState is the modal state a Decoder carries between opcodes:
// current layer, mask and point, the last via name, and the via
// rotation and mask applied to the next VIA.
type decoderState struct {
	layer      int32
	mask       int32
	point      Point
	extValid   bool
	ext        int64
	lastVia    string
	viaRot     int32
	viaMask    int32
}

// Decoder walks a wire's opcode stream and a parallel operand stream
// (one int64 operand per opcode, aligned by index), resolving VIA
// operands through a via-name table, and produces Junctions in
// encounter order.
type Decoder struct {
	ops     []byte
	operands []int64 // one decoded varint-equivalent operand slot per op, aligned by index
	viaNames []string
	layerNames []string

	pos   int
	done  bool
	state decoderState
}

// NewDecoder wraps the raw per-Wire payload produced by an Encoder.
// viaNames translates the via indices the stream carries back into
// names, mirroring how original_source's dbWireDecoder resolves those
// indices through the owning Block/Tech. layerNames is stored but not
// consulted: Segment.Layer carries the raw LAYER operand.
func NewDecoder(ops []byte, operands []int64, viaNames, layerNames []string) *Decoder {
	return &Decoder{ops: ops, operands: operands, viaNames: viaNames, layerNames: layerNames}
}

// Done reports whether the stream is exhausted (the OpDone opcode seen,
// or the byte slice consumed).
func (d *Decoder) Done() bool { return d.done || d.pos >= len(d.ops) }

// Next decodes the next Junction, or returns (Junction{}, false) at end
// of stream. A malformed stream (opcode out of range, operand index out
// of bounds) yields a *odberr.FormatError.
func (d *Decoder) Next() (Junction, bool, error) {
	for !d.Done() {
		op := Opcode(d.ops[d.pos])
		operand := int64(0)
		if d.pos < len(d.operands) {
			operand = d.operands[d.pos]
		}
		d.pos++
		switch op {
		case OpDone:
			d.done = true
			return Junction{}, false, nil
		case OpLayer:
			d.state.layer = int32(operand)
		case OpMask:
			d.state.mask = int32(operand)
		case OpWidth, OpStyle, OpTaper, OpTaperRule:
			// modal state that the decoder neither tracks nor surfaces;
			// no Junction is produced.
		case OpPoint:
			prev := d.state.point
			d.state.point = Point{X: operand >> 32, Y: operand & 0xffffffff}
			return Junction{Segment: Segment{Layer: d.state.layer, From: prev, To: d.state.point}}, true, nil
		case OpExtPoint:
			prev := d.state.point
			pt := Point{X: operand >> 32, Y: operand & 0xffffffff}
			d.state.point = pt
			return Junction{Segment: Segment{Layer: d.state.layer, From: prev, To: pt, HasExtTo: true}}, true, nil
		case OpRect:
			return Junction{Segment: Segment{Layer: d.state.layer, From: d.state.point, To: d.state.point}}, true, nil
		case OpVia, OpVPoint:
			idx := int(operand)
			if idx < 0 || idx >= len(d.viaNames) {
				return Junction{}, false, &odberr.FormatError{Offset: int64(d.pos), Reason: "via index out of range"}
			}
			d.state.lastVia = d.viaNames[idx]
			return Junction{IsVia: true, Via: Via{Name: d.state.lastVia, Origin: d.state.point, Rotation: d.state.viaRot, Mask: d.state.viaMask}}, true, nil
		case OpViaRotation:
			d.state.viaRot = int32(operand)
		case OpViaMask:
			d.state.viaMask = int32(operand)
		case OpShape, OpViaData:
			// annotation-only opcodes; no Junction produced.
		default:
			return Junction{}, false, &odberr.FormatError{Offset: int64(d.pos - 1), Reason: "unknown wire opcode"}
		}
	}
	return Junction{}, false, nil
}

// All decodes every remaining Junction.
func (d *Decoder) All() ([]Junction, error) {
	var out []Junction
	for {
		j, ok, err := d.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, j)
	}
}

// Reverse returns the Junctions in the opposite traversal order,
// swapping each Segment's From/To, mirroring §4.5's "forward/backward
// traversal" requirement without needing a second encoded stream.
func Reverse(js []Junction) []Junction {
	out := make([]Junction, len(js))
	for i, j := range js {
		if !j.IsVia {
			j.Segment.From, j.Segment.To = j.Segment.To, j.Segment.From
		}
		out[len(js)-1-i] = j
	}
	return out
}

// Encoder builds a wire's opcode stream. Every Append call is
// bit-identical across repeated encodes of the same junction sequence
// (no hidden nondeterminism from map iteration or similar), matching
// §4.5's "append/copy-preserving-bit-identity" requirement.
type Encoder struct {
	ops      []byte
	operands []int64
	viaNames []string
	viaIndex map[string]int
}

func NewEncoder() *Encoder {
	return &Encoder{viaIndex: make(map[string]int)}
}

func (e *Encoder) emit(op Opcode, operand int64) {
	e.ops = append(e.ops, byte(op))
	e.operands = append(e.operands, operand)
}

func (e *Encoder) SetLayer(layer int32) { e.emit(OpLayer, int64(layer)) }
func (e *Encoder) SetMask(mask int32)   { e.emit(OpMask, int64(mask)) }

func (e *Encoder) PointTo(p Point) { e.emit(OpPoint, p.X<<32|(p.Y&0xffffffff)) }

func (e *Encoder) ExtPointTo(p Point) { e.emit(OpExtPoint, p.X<<32|(p.Y&0xffffffff)) }

func (e *Encoder) Rect() { e.emit(OpRect, 0) }

// Via emits a VIA opcode referencing name, interning it into the side
// name table on first use (§4.5's "table of via-name ... side data").
func (e *Encoder) Via(name string) {
	idx, ok := e.viaIndex[name]
	if !ok {
		idx = len(e.viaNames)
		e.viaNames = append(e.viaNames, name)
		e.viaIndex[name] = idx
	}
	e.emit(OpVia, int64(idx))
}

func (e *Encoder) ViaRotation(rot int32) { e.emit(OpViaRotation, int64(rot)) }
func (e *Encoder) ViaMask(mask int32)    { e.emit(OpViaMask, int64(mask)) }

// Finish appends the terminating DONE opcode and returns the opcode
// bytes, the per-opcode operands and the via-name side table. The caller
// is responsible for keeping the three together; schema.SetWireBytes and
// package stream store one opaque byte slice per Wire.
func (e *Encoder) Finish() (ops []byte, operands []int64, viaNames []string) {
	e.emit(OpDone, 0)
	return e.ops, e.operands, e.viaNames
}

// Append concatenates another encoder's (not-yet-finished) token stream
// onto e, remapping via-name indices through e's own side table so the
// combined stream stays self-consistent (§4.5 "append ... preserving
// bit-identity": appending a previously-encoded fragment must reproduce
// exactly the bytes a single encode pass would have produced).
func (e *Encoder) Append(ops []byte, operands []int64, viaNames []string) {
	remap := make([]int, len(viaNames))
	for i, name := range viaNames {
		idx, ok := e.viaIndex[name]
		if !ok {
			idx = len(e.viaNames)
			e.viaNames = append(e.viaNames, name)
			e.viaIndex[name] = idx
		}
		remap[i] = idx
	}
	for i, opByte := range ops {
		op := Opcode(opByte)
		operand := operands[i]
		if op == OpVia || op == OpVPoint {
			operand = int64(remap[operand])
		}
		e.ops = append(e.ops, opByte)
		e.operands = append(e.operands, operand)
	}
}
