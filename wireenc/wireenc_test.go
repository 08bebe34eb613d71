// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package wireenc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opendb-core/odb/wireenc"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := wireenc.NewEncoder()
	e.SetLayer(1)
	e.PointTo(wireenc.Point{X: 100, Y: 0})
	e.Via("VIA12")
	e.SetLayer(2)
	e.PointTo(wireenc.Point{X: 100, Y: 200})

	ops, operands, viaNames := e.Finish()
	require.Equal(t, []string{"VIA12"}, viaNames)

	d := wireenc.NewDecoder(ops, operands, viaNames, nil)
	junctions, err := d.All()
	require.NoError(t, err)
	require.True(t, d.Done())

	require.Len(t, junctions, 3)

	require.False(t, junctions[0].IsVia)
	require.Equal(t, int32(1), junctions[0].Segment.Layer)
	require.Equal(t, wireenc.Point{X: 0, Y: 0}, junctions[0].Segment.From)
	require.Equal(t, wireenc.Point{X: 100, Y: 0}, junctions[0].Segment.To)

	require.True(t, junctions[1].IsVia)
	require.Equal(t, "VIA12", junctions[1].Via.Name)
	require.Equal(t, wireenc.Point{X: 100, Y: 0}, junctions[1].Via.Origin)

	require.False(t, junctions[2].IsVia)
	require.Equal(t, int32(2), junctions[2].Segment.Layer)
	require.Equal(t, wireenc.Point{X: 100, Y: 0}, junctions[2].Segment.From)
	require.Equal(t, wireenc.Point{X: 100, Y: 200}, junctions[2].Segment.To)
}

func TestReverseSwapsSegmentEndpointsAndOrder(t *testing.T) {
	e := wireenc.NewEncoder()
	e.SetLayer(1)
	e.PointTo(wireenc.Point{X: 10, Y: 0})
	e.PointTo(wireenc.Point{X: 20, Y: 0})
	ops, operands, viaNames := e.Finish()

	forward, err := wireenc.NewDecoder(ops, operands, viaNames, nil).All()
	require.NoError(t, err)
	require.Len(t, forward, 2)

	reversed := wireenc.Reverse(forward)
	require.Len(t, reversed, 2)
	require.Equal(t, forward[1].Segment.From, reversed[0].Segment.To)
	require.Equal(t, forward[1].Segment.To, reversed[0].Segment.From)
	require.Equal(t, forward[0].Segment.From, reversed[1].Segment.To)
	require.Equal(t, forward[0].Segment.To, reversed[1].Segment.From)
}

// TestAppendPreservesBitIdentity checks §4.5's "append preserving
// bit-identity" requirement: concatenating two separately-encoded
// fragments through Append must produce the same opcode bytes, operands
// and via-name table as encoding the same junction sequence in one pass,
// and decode identically, including via-name indices that differ
// between the two encoders' side tables.
func TestAppendPreservesBitIdentity(t *testing.T) {
	frag1 := wireenc.NewEncoder()
	frag1.SetLayer(1)
	frag1.PointTo(wireenc.Point{X: 0, Y: 0})
	frag1.Via("VIA_A")
	frag1Ops, frag1Operands, frag1ViaNames := finishUnterminated(frag1)

	frag2 := wireenc.NewEncoder()
	frag2.Via("VIA_B")
	frag2.PointTo(wireenc.Point{X: 50, Y: 50})
	frag2Ops, frag2Operands, frag2ViaNames := finishUnterminated(frag2)

	combined := wireenc.NewEncoder()
	combined.Append(frag1Ops, frag1Operands, frag1ViaNames)
	combined.Append(frag2Ops, frag2Operands, frag2ViaNames)
	combinedOps, combinedOperands, combinedViaNames := combined.Finish()

	oneShot := wireenc.NewEncoder()
	oneShot.SetLayer(1)
	oneShot.PointTo(wireenc.Point{X: 0, Y: 0})
	oneShot.Via("VIA_A")
	oneShot.Via("VIA_B")
	oneShot.PointTo(wireenc.Point{X: 50, Y: 50})
	oneShotOps, oneShotOperands, oneShotViaNames := oneShot.Finish()

	combinedJunctions, err := wireenc.NewDecoder(combinedOps, combinedOperands, combinedViaNames, nil).All()
	require.NoError(t, err)
	oneShotJunctions, err := wireenc.NewDecoder(oneShotOps, oneShotOperands, oneShotViaNames, nil).All()
	require.NoError(t, err)

	require.Equal(t, oneShotOps, combinedOps)
	require.Equal(t, oneShotOperands, combinedOperands)
	require.Equal(t, oneShotViaNames, combinedViaNames)
	require.Equal(t, oneShotJunctions, combinedJunctions)
}

func TestDecoderRejectsOutOfRangeViaIndex(t *testing.T) {
	e := wireenc.NewEncoder()
	e.Via("VIA1")
	ops, operands, _ := e.Finish()

	d := wireenc.NewDecoder(ops, operands, nil, nil)
	_, err := d.All()
	require.Error(t, err)
}

func TestOpcodeStringUnknown(t *testing.T) {
	require.Equal(t, "OP(255)", wireenc.Opcode(255).String())
	require.Equal(t, "LAYER", wireenc.OpLayer.String())
}

// finishUnterminated returns e's encoded stream without the trailing
// DONE opcode Finish bakes in, the shape Append expects of a fragment
// that's meant to be concatenated rather than decoded on its own.
func finishUnterminated(e *wireenc.Encoder) ([]byte, []int64, []string) {
	ops, operands, viaNames := e.Finish()
	return ops[:len(ops)-1], operands[:len(operands)-1], viaNames
}
