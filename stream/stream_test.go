// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package stream_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/schema"
	"github.com/opendb-core/odb/stream"
)

// buildFixture constructs a design that touches most of the entity
// tables a real block carries, and deliberately destroys a couple of
// entities after a later sibling exists so the survivors don't all sit
// at consecutive ids — a write/read round trip that only happened to
// work on a dense 1..N id space wouldn't be a real test of id
// preservation.
func buildFixture(t *testing.T) *schema.Database {
	t.Helper()
	db, err := schema.New("fixture", 2)
	require.NoError(t, err)

	techID, err := db.CreateTech(1000, "5.8", 1)
	require.NoError(t, err)
	layerID, err := db.CreateLayer(techID, "M1", true)
	require.NoError(t, err)
	db.CreateLayerRule(layerID, schema.RuleSpacing, 1, 2, 3, 4)
	techViaID, err := db.CreateTechVia(techID, "VIA12", layerID, layerID, layerID)
	require.NoError(t, err)

	libID, err := db.CreateLib("lib1")
	require.NoError(t, err)
	master1, err := db.CreateMaster(libID, "BUF1", 1000, 2000)
	require.NoError(t, err)
	_, err = db.CreateMTerm(master1, "A", schema.SigSignal, schema.IOInput)
	require.NoError(t, err)
	zMTerm, err := db.CreateMTerm(master1, "Z", schema.SigSignal, schema.IOOutput)
	require.NoError(t, err)
	db.CreateMPin(zMTerm)
	db.FreezeMaster(master1)

	// A second master whose first MTerm is destroyed (before freezing)
	// after a second one is created, so the surviving MTerm sits above
	// a freed id instead of reusing it.
	master2, err := db.CreateMaster(libID, "BUF2", 1000, 2000)
	require.NoError(t, err)
	throwaway, err := db.CreateMTerm(master2, "X", schema.SigSignal, schema.IOInput)
	require.NoError(t, err)
	_, err = db.CreateMTerm(master2, "A", schema.SigSignal, schema.IOInput)
	require.NoError(t, err)
	require.NoError(t, db.DestroyMTerm(throwaway))
	db.FreezeMaster(master2)

	chipID, err := db.CreateChip()
	require.NoError(t, err)
	top, err := db.CreateTopBlock(chipID, "top", '/')
	require.NoError(t, err)
	_, err = db.CreateChildBlock(top, "leaf", '/')
	require.NoError(t, err)

	db.CreateFill(top, layerID, schema.Rect{LX: 0, LY: 0, HX: 10, HY: 10})
	db.CreateTrackGrid(top, layerID, schema.DirHorizontal, 0, 4, 100)
	db.CreateObstruction(top, layerID, schema.Rect{LX: 0, LY: 0, HX: 5, HY: 5})
	db.CreateBlockage(top, schema.Rect{LX: 1, LY: 1, HX: 2, HY: 2}, false)
	_, err = db.CreateRegion(top, "r1", schema.RegionInclusive)
	require.NoError(t, err)
	_, err = db.CreateNonDefaultRule(top, "ndr1")
	require.NoError(t, err)

	// A net created before the surviving one and destroyed after it, to
	// punch a hole below the high-water mark.
	throwawayNet, err := db.CreateNet(top, "throwaway", schema.SigSignal)
	require.NoError(t, err)

	net1, err := db.CreateNet(top, "n1", schema.SigSignal)
	require.NoError(t, err)
	require.NoError(t, db.DestroyNet(throwawayNet))
	bterm, err := db.CreateBTerm(net1, "io1", schema.IOInput)
	require.NoError(t, err)
	db.CreateBPin(bterm, schema.PlacementPlaced)

	inst1, err := db.CreateInst(top, "u1", master1)
	require.NoError(t, err)
	iterm := db.ITerm(inst1, 0)
	db.ConnectITerm(iterm, net1)
	db.SetLocation(inst1, schema.Point{X: 10, Y: 20}, schema.OrientR90)

	db.CreateVia(top, "v1", techViaID)

	wireID := db.CreateWire(net1)
	db.SetWireBytes(wireID, []byte{0})

	swireID := db.CreateSWire(net1, schema.WireShapeStripe)
	db.CreateSBox(swireID, layerID, schema.Rect{LX: 0, LY: 0, HX: 3, HY: 3}, schema.WireShapeStripe, schema.DirHorizontal)

	db.CreateBlockBox(top, layerID, schema.Rect{LX: 0, LY: 0, HX: 1, HY: 1})

	cap1 := db.CreateCapNode(net1, schema.CapNodeInternal)
	cap2 := db.CreateCapNode(net1, schema.CapNodeInternal)
	db.CreateRSeg(net1, cap1, cap2)
	db.CreateCCSeg(cap1, cap2)

	return db
}

// snapshot captures every significant per-entity oid in db, for
// before/after comparison across a write/read round trip.
type snapshot struct {
	tech, layer, techVia    oid.Oid
	libs                    []oid.Oid
	masters                 []oid.Oid
	mterms                  []oid.Oid
	chip, top, leaf         oid.Oid
	nets                    []oid.Oid
	bterms                  []oid.Oid
	insts                   []oid.Oid
	vias                    []oid.Oid
	wires                   []oid.Oid
	swires                  []oid.Oid
	capNodes, rsegs, ccsegs []oid.Oid
}

func idsOf[T any](ids []oid.Id[T]) []oid.Oid {
	out := make([]oid.Oid, len(ids))
	for i, id := range ids {
		out[i] = id.Oid()
	}
	return out
}

func snap(t *testing.T, db *schema.Database) snapshot {
	t.Helper()
	var s snapshot
	s.tech = db.Tech().Oid()

	layers := db.Layers(db.Tech())
	require.Len(t, layers, 1)
	s.layer = layers[0].Oid()
	techVias := db.TechVias(db.Tech())
	require.Len(t, techVias, 1)
	s.techVia = techVias[0].Oid()

	for _, lib := range db.Libs() {
		s.libs = append(s.libs, lib.Oid())
		for _, m := range db.Masters(lib) {
			s.masters = append(s.masters, m.Oid())
			for _, mt := range db.MTerms(m) {
				s.mterms = append(s.mterms, mt.Oid())
			}
		}
	}

	s.chip = db.Chip().Oid()
	top := db.TopBlock(db.Chip())
	s.top = top.Oid()
	children := db.ChildBlocks(top)
	require.Len(t, children, 1)
	s.leaf = children[0].Oid()

	for _, n := range db.Nets(top) {
		s.nets = append(s.nets, n.Oid())
		s.bterms = append(s.bterms, idsOf(db.BTerms(n))...)
		s.capNodes = append(s.capNodes, idsOf(db.CapNodes(n))...)
		s.rsegs = append(s.rsegs, idsOf(db.RSegs(n))...)
		s.ccsegs = append(s.ccsegs, idsOf(db.CCSegs(n))...)
		s.swires = append(s.swires, idsOf(db.SWires(n))...)
		nr, err := db.Net(n)
		require.NoError(t, err)
		if !nr.Wire.IsNull() {
			s.wires = append(s.wires, nr.Wire.Oid())
		}
	}
	s.insts = idsOf(db.Insts(top))
	s.vias = idsOf(db.Vias(top))
	return s
}

// TestWriteReadPreservesIDs is the core regression test for the
// round-trip id property: every entity's oid must come back unchanged,
// including entities whose siblings were destroyed so the id space
// isn't simply dense from 1.
func TestWriteReadPreservesIDs(t *testing.T) {
	db0 := buildFixture(t)
	before := snap(t, db0)

	buf, err := stream.WriteToBuffer(db0)
	require.NoError(t, err)

	db1, err := stream.Read("fixture", bytes.NewReader(buf))
	require.NoError(t, err)
	after := snap(t, db1)

	require.Equal(t, before, after)
}

// TestWriteReadPreservesContent spot-checks that a couple of records
// carry their actual field values across the round trip too, not just
// their ids.
func TestWriteReadPreservesContent(t *testing.T) {
	db0 := buildFixture(t)
	buf, err := stream.WriteToBuffer(db0)
	require.NoError(t, err)
	db1, err := stream.Read("fixture", bytes.NewReader(buf))
	require.NoError(t, err)

	top := db1.TopBlock(db1.Chip())
	nets := db1.Nets(top)
	require.Len(t, nets, 1)
	nr, err := db1.Net(nets[0])
	require.NoError(t, err)
	require.Equal(t, "n1", nr.Name)

	insts := db1.Insts(top)
	require.Len(t, insts, 1)
	ir, err := db1.Inst(insts[0])
	require.NoError(t, err)
	require.Equal(t, "u1", ir.Name)
	require.Equal(t, schema.Point{X: 10, Y: 20}, ir.Origin)
	require.Equal(t, schema.OrientR90, ir.Orient)
}
