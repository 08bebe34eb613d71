// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/schema"
)

type captureObserver struct {
	schema.BaseObserver
	swapped      int
	swappedFrom  oid.Id[schema.Master]
	moved        int
	flagsChanged int
	viaCreated   int
	viaDestroyed int
}

func (o *captureObserver) InstSwapped(inst oid.Id[schema.Inst], oldMaster oid.Id[schema.Master]) {
	o.swapped++
	o.swappedFrom = oldMaster
}

func (o *captureObserver) InstMoved(inst oid.Id[schema.Inst], oldOrigin schema.Point, oldOrient schema.Orient) {
	o.moved++
}

func (o *captureObserver) NetFlagsChanged(net oid.Id[schema.Net]) {
	o.flagsChanged++
}

func (o *captureObserver) ViaCreated(via oid.Id[schema.Via]) {
	o.viaCreated++
}

func (o *captureObserver) ViaDestroyed(via oid.Id[schema.Via]) {
	o.viaDestroyed++
}

func buildTwoMasterFixture(t *testing.T) (*schema.Database, oid.Id[schema.Block], oid.Id[schema.Master], oid.Id[schema.Master]) {
	t.Helper()
	db, err := schema.New("fixture", 1)
	require.NoError(t, err)

	lib, err := db.CreateLib("lib1")
	require.NoError(t, err)

	m1, err := db.CreateMaster(lib, "BUF1", 100, 200)
	require.NoError(t, err)
	_, err = db.CreateMTerm(m1, "A", schema.SigSignal, schema.IOInput)
	require.NoError(t, err)
	db.FreezeMaster(m1)

	m2, err := db.CreateMaster(lib, "BUF2", 100, 200)
	require.NoError(t, err)
	_, err = db.CreateMTerm(m2, "A", schema.SigSignal, schema.IOInput)
	require.NoError(t, err)
	db.FreezeMaster(m2)

	chip, err := db.CreateChip()
	require.NoError(t, err)
	block, err := db.CreateTopBlock(chip, "top", '/')
	require.NoError(t, err)

	return db, block, m1, m2
}

func TestSwapMasterNotifiesAndUpdatesRecord(t *testing.T) {
	db, block, m1, m2 := buildTwoMasterFixture(t)

	inst, err := db.CreateInst(block, "u1", m1)
	require.NoError(t, err)

	ob := &captureObserver{}
	db.AddObserver(ob)

	db.SwapMaster(inst, m2)

	require.Equal(t, 1, ob.swapped)
	require.Equal(t, m1, ob.swappedFrom)

	r, err := db.Inst(inst)
	require.NoError(t, err)
	require.Equal(t, m2, r.Master)
}

func TestSetLocationNotifiesInstMoved(t *testing.T) {
	db, block, m1, _ := buildTwoMasterFixture(t)
	inst, err := db.CreateInst(block, "u1", m1)
	require.NoError(t, err)

	ob := &captureObserver{}
	db.AddObserver(ob)

	db.SetLocation(inst, schema.Point{X: 10, Y: 20}, schema.OrientR90)

	require.Equal(t, 1, ob.moved)
	r, err := db.Inst(inst)
	require.NoError(t, err)
	require.Equal(t, schema.Point{X: 10, Y: 20}, r.Origin)
	require.Equal(t, schema.OrientR90, r.Orient)
}

func TestSetNetFlags(t *testing.T) {
	db, err := schema.New("fixture", 1)
	require.NoError(t, err)
	chip, err := db.CreateChip()
	require.NoError(t, err)
	block, err := db.CreateTopBlock(chip, "top", '/')
	require.NoError(t, err)
	net, err := db.CreateNet(block, "n1", schema.SigSignal)
	require.NoError(t, err)

	ob := &captureObserver{}
	db.AddObserver(ob)

	db.SetNetSpecial(net, true)
	db.SetNetDontTouch(net, true)
	db.SetNetUserFlags(net, 7)

	require.Equal(t, 3, ob.flagsChanged)
	r, err := db.Net(net)
	require.NoError(t, err)
	require.True(t, r.Special)
	require.True(t, r.DontTouch)
	require.EqualValues(t, 7, r.UserFlags)
}

func TestCreateAndDestroyVia(t *testing.T) {
	db, err := schema.New("fixture", 1)
	require.NoError(t, err)
	tech, err := db.CreateTech(1000, "5.8", 1)
	require.NoError(t, err)
	layer, err := db.CreateLayer(tech, "M1", true)
	require.NoError(t, err)
	techVia, err := db.CreateTechVia(tech, "VIA12", layer, layer, layer)
	require.NoError(t, err)
	chip, err := db.CreateChip()
	require.NoError(t, err)
	block, err := db.CreateTopBlock(chip, "top", '/')
	require.NoError(t, err)

	ob := &captureObserver{}
	db.AddObserver(ob)

	via := db.CreateVia(block, "v1", techVia)
	require.Equal(t, 1, ob.viaCreated)

	require.NoError(t, db.DestroyVia(via))
	require.Equal(t, 1, ob.viaDestroyed)

	_, err = db.Via(via)
	require.Error(t, err)
}
