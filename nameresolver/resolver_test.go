// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package nameresolver_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/nameresolver"
	"github.com/opendb-core/odb/schema"
)

func buildFixture(t *testing.T, dbName string) (*schema.Database, oid.Id[schema.Net], oid.Id[schema.Inst]) {
	t.Helper()
	db, err := schema.New(dbName, 1)
	require.NoError(t, err)

	lib, err := db.CreateLib("lib1")
	require.NoError(t, err)
	master, err := db.CreateMaster(lib, "BUF1", 100, 200)
	require.NoError(t, err)
	_, err = db.CreateMTerm(master, "A", schema.SigSignal, schema.IOInput)
	require.NoError(t, err)
	db.FreezeMaster(master)

	chip, err := db.CreateChip()
	require.NoError(t, err)
	block, err := db.CreateTopBlock(chip, "top", '/')
	require.NoError(t, err)

	net, err := db.CreateNet(block, "n1", schema.SigSignal)
	require.NoError(t, err)
	inst, err := db.CreateInst(block, "u1", master)
	require.NoError(t, err)

	return db, net, inst
}

func TestResolveAndGetDBNameRoundTrip(t *testing.T) {
	db, net, inst := buildFixture(t, "chip1")

	netPath, err := nameresolver.GetDBName(db, oid.TagNet, net.Oid())
	require.NoError(t, err)
	require.Equal(t, "/Dchip1/Btop/Nn1", netPath)

	instPath, err := nameresolver.GetDBName(db, oid.TagInst, inst.Oid())
	require.NoError(t, err)
	require.Equal(t, "/Dchip1/Btop/Iu1", instPath)

	resolved, err := nameresolver.Global.Resolve(db, netPath)
	require.NoError(t, err)
	require.Equal(t, oid.TagNet, resolved.Tag)
	require.Equal(t, net.Oid(), resolved.Oid)
}

func TestResolveDBNameFindsRegisteredDatabase(t *testing.T) {
	db, _, _ := buildFixture(t, "chip2")
	got, rest, err := nameresolver.ResolveDBName("/Dchip2/Btop")
	require.NoError(t, err)
	require.Same(t, db, got)
	require.Equal(t, []nameresolver.Segment{{Code: 'B', Name: "top"}}, rest)
}

func TestResolveCaseInsensitiveByDefault(t *testing.T) {
	db, net, _ := buildFixture(t, "chip3")
	resolved, err := nameresolver.Global.Resolve(db, "/Dchip3/BTOP/NN1")
	require.NoError(t, err)
	require.Equal(t, net.Oid(), resolved.Oid)
}

func TestResolveUnknownPathFails(t *testing.T) {
	db, _, _ := buildFixture(t, "chip4")
	_, err := nameresolver.Global.Resolve(db, "/Dchip4/Bnope")
	require.Error(t, err)
}

// buildShiftedFixture is buildFixture plus one extra, never-destroyed net
// created ahead of "n1", so "n1" lands on a different oid than
// buildFixture's own net — letting a test tell a correctly resolved oid
// apart from a stale one that happens to share the same path.
func buildShiftedFixture(t *testing.T, dbName string) (*schema.Database, oid.Id[schema.Net], oid.Id[schema.Inst]) {
	t.Helper()
	db, err := schema.New(dbName, 1)
	require.NoError(t, err)

	lib, err := db.CreateLib("lib1")
	require.NoError(t, err)
	master, err := db.CreateMaster(lib, "BUF1", 100, 200)
	require.NoError(t, err)
	_, err = db.CreateMTerm(master, "A", schema.SigSignal, schema.IOInput)
	require.NoError(t, err)
	db.FreezeMaster(master)

	chip, err := db.CreateChip()
	require.NoError(t, err)
	block, err := db.CreateTopBlock(chip, "top", '/')
	require.NoError(t, err)

	_, err = db.CreateNet(block, "shift", schema.SigSignal)
	require.NoError(t, err)
	net, err := db.CreateNet(block, "n1", schema.SigSignal)
	require.NoError(t, err)
	inst, err := db.CreateInst(block, "u1", master)
	require.NoError(t, err)

	return db, net, inst
}

// TestResolveDoesNotLeakAcrossNameReuse guards against a stale cache hit
// when a registry name is reused by an unrelated database: db0 is
// resolved and cached under "/Dshared/Btop/Nn1", db0 is closed (freeing
// the name), and a brand new db1 registers under the same name with a
// net at the same path but a different oid. Global.Resolve must never
// return db0's cached oid for db1.
func TestResolveDoesNotLeakAcrossNameReuse(t *testing.T) {
	db0, net0, _ := buildFixture(t, "shared")
	resolved0, err := nameresolver.Global.Resolve(db0, "/Dshared/Btop/Nn1")
	require.NoError(t, err)
	require.Equal(t, net0.Oid(), resolved0.Oid)
	db0.Close()

	db1, net1, _ := buildShiftedFixture(t, "shared")
	require.NotSame(t, db0, db1)
	require.NotEqual(t, net0.Oid(), net1.Oid(), "fixture must shift ids for this test to be meaningful")

	resolved1, err := nameresolver.Global.Resolve(db1, "/Dshared/Btop/Nn1")
	require.NoError(t, err)
	require.Equal(t, net1.Oid(), resolved1.Oid)
}
