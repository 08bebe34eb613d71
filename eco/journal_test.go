// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package eco

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/schema"
)

// buildFixture constructs a small but non-trivial design: a tech with one
// layer and one tech via, a lib with a two-terminal master, a chip with
// one top block, and an empty net/inst graph ready for ECO recording.
func buildFixture(t *testing.T) (*schema.Database, oid.Id[schema.Block]) {
	t.Helper()
	db, err := schema.New("fixture", 1)
	require.NoError(t, err)

	techID, err := db.CreateTech(1000, "5.8", 1)
	require.NoError(t, err)
	layerID, err := db.CreateLayer(techID, "M1", true)
	require.NoError(t, err)
	_, err = db.CreateTechVia(techID, "VIA12", layerID, layerID, layerID)
	require.NoError(t, err)

	libID, err := db.CreateLib("lib1")
	require.NoError(t, err)
	masterID, err := db.CreateMaster(libID, "BUF1", 1000, 2000)
	require.NoError(t, err)
	_, err = db.CreateMTerm(masterID, "A", schema.SigSignal, schema.IOInput)
	require.NoError(t, err)
	_, err = db.CreateMTerm(masterID, "Z", schema.SigSignal, schema.IOOutput)
	require.NoError(t, err)
	db.FreezeMaster(masterID)

	chipID, err := db.CreateChip()
	require.NoError(t, err)
	blockID, err := db.CreateTopBlock(chipID, "top", '/')
	require.NoError(t, err)

	return db, blockID
}

func recordSampleEco(t *testing.T, db *schema.Database, block oid.Id[schema.Block]) []*entry {
	t.Helper()
	j := New(db)
	require.NoError(t, j.Begin(block))

	netID, err := db.CreateNet(block, "n1", schema.SigSignal)
	require.NoError(t, err)

	master := db.Masters(db.Libs()[0])[0]
	instID, err := db.CreateInst(block, "u1", master)
	require.NoError(t, err)

	iterm := db.ITerm(instID, 0)
	db.ConnectITerm(iterm, netID)
	db.SetLocation(instID, schema.Point{X: 10, Y: 20}, schema.OrientR90)
	db.SetNetSpecial(netID, true)

	techVia := db.TechVias(db.Tech())[0]
	db.CreateVia(block, "v1", techVia)

	_, err = db.CreateBTerm(netID, "io1", schema.IOInput)
	require.NoError(t, err)

	require.NoError(t, j.End())
	require.False(t, j.Empty())
	return j.Entries()
}

func TestJournalRecordWriteReadReplay(t *testing.T) {
	db0, block0 := buildFixture(t)
	entries := recordSampleEco(t, db0, block0)
	require.NotEmpty(t, entries)

	var buf bytes.Buffer
	require.NoError(t, WriteEco(&buf, entries))

	loaded, err := ReadEco(&buf)
	require.NoError(t, err)
	require.Len(t, loaded, len(entries))

	db1, block1 := buildFixture(t)
	require.NoError(t, Replay(db1, block1, loaded))

	diff := Diff(db0, db1)
	require.Empty(t, diff, "replayed database should match the recorded one: %v", diff)
}

func TestJournalCommitClearsBuffer(t *testing.T) {
	db, block := buildFixture(t)
	j := New(db)
	require.NoError(t, j.Begin(block))
	_, err := db.CreateNet(block, "n1", schema.SigSignal)
	require.NoError(t, err)
	require.NoError(t, j.End())
	require.False(t, j.Empty())

	n, err := j.Commit()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.True(t, j.Empty())
	require.Equal(t, NotRecording, j.CurrentState())
}

func TestJournalAbortDiscardsBuffer(t *testing.T) {
	db, block := buildFixture(t)
	j := New(db)
	require.NoError(t, j.Begin(block))
	_, err := db.CreateNet(block, "n1", schema.SigSignal)
	require.NoError(t, err)
	require.NoError(t, j.End())
	require.False(t, j.Empty())

	require.NoError(t, j.Abort())
	require.True(t, j.Empty())
}
