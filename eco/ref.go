// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package eco

import "github.com/opendb-core/odb/internal/oid"

// ref addresses an entity from inside a journal entry: either the live oid
// it already had when recording began, or the sequence number of the
// create-entry (earlier in the same journal) that produced it (§4.7: "new
// ids refer to pre-create journal sequence numbers to remain stable across
// save/load"). A freshly created object's oid is only known once its
// Create call runs against a live Database, so a journal file that must
// stand alone across a save/load round trip cannot bake that oid in
// directly — it records the entry's position instead and lets replay
// re-resolve it, the same oldID/newID indirection the binary stream codec
// (C6) uses for whole-database serialization.
type ref struct {
	live bool
	oid  oid.Oid
	seq  int32
}

var nullRef = ref{live: true, oid: oid.Null}

func liveRef(o oid.Oid) ref { return ref{live: true, oid: o} }
func seqRef(seq int32) ref  { return ref{seq: seq} }

func (r ref) isNull() bool { return r.live && r.oid.IsNull() }

// seqTable assigns and resolves sequence numbers for one entity kind's
// created-during-this-recording objects.
type seqTable struct {
	bySeq map[int32]oid.Oid // replay side: seq -> real oid, filled as creates replay
	byOid map[oid.Oid]int32 // record side: real oid -> seq, filled as creates are observed
	next  int32
}

func newSeqTable() *seqTable {
	return &seqTable{bySeq: map[int32]oid.Oid{}, byOid: map[oid.Oid]int32{}}
}

// assign records that o (just created during Recording) is entry #seq of
// its kind, returning seq.
func (t *seqTable) assign(o oid.Oid) int32 {
	seq := t.next
	t.next++
	t.byOid[o] = seq
	return seq
}

// ref builds the ref a subsequent entry should use to address o: a seqRef
// if o was created earlier in this same recording session, a liveRef
// otherwise.
func (t *seqTable) ref(o oid.Oid) ref {
	if o.IsNull() {
		return nullRef
	}
	if seq, ok := t.byOid[o]; ok {
		return seqRef(seq)
	}
	return liveRef(o)
}

// record remembers that replaying the create-entry at sequence seq
// produced real oid o, for later resolve calls.
func (t *seqTable) record(seq int32, o oid.Oid) {
	t.bySeq[seq] = o
}

// resolve turns r back into a real oid during replay.
func (t *seqTable) resolve(r ref) oid.Oid {
	if r.live {
		return r.oid
	}
	return t.bySeq[r.seq]
}
