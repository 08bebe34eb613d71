// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package eco implements the ECO (engineering change order) journal (C9,
// §4.7): a side log of structural mutations to one Block's netlist that
// can be recorded, committed, diffed, and replayed against an identical
// base snapshot. A Journal attaches to a schema.Database as a
// schema.Observer; while Recording, every observed mutation is appended
// as a minimal entry instead of being applied directly (the mutation
// itself already happened — the journal only remembers it).
package eco

import (
	"github.com/opendb-core/odb/internal/odberr"
	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/schema"
)

// State is the Journal's recording state machine (§4.7).
type State uint8

const (
	NotRecording State = iota
	Recording
	Committing
)

func (s State) String() string {
	switch s {
	case NotRecording:
		return "not-recording"
	case Recording:
		return "recording"
	case Committing:
		return "committing"
	default:
		return "unknown"
	}
}

// Journal records mutations to one Block. The zero value is a valid,
// NotRecording, empty Journal.
type Journal struct {
	schema.BaseObserver

	db    *schema.Database
	block oid.Id[schema.Block]
	state State

	entries []*entry

	nets   *seqTable
	insts  *seqTable
	bterms *seqTable
	vias   *seqTable
}

var _ schema.Observer = (*Journal)(nil)

// New returns an empty, NotRecording Journal over db.
func New(db *schema.Database) *Journal {
	return &Journal{db: db}
}

// Empty reports whether the buffer holds no entries (§4.7 ecoEmpty()).
func (j *Journal) Empty() bool { return len(j.entries) == 0 }

// Entries returns the currently buffered entries, for WriteEco or Replay.
// The slice is owned by the Journal; callers must not mutate it.
func (j *Journal) Entries() []*entry { return j.entries }

// CurrentState returns the current recording state.
func (j *Journal) CurrentState() State { return j.state }

// Begin starts recording mutations to block (§4.7 beginEco(block),
// Not->Rec). It is an error to call Begin while already Recording or
// with a non-empty buffer from a prior, uncommitted recording.
func (j *Journal) Begin(block oid.Id[schema.Block]) error {
	if j.state != NotRecording {
		return &odberr.AssertError{Msg: "beginEco: journal is not in NotRecording state"}
	}
	if !j.Empty() {
		return &odberr.AssertError{Msg: "beginEco: journal has an uncommitted buffer"}
	}
	j.block = block
	j.nets = newSeqTable()
	j.insts = newSeqTable()
	j.bterms = newSeqTable()
	j.vias = newSeqTable()
	j.state = Recording
	j.db.AddObserver(j)
	return nil
}

// End stops recording (§4.7 endEco(block), Rec->Not); the buffered
// entries are retained until Commit or Abort.
func (j *Journal) End() error {
	if j.state != Recording {
		return &odberr.AssertError{Msg: "endEco: journal is not Recording"}
	}
	j.db.RemoveObserver(j)
	j.state = NotRecording
	return nil
}

// Commit finalizes the buffered journal and clears the buffer (§4.7
// commitEco(block), Not(with buffered)->Not(empty)), returning the
// finalized entries' count. The caller persists the journal with WriteEco
// before calling Commit if it needs to survive process exit, since Commit
// discards the in-memory buffer.
func (j *Journal) Commit() (int, error) {
	if j.state != NotRecording {
		return 0, &odberr.AssertError{Msg: "commitEco: journal is Recording"}
	}
	if j.Empty() {
		return 0, &odberr.AssertError{Msg: "commitEco: journal is empty"}
	}
	j.state = Committing
	n := len(j.entries)
	j.entries = nil
	j.state = NotRecording
	return n, nil
}

// Abort discards the buffered entries without applying or persisting
// them, the rollback path implied by §4.7's overview ("begun, committed,
// rolled back, diffed, and replayed").
func (j *Journal) Abort() error {
	if j.state != NotRecording {
		return &odberr.AssertError{Msg: "abortEco: journal is Recording"}
	}
	j.entries = nil
	return nil
}

func (j *Journal) append(e *entry) {
	if j.state != Recording {
		return
	}
	j.entries = append(j.entries, e)
}

// ---- schema.Observer ----

func (j *Journal) NetCreated(net oid.Id[schema.Net]) {
	r, err := j.db.Net(net)
	if err != nil {
		return
	}
	j.nets.assign(net.Oid())
	j.append(&entry{op: opCreateNet, name: r.Name, sig: r.SigType})
}

func (j *Journal) NetDestroyed(net oid.Id[schema.Net]) {
	j.append(&entry{op: opDestroyNet, net: j.nets.ref(net.Oid())})
}

func (j *Journal) NetRenamed(net oid.Id[schema.Net], oldName string) {
	r, err := j.db.Net(net)
	if err != nil {
		return
	}
	j.append(&entry{op: opRenameNet, net: j.nets.ref(net.Oid()), name: r.Name})
}

func (j *Journal) NetFlagsChanged(net oid.Id[schema.Net]) {
	r, err := j.db.Net(net)
	if err != nil {
		return
	}
	j.append(&entry{
		op: opNetFlags, net: j.nets.ref(net.Oid()),
		special: r.Special, dontTouch: r.DontTouch, userFlags: r.UserFlags,
	})
}

func (j *Journal) InstCreated(inst oid.Id[schema.Inst]) {
	r, err := j.db.Inst(inst)
	if err != nil {
		return
	}
	j.insts.assign(inst.Oid())
	j.append(&entry{op: opCreateInst, name: r.Name, master: liveRef(r.Master.Oid())})
}

func (j *Journal) InstDestroyed(inst oid.Id[schema.Inst]) {
	j.append(&entry{op: opDestroyInst, inst: j.insts.ref(inst.Oid())})
}

func (j *Journal) InstSwapped(inst oid.Id[schema.Inst], oldMaster oid.Id[schema.Master]) {
	r, err := j.db.Inst(inst)
	if err != nil {
		return
	}
	j.append(&entry{op: opSwapMaster, inst: j.insts.ref(inst.Oid()), master: liveRef(r.Master.Oid())})
}

func (j *Journal) InstMoved(inst oid.Id[schema.Inst], oldOrigin schema.Point, oldOrient schema.Orient) {
	r, err := j.db.Inst(inst)
	if err != nil {
		return
	}
	j.append(&entry{op: opMoveInst, inst: j.insts.ref(inst.Oid()), origin: r.Origin, orient: r.Orient})
}

func (j *Journal) ITermConnected(iterm oid.Id[schema.ITerm], net oid.Id[schema.Net]) {
	ir, err := j.db.ITermRec(iterm)
	if err != nil {
		return
	}
	j.append(&entry{
		op: opConnectITerm,
		inst: j.insts.ref(ir.Inst.Oid()), mtermIndex: int32(ir.MTermIndex),
		net: j.nets.ref(net.Oid()),
	})
}

func (j *Journal) ITermDisconnected(iterm oid.Id[schema.ITerm], oldNet oid.Id[schema.Net]) {
	ir, err := j.db.ITermRec(iterm)
	if err != nil {
		return
	}
	j.append(&entry{
		op: opDisconnectITerm,
		inst: j.insts.ref(ir.Inst.Oid()), mtermIndex: int32(ir.MTermIndex),
	})
}

func (j *Journal) BTermCreated(bterm oid.Id[schema.BTerm]) {
	r, err := j.db.BTerm(bterm)
	if err != nil {
		return
	}
	j.bterms.assign(bterm.Oid())
	j.append(&entry{op: opCreateBTerm, net: j.nets.ref(r.Net.Oid()), name: r.Name, ioType: r.IOType})
}

func (j *Journal) BTermDestroyed(bterm oid.Id[schema.BTerm]) {
	j.append(&entry{op: opDestroyBTerm, bterm: j.bterms.ref(bterm.Oid())})
}

func (j *Journal) ViaCreated(via oid.Id[schema.Via]) {
	r, err := j.db.Via(via)
	if err != nil {
		return
	}
	j.vias.assign(via.Oid())
	j.append(&entry{op: opCreateVia, name: r.Name, techVia: liveRef(r.TechVia.Oid())})
}

func (j *Journal) ViaDestroyed(via oid.Id[schema.Via]) {
	j.append(&entry{op: opDestroyVia, via: j.vias.ref(via.Oid())})
}
