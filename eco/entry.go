// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package eco

import "github.com/opendb-core/odb/schema"

// opCode discriminates a journal entry. Values are part of the on-disk
// format and must not be renumbered once a journal file exists in the
// wild.
type opCode uint8

const (
	opCreateNet opCode = iota
	opDestroyNet
	opRenameNet
	opNetFlags
	opCreateInst
	opDestroyInst
	opSwapMaster
	opMoveInst
	opConnectITerm
	opDisconnectITerm
	opCreateBTerm
	opDestroyBTerm
	opCreateVia
	opDestroyVia
)

// entry is one observed mutation (§4.7). Every entry carries only the
// fields its op needs to replay; the rest are left zero. A freshly
// created entity's own ref is implicit (the entry's position in the
// journal *is* its sequence number) — only refs to *other* entities
// (an existing net, a sibling inst) are carried explicitly.
type entry struct {
	op opCode

	net   ref
	name  string
	sig   schema.SigType

	special   bool
	dontTouch bool
	userFlags uint16

	inst       ref
	master     ref
	origin     schema.Point
	orient     schema.Orient

	mtermIndex int32

	bterm  ref
	ioType schema.IOType

	via     ref
	techVia ref
}

func writeEntry(w *ew, e *entry) {
	w.u8(uint8(e.op))
	switch e.op {
	case opCreateNet:
		w.str(e.name)
		w.u8(uint8(e.sig))
	case opDestroyNet:
		w.ref(e.net)
	case opRenameNet:
		w.ref(e.net)
		w.str(e.name)
	case opNetFlags:
		w.ref(e.net)
		w.boolean(e.special)
		w.boolean(e.dontTouch)
		w.u32(uint32(e.userFlags))
	case opCreateInst:
		w.str(e.name)
		w.ref(e.master)
	case opDestroyInst:
		w.ref(e.inst)
	case opSwapMaster:
		w.ref(e.inst)
		w.ref(e.master)
	case opMoveInst:
		w.ref(e.inst)
		w.i64(e.origin.X)
		w.i64(e.origin.Y)
		w.u8(uint8(e.orient))
	case opConnectITerm:
		w.ref(e.inst)
		w.i32(e.mtermIndex)
		w.ref(e.net)
	case opDisconnectITerm:
		w.ref(e.inst)
		w.i32(e.mtermIndex)
	case opCreateBTerm:
		w.ref(e.net)
		w.str(e.name)
		w.u8(uint8(e.ioType))
	case opDestroyBTerm:
		w.ref(e.bterm)
	case opCreateVia:
		w.str(e.name)
		w.ref(e.techVia)
	case opDestroyVia:
		w.ref(e.via)
	}
}

func readEntry(r *ecReader) *entry {
	e := &entry{op: opCode(r.u8())}
	switch e.op {
	case opCreateNet:
		e.name = r.str()
		e.sig = schema.SigType(r.u8())
	case opDestroyNet:
		e.net = r.ref()
	case opRenameNet:
		e.net = r.ref()
		e.name = r.str()
	case opNetFlags:
		e.net = r.ref()
		e.special = r.boolean()
		e.dontTouch = r.boolean()
		e.userFlags = uint16(r.u32())
	case opCreateInst:
		e.name = r.str()
		e.master = r.ref()
	case opDestroyInst:
		e.inst = r.ref()
	case opSwapMaster:
		e.inst = r.ref()
		e.master = r.ref()
	case opMoveInst:
		e.inst = r.ref()
		e.origin.X = r.i64()
		e.origin.Y = r.i64()
		e.orient = schema.Orient(r.u8())
	case opConnectITerm:
		e.inst = r.ref()
		e.mtermIndex = r.i32()
		e.net = r.ref()
	case opDisconnectITerm:
		e.inst = r.ref()
		e.mtermIndex = r.i32()
	case opCreateBTerm:
		e.net = r.ref()
		e.name = r.str()
		e.ioType = schema.IOType(r.u8())
	case opDestroyBTerm:
		e.bterm = r.ref()
	case opCreateVia:
		e.name = r.str()
		e.techVia = r.ref()
	case opDestroyVia:
		e.via = r.ref()
	}
	return e
}
