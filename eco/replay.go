// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package eco

import (
	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/schema"
)

// Replay applies a committed journal's entries, in order, to db against
// block (§4.7 "applying a committed journal to a database that is
// bit-identical to the one at beginEco produces a database bit-identical
// to the one at endEco"). Replay is undefined — and not guarded against —
// if db has diverged from that base, matching the spec's contract.
func Replay(db *schema.Database, block oid.Id[schema.Block], entries []*entry) error {
	nets := newSeqTable()
	insts := newSeqTable()
	bterms := newSeqTable()
	vias := newSeqTable()

	for _, e := range entries {
		switch e.op {
		case opCreateNet:
			id, err := db.CreateNet(block, e.name, e.sig)
			if err != nil {
				return err
			}
			nets.record(nets.assign(id.Oid()), id.Oid())

		case opDestroyNet:
			if err := db.DestroyNet(oid.Make[schema.Net](nets.resolve(e.net))); err != nil {
				return err
			}

		case opRenameNet:
			if err := db.RenameNet(oid.Make[schema.Net](nets.resolve(e.net)), e.name); err != nil {
				return err
			}

		case opNetFlags:
			net := oid.Make[schema.Net](nets.resolve(e.net))
			db.SetNetSpecial(net, e.special)
			db.SetNetDontTouch(net, e.dontTouch)
			db.SetNetUserFlags(net, e.userFlags)

		case opCreateInst:
			master := oid.Make[schema.Master](e.master.oid)
			id, err := db.CreateInst(block, e.name, master)
			if err != nil {
				return err
			}
			insts.record(insts.assign(id.Oid()), id.Oid())

		case opDestroyInst:
			if err := db.DestroyInst(oid.Make[schema.Inst](insts.resolve(e.inst))); err != nil {
				return err
			}

		case opSwapMaster:
			inst := oid.Make[schema.Inst](insts.resolve(e.inst))
			master := oid.Make[schema.Master](e.master.oid)
			db.SwapMaster(inst, master)

		case opMoveInst:
			inst := oid.Make[schema.Inst](insts.resolve(e.inst))
			db.SetLocation(inst, e.origin, e.orient)

		case opConnectITerm:
			inst := oid.Make[schema.Inst](insts.resolve(e.inst))
			iterm := db.ITerm(inst, int(e.mtermIndex))
			net := oid.Make[schema.Net](nets.resolve(e.net))
			db.ConnectITerm(iterm, net)

		case opDisconnectITerm:
			inst := oid.Make[schema.Inst](insts.resolve(e.inst))
			iterm := db.ITerm(inst, int(e.mtermIndex))
			db.DisconnectITerm(iterm)

		case opCreateBTerm:
			net := oid.Make[schema.Net](nets.resolve(e.net))
			id, err := db.CreateBTerm(net, e.name, e.ioType)
			if err != nil {
				return err
			}
			bterms.record(bterms.assign(id.Oid()), id.Oid())

		case opDestroyBTerm:
			if err := db.DestroyBTerm(oid.Make[schema.BTerm](bterms.resolve(e.bterm))); err != nil {
				return err
			}

		case opCreateVia:
			techVia := oid.Make[schema.TechVia](e.techVia.oid)
			id := db.CreateVia(block, e.name, techVia)
			vias.record(vias.assign(id.Oid()), id.Oid())

		case opDestroyVia:
			if err := db.DestroyVia(oid.Make[schema.Via](vias.resolve(e.via))); err != nil {
				return err
			}
		}
	}
	return nil
}
