// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package eco

import (
	"bytes"
	"fmt"

	"git.lukeshu.com/go/lowmemjson"
	"github.com/davecgh/go-spew/spew"

	"github.com/opendb-core/odb/internal/objtable"
	"github.com/opendb-core/odb/internal/oid"
	"github.com/opendb-core/odb/schema"
	"github.com/opendb-core/odb/stream"
)

// dumpConfig renders full-record dumps for the "differs" reports below,
// following the teacher's spew.NewDefaultConfig/DisablePointerAddresses
// convention so two dumps of otherwise-equal records compare equal too.
var dumpConfig = &spew.ConfigState{DisablePointerAddresses: true, DisableCapacities: true}

// Diff walks db0 and db1 in lockstep, block by block, and reports the
// differences it finds in a human-readable report (§4.7). It compares chip
// presence, the block list (count and oids, in order), and for each block
// its nets (name, sig-type, flags, and the number of bterms and connected
// iterms), its insts (name, master, placement, status) and its vias (name,
// tech via). Tech, libs, wires, shapes, the RC network and properties are
// not compared, and bterm/iterm chains are compared by count only. It
// assumes both databases descend from the same base via the same sequence
// of operations, as Replay's contract guarantees, so corresponding entities
// share the same oid; nets, insts and vias are matched by oid, not by
// chain position. An empty return means no difference was found in the
// compared fields.
func Diff(db0, db1 *schema.Database) []string {
	var report []string
	note := func(format string, args ...any) {
		report = append(report, fmt.Sprintf(format, args...))
	}

	chip0, chip1 := db0.Chip(), db1.Chip()
	if chip0.IsNull() != chip1.IsNull() {
		note("chip presence differs")
		return report
	}
	if chip0.IsNull() {
		return report
	}

	blocks0 := stream.BlocksOf(db0, chip0)
	blocks1 := stream.BlocksOf(db1, chip1)
	if len(blocks0) != len(blocks1) {
		note("block count differs: %d vs %d", len(blocks0), len(blocks1))
		return report
	}

	for i, b0 := range blocks0 {
		b1 := blocks1[i]
		if b0.Oid() != b1.Oid() {
			note("block #%d: oid differs (%s vs %s)", i, b0, b1)
			continue
		}
		diffNets(db0, db1, b0, &report)
		diffInsts(db0, db1, b0, &report)
		diffVias(db0, db1, b0, &report)
	}
	return report
}

// DiffJSON renders Diff's report as a JSON array of strings, for
// machine-readable consumption by CI or other tooling driving odb-eco.
func DiffJSON(db0, db1 *schema.Database) ([]byte, error) {
	report := Diff(db0, db1)
	var buf bytes.Buffer
	err := lowmemjson.Encode(&lowmemjson.ReEncoder{
		Out:                   &buf,
		Indent:                "\t",
		ForceTrailingNewlines: true,
	}, report)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func diffNets(db0, db1 *schema.Database, block oid.Id[schema.Block], report *[]string) {
	note := func(format string, args ...any) { *report = append(*report, fmt.Sprintf(format, args...)) }

	n0, n1 := db0.Nets(block), db1.Nets(block)
	if len(n0) != len(n1) {
		note("block %s: net count differs: %d vs %d", block, len(n0), len(n1))
		return
	}
	seen := objtable.NewMap[schema.Net, bool]()
	for _, id := range n0 {
		seen.Set(id, true)
	}
	for _, id := range n1 {
		if _, ok := seen.Get(id); !ok {
			note("net %s: present in db1 only", id)
		}
	}
	for _, id := range n0 {
		r0, err0 := db0.Net(id)
		r1, err1 := db1.Net(id)
		if err1 != nil {
			note("net %s: missing in db1", id)
			continue
		}
		if err0 != nil {
			continue
		}
		if r0.Name != r1.Name {
			note("net %s: name differs: %q vs %q", id, r0.Name, r1.Name)
		}
		if r0.SigType != r1.SigType {
			note("net %s: sig-type differs: %v vs %v", id, r0.SigType, r1.SigType)
		}
		if r0.Special != r1.Special || r0.DontTouch != r1.DontTouch || r0.UserFlags != r1.UserFlags {
			note("net %s: flags differ", id)
		}

		bt0, bt1 := db0.BTerms(id), db1.BTerms(id)
		if len(bt0) != len(bt1) {
			note("net %s: bterm count differs: %d vs %d", id, len(bt0), len(bt1))
		}
		it0, it1 := db0.NetITerms(id), db1.NetITerms(id)
		if len(it0) != len(it1) {
			note("net %s: connected iterm count differs: %d vs %d", id, len(it0), len(it1))
		}
	}
}

func diffInsts(db0, db1 *schema.Database, block oid.Id[schema.Block], report *[]string) {
	note := func(format string, args ...any) { *report = append(*report, fmt.Sprintf(format, args...)) }

	i0, i1 := db0.Insts(block), db1.Insts(block)
	if len(i0) != len(i1) {
		note("block %s: inst count differs: %d vs %d", block, len(i0), len(i1))
		return
	}
	for _, id := range i0 {
		r0, err0 := db0.Inst(id)
		r1, err1 := db1.Inst(id)
		if err1 != nil {
			note("inst %s: missing in db1", id)
			continue
		}
		if err0 != nil {
			continue
		}
		if r0.Name != r1.Name {
			note("inst %s: name differs: %q vs %q", id, r0.Name, r1.Name)
		}
		if r0.Master.Oid() != r1.Master.Oid() {
			note("inst %s: master differs: %s vs %s", id, r0.Master, r1.Master)
		}
		if r0.Origin != r1.Origin || r0.Orient != r1.Orient {
			note("inst %s: placement differs: (%v,%v) vs (%v,%v)", id, r0.Origin, r0.Orient, r1.Origin, r1.Orient)
		}
		if r0.Status != r1.Status {
			note("inst %s: placement status differs: %v vs %v", id, r0.Status, r1.Status)
		}
	}
}

func diffVias(db0, db1 *schema.Database, block oid.Id[schema.Block], report *[]string) {
	note := func(format string, args ...any) { *report = append(*report, fmt.Sprintf(format, args...)) }

	v0, v1 := db0.Vias(block), db1.Vias(block)
	if len(v0) != len(v1) {
		note("block %s: via count differs: %d vs %d", block, len(v0), len(v1))
		return
	}
	for _, id := range v0 {
		r0, err0 := db0.Via(id)
		r1, err1 := db1.Via(id)
		if err1 != nil {
			note("via %s: missing in db1", id)
			continue
		}
		if err0 != nil {
			continue
		}
		if r0.Name != r1.Name || r0.TechVia.Oid() != r1.TechVia.Oid() {
			note("via %s: differs\n--- db0 ---\n%s--- db1 ---\n%s", id, dumpConfig.Sdump(r0), dumpConfig.Sdump(r1))
		}
	}
}
