// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package schema

import (
	"github.com/opendb-core/odb/internal/dbset"
	"github.com/opendb-core/odb/internal/objtable"
	"github.com/opendb-core/odb/internal/odberr"
	"github.com/opendb-core/odb/internal/oid"
)

type LibRecord struct {
	hdr objtable.RecordHeader

	Name        string
	Prev, Next  oid.Id[Lib]
	MastersHead oid.Id[Master]
	SitesHead   oid.Id[Site]
}

func (r *LibRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// MasterRecord is a library cell definition (§3 "Lib / Master / MTerm /
// MPin / Site"). A Master is frozen after FreezeMaster is called; frozen
// masters reject mterm creation/deletion.
type MasterRecord struct {
	hdr objtable.RecordHeader

	Lib        oid.Id[Lib]
	Name       string
	Prev, Next oid.Id[Master]
	Frozen     bool
	MTermsHead oid.Id[MTerm]
	MTermCount int
	Width      int64
	Height     int64
}

func (r *MasterRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

type MTermRecord struct {
	hdr objtable.RecordHeader

	Master     oid.Id[Master]
	Name       string
	Index      int
	Prev, Next oid.Id[MTerm]
	SigType    SigType
	IOType     IOType
	MPinsHead  oid.Id[MPin]
}

func (r *MTermRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

type MPinRecord struct {
	hdr objtable.RecordHeader

	MTerm      oid.Id[MTerm]
	Prev, Next oid.Id[MPin]
	BoxesHead  oid.Id[Box]
}

func (r *MPinRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

type SiteRecord struct {
	hdr objtable.RecordHeader

	Lib        oid.Id[Lib]
	Name       string
	Prev, Next oid.Id[Site]
	Width      int64
	Height     int64
}

func (r *SiteRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// ---- chains ----

func (d *Database) libChain() dbset.ChainSet[oid.Id[Database], Lib] {
	return dbset.ChainSet[oid.Id[Database], Lib]{
		Head: dbset.ChainHead[oid.Id[Database], Lib]{
			Get: func(oid.Id[Database]) oid.Id[Lib] { return d.record().LibsHead },
			Set: func(_ oid.Id[Database], h oid.Id[Lib]) { d.record().LibsHead = h },
		},
		Links: dbset.ChainLinks[Lib]{
			Get: func(id oid.Id[Lib]) (oid.Id[Lib], oid.Id[Lib]) {
				r := d.lib.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Lib], prev, next oid.Id[Lib]) {
				r := d.lib.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) masterChain(lib oid.Id[Lib]) dbset.ChainSet[oid.Id[Lib], Master] {
	return dbset.ChainSet[oid.Id[Lib], Master]{
		Head: dbset.ChainHead[oid.Id[Lib], Master]{
			Get: func(l oid.Id[Lib]) oid.Id[Master] { return d.lib.MustGet(l.Oid()).MastersHead },
			Set: func(l oid.Id[Lib], h oid.Id[Master]) { d.lib.MustGet(l.Oid()).MastersHead = h },
		},
		Links: dbset.ChainLinks[Master]{
			Get: func(id oid.Id[Master]) (oid.Id[Master], oid.Id[Master]) {
				r := d.master.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Master], prev, next oid.Id[Master]) {
				r := d.master.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) mtermChain(master oid.Id[Master]) dbset.ChainSet[oid.Id[Master], MTerm] {
	return dbset.ChainSet[oid.Id[Master], MTerm]{
		Head: dbset.ChainHead[oid.Id[Master], MTerm]{
			Get: func(m oid.Id[Master]) oid.Id[MTerm] { return d.master.MustGet(m.Oid()).MTermsHead },
			Set: func(m oid.Id[Master], h oid.Id[MTerm]) { d.master.MustGet(m.Oid()).MTermsHead = h },
		},
		Links: dbset.ChainLinks[MTerm]{
			Get: func(id oid.Id[MTerm]) (oid.Id[MTerm], oid.Id[MTerm]) {
				r := d.mterm.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[MTerm], prev, next oid.Id[MTerm]) {
				r := d.mterm.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) mpinChain(mterm oid.Id[MTerm]) dbset.ChainSet[oid.Id[MTerm], MPin] {
	return dbset.ChainSet[oid.Id[MTerm], MPin]{
		Head: dbset.ChainHead[oid.Id[MTerm], MPin]{
			Get: func(m oid.Id[MTerm]) oid.Id[MPin] { return d.mterm.MustGet(m.Oid()).MPinsHead },
			Set: func(m oid.Id[MTerm], h oid.Id[MPin]) { d.mterm.MustGet(m.Oid()).MPinsHead = h },
		},
		Links: dbset.ChainLinks[MPin]{
			Get: func(id oid.Id[MPin]) (oid.Id[MPin], oid.Id[MPin]) {
				r := d.mpin.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[MPin], prev, next oid.Id[MPin]) {
				r := d.mpin.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) siteChain(lib oid.Id[Lib]) dbset.ChainSet[oid.Id[Lib], Site] {
	return dbset.ChainSet[oid.Id[Lib], Site]{
		Head: dbset.ChainHead[oid.Id[Lib], Site]{
			Get: func(l oid.Id[Lib]) oid.Id[Site] { return d.lib.MustGet(l.Oid()).SitesHead },
			Set: func(l oid.Id[Lib], h oid.Id[Site]) { d.lib.MustGet(l.Oid()).SitesHead = h },
		},
		Links: dbset.ChainLinks[Site]{
			Get: func(id oid.Id[Site]) (oid.Id[Site], oid.Id[Site]) {
				r := d.site.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Site], prev, next oid.Id[Site]) {
				r := d.site.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

// ---- creation/destruction ----

func (d *Database) CreateLib(name string) (oid.Id[Lib], error) {
	if !d.FindLib(name).IsNull() {
		return oid.NullId[Lib](), &odberr.NameCollisionError{Kind: "lib", Name: name}
	}
	rawID, rec := d.lib.Alloc()
	rec.Name = name
	id := oid.Make[Lib](rawID)
	d.libChain().PushFront(oid.NullId[Database](), id)
	return id, nil
}

func (d *Database) FindLib(name string) oid.Id[Lib] {
	for _, id := range d.Libs() {
		if d.lib.MustGet(id.Oid()).Name == name {
			return id
		}
	}
	return oid.NullId[Lib]()
}

func (d *Database) Libs() []oid.Id[Lib] {
	return dbset.Walk[oid.Id[Database], Lib](d.libChain(), oid.NullId[Database]())
}

func (d *Database) Lib(id oid.Id[Lib]) (*LibRecord, error) { return d.lib.Get(id.Oid()) }

func (d *Database) CreateMaster(lib oid.Id[Lib], name string, width, height int64) (oid.Id[Master], error) {
	if !d.FindMaster(lib, name).IsNull() {
		return oid.NullId[Master](), &odberr.NameCollisionError{Kind: "master", Name: name}
	}
	rawID, rec := d.master.Alloc()
	rec.Lib = lib
	rec.Name = name
	rec.Width, rec.Height = width, height
	id := oid.Make[Master](rawID)
	d.masterChain(lib).PushFront(lib, id)
	return id, nil
}

func (d *Database) FindMaster(lib oid.Id[Lib], name string) oid.Id[Master] {
	for _, id := range dbset.Walk[oid.Id[Lib], Master](d.masterChain(lib), lib) {
		if d.master.MustGet(id.Oid()).Name == name {
			return id
		}
	}
	return oid.NullId[Master]()
}

func (d *Database) Master(id oid.Id[Master]) (*MasterRecord, error) { return d.master.Get(id.Oid()) }

func (d *Database) Masters(lib oid.Id[Lib]) []oid.Id[Master] {
	return dbset.Walk[oid.Id[Lib], Master](d.masterChain(lib), lib)
}

// FreezeMaster locks master against further mterm creation/deletion (§3 Master).
func (d *Database) FreezeMaster(master oid.Id[Master]) {
	d.master.MustGet(master.Oid()).Frozen = true
}

// CreateMTerm appends an mterm, assigning it the next contiguous index.
// Returns a *odberr.FrozenMasterError (and a null id, per §7's recoverable
// "returns null" contract) if master is frozen.
func (d *Database) CreateMTerm(master oid.Id[Master], name string, sig SigType, io IOType) (oid.Id[MTerm], error) {
	mr := d.master.MustGet(master.Oid())
	if mr.Frozen {
		return oid.NullId[MTerm](), &odberr.FrozenMasterError{Master: mr.Name}
	}
	for _, id := range dbset.Walk[oid.Id[Master], MTerm](d.mtermChain(master), master) {
		if d.mterm.MustGet(id.Oid()).Name == name {
			return oid.NullId[MTerm](), &odberr.NameCollisionError{Kind: "mterm", Name: name}
		}
	}
	rawID, rec := d.mterm.Alloc()
	rec.Master = master
	rec.Name = name
	rec.SigType = sig
	rec.IOType = io
	rec.Index = mr.MTermCount
	mr.MTermCount++
	id := oid.Make[MTerm](rawID)
	// Append at tail so Index order matches chain order (useful for
	// diagnostics and deterministic wire dumps), mirroring Layer's
	// tail-append pattern.
	d.appendMTerm(master, id)
	return id, nil
}

func (d *Database) appendMTerm(master oid.Id[Master], id oid.Id[MTerm]) {
	mr := d.master.MustGet(master.Oid())
	if mr.MTermsHead.IsNull() {
		d.mtermChain(master).PushFront(master, id)
		return
	}
	tail := mr.MTermsHead
	for {
		r := d.mterm.MustGet(tail.Oid())
		if r.Next.IsNull() {
			break
		}
		tail = r.Next
	}
	tr := d.mterm.MustGet(tail.Oid())
	tr.Next = id
	d.mterm.MustGet(id.Oid()).Prev = tail
}

// DestroyMTerm removes mterm and renumbers the remaining mterms of the
// same master so indices stay contiguous (§3: "MTerm indices within a
// frozen master are stable [0..N-1]" — trivially true if they are always
// kept contiguous, including before freezing). Rejected on a frozen
// master.
func (d *Database) DestroyMTerm(mterm oid.Id[MTerm]) error {
	rec := d.mterm.MustGet(mterm.Oid())
	master := rec.Master
	mr := d.master.MustGet(master.Oid())
	if mr.Frozen {
		return &odberr.FrozenMasterError{Master: mr.Name}
	}
	d.mtermChain(master).Remove(master, mterm)
	if err := d.mterm.Free(mterm.Oid()); err != nil {
		return err
	}
	mr.MTermCount--
	idx := 0
	for id := mr.MTermsHead; !id.IsNull(); {
		r := d.mterm.MustGet(id.Oid())
		r.Index = idx
		idx++
		id = r.Next
	}
	return nil
}

func (d *Database) MTerm(id oid.Id[MTerm]) (*MTermRecord, error) { return d.mterm.Get(id.Oid()) }

func (d *Database) MTerms(master oid.Id[Master]) []oid.Id[MTerm] {
	return dbset.Walk[oid.Id[Master], MTerm](d.mtermChain(master), master)
}

// MTermByIndex finds the mterm at a stable index, used by Inst/ITerm's
// "implicit 1:1 with (Inst, MTerm); indexed inside the Inst by MTerm
// index" relationship (§3 ITerm).
func (d *Database) MTermByIndex(master oid.Id[Master], idx int) oid.Id[MTerm] {
	for _, id := range d.MTerms(master) {
		if d.mterm.MustGet(id.Oid()).Index == idx {
			return id
		}
	}
	return oid.NullId[MTerm]()
}

func (d *Database) CreateMPin(mterm oid.Id[MTerm]) oid.Id[MPin] {
	rawID, rec := d.mpin.Alloc()
	rec.MTerm = mterm
	id := oid.Make[MPin](rawID)
	d.mpinChain(mterm).PushFront(mterm, id)
	return id
}

func (d *Database) MPins(mterm oid.Id[MTerm]) []oid.Id[MPin] {
	return dbset.Walk[oid.Id[MTerm], MPin](d.mpinChain(mterm), mterm)
}

func (d *Database) CreateSite(lib oid.Id[Lib], name string, width, height int64) (oid.Id[Site], error) {
	for _, id := range dbset.Walk[oid.Id[Lib], Site](d.siteChain(lib), lib) {
		if d.site.MustGet(id.Oid()).Name == name {
			return oid.NullId[Site](), &odberr.NameCollisionError{Kind: "site", Name: name}
		}
	}
	rawID, rec := d.site.Alloc()
	rec.Lib, rec.Name, rec.Width, rec.Height = lib, name, width, height
	id := oid.Make[Site](rawID)
	d.siteChain(lib).PushFront(lib, id)
	return id, nil
}

func (d *Database) Sites(lib oid.Id[Lib]) []oid.Id[Site] {
	return dbset.Walk[oid.Id[Lib], Site](d.siteChain(lib), lib)
}

func (d *Database) Site(id oid.Id[Site]) (*SiteRecord, error) { return d.site.Get(id.Oid()) }
