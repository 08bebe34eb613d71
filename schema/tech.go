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

// TechRecord is the single per-database Tech (§3 "Tech").
type TechRecord struct {
	hdr objtable.RecordHeader

	DBUPerMicron     int32
	LefVersion       string
	ManufacturingGrid int32
	CaseSensitive    bool

	LayersHead   oid.Id[Layer]
	TechViasHead oid.Id[TechVia]
	ViaRulesHead oid.Id[ViaRule]
	ViaGenRulesHead oid.Id[ViaGenRule]
	AntRulesHead oid.Id[AntennaRule]
	NextRouteLevel int32
}

func (r *TechRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// LayerRecord is one mask layer (§3 "Layer"). Layer ordering is dense from
// 1 to N (enforced by CreateLayer always appending), and routing-level
// layers form a contiguous ascending subsequence (enforced by only
// incrementing RouteLevel for layers created with isRouting=true).
type LayerRecord struct {
	hdr objtable.RecordHeader

	Tech         oid.Id[Tech]
	Name         string
	MaskNumber   int32
	RouteLevel   int32 // 0 if not a routing layer
	Prev, Next   oid.Id[Layer]
	RulesHead    oid.Id[LayerRule]
}

func (r *LayerRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// LayerRuleRecord is one generic rule-subtable entry owned by a Layer
// (§4.3; see RuleKind's doc comment for why one generic record is used
// rather than one Go type per C++ rule subtype).
type LayerRuleRecord struct {
	hdr objtable.RecordHeader

	Layer      oid.Id[Layer]
	Kind       RuleKind
	Prev, Next oid.Id[LayerRule]
	A, B, C, D int64 // generic numeric operands (e.g. min/max spacing, width range)
}

func (r *LayerRuleRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// TechViaRecord is a via template (§3 Via/glossary: "a tech-via template").
type TechViaRecord struct {
	hdr objtable.RecordHeader

	Tech       oid.Id[Tech]
	Name       string
	TopLayer   oid.Id[Layer]
	CutLayer   oid.Id[Layer]
	BotLayer   oid.Id[Layer]
	Prev, Next oid.Id[TechVia]
	BoxesHead  oid.Id[Box]
}

func (r *TechViaRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// ViaRuleRecord, ViaGenRuleRecord and AntennaRuleRecord are minimal named
// entities: spec.md §3 lists them among Tech's owned collections but
// neither elaborates their fields nor exercises them in a testable
// property (§8), so they carry just the shape needed for
// name-collision-checked creation. There are no destroy functions for
// them.
type ViaRuleRecord struct {
	hdr        objtable.RecordHeader
	Tech       oid.Id[Tech]
	Name       string
	Prev, Next oid.Id[ViaRule]
}

func (r *ViaRuleRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

type ViaGenRuleRecord struct {
	hdr        objtable.RecordHeader
	Tech       oid.Id[Tech]
	Name       string
	Prev, Next oid.Id[ViaGenRule]
}

func (r *ViaGenRuleRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

type AntennaRuleRecord struct {
	hdr        objtable.RecordHeader
	Tech       oid.Id[Tech]
	Name       string
	Prev, Next oid.Id[AntennaRule]
}

func (r *AntennaRuleRecord) Hdr() *objtable.RecordHeader { return &r.hdr }

// ---- chain sets ----

func (d *Database) layerChain(tech oid.Id[Tech]) dbset.ChainSet[oid.Id[Tech], Layer] {
	return dbset.ChainSet[oid.Id[Tech], Layer]{
		Head: dbset.ChainHead[oid.Id[Tech], Layer]{
			Get: func(t oid.Id[Tech]) oid.Id[Layer] { return d.tech.MustGet(t.Oid()).LayersHead },
			Set: func(t oid.Id[Tech], h oid.Id[Layer]) { d.tech.MustGet(t.Oid()).LayersHead = h },
		},
		Links: dbset.ChainLinks[Layer]{
			Get: func(id oid.Id[Layer]) (oid.Id[Layer], oid.Id[Layer]) {
				r := d.layer.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[Layer], prev, next oid.Id[Layer]) {
				r := d.layer.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) layerRuleChain(layer oid.Id[Layer]) dbset.ChainSet[oid.Id[Layer], LayerRule] {
	return dbset.ChainSet[oid.Id[Layer], LayerRule]{
		Head: dbset.ChainHead[oid.Id[Layer], LayerRule]{
			Get: func(l oid.Id[Layer]) oid.Id[LayerRule] { return d.layer.MustGet(l.Oid()).RulesHead },
			Set: func(l oid.Id[Layer], h oid.Id[LayerRule]) { d.layer.MustGet(l.Oid()).RulesHead = h },
		},
		Links: dbset.ChainLinks[LayerRule]{
			Get: func(id oid.Id[LayerRule]) (oid.Id[LayerRule], oid.Id[LayerRule]) {
				r := d.layerRule.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[LayerRule], prev, next oid.Id[LayerRule]) {
				r := d.layerRule.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

// ---- creation contracts ----

// CreateTech creates the database's single Tech. Calling it twice is a
// programmer error (§3: "Exactly one per open instance").
func (d *Database) CreateTech(dbuPerMicron int32, lefVersion string, manufacturingGrid int32) (oid.Id[Tech], error) {
	dr := d.record()
	if !dr.Tech.IsNull() {
		return oid.NullId[Tech](), &odberr.AssertError{Msg: "tech already created"}
	}
	rawID, rec := d.tech.Alloc()
	rec.DBUPerMicron = dbuPerMicron
	rec.LefVersion = lefVersion
	rec.ManufacturingGrid = manufacturingGrid
	id := oid.Make[Tech](rawID)
	dr.Tech = id
	return id, nil
}

func (d *Database) Tech() oid.Id[Tech] { return d.record().Tech }

func (d *Database) TechRecord(id oid.Id[Tech]) (*TechRecord, error) { return d.tech.Get(id.Oid()) }

// SetCaseSensitive sets the technology's name case-sensitivity flag,
// consulted by the name resolver when matching path segments (§4.8).
func (d *Database) SetCaseSensitive(tech oid.Id[Tech], sensitive bool) {
	d.tech.MustGet(tech.Oid()).CaseSensitive = sensitive
}

// CreateLayer appends a new layer at the end of the tech's layer order
// (dense ordering 1..N, §3 invariant). isRouting assigns the next
// contiguous routing level.
func (d *Database) CreateLayer(tech oid.Id[Tech], name string, isRouting bool) (oid.Id[Layer], error) {
	for id := d.layerChain(tech).Begin(tech); !id.IsNull(); id = d.layerChain(tech).Next(id) {
		if d.layer.MustGet(id.Oid()).Name == name {
			return oid.NullId[Layer](), &odberr.NameCollisionError{Kind: "layer", Name: name}
		}
	}
	tr := d.tech.MustGet(tech.Oid())
	rawID, rec := d.layer.Alloc()
	rec.Tech = tech
	rec.Name = name
	rec.MaskNumber = int32(d.layerChain(tech).Size(tech)) + 1
	if isRouting {
		tr.NextRouteLevel++
		rec.RouteLevel = tr.NextRouteLevel
	}
	id := oid.Make[Layer](rawID)
	// Append at tail to preserve mask-number order; ChainSet only offers
	// O(1) head insertion, so walk to the tail once (layer counts are
	// small — tens, not millions).
	head := tr.LayersHead
	if head.IsNull() {
		d.layerChain(tech).PushFront(tech, id)
	} else {
		tail := head
		for {
			r := d.layer.MustGet(tail.Oid())
			if r.Next.IsNull() {
				break
			}
			tail = r.Next
		}
		r := d.layer.MustGet(tail.Oid())
		r.Next = id
		rec.Prev = tail
	}
	return id, nil
}

func (d *Database) Layer(id oid.Id[Layer]) (*LayerRecord, error) { return d.layer.Get(id.Oid()) }

func (d *Database) Layers(tech oid.Id[Tech]) []oid.Id[Layer] {
	return dbset.Walk[oid.Id[Tech], Layer](d.layerChain(tech), tech)
}

// CreateLayerRule adds one rule-subtable entry to layer.
func (d *Database) CreateLayerRule(layer oid.Id[Layer], kind RuleKind, a, b, c, e int64) oid.Id[LayerRule] {
	rawID, rec := d.layerRule.Alloc()
	rec.Layer = layer
	rec.Kind = kind
	rec.A, rec.B, rec.C, rec.D = a, b, c, e
	id := oid.Make[LayerRule](rawID)
	d.layerRuleChain(layer).PushFront(layer, id)
	return id
}

func (d *Database) LayerRules(layer oid.Id[Layer]) []oid.Id[LayerRule] {
	return dbset.Walk[oid.Id[Layer], LayerRule](d.layerRuleChain(layer), layer)
}

func (d *Database) LayerRule(id oid.Id[LayerRule]) (*LayerRuleRecord, error) {
	return d.layerRule.Get(id.Oid())
}

// CreateTechVia creates a via template. destroyPreexisting dependents is
// not applicable here (no prior record to replace); re-creation under the
// same name is a collision per §4.3.
func (d *Database) CreateTechVia(tech oid.Id[Tech], name string, top, cut, bot oid.Id[Layer]) (oid.Id[TechVia], error) {
	for _, id := range d.TechVias(tech) {
		if d.techVia.MustGet(id.Oid()).Name == name {
			return oid.NullId[TechVia](), &odberr.NameCollisionError{Kind: "techvia", Name: name}
		}
	}
	rawID, rec := d.techVia.Alloc()
	rec.Tech = tech
	rec.Name = name
	rec.TopLayer, rec.CutLayer, rec.BotLayer = top, cut, bot
	id := oid.Make[TechVia](rawID)
	d.techViaChain(tech).PushFront(tech, id)
	return id, nil
}

func (d *Database) techViaChain(tech oid.Id[Tech]) dbset.ChainSet[oid.Id[Tech], TechVia] {
	return dbset.ChainSet[oid.Id[Tech], TechVia]{
		Head: dbset.ChainHead[oid.Id[Tech], TechVia]{
			Get: func(t oid.Id[Tech]) oid.Id[TechVia] { return d.tech.MustGet(t.Oid()).TechViasHead },
			Set: func(t oid.Id[Tech], h oid.Id[TechVia]) { d.tech.MustGet(t.Oid()).TechViasHead = h },
		},
		Links: dbset.ChainLinks[TechVia]{
			Get: func(id oid.Id[TechVia]) (oid.Id[TechVia], oid.Id[TechVia]) {
				r := d.techVia.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[TechVia], prev, next oid.Id[TechVia]) {
				r := d.techVia.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

func (d *Database) TechVias(tech oid.Id[Tech]) []oid.Id[TechVia] {
	return dbset.Walk[oid.Id[Tech], TechVia](d.techViaChain(tech), tech)
}

func (d *Database) TechVia(id oid.Id[TechVia]) (*TechViaRecord, error) { return d.techVia.Get(id.Oid()) }

func (d *Database) viaRuleChain(tech oid.Id[Tech]) dbset.ChainSet[oid.Id[Tech], ViaRule] {
	return dbset.ChainSet[oid.Id[Tech], ViaRule]{
		Head: dbset.ChainHead[oid.Id[Tech], ViaRule]{
			Get: func(t oid.Id[Tech]) oid.Id[ViaRule] { return d.tech.MustGet(t.Oid()).ViaRulesHead },
			Set: func(t oid.Id[Tech], h oid.Id[ViaRule]) { d.tech.MustGet(t.Oid()).ViaRulesHead = h },
		},
		Links: dbset.ChainLinks[ViaRule]{
			Get: func(id oid.Id[ViaRule]) (oid.Id[ViaRule], oid.Id[ViaRule]) {
				r := d.viaRule.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[ViaRule], prev, next oid.Id[ViaRule]) {
				r := d.viaRule.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

// CreateViaRule creates a named via generation rule on tech.
func (d *Database) CreateViaRule(tech oid.Id[Tech], name string) (oid.Id[ViaRule], error) {
	for _, id := range dbset.Walk[oid.Id[Tech], ViaRule](d.viaRuleChain(tech), tech) {
		if d.viaRule.MustGet(id.Oid()).Name == name {
			return oid.NullId[ViaRule](), &odberr.NameCollisionError{Kind: "viarule", Name: name}
		}
	}
	rawID, rec := d.viaRule.Alloc()
	rec.Tech, rec.Name = tech, name
	id := oid.Make[ViaRule](rawID)
	d.viaRuleChain(tech).PushFront(tech, id)
	return id, nil
}

func (d *Database) ViaRules(tech oid.Id[Tech]) []oid.Id[ViaRule] {
	return dbset.Walk[oid.Id[Tech], ViaRule](d.viaRuleChain(tech), tech)
}

func (d *Database) ViaRule(id oid.Id[ViaRule]) (*ViaRuleRecord, error) {
	return d.viaRule.Get(id.Oid())
}

func (d *Database) viaGenRuleChain(tech oid.Id[Tech]) dbset.ChainSet[oid.Id[Tech], ViaGenRule] {
	return dbset.ChainSet[oid.Id[Tech], ViaGenRule]{
		Head: dbset.ChainHead[oid.Id[Tech], ViaGenRule]{
			Get: func(t oid.Id[Tech]) oid.Id[ViaGenRule] { return d.tech.MustGet(t.Oid()).ViaGenRulesHead },
			Set: func(t oid.Id[Tech], h oid.Id[ViaGenRule]) { d.tech.MustGet(t.Oid()).ViaGenRulesHead = h },
		},
		Links: dbset.ChainLinks[ViaGenRule]{
			Get: func(id oid.Id[ViaGenRule]) (oid.Id[ViaGenRule], oid.Id[ViaGenRule]) {
				r := d.viaGenRule.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[ViaGenRule], prev, next oid.Id[ViaGenRule]) {
				r := d.viaGenRule.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

// CreateViaGenRule creates a named via-generate rule on tech.
func (d *Database) CreateViaGenRule(tech oid.Id[Tech], name string) (oid.Id[ViaGenRule], error) {
	for _, id := range dbset.Walk[oid.Id[Tech], ViaGenRule](d.viaGenRuleChain(tech), tech) {
		if d.viaGenRule.MustGet(id.Oid()).Name == name {
			return oid.NullId[ViaGenRule](), &odberr.NameCollisionError{Kind: "viagenrule", Name: name}
		}
	}
	rawID, rec := d.viaGenRule.Alloc()
	rec.Tech, rec.Name = tech, name
	id := oid.Make[ViaGenRule](rawID)
	d.viaGenRuleChain(tech).PushFront(tech, id)
	return id, nil
}

func (d *Database) ViaGenRules(tech oid.Id[Tech]) []oid.Id[ViaGenRule] {
	return dbset.Walk[oid.Id[Tech], ViaGenRule](d.viaGenRuleChain(tech), tech)
}

func (d *Database) ViaGenRule(id oid.Id[ViaGenRule]) (*ViaGenRuleRecord, error) {
	return d.viaGenRule.Get(id.Oid())
}

func (d *Database) antRuleChain(tech oid.Id[Tech]) dbset.ChainSet[oid.Id[Tech], AntennaRule] {
	return dbset.ChainSet[oid.Id[Tech], AntennaRule]{
		Head: dbset.ChainHead[oid.Id[Tech], AntennaRule]{
			Get: func(t oid.Id[Tech]) oid.Id[AntennaRule] { return d.tech.MustGet(t.Oid()).AntRulesHead },
			Set: func(t oid.Id[Tech], h oid.Id[AntennaRule]) { d.tech.MustGet(t.Oid()).AntRulesHead = h },
		},
		Links: dbset.ChainLinks[AntennaRule]{
			Get: func(id oid.Id[AntennaRule]) (oid.Id[AntennaRule], oid.Id[AntennaRule]) {
				r := d.antRule.MustGet(id.Oid())
				return r.Prev, r.Next
			},
			Set: func(id oid.Id[AntennaRule], prev, next oid.Id[AntennaRule]) {
				r := d.antRule.MustGet(id.Oid())
				r.Prev, r.Next = prev, next
			},
		},
	}
}

// CreateAntennaRule creates a named antenna rule on tech.
func (d *Database) CreateAntennaRule(tech oid.Id[Tech], name string) (oid.Id[AntennaRule], error) {
	for _, id := range dbset.Walk[oid.Id[Tech], AntennaRule](d.antRuleChain(tech), tech) {
		if d.antRule.MustGet(id.Oid()).Name == name {
			return oid.NullId[AntennaRule](), &odberr.NameCollisionError{Kind: "antennarule", Name: name}
		}
	}
	rawID, rec := d.antRule.Alloc()
	rec.Tech, rec.Name = tech, name
	id := oid.Make[AntennaRule](rawID)
	d.antRuleChain(tech).PushFront(tech, id)
	return id, nil
}

func (d *Database) AntennaRules(tech oid.Id[Tech]) []oid.Id[AntennaRule] {
	return dbset.Walk[oid.Id[Tech], AntennaRule](d.antRuleChain(tech), tech)
}

func (d *Database) AntennaRule(id oid.Id[AntennaRule]) (*AntennaRuleRecord, error) {
	return d.antRule.Get(id.Oid())
}
