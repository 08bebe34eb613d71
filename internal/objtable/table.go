// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package objtable implements the page heap and object table (§4.1): a
// tagged heap of fixed-size records grouped into pages, addressed by
// stable Oids, with O(1) alloc/get/free and a LIFO free list.
package objtable

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/opendb-core/odb/internal/odberr"
	"github.com/opendb-core/odb/internal/oid"
)

// DefaultPageCapacity is the number of records per page when a type doesn't
// override it. 256 keeps (header + 256*record) within a small multiple of
// a typical 4KiB VM page for record sizes in the tens-of-bytes range, per
// §4.1.
const DefaultPageCapacity = 256

// RecordHeader is embedded as the first field of every record stored in a
// Table. Used marks liveness; NextFree threads the free list through dead
// slots exactly as §4.1 describes.
type RecordHeader struct {
	Used     bool
	NextFree oid.Oid
}

func (h *RecordHeader) Hdr() *RecordHeader { return h }

// Record is the constraint every record type must satisfy: R is the
// concrete record struct, and PR (*R) must expose its embedded header.
type Record[R any] interface {
	*R
	Hdr() *RecordHeader
}

type page[R any] struct {
	slots [DefaultPageCapacity]R
}

// pageHintCache remembers the few most recently touched pages so repeat
// access to hot records (the common case: a small working set within a
// much larger heap) skips the pages-slice bounds check and indirection.
// Purely a hint: a miss falls back to the authoritative pages slice.
type pageHintCache[R any] struct {
	once  sync.Once
	inner *lru.ARCCache
}

func (c *pageHintCache[R]) init() {
	c.once.Do(func() {
		c.inner, _ = lru.NewARC(8)
	})
}

func (c *pageHintCache[R]) get(idx int) (*page[R], bool) {
	c.init()
	v, ok := c.inner.Get(idx)
	if !ok {
		return nil, false
	}
	return v.(*page[R]), true
}

func (c *pageHintCache[R]) add(idx int, p *page[R]) {
	c.init()
	c.inner.Add(idx, p)
}

// Table stores every record of one TypeTag. Pages are appended, never
// reallocated or moved, so a pointer returned by Get/Alloc remains valid
// until that record is freed or the table's owning Database is destroyed.
type Table[R any, PR Record[R]] struct {
	Tag       oid.TypeTag
	pages     []*page[R]
	pageHints pageHintCache[R]
	freeHead  oid.Oid
	live      int
	hw        int // highest id ever allocated (1-based; slot index is hw-1)

	// forceNext, when non-zero, is the id the next Alloc call must use
	// instead of the free list or hw+1. Set by SetForceNext.
	forceNext oid.Oid
}

// New creates an empty table for TypeTag tag.
func New[R any, PR Record[R]](tag oid.TypeTag) *Table[R, PR] {
	return &Table[R, PR]{Tag: tag}
}

func (t *Table[R, PR]) index(id oid.Oid) (pageIdx, slot int) {
	i := int(id) - 1
	return i / DefaultPageCapacity, i % DefaultPageCapacity
}

// Len returns the number of live records, i.e. size(table) from §4.1.
func (t *Table[R, PR]) Len() int { return t.live }

// slotPtr returns a pointer to the raw slot for id, growing the page
// vector if necessary. It does not check liveness.
func (t *Table[R, PR]) slotPtr(id oid.Oid) PR {
	pageIdx, slot := t.index(id)
	if p, ok := t.pageHints.get(pageIdx); ok {
		return PR(&p.slots[slot])
	}
	for pageIdx >= len(t.pages) {
		t.pages = append(t.pages, new(page[R]))
	}
	p := t.pages[pageIdx]
	t.pageHints.add(pageIdx, p)
	return PR(&p.slots[slot])
}

// SetForceNext makes the next Alloc call return id instead of consuming the
// free list or advancing the high-water mark. Used by stream.Read to
// restore records into the same slots a write previously assigned them
// (§4.4: ids round-trip as-is). The forced id's slot must not already be
// live; Alloc asserts this.
func (t *Table[R, PR]) SetForceNext(id oid.Oid) {
	t.forceNext = id
}

// Alloc allocates a new record, preferring a pending SetForceNext id, then
// the LIFO free list, then the high-water mark, and returns its id and a
// pointer to the zero-initialized (except for the header) record. The
// caller is responsible for filling in the payload and linking it into
// whatever owner chains the schema requires.
func (t *Table[R, PR]) Alloc() (oid.Oid, PR) {
	var id oid.Oid
	switch {
	case t.forceNext != oid.Null:
		id = t.forceNext
		t.forceNext = oid.Null
		odberr.Assert(!t.slotPtr(id).Hdr().Used, "%s: forced alloc(%v) of live slot", t.Tag, id)
		t.unlinkFree(id)
		if int(id) > t.hw {
			t.hw = int(id)
		}
	case t.freeHead != oid.Null:
		id = t.freeHead
		rec := t.slotPtr(id)
		t.freeHead = rec.Hdr().NextFree
	default:
		t.hw++
		id = oid.Oid(t.hw)
	}
	rec := t.slotPtr(id)
	var zero R
	*(*R)(rec) = zero
	rec.Hdr().Used = true
	t.live++
	return id, rec
}

// unlinkFree removes id from the free list if present, used when a forced
// alloc targets a slot that happens to currently sit on the free list
// (e.g. a hole below the high-water mark that a prior Free created).
func (t *Table[R, PR]) unlinkFree(id oid.Oid) {
	if t.freeHead == id {
		t.freeHead = t.slotPtr(id).Hdr().NextFree
		return
	}
	for cur := t.freeHead; cur != oid.Null; {
		rec := t.slotPtr(cur)
		next := rec.Hdr().NextFree
		if next == id {
			rec.Hdr().NextFree = t.slotPtr(id).Hdr().NextFree
			return
		}
		cur = next
	}
}

// Get returns the record for id, or an *odberr.AssertError if the slot is
// free (§4.1: "every get(id) of a free slot is a programmer error").
func (t *Table[R, PR]) Get(id oid.Oid) (PR, error) {
	if id == oid.Null {
		return nil, &odberr.AssertError{Msg: fmt.Sprintf("%s: get(null)", t.Tag)}
	}
	pageIdx, _ := t.index(id)
	if pageIdx >= len(t.pages) {
		return nil, &odberr.AssertError{Msg: fmt.Sprintf("%s: get(%v) out of range", t.Tag, id)}
	}
	rec := t.slotPtr(id)
	if !rec.Hdr().Used {
		return nil, &odberr.AssertError{Msg: fmt.Sprintf("%s: get(%v) of free slot", t.Tag, id)}
	}
	return rec, nil
}

// MustGet panics instead of returning an error; used internally once a
// caller has already established liveness (e.g. mid-iteration).
func (t *Table[R, PR]) MustGet(id oid.Oid) PR {
	rec, err := t.Get(id)
	if err != nil {
		panic(err)
	}
	return rec
}

// Free returns id's slot to the free list. Freeing an already-free or
// never-allocated id is a programmer error.
func (t *Table[R, PR]) Free(id oid.Oid) error {
	rec, err := t.Get(id)
	if err != nil {
		return err
	}
	rec.Hdr().Used = false
	rec.Hdr().NextFree = t.freeHead
	t.freeHead = id
	t.live--
	return nil
}

// Begin returns the smallest live id, or oid.Null if the table is empty.
func (t *Table[R, PR]) Begin() oid.Oid {
	return t.nextLiveFrom(1)
}

// Next returns the next larger live id after id, or oid.Null when
// exhausted. Iteration is sequential-in-id-order (§4.1).
func (t *Table[R, PR]) Next(id oid.Oid) oid.Oid {
	return t.nextLiveFrom(int(id) + 1)
}

func (t *Table[R, PR]) nextLiveFrom(rawStart int) oid.Oid {
	for raw := rawStart; raw <= t.hw; raw++ {
		id := oid.Oid(raw)
		pageIdx, _ := t.index(id)
		if pageIdx >= len(t.pages) {
			break
		}
		if t.slotPtr(id).Hdr().Used {
			return id
		}
	}
	return oid.Null
}

// All iterates every live id in ascending order, calling fn(id, record).
// Destroying the *current* record from within fn is legal (the iterator
// has already captured Next before fn runs in IterateMutable); destroying
// any other record is undefined per §4.2.
func (t *Table[R, PR]) All(fn func(oid.Oid, PR)) {
	for id := t.Begin(); id != oid.Null; id = t.Next(id) {
		fn(id, t.MustGet(id))
	}
}

// IterateMutable walks every live id, capturing the next id before
// invoking fn, so that fn may freely destroy the current record (the
// `destroy(iterator)` overload from §3's Lifecycle section).
func (t *Table[R, PR]) IterateMutable(fn func(oid.Oid, PR)) {
	id := t.Begin()
	for id != oid.Null {
		next := t.Next(id)
		fn(id, t.MustGet(id))
		id = next
	}
}
