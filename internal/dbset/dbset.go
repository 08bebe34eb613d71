// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package dbset implements the set/iterator protocol (§4.2): a uniform way
// to walk owner->children relations without materializing child vectors,
// in either chain-threaded or table-scan form. Grounded on
// original_source's dbIterator.h (the abstract iterator base all OpenDB
// collections implement) and dbSet.h (the concrete reversible/sequential
// capability split).
package dbset

import (
	"golang.org/x/exp/slices"

	"github.com/opendb-core/odb/internal/oid"
)

// Iterator is the minimal capability every concrete set provides.
type Iterator[Owner any, T any] interface {
	Size(owner Owner) int
	Begin(owner Owner) oid.Id[T]
	End() oid.Id[T]
	Next(cur oid.Id[T]) oid.Id[T]
}

// Reverser is the optional capability named in §4.2: flipping traversal
// order by swapping prev/next roles. Implementing it mutates the chain.
type Reverser[Owner any] interface {
	Reverse(owner Owner)
}

// Sequencer is the optional capability that returns the largest id
// currently in an owner's set, letting external code size dense auxiliary
// arrays without a full walk.
type Sequencer[Owner any, T any] interface {
	Sequential(owner Owner) oid.Id[T]
}

// ChainLinks is how a ChainSet reaches into a record's chain-pointer
// fields. A record participates in as many chains as it has distinct
// ChainLinks-shaped pairs of fields (§3: "a Box lives in the block's box
// set AND its layer's box set AND its owner's box set").
type ChainLinks[T any] struct {
	Get func(id oid.Id[T]) (prev, next oid.Id[T])
	Set func(id oid.Id[T], prev, next oid.Id[T])
}

// ChainHead is how a ChainSet reaches into the owner's head-of-chain
// field.
type ChainHead[Owner any, T any] struct {
	Get func(owner Owner) oid.Id[T]
	Set func(owner Owner, head oid.Id[T])
}

// ChainSet is the majority family from §4.2: traversal follows per-record
// next/prev fields that are part of the owner relation's chain, giving
// O(1) head-insertion and O(1) deletion given the id.
type ChainSet[Owner any, T any] struct {
	Head  ChainHead[Owner, T]
	Links ChainLinks[T]
}

var _ Iterator[struct{}, struct{}] = ChainSet[struct{}, struct{}]{}
var _ Reverser[struct{}] = ChainSet[struct{}, struct{}]{}
var _ Sequencer[struct{}, struct{}] = ChainSet[struct{}, struct{}]{}

func (s ChainSet[Owner, T]) Begin(owner Owner) oid.Id[T] { return s.Head.Get(owner) }
func (s ChainSet[Owner, T]) End() oid.Id[T]               { return oid.NullId[T]() }

func (s ChainSet[Owner, T]) Next(cur oid.Id[T]) oid.Id[T] {
	_, next := s.Links.Get(cur)
	return next
}

func (s ChainSet[Owner, T]) Size(owner Owner) int {
	n := 0
	for id := s.Begin(owner); !id.IsNull(); id = s.Next(id) {
		n++
	}
	return n
}

// Sequential returns the largest id reachable from owner's chain, per the
// optional Sequencer capability (§4.2).
func (s ChainSet[Owner, T]) Sequential(owner Owner) oid.Id[T] {
	var max oid.Id[T]
	for id := s.Begin(owner); !id.IsNull(); id = s.Next(id) {
		if id.Oid() > max.Oid() {
			max = id
		}
	}
	return max
}

// PushFront inserts id at the head of owner's chain in O(1), the standard
// insertion mode for intrusive chains per §4.2.
func (s ChainSet[Owner, T]) PushFront(owner Owner, id oid.Id[T]) {
	oldHead := s.Head.Get(owner)
	s.Links.Set(id, oid.NullId[T](), oldHead)
	if !oldHead.IsNull() {
		oldPrev, oldNext := s.Links.Get(oldHead)
		s.Links.Set(oldHead, id, oldNext)
		_ = oldPrev
	}
	s.Head.Set(owner, id)
}

// Remove unlinks id from owner's chain in O(1) given id's own prev/next
// fields; it does not free id's slot (that is the caller's/schema's job).
func (s ChainSet[Owner, T]) Remove(owner Owner, id oid.Id[T]) {
	prev, next := s.Links.Get(id)
	if prev.IsNull() {
		s.Head.Set(owner, next)
	} else {
		pPrev, _ := s.Links.Get(prev)
		s.Links.Set(prev, pPrev, next)
	}
	if !next.IsNull() {
		_, nNext := s.Links.Get(next)
		s.Links.Set(next, prev, nNext)
	}
	s.Links.Set(id, oid.NullId[T](), oid.NullId[T]())
}

// Reverse flips every prev/next pair in owner's chain and repoints the
// head at the old tail, implementing the optional Reverser capability.
func (s ChainSet[Owner, T]) Reverse(owner Owner) {
	ids := Walk[Owner, T](s, owner)
	slices.Reverse(ids)
	for i, id := range ids {
		var prev, next oid.Id[T]
		if i > 0 {
			prev = ids[i-1]
		}
		if i+1 < len(ids) {
			next = ids[i+1]
		}
		s.Links.Set(id, prev, next)
	}
	if len(ids) > 0 {
		s.Head.Set(owner, ids[0])
	}
}

// Walk is a convenience that collects every id in an Iterator[Owner,T]
// into a slice. It exists for tests and diagnostics, not hot paths.
func Walk[Owner any, T any](it Iterator[Owner, T], owner Owner) []oid.Id[T] {
	var out []oid.Id[T]
	for id := it.Begin(owner); !id.IsNull(); id = it.Next(id) {
		out = append(out, id)
	}
	return slices.Clip(out)
}

// TableScanner adapts a table-like source (anything with Begin/Next over
// all live ids of a type, e.g. *objtable.Table) into the minority "scan
// set" family from §4.2: traversal walks the table's liveness in id
// order, ignoring Owner entirely (every live record of the type is a
// member). It is used for e.g. "all Layers of a Tech" where there is
// exactly one owner per table, or "all Nets in a Database" diagnostics.
type TableScanner[T any] struct {
	BeginFn func() oid.Id[T]
	NextFn  func(oid.Id[T]) oid.Id[T]
	LenFn   func() int
}

func (s TableScanner[T]) Begin(struct{}) oid.Id[T]          { return s.BeginFn() }
func (s TableScanner[T]) End() oid.Id[T]                    { return oid.NullId[T]() }
func (s TableScanner[T]) Next(cur oid.Id[T]) oid.Id[T]      { return s.NextFn(cur) }
func (s TableScanner[T]) Size(struct{}) int                 { return s.LenFn() }

var _ Iterator[struct{}, struct{}] = TableScanner[struct{}]{}
