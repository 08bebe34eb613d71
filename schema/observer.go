// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package schema

import "github.com/opendb-core/odb/internal/oid"

// Observer is the structural-notification interface named in §6: external
// collaborators (and the ECO journal, C9) implement it to be told about
// changes to a Block's netlist as they happen, without polling. Every
// method is a no-op to implement, so an embedder only overrides the
// events it cares about (see eco.Journal for the canonical non-trivial
// implementation).
type Observer interface {
	NetCreated(net oid.Id[Net])
	NetDestroyed(net oid.Id[Net])
	NetRenamed(net oid.Id[Net], oldName string)
	NetFlagsChanged(net oid.Id[Net])
	InstCreated(inst oid.Id[Inst])
	InstDestroyed(inst oid.Id[Inst])
	InstSwapped(inst oid.Id[Inst], oldMaster oid.Id[Master])
	InstMoved(inst oid.Id[Inst], oldOrigin Point, oldOrient Orient)
	ITermConnected(iterm oid.Id[ITerm], net oid.Id[Net])
	ITermDisconnected(iterm oid.Id[ITerm], oldNet oid.Id[Net])
	BTermCreated(bterm oid.Id[BTerm])
	BTermDestroyed(bterm oid.Id[BTerm])
	ViaCreated(via oid.Id[Via])
	ViaDestroyed(via oid.Id[Via])
}

// BaseObserver implements every Observer method as a no-op; embed it to
// override only the events of interest.
type BaseObserver struct{}

func (BaseObserver) NetCreated(oid.Id[Net])                           {}
func (BaseObserver) NetDestroyed(oid.Id[Net])                         {}
func (BaseObserver) NetRenamed(oid.Id[Net], string)                   {}
func (BaseObserver) NetFlagsChanged(oid.Id[Net])                      {}
func (BaseObserver) InstCreated(oid.Id[Inst])                         {}
func (BaseObserver) InstDestroyed(oid.Id[Inst])                       {}
func (BaseObserver) InstSwapped(oid.Id[Inst], oid.Id[Master])         {}
func (BaseObserver) InstMoved(oid.Id[Inst], Point, Orient)            {}
func (BaseObserver) ITermConnected(oid.Id[ITerm], oid.Id[Net])        {}
func (BaseObserver) ITermDisconnected(oid.Id[ITerm], oid.Id[Net])     {}
func (BaseObserver) BTermCreated(oid.Id[BTerm])                       {}
func (BaseObserver) BTermDestroyed(oid.Id[BTerm])                     {}
func (BaseObserver) ViaCreated(oid.Id[Via])                           {}
func (BaseObserver) ViaDestroyed(oid.Id[Via])                         {}
