// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package registry implements the process-wide session/namespace registry
// (C12, §4.10): a single-threaded-by-contract map of every live database
// to a unique global name, used by the name resolver to turn
// "/Dmychip/..." path prefixes into a concrete *schema.Database.
package registry

import (
	"fmt"
	"sync/atomic"

	"git.lukeshu.com/go/typedsync"
)

// Handle is anything registry can hold; in practice this is
// *schema.Database, but the registry package must not import schema (that
// would be a cycle, since schema.Database registers itself on creation),
// so it's expressed as an opaque interface satisfied by any registered
// object.
type Handle interface {
	// RegistryName returns the name this handle was last registered
	// under, or "" if it has never been registered.
	RegistryName() string
}

// Registry is a process-wide table of live databases. The zero value is
// ready to use. Per §5 ("Shared-resource policy"), registration and
// unregistration must be serialized by the caller — the registry does not
// itself provide cross-database locking, only safe concurrent access to
// its own name->handle map (via typedsync.Map), matching the non-goal of
// multi-writer concurrent mutation of a single database.
type Registry struct {
	byName typedsync.Map[string, Handle]
	anon   int64
}

var global Registry

// Global returns the process-wide registry singleton (§4.10: "a
// process-wide registry of live databases").
func Global() *Registry { return &global }

// Register assigns name to h. If name is empty, an anonymous name of the
// form "db#<n>" is generated. Registering a name that already exists
// overwrites the previous entry, mirroring OpenDB's behavior of treating
// a fresh Database as simply replacing whatever was registered under a
// reused name.
func (r *Registry) Register(name string, h Handle) string {
	if name == "" {
		n := atomic.AddInt64(&r.anon, 1)
		name = fmt.Sprintf("db#%d", n)
	}
	r.byName.Store(name, h)
	return name
}

// Unregister removes name from the registry. It is a no-op if name is not
// present (destroying an unregistered or already-unregistered database is
// not an error).
func (r *Registry) Unregister(name string) {
	r.byName.Delete(name)
}

// Resolve returns the first object of the path: the Handle registered
// under name, per §4.10's resolveDB(name) contract.
func (r *Registry) Resolve(name string) (Handle, bool) {
	return r.byName.Load(name)
}

// Range calls fn for every registered (name, handle) pair. Iteration
// order is unspecified.
func (r *Registry) Range(fn func(name string, h Handle) bool) {
	r.byName.Range(fn)
}
