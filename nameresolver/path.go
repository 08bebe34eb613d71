// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package nameresolver implements the bidirectional object<->path-name
// mapping (C10, §4.8): resolving a "/D<dbname>/B<block>/N<net>/..." path
// to a live entity, and producing the canonical path of a live entity.
package nameresolver

import (
	"strings"

	"github.com/opendb-core/odb/internal/odberr"
)

// Segment is one "<code><name>" component of a path, e.g. "Btop" decodes
// to Segment{Code: 'B', Name: "top"}.
type Segment struct {
	Code byte
	Name string
}

// ParsePath splits path into its segments. path must start with '/' and
// every segment must carry at least a one-byte type code (§4.8: "names
// are dense (no leading separators internal to a segment)").
func ParsePath(path string) ([]Segment, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, &odberr.NotFoundError{Path: path}
	}
	raw := strings.Split(path[1:], "/")
	segs := make([]Segment, 0, len(raw))
	for _, s := range raw {
		if len(s) == 0 {
			return nil, &odberr.NotFoundError{Path: path}
		}
		segs = append(segs, Segment{Code: s[0], Name: s[1:]})
	}
	return segs, nil
}

// String reassembles segs into a canonical path.
func String(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteByte('/')
		b.WriteByte(s.Code)
		b.WriteString(s.Name)
	}
	return b.String()
}
