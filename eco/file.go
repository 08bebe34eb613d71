// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package eco

import (
	"io"

	"github.com/opendb-core/odb/internal/odberr"
)

// WriteEco persists j's buffered entries as a journal file (§4.7
// writeEco(stream)). It does not clear the buffer or change state; call
// it any time after End, before Commit.
func WriteEco(w io.Writer, entries []*entry) error {
	if _, err := w.Write(journalMagic[:]); err != nil {
		return &odberr.IOError{Err: err}
	}
	hdr := &ew{}
	hdr.u32(journalVersion)
	hdr.u32(uint32(len(entries)))
	if err := writeRecord(w, hdr.buf); err != nil {
		return err
	}
	for _, e := range entries {
		body := &ew{}
		writeEntry(body, e)
		if err := writeRecord(w, body.buf); err != nil {
			return err
		}
	}
	return nil
}

// ReadEco loads a journal previously written by WriteEco (§4.7
// readEco(stream)), ready to pass to Replay.
func ReadEco(r io.Reader) ([]*entry, error) {
	var off int64
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, &odberr.IOError{Offset: off, Err: err}
	}
	off += 4
	if magic != journalMagic {
		return nil, &odberr.FormatError{Offset: off, Reason: "bad journal magic"}
	}

	hdrPayload, err := readRecord(r, &off)
	if err != nil {
		return nil, err
	}
	hr := &ecReader{buf: hdrPayload}
	version := hr.u32()
	if version != journalVersion {
		return nil, &odberr.FormatError{Offset: off, Reason: "unsupported journal version"}
	}
	count := hr.u32()

	entries := make([]*entry, 0, count)
	for i := uint32(0); i < count; i++ {
		payload, err := readRecord(r, &off)
		if err != nil {
			return nil, err
		}
		entries = append(entries, readEntry(&ecReader{buf: payload}))
	}
	return entries, nil
}
