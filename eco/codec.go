// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package eco

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"math"

	"github.com/opendb-core/odb/internal/odberr"
	"github.com/opendb-core/odb/internal/oid"
)

// journal file layout (§4.7 "a versioned, typed stream of mutation
// records; each record is self-delimited and checksummed"):
//
//	magic[4] "ODBJ" | version uint32 | count uint32 | record...
//
// where each record is:
//
//	length uint32 | payload[length] | crc32c(payload) uint32
//
// The framing mirrors the stream package's section framing (C6), reusing
// the same Castagnoli polynomial for consistency across the two on-disk
// formats; the journal is a flat sequence of variably-sized records
// rather than fixed per-type sections, since entries interleave in
// recording order and that order is what replay must preserve.
var journalMagic = [4]byte{'O', 'D', 'B', 'J'}

const journalVersion = 1

var crcTable = crc32.MakeTable(crc32.Castagnoli)

type ew struct {
	buf []byte
}

func (w *ew) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *ew) boolean(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}
func (w *ew) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}
func (w *ew) i32(v int32)   { w.u32(uint32(v)) }
func (w *ew) i64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}
func (w *ew) f64(v float64) { w.i64(int64(math.Float64bits(v))) }
func (w *ew) str(s string) {
	w.u32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// ref is encoded as a single flag byte (live or not) followed by either
// the raw oid (live) or the sequence number (not live).
func (w *ew) ref(r ref) {
	w.boolean(r.live)
	if r.live {
		w.u32(uint32(r.oid))
	} else {
		w.i32(r.seq)
	}
}

type ecReader struct {
	buf []byte
	off int
}

func (r *ecReader) u8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}
func (r *ecReader) boolean() bool { return r.u8() != 0 }
func (r *ecReader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}
func (r *ecReader) i32() int32 { return int32(r.u32()) }
func (r *ecReader) i64() int64 {
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return int64(v)
}
func (r *ecReader) f64() float64 { return math.Float64frombits(uint64(r.i64())) }
func (r *ecReader) str() string {
	n := r.u32()
	s := string(r.buf[r.off : r.off+int(n)])
	r.off += int(n)
	return s
}
func (r *ecReader) ref() ref {
	if r.boolean() {
		return liveRef(oid.Oid(r.u32()))
	}
	return seqRef(r.i32())
}

func writeRecord(w io.Writer, payload []byte) error {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return &odberr.IOError{Err: err}
	}
	if _, err := w.Write(payload); err != nil {
		return &odberr.IOError{Err: err}
	}
	var crc [4]byte
	binary.LittleEndian.PutUint32(crc[:], crc32.Checksum(payload, crcTable))
	if _, err := w.Write(crc[:]); err != nil {
		return &odberr.IOError{Err: err}
	}
	return nil
}

func readRecord(r io.Reader, off *int64) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, &odberr.IOError{Offset: *off, Err: err}
	}
	*off += 4
	n := binary.LittleEndian.Uint32(hdr[:])
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, &odberr.IOError{Offset: *off, Err: err}
	}
	*off += int64(n)
	var crc [4]byte
	if _, err := io.ReadFull(r, crc[:]); err != nil {
		return nil, &odberr.IOError{Offset: *off, Err: err}
	}
	*off += 4
	if binary.LittleEndian.Uint32(crc[:]) != crc32.Checksum(payload, crcTable) {
		return nil, &odberr.FormatError{Offset: *off, Reason: "journal record checksum mismatch"}
	}
	return payload, nil
}
