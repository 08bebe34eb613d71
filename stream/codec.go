// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package stream implements the binary stream codec (C6, §4.4): a
// versioned, section-framed serialization of a schema.Database, each
// section carrying its own type tag, record count and CRC-32c
// checksum. Grounded on original_source's dbDatabase::write/read ( the
// section ordering and "referenced before referrer" rule) and on the
// teacher's pkg/btrfs CRC32c helper and lib/binstruct cursor-based
// error reporting (git.lukeshu.com/btrfs-progs-ng).
package stream

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"math"

	"github.com/opendb-core/odb/internal/odberr"
)

var byteOrder = binary.LittleEndian

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// cursor tracks the current byte offset for error reporting, mirroring
// the teacher's binstruct decode cursor.
type cursor struct {
	r   io.Reader
	off int64
}

func (c *cursor) read(buf []byte) error {
	n, err := io.ReadFull(c.r, buf)
	c.off += int64(n)
	if err != nil {
		return &odberr.IOError{Offset: c.off, Err: err}
	}
	return nil
}

func (c *cursor) u8() (uint8, error) {
	var b [1]byte
	if err := c.read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u32() (uint32, error) {
	var b [4]byte
	if err := c.read(b[:]); err != nil {
		return 0, err
	}
	return byteOrder.Uint32(b[:]), nil
}

func (c *cursor) u64() (uint64, error) {
	var b [8]byte
	if err := c.read(b[:]); err != nil {
		return 0, err
	}
	return byteOrder.Uint64(b[:]), nil
}

func (c *cursor) i64() (int64, error) {
	v, err := c.u64()
	return int64(v), err
}

func (c *cursor) f64() (float64, error) {
	v, err := c.u64()
	return math.Float64frombits(v), err
}

func (c *cursor) boolean() (bool, error) {
	v, err := c.u8()
	return v != 0, err
}

func (c *cursor) str() (string, error) {
	n, err := c.u32()
	if err != nil {
		return "", err
	}
	if n > 1<<24 {
		return "", &odberr.FormatError{Offset: c.off, Reason: "string length implausibly large"}
	}
	buf := make([]byte, n)
	if err := c.read(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func (c *cursor) bytes(n uint32) ([]byte, error) {
	buf := make([]byte, n)
	if err := c.read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// recWriter accumulates one section's payload plus its record count,
// then frames it with a type byte, count and CRC-32c checksum (§4.4:
// "type-tag+count+records+side-streams+checksum").
type recWriter struct {
	buf   bytes.Buffer
	count uint32
}

func (w *recWriter) u8(v uint8)   { w.buf.WriteByte(v) }
func (w *recWriter) boolean(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *recWriter) u32(v uint32) {
	var b [4]byte
	byteOrder.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *recWriter) u64(v uint64) {
	var b [8]byte
	byteOrder.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *recWriter) i64(v int64) { w.u64(uint64(v)) }

func (w *recWriter) f64(v float64) { w.u64(math.Float64bits(v)) }

func (w *recWriter) str(s string) {
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *recWriter) rawBytes(b []byte) {
	w.u32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *recWriter) record() { w.count++ }

// writeSection frames tag+count+payload+checksum onto dst (§4.4).
func writeSection(dst io.Writer, tag uint8, w *recWriter) error {
	payload := w.buf.Bytes()
	var hdr [9]byte
	hdr[0] = tag
	byteOrder.PutUint32(hdr[1:5], w.count)
	byteOrder.PutUint32(hdr[5:9], uint32(len(payload)))
	if _, err := dst.Write(hdr[:]); err != nil {
		return &odberr.IOError{Err: err}
	}
	if _, err := dst.Write(payload); err != nil {
		return &odberr.IOError{Err: err}
	}
	sum := crc32.Checksum(payload, crcTable)
	var sumBuf [4]byte
	byteOrder.PutUint32(sumBuf[:], sum)
	if _, err := dst.Write(sumBuf[:]); err != nil {
		return &odberr.IOError{Err: err}
	}
	return nil
}

// sectionHeader is a decoded, not-yet-verified section framing.
type sectionHeader struct {
	tag     uint8
	count   uint32
	payload []byte
}

func readSection(c *cursor) (sectionHeader, error) {
	tag, err := c.u8()
	if err != nil {
		return sectionHeader{}, err
	}
	count, err := c.u32()
	if err != nil {
		return sectionHeader{}, err
	}
	length, err := c.u32()
	if err != nil {
		return sectionHeader{}, err
	}
	payload, err := c.bytes(length)
	if err != nil {
		return sectionHeader{}, err
	}
	wantSum, err := c.u32()
	if err != nil {
		return sectionHeader{}, err
	}
	if gotSum := crc32.Checksum(payload, crcTable); gotSum != wantSum {
		return sectionHeader{}, &odberr.FormatError{Offset: c.off, Reason: "section checksum mismatch"}
	}
	return sectionHeader{tag: tag, count: count, payload: payload}, nil
}

func payloadCursor(s sectionHeader) *cursor {
	return &cursor{r: bytes.NewReader(s.payload)}
}
