// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2025 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

var littleEndian = binary.LittleEndian

// nonCanonicalVarIntFormat is the common format string used for non-canonically
// encoded variable length integer errors.
var nonCanonicalVarIntFormat = "non-canonical varint %x - discriminant " +
	"%x must encode a value greater than %x"

// readFull reads exactly len(buf) bytes from r and converts short reads to
// ErrTruncatedInput naming the passed field.
func readFull(r io.Reader, buf []byte, fn, field string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return readError(fn, field, err)
	}
	return nil
}

// readUint8 reads a single byte.
func readUint8(r io.Reader, fn, field string) (uint8, error) {
	var p [1]byte
	if err := readFull(r, p[:], fn, field); err != nil {
		return 0, err
	}
	return p[0], nil
}

// readUint16LE reads the little endian encoding of a uint16.
func readUint16LE(r io.Reader, fn, field string) (uint16, error) {
	var p [2]byte
	if err := readFull(r, p[:], fn, field); err != nil {
		return 0, err
	}
	return littleEndian.Uint16(p[:]), nil
}

// readUint32LE reads the little endian encoding of a uint32.
func readUint32LE(r io.Reader, fn, field string) (uint32, error) {
	var p [4]byte
	if err := readFull(r, p[:], fn, field); err != nil {
		return 0, err
	}
	return littleEndian.Uint32(p[:]), nil
}

// readUint64LE reads the little endian encoding of a uint64.
func readUint64LE(r io.Reader, fn, field string) (uint64, error) {
	var p [8]byte
	if err := readFull(r, p[:], fn, field); err != nil {
		return 0, err
	}
	return littleEndian.Uint64(p[:]), nil
}

// readHash reads a 32-byte digest into the passed hash.
func readHash(r io.Reader, h *chainhash.Hash, fn, field string) error {
	return readFull(r, h[:], fn, field)
}

// readUint32Time reads a unix timestamp encoded as a uint32.
func readUint32Time(r io.Reader, fn, field string) (time.Time, error) {
	secs, err := readUint32LE(r, fn, field)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(secs), 0), nil
}

// writeUint8 writes a single byte.
func writeUint8(w io.Writer, val uint8) error {
	_, err := w.Write([]byte{val})
	return err
}

// writeUint16LE writes the little endian encoding of a uint16.
func writeUint16LE(w io.Writer, val uint16) error {
	var p [2]byte
	littleEndian.PutUint16(p[:], val)
	_, err := w.Write(p[:])
	return err
}

// writeUint32LE writes the little endian encoding of a uint32.
func writeUint32LE(w io.Writer, val uint32) error {
	var p [4]byte
	littleEndian.PutUint32(p[:], val)
	_, err := w.Write(p[:])
	return err
}

// writeUint64LE writes the little endian encoding of a uint64.
func writeUint64LE(w io.Writer, val uint64) error {
	var p [8]byte
	littleEndian.PutUint64(p[:], val)
	_, err := w.Write(p[:])
	return err
}

// writeHash writes a 32-byte digest.
func writeHash(w io.Writer, h *chainhash.Hash) error {
	_, err := w.Write(h[:])
	return err
}

// ReadVarInt reads a variable length integer from r and returns it as a
// uint64.  Encodings that use a wider discriminant than the value requires are
// rejected with ErrMalformedField.
func ReadVarInt(r io.Reader) (uint64, error) {
	const op = "ReadVarInt"
	discriminant, err := readUint8(r, op, "varint discriminant")
	if err != nil {
		return 0, err
	}

	var rv, min uint64
	switch discriminant {
	case 0xff:
		rv, err = readUint64LE(r, op, "varint payload")
		min = 0x100000000

	case 0xfe:
		var sv uint32
		sv, err = readUint32LE(r, op, "varint payload")
		rv, min = uint64(sv), 0x10000

	case 0xfd:
		var sv uint16
		sv, err = readUint16LE(r, op, "varint payload")
		rv, min = uint64(sv), 0xfd

	default:
		return uint64(discriminant), nil
	}
	if err != nil {
		return 0, err
	}

	// The encoding is not canonical if the value could have been encoded
	// using fewer bytes.
	if rv < min {
		msg := fmt.Sprintf(nonCanonicalVarIntFormat, rv, discriminant, min)
		return 0, messageError(op, ErrMalformedField, msg)
	}
	return rv, nil
}

// WriteVarInt serializes val to w using a variable number of bytes depending
// on its value.
func WriteVarInt(w io.Writer, val uint64) error {
	switch {
	case val < 0xfd:
		return writeUint8(w, uint8(val))

	case val <= math.MaxUint16:
		if err := writeUint8(w, 0xfd); err != nil {
			return err
		}
		return writeUint16LE(w, uint16(val))

	case val <= math.MaxUint32:
		if err := writeUint8(w, 0xfe); err != nil {
			return err
		}
		return writeUint32LE(w, uint32(val))
	}

	if err := writeUint8(w, 0xff); err != nil {
		return err
	}
	return writeUint64LE(w, val)
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	// The value is small enough to be represented by itself, so it's
	// just 1 byte.
	if val < 0xfd {
		return 1
	}

	// Discriminant 1 byte plus 2 bytes for the uint16.
	if val <= math.MaxUint16 {
		return 3
	}

	// Discriminant 1 byte plus 4 bytes for the uint32.
	if val <= math.MaxUint32 {
		return 5
	}

	// Discriminant 1 byte plus 8 bytes for the uint64.
	return 9
}

// readCount reads a variable length integer used as the element count of a
// sequence and rejects counts larger than maxAllowed.  Bounding the count
// before allocating prevents memory exhaustion through forged counts.
func readCount(r io.Reader, maxAllowed uint64, fn, field string) (uint64, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return 0, readError(fn, field, err)
	}
	if count > maxAllowed {
		msg := fmt.Sprintf("too many %s [count %d, max %d]", field, count,
			maxAllowed)
		return 0, messageError(fn, ErrMalformedField, msg)
	}
	return count, nil
}

// ReadVarBytes reads a variable length byte array.  A byte array is encoded
// as a varInt containing the length of the array followed by the bytes
// themselves.  An error is returned if the length is greater than the
// passed maxAllowed parameter which helps protect against memory exhaustion
// attacks and forced panics through malformed messages.  The fieldName
// parameter is only used for the error message so it provides more context in
// the error.
func ReadVarBytes(r io.Reader, maxAllowed uint32, fieldName string) ([]byte, error) {
	const op = "ReadVarBytes"
	count, err := readCount(r, uint64(maxAllowed), op, fieldName)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	b := make([]byte, count)
	if err := readFull(r, b, op, fieldName); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteVarBytes serializes a variable length byte array to w as a varInt
// containing the number of bytes, followed by the bytes themselves.
func WriteVarBytes(w io.Writer, bytes []byte) error {
	slen := uint64(len(bytes))
	err := WriteVarInt(w, slen)
	if err != nil {
		return err
	}

	_, err = w.Write(bytes)
	return err
}

// VarBytesSerializeSize returns the number of bytes it would take to serialize
// the passed byte slice as a variable length byte array.
func VarBytesSerializeSize(b []byte) int {
	return VarIntSerializeSize(uint64(len(b))) + len(b)
}

// decodeExact runs decode over the passed bytes and rejects any input that is
// not fully consumed.
func decodeExact(fn string, b []byte, decode func(r io.Reader) error) error {
	r := bytes.NewReader(b)
	if err := decode(r); err != nil {
		return err
	}
	if r.Len() != 0 {
		msg := fmt.Sprintf("%d trailing bytes after the encoded value",
			r.Len())
		return messageError(fn, ErrMalformedField, msg)
	}
	return nil
}
