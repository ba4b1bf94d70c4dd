// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

const (
	// MaxSolutionSize is the maximum number of bytes a proof-of-work
	// solution may occupy.  It is the size of a solution for the largest
	// supported equihash parameters (n=200, k=9).
	MaxSolutionSize = 1344

	// NonceSize is the size of the header nonce.
	NonceSize = 32

	// PowInputSize is the number of leading header bytes that form the
	// proof-of-work input, which is every field before the nonce.
	//
	// Version 4 bytes + PrevBlock 32 bytes + MerkleRoot 32 bytes +
	// CommitmentRoot 32 bytes + Timestamp 4 bytes + Bits 4 bytes.
	PowInputSize = 108

	// MaxBlockHeaderPayload is the maximum number of bytes a block header
	// can be.
	MaxBlockHeaderPayload = PowInputSize + NonceSize + 3 + MaxSolutionSize
)

// BlockHeader defines information about a block and is used in the block
// message (MsgBlock).
type BlockHeader struct {
	// Version of the block.  This is not the same as the protocol version.
	Version int32

	// Hash of the previous block in the block chain.
	PrevBlock BlockHash

	// Merkle tree reference to hash of all transactions for the block.
	MerkleRoot MerkleRoot

	// Root of the shielded note commitment tree after this block.
	CommitmentRoot CommitmentRoot

	// Time the block was created.  This is, unfortunately, encoded as a
	// uint32 on the wire and therefore is limited to 2106.
	Timestamp time.Time

	// Difficulty target for the block in compact form.
	Bits uint32

	// Nonce used to generate the block.
	Nonce [NonceSize]byte

	// Equihash solution for the block.
	Solution []byte
}

// BlockHash computes the block identifier hash for the given block header.
func (h *BlockHeader) BlockHash() BlockHash {
	return BlockHash(DoubleHashH(h.Bytes()))
}

// PowInput returns the leading header bytes hashed by the equihash
// generalized birthday problem.  The nonce is appended separately.
func (h *BlockHeader) PowInput() []byte {
	var buf bytes.Buffer
	buf.Grow(PowInputSize)
	h.serializePrefix(&buf)
	return buf.Bytes()
}

// Deserialize decodes a block header from r into the receiver.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	const op = "BlockHeader.Deserialize"
	version, err := readUint32LE(r, op, "version")
	if err != nil {
		return err
	}
	h.Version = int32(version)
	if err := readHash(r, (*chainhash.Hash)(&h.PrevBlock), op, "prev block"); err != nil {
		return err
	}
	if err := readHash(r, (*chainhash.Hash)(&h.MerkleRoot), op, "merkle root"); err != nil {
		return err
	}
	err = readHash(r, (*chainhash.Hash)(&h.CommitmentRoot), op,
		"commitment root")
	if err != nil {
		return err
	}
	if h.Timestamp, err = readUint32Time(r, op, "timestamp"); err != nil {
		return err
	}
	if h.Bits, err = readUint32LE(r, op, "bits"); err != nil {
		return err
	}
	if err := readFull(r, h.Nonce[:], op, "nonce"); err != nil {
		return err
	}
	h.Solution, err = ReadVarBytes(r, MaxSolutionSize, "solution")
	return err
}

// serializePrefix writes every field that precedes the nonce.  Writes to a
// bytes.Buffer never fail, so the prefix is written without error checks.
func (h *BlockHeader) serializePrefix(buf *bytes.Buffer) {
	writeUint32LE(buf, uint32(h.Version))
	writeHash(buf, (*chainhash.Hash)(&h.PrevBlock))
	writeHash(buf, (*chainhash.Hash)(&h.MerkleRoot))
	writeHash(buf, (*chainhash.Hash)(&h.CommitmentRoot))
	writeUint32LE(buf, uint32(h.Timestamp.Unix()))
	writeUint32LE(buf, h.Bits)
}

// Serialize encodes the block header to w.
//
// Field order: version (int32 LE), prev block (32), merkle root (32),
// commitment root (32), timestamp (uint32 LE), bits (uint32 LE), nonce (32),
// solution (var bytes).
func (h *BlockHeader) Serialize(w io.Writer) error {
	var buf bytes.Buffer
	buf.Grow(h.SerializeSize())
	h.serializePrefix(&buf)
	buf.Write(h.Nonce[:])
	WriteVarBytes(&buf, h.Solution)
	_, err := w.Write(buf.Bytes())
	return err
}

// Bytes returns the serialized block header.
func (h *BlockHeader) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(h.SerializeSize())
	h.Serialize(&buf)
	return buf.Bytes()
}

// SerializeSize returns the number of bytes it would take to serialize the
// block header.
func (h *BlockHeader) SerializeSize() int {
	return PowInputSize + NonceSize + VarBytesSerializeSize(h.Solution)
}

// DecodeBlockHeader decodes a block header that must occupy the entirety of
// the passed bytes.
func DecodeBlockHeader(b []byte) (*BlockHeader, error) {
	var h BlockHeader
	err := decodeExact("DecodeBlockHeader", b, h.Deserialize)
	if err != nil {
		return nil, err
	}
	return &h, nil
}
