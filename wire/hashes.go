// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"crypto/sha256"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// HashSize is the size of every digest carried in headers and transactions.
const HashSize = chainhash.HashSize

// BlockHash identifies a block by the double-SHA256 of its serialized header.
type BlockHash chainhash.Hash

// TxID identifies a transaction by the double-SHA256 of its serialization.
type TxID chainhash.Hash

// MerkleRoot is the root of the merkle tree built over the transaction ids of
// a block.
type MerkleRoot chainhash.Hash

// CommitmentRoot is the root of the second-generation shielded note
// commitment tree committed to by a header.
type CommitmentRoot chainhash.Hash

// String returns the hash as the hexadecimal string of the byte-reversed hash.
func (h BlockHash) String() string { return chainhash.Hash(h).String() }

// String returns the hash as the hexadecimal string of the byte-reversed hash.
func (h TxID) String() string { return chainhash.Hash(h).String() }

// String returns the hash as the hexadecimal string of the byte-reversed hash.
func (h MerkleRoot) String() string { return chainhash.Hash(h).String() }

// String returns the hash as the hexadecimal string of the byte-reversed hash.
func (h CommitmentRoot) String() string { return chainhash.Hash(h).String() }

// NewBlockHashFromStr creates a BlockHash from a byte-reversed hex string.
func NewBlockHashFromStr(s string) (BlockHash, error) {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return BlockHash{}, err
	}
	return BlockHash(*h), nil
}

// DoubleHashH calculates sha256(sha256(b)) and returns the resulting bytes as
// a chainhash.Hash.
func DoubleHashH(b []byte) chainhash.Hash {
	first := sha256.Sum256(b)
	return chainhash.Hash(sha256.Sum256(first[:]))
}
