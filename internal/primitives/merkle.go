// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package primitives

import (
	"crypto/sha256"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// hashMerkleBranch returns sha256(sha256(left || right)).
func hashMerkleBranch(left, right *chainhash.Hash) chainhash.Hash {
	var buf [chainhash.HashSize * 2]byte
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	first := sha256.Sum256(buf[:])
	return chainhash.Hash(sha256.Sum256(first[:]))
}

// CalcMerkleRoot calculates and returns the merkle root of the provided leaves.
//
// Each level of the tree hashes adjacent pairs with double SHA256.  A level
// with an odd number of nodes pairs its last node with itself.  This allows
// two different leaf sets to share a root when one of them repeats its final
// leaves, so callers must reject duplicate leaves separately.
//
// The root of no leaves is the zero hash.  The passed leaves are not modified.
func CalcMerkleRoot(leaves []chainhash.Hash) chainhash.Hash {
	if len(leaves) == 0 {
		return chainhash.Hash{}
	}

	level := make([]chainhash.Hash, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := level[:0]
		for i := 0; i < len(level); i += 2 {
			next = append(next, hashMerkleBranch(&level[i], &level[i+1]))
		}
		level = next
	}
	return level[0]
}
