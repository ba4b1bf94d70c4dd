// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package primitives

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// EquihashParams identifies an instance of the generalized birthday problem
// solved by block headers.  N is the hash length in bits and 2^K is the
// number of indices in a solution.
type EquihashParams struct {
	N uint32
	K uint32
}

// collisionBitLength returns the number of bits that must collide at each of
// the K rounds.
func (p EquihashParams) collisionBitLength() uint32 {
	return p.N / (p.K + 1)
}

// indicesPerHash returns how many N-bit strings are cut from one BLAKE2b
// output.
func (p EquihashParams) indicesPerHash() uint32 {
	return 512 / p.N
}

// hashLength returns the BLAKE2b output length in bytes.
func (p EquihashParams) hashLength() int {
	return int(p.indicesPerHash() * p.N / 8)
}

// IndexBits returns the width in bits of each packed solution index.
func (p EquihashParams) IndexBits() uint32 {
	return p.collisionBitLength() + 1
}

// SolutionSize returns the number of bytes of a packed solution.  Indices are
// packed big endian and the final byte is zero padded.
func (p EquihashParams) SolutionSize() int {
	bits := (uint32(1) << p.K) * p.IndexBits()
	return int((bits + 7) / 8)
}

// Validate ensures the parameters describe a usable instance.
func (p EquihashParams) Validate() error {
	var reason string
	switch {
	case p.N == 0 || p.N%8 != 0 || p.N > 512:
		reason = "n must be a non-zero multiple of 8 no larger than 512"
	case p.K == 0 || p.K >= p.N:
		reason = "k must be positive and smaller than n"
	case p.N%(p.K+1) != 0:
		reason = "n must be divisible by k+1"
	case p.IndexBits() > 32:
		reason = "indices must fit in 32 bits"
	}
	if reason != "" {
		str := fmt.Sprintf("invalid equihash parameters (n=%d, k=%d): %s",
			p.N, p.K, reason)
		return ruleError(ErrBadEquihashParams, str)
	}
	return nil
}

// personalizationKey returns the key that binds the hash to the parameter
// set.  BLAKE2b personalization is not exposed by the hashing package, so the
// same 16 bytes are supplied as the key instead.
func (p EquihashParams) personalizationKey() []byte {
	key := make([]byte, 16)
	copy(key, "ZcashPoW")
	binary.LittleEndian.PutUint32(key[8:], p.N)
	binary.LittleEndian.PutUint32(key[12:], p.K)
	return key
}

// EquihashIndexHash returns the N/8 byte string associated with the passed
// index for the given header input and nonce.
func EquihashIndexHash(p EquihashParams, input, nonce []byte, index uint32) []byte {
	h, err := blake2b.New(p.hashLength(), p.personalizationKey())
	if err != nil {
		// Only reachable with an invalid output length, which Validate
		// rules out.
		panic(fmt.Sprintf("blake2b: %v", err))
	}
	var g [4]byte
	binary.LittleEndian.PutUint32(g[:], index/p.indicesPerHash())
	h.Write(input)
	h.Write(nonce)
	h.Write(g[:])
	out := h.Sum(nil)

	width := p.N / 8
	offset := (index % p.indicesPerHash()) * width
	return out[offset : offset+width]
}

// EncodeEquihashSolution packs the indices into the solution byte format.
func EncodeEquihashSolution(p EquihashParams, indices []uint32) []byte {
	width := p.IndexBits()
	sol := make([]byte, p.SolutionSize())
	pos := uint32(0)
	for _, idx := range indices {
		for j := int(width) - 1; j >= 0; j-- {
			if idx>>uint(j)&1 != 0 {
				sol[pos/8] |= 0x80 >> (pos % 8)
			}
			pos++
		}
	}
	return sol
}

// decodeEquihashSolution unpacks the indices from a solution of the correct
// size.  The padding bits of the final byte must be zero.
func decodeEquihashSolution(p EquihashParams, sol []byte) ([]uint32, bool) {
	width := p.IndexBits()
	count := uint32(1) << p.K
	indices := make([]uint32, count)
	pos := uint32(0)
	for i := range indices {
		var idx uint32
		for j := uint32(0); j < width; j++ {
			bit := sol[pos/8] >> (7 - pos%8) & 1
			idx = idx<<1 | uint32(bit)
			pos++
		}
		indices[i] = idx
	}
	for ; pos < uint32(len(sol))*8; pos++ {
		if sol[pos/8]>>(7-pos%8)&1 != 0 {
			return nil, false
		}
	}
	return indices, true
}

// bitsZero returns whether bits [from, to) of b are all zero.
func bitsZero(b []byte, from, to uint32) bool {
	for pos := from; pos < to; pos++ {
		if b[pos/8]>>(7-pos%8)&1 != 0 {
			return false
		}
	}
	return true
}

// equihashNode is a subtree of a solution: the xor of its leaf strings and
// its indices in solution order.
type equihashNode struct {
	hash    []byte
	indices []uint32
}

// CheckEquihashSolution ensures the solution solves the generalized birthday
// problem for the header input and nonce.
//
// Leaves are combined pairwise over K rounds.  At round r the xor of a pair
// must be zero over the collision bits of that round, the left subtree's first
// index must be lower than the right's, and the two subtrees must not share an
// index.  The xor of every leaf must be zero over all N bits.
func CheckEquihashSolution(p EquihashParams, input, nonce, solution []byte) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if len(solution) != p.SolutionSize() {
		str := fmt.Sprintf("solution is %d bytes instead of %d", len(solution),
			p.SolutionSize())
		return ruleError(ErrBadSolutionSize, str)
	}
	indices, ok := decodeEquihashSolution(p, solution)
	if !ok {
		return ruleError(ErrInvalidSolution, "solution padding bits are set")
	}

	nodes := make([]equihashNode, len(indices))
	for i, idx := range indices {
		nodes[i] = equihashNode{
			hash:    EquihashIndexHash(p, input, nonce, idx),
			indices: []uint32{idx},
		}
	}

	cbl := p.collisionBitLength()
	for round := uint32(0); round < p.K; round++ {
		next := make([]equihashNode, 0, len(nodes)/2)
		for i := 0; i < len(nodes); i += 2 {
			left, right := &nodes[i], &nodes[i+1]
			xor := make([]byte, len(left.hash))
			for j := range xor {
				xor[j] = left.hash[j] ^ right.hash[j]
			}
			if !bitsZero(xor, round*cbl, (round+1)*cbl) {
				str := fmt.Sprintf("round %d: leaves %d and %d do not "+
					"collide", round, left.indices[0], right.indices[0])
				return ruleError(ErrInvalidSolution, str)
			}
			if left.indices[0] >= right.indices[0] {
				str := fmt.Sprintf("round %d: index %d is not ordered "+
					"before index %d", round, left.indices[0],
					right.indices[0])
				return ruleError(ErrInvalidSolution, str)
			}
			seen := make(map[uint32]struct{}, len(left.indices))
			for _, idx := range left.indices {
				seen[idx] = struct{}{}
			}
			for _, idx := range right.indices {
				if _, ok := seen[idx]; ok {
					str := fmt.Sprintf("round %d: index %d repeats",
						round, idx)
					return ruleError(ErrInvalidSolution, str)
				}
			}
			merged := make([]uint32, 0, len(left.indices)*2)
			merged = append(merged, left.indices...)
			merged = append(merged, right.indices...)
			next = append(next, equihashNode{hash: xor, indices: merged})
		}
		nodes = next
	}

	if !bitsZero(nodes[0].hash, 0, p.N) {
		return ruleError(ErrInvalidSolution, "leaves do not xor to zero")
	}
	return nil
}
