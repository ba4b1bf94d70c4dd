// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaingen

import (
	"github.com/zecnode/zecd/internal/primitives"
)

// maxSolverNodes bounds the number of partial solutions kept per round.
const maxSolverNodes = 1 << 14

// solverNode is a partial solution: the xor of the strings of its indices and
// the indices themselves in solution order.
type solverNode struct {
	hash    []byte
	indices []uint32
}

// extractBits returns bits [from, to) of b as an integer.  At most 64 bits may
// be requested.
func extractBits(b []byte, from, to uint32) uint64 {
	var v uint64
	for pos := from; pos < to; pos++ {
		v = v<<1 | uint64(b[pos/8]>>(7-pos%8)&1)
	}
	return v
}

// sharesIndex returns whether the two sorted-by-construction partial solutions
// use a common index.
func sharesIndex(a, b []uint32) bool {
	seen := make(map[uint32]struct{}, len(a))
	for _, idx := range a {
		seen[idx] = struct{}{}
	}
	for _, idx := range b {
		if _, ok := seen[idx]; ok {
			return true
		}
	}
	return false
}

// combine merges two partial solutions that collide, putting the one with the
// lower first index on the left as solutions require.
func combine(a, b *solverNode) solverNode {
	if a.indices[0] > b.indices[0] {
		a, b = b, a
	}
	xor := make([]byte, len(a.hash))
	for i := range xor {
		xor[i] = a.hash[i] ^ b.hash[i]
	}
	indices := make([]uint32, 0, len(a.indices)*2)
	indices = append(indices, a.indices...)
	indices = append(indices, b.indices...)
	return solverNode{hash: xor, indices: indices}
}

// solveEquihash runs Wagner's algorithm over every index for the given header
// input and nonce and returns the index lists of the solutions found.  It is
// only practical for the tiny parameters used by test networks.
func solveEquihash(p primitives.EquihashParams, input, nonce []byte) [][]uint32 {
	cbl := p.N / (p.K + 1)
	numLeaves := uint32(1) << (cbl + 1)
	nodes := make([]solverNode, 0, numLeaves)
	for idx := uint32(0); idx < numLeaves; idx++ {
		nodes = append(nodes, solverNode{
			hash:    primitives.EquihashIndexHash(p, input, nonce, idx),
			indices: []uint32{idx},
		})
	}

	for round := uint32(0); round < p.K; round++ {
		// The final round must also clear the bits of the last collision
		// window so the strings xor to zero over every bit.
		from, to := round*cbl, (round+1)*cbl
		if round == p.K-1 {
			to = p.N
		}

		// Group the partial solutions by the bits of this round while
		// preserving the order groups were first seen in.
		groups := make(map[uint64][]int)
		var order []uint64
		for i := range nodes {
			key := extractBits(nodes[i].hash, from, to)
			if _, ok := groups[key]; !ok {
				order = append(order, key)
			}
			groups[key] = append(groups[key], i)
		}

		next := make([]solverNode, 0, len(nodes))
	collect:
		for _, key := range order {
			group := groups[key]
			for i := 0; i < len(group); i++ {
				for j := i + 1; j < len(group); j++ {
					a, b := &nodes[group[i]], &nodes[group[j]]
					if sharesIndex(a.indices, b.indices) {
						continue
					}
					next = append(next, combine(a, b))
					if len(next) >= maxSolverNodes {
						break collect
					}
				}
			}
		}
		nodes = next
	}

	solutions := make([][]uint32, 0, len(nodes))
	for i := range nodes {
		if allZero(nodes[i].hash) {
			solutions = append(solutions, nodes[i].indices)
		}
	}
	return solutions
}

// allZero returns whether every byte of b is zero.
func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
