// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package primitives

import (
	"crypto/sha256"
	"testing"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// doubleSHA256 returns sha256(sha256(b)).
func doubleSHA256(b []byte) chainhash.Hash {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

// pairHash returns the double SHA256 of the concatenation of two hashes.
func pairHash(a, b chainhash.Hash) chainhash.Hash {
	return doubleSHA256(append(append([]byte{}, a[:]...), b[:]...))
}

// TestCalcMerkleRoot ensures merkle roots are computed over the expected tree
// shape including duplication of the final node on odd levels.
func TestCalcMerkleRoot(t *testing.T) {
	t.Parallel()

	leaves := make([]chainhash.Hash, 5)
	for i := range leaves {
		leaves[i] = doubleSHA256([]byte{byte(i)})
	}
	a, b, c, d, e := leaves[0], leaves[1], leaves[2], leaves[3], leaves[4]

	tests := []struct {
		name   string
		leaves []chainhash.Hash
		want   chainhash.Hash
	}{{
		name:   "no leaves",
		leaves: nil,
		want:   chainhash.Hash{},
	}, {
		name:   "single leaf is its own root",
		leaves: []chainhash.Hash{a},
		want:   a,
	}, {
		name:   "two leaves",
		leaves: []chainhash.Hash{a, b},
		want:   pairHash(a, b),
	}, {
		name:   "three leaves duplicate the last",
		leaves: []chainhash.Hash{a, b, c},
		want:   pairHash(pairHash(a, b), pairHash(c, c)),
	}, {
		name:   "four leaves",
		leaves: []chainhash.Hash{a, b, c, d},
		want:   pairHash(pairHash(a, b), pairHash(c, d)),
	}, {
		name:   "five leaves duplicate at two levels",
		leaves: []chainhash.Hash{a, b, c, d, e},
		want: pairHash(pairHash(pairHash(a, b), pairHash(c, d)),
			pairHash(pairHash(e, e), pairHash(e, e))),
	}}

	for _, test := range tests {
		var orig []chainhash.Hash
		orig = append(orig, test.leaves...)
		got := CalcMerkleRoot(test.leaves)
		if got != test.want {
			t.Errorf("%q: mismatched root -- got %v, want %v", test.name,
				got, test.want)
		}
		for i := range orig {
			if orig[i] != test.leaves[i] {
				t.Errorf("%q: leaf %d was modified", test.name, i)
			}
		}
	}
}

// TestCalcMerkleRootDuplicateTail ensures repeating the final leaf of an odd
// set yields the same root, which is why duplicate transactions must be
// rejected independently of the root comparison.
func TestCalcMerkleRootDuplicateTail(t *testing.T) {
	t.Parallel()

	a := doubleSHA256([]byte("a"))
	b := doubleSHA256([]byte("b"))
	c := doubleSHA256([]byte("c"))
	r1 := CalcMerkleRoot([]chainhash.Hash{a, b, c})
	r2 := CalcMerkleRoot([]chainhash.Hash{a, b, c, c})
	if r1 != r2 {
		t.Fatalf("roots differ -- %v vs %v", r1, r2)
	}
	if r1 == CalcMerkleRoot([]chainhash.Hash{b, a, c}) {
		t.Fatal("leaf order does not affect the root")
	}
}
