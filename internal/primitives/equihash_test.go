// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package primitives

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

// tinyParams are equihash parameters small enough to solve by exhaustive
// search in tests.
var tinyParams = EquihashParams{N: 16, K: 1}

// solveTiny finds a nonce and solution for the passed input under tinyParams
// by searching all index pairs for a full collision.
func solveTiny(t *testing.T, input []byte) ([]byte, []byte) {
	t.Helper()

	numIndices := uint32(1) << tinyParams.IndexBits()
	nonce := make([]byte, 32)
	for n := uint32(0); n < 1000; n++ {
		binary.LittleEndian.PutUint32(nonce, n)
		seen := make(map[string]uint32, numIndices)
		for i := uint32(0); i < numIndices; i++ {
			h := string(EquihashIndexHash(tinyParams, input, nonce, i))
			if j, ok := seen[h]; ok {
				sol := EncodeEquihashSolution(tinyParams, []uint32{j, i})
				return nonce, sol
			}
			seen[h] = i
		}
	}
	t.Fatal("no solution found")
	return nil, nil
}

// TestEquihashParams ensures parameter validation and derived sizes.
func TestEquihashParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  EquihashParams
		valid   bool
		solSize int
	}{
		{"main network", EquihashParams{200, 9}, true, 1344},
		{"regression network", EquihashParams{48, 5}, true, 36},
		{"tiny", EquihashParams{16, 1}, true, 3},
		{"n not a multiple of 8", EquihashParams{20, 1}, false, 0},
		{"n too large", EquihashParams{520, 1}, false, 0},
		{"k zero", EquihashParams{16, 0}, false, 0},
		{"n not divisible by k+1", EquihashParams{16, 2}, false, 0},
		{"indices wider than 32 bits", EquihashParams{64, 1}, false, 0},
	}

	for _, test := range tests {
		err := test.params.Validate()
		if test.valid != (err == nil) {
			t.Errorf("%q: unexpected validation result: %v", test.name, err)
			continue
		}
		if !test.valid {
			if !errors.Is(err, ErrBadEquihashParams) {
				t.Errorf("%q: unexpected error kind: %v", test.name, err)
			}
			continue
		}
		if got := test.params.SolutionSize(); got != test.solSize {
			t.Errorf("%q: solution size -- got %d, want %d", test.name, got,
				test.solSize)
		}
	}
}

// TestEquihashSolutionPacking ensures indices survive packing and that set
// padding bits are detected.
func TestEquihashSolutionPacking(t *testing.T) {
	t.Parallel()

	params := EquihashParams{N: 48, K: 5}
	indices := make([]uint32, 1<<params.K)
	for i := range indices {
		indices[i] = uint32(i*37+5) % (1 << params.IndexBits())
	}
	sol := EncodeEquihashSolution(params, indices)
	if len(sol) != params.SolutionSize() {
		t.Fatalf("packed size -- got %d, want %d", len(sol),
			params.SolutionSize())
	}
	got, ok := decodeEquihashSolution(params, sol)
	if !ok || !reflect.DeepEqual(got, indices) {
		t.Fatalf("mismatched indices -- got %v, want %v", got, indices)
	}

	// 2 indices of 9 bits leave 6 pad bits in the final byte.
	padded := EncodeEquihashSolution(tinyParams, []uint32{1, 2})
	padded[len(padded)-1] |= 0x01
	if _, ok := decodeEquihashSolution(tinyParams, padded); ok {
		t.Fatal("set padding bit was not detected")
	}
}

// TestCheckEquihashSolution ensures a found solution verifies and that every
// kind of tampering is rejected.
func TestCheckEquihashSolution(t *testing.T) {
	t.Parallel()

	input := bytes.Repeat([]byte{0x5a}, 108)
	nonce, sol := solveTiny(t, input)
	if err := CheckEquihashSolution(tinyParams, input, nonce, sol); err != nil {
		t.Fatalf("valid solution rejected: %v", err)
	}

	indices, _ := decodeEquihashSolution(tinyParams, sol)
	swapped := EncodeEquihashSolution(tinyParams,
		[]uint32{indices[1], indices[0]})
	repeated := EncodeEquihashSolution(tinyParams,
		[]uint32{indices[0], indices[0]})
	otherNonce := append([]byte{}, nonce...)
	otherNonce[31] ^= 0xff
	otherInput := append([]byte{}, input...)
	otherInput[0] ^= 0x01
	padded := append([]byte{}, sol...)
	padded[len(padded)-1] |= 0x01

	tests := []struct {
		name   string
		params EquihashParams
		input  []byte
		nonce  []byte
		sol    []byte
		want   error
	}{
		{"unordered indices", tinyParams, input, nonce, swapped, ErrInvalidSolution},
		{"repeated index", tinyParams, input, nonce, repeated, ErrInvalidSolution},
		{"different nonce", tinyParams, input, otherNonce, sol, ErrInvalidSolution},
		{"different input", tinyParams, otherInput, nonce, sol, ErrInvalidSolution},
		{"padding bit set", tinyParams, input, nonce, padded, ErrInvalidSolution},
		{"short solution", tinyParams, input, nonce, sol[:2], ErrBadSolutionSize},
		{"long solution", tinyParams, input, nonce, append(sol, 0), ErrBadSolutionSize},
		{"bad params", EquihashParams{N: 16, K: 2}, input, nonce, sol, ErrBadEquihashParams},
	}
	for _, test := range tests {
		err := CheckEquihashSolution(test.params, test.input, test.nonce,
			test.sol)
		if !errors.Is(err, test.want) {
			t.Errorf("%q: unexpected error -- got %v, want %v", test.name,
				err, test.want)
		}
	}
}
