// Copyright (c) 2021-2023 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package primitives

import (
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/math/uint256"
)

// DiffBitsToUint256 converts the compact representation used to encode
// difficulty targets to an unsigned 256-bit integer.
//
// The compact form packs an unsigned base 256 exponent in the most significant
// 8 bits, a sign flag in bit 23 and a 23-bit mantissa in the remaining bits:
//
//	N = (-1^sign) * mantissa * 256^(exponent-3)
//
// Only unsigned 256-bit targets are meaningful, so the value is decoded into a
// uint256 and flags report a negative or overflowing encoding.
func DiffBitsToUint256(bits uint32) (n uint256.Uint256, isNegative bool, overflows bool) {
	mantissa := bits & 0x007fffff
	isNegative = bits&0x00800000 != 0
	exponent := bits >> 24

	// A zero mantissa is zero regardless of the exponent and sign.
	if mantissa == 0 {
		return n, false, false
	}

	if exponent <= 3 {
		n.SetUint64(uint64(mantissa >> (8 * (3 - exponent))))
		return n, isNegative, false
	}

	// Exponents of 35 or more always exceed 256 bits.  Exponents 34 and 33
	// leave room for 8 and 16 bits of mantissa respectively.
	overflows = exponent >= 35 || (exponent >= 34 && mantissa > 0xff) ||
		(exponent >= 33 && mantissa > 0xffff)
	if overflows {
		return n, isNegative, true
	}
	n.SetUint64(uint64(mantissa))
	n.Lsh(8 * (exponent - 3))
	return n, isNegative, false
}

// uint256ToDiffBits converts a uint256 to the compact representation, setting
// the sign bit when isNegative is true.
func uint256ToDiffBits(n *uint256.Uint256, isNegative bool) uint32 {
	if n.IsZero() {
		return 0
	}

	// The exponent is the number of bytes needed to represent the value.
	var mantissa uint32
	exponent := uint32((n.BitLen() + 7) / 8)
	if exponent <= 3 {
		mantissa = n.Uint32() << (8 * (3 - exponent))
	} else {
		mantissa = new(uint256.Uint256).RshVal(n, 8*(exponent-3)).Uint32()
	}

	// The mantissa can't use the sign bit, so shift one more byte out when it
	// would be set.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	bits := exponent<<24 | mantissa
	if isNegative {
		bits |= 0x00800000
	}
	return bits
}

// Uint256ToDiffBits converts a uint256 to the compact representation used for
// difficulty targets.  Only 23 bits of precision are kept, so large values
// encode just their most significant digits.
func Uint256ToDiffBits(n *uint256.Uint256) uint32 {
	return uint256ToDiffBits(n, false)
}

// CalcWork returns the expected number of hashes needed to find a block with
// the target encoded by the passed difficulty bits, 2^256 / (target+1).  Lower
// targets yield more work.  Negative, overflowing and zero targets produce
// zero work.
func CalcWork(diffBits uint32) uint256.Uint256 {
	target, isNegative, overflows := DiffBitsToUint256(diffBits)
	if isNegative || overflows || target.IsZero() {
		return uint256.Uint256{}
	}

	// 2^256 does not fit in a uint256, so use the identity
	//
	//	2^256 / (t+1) = ((2^256 - t - 1) / (t+1)) + 1
	//
	// where 2^256 - t - 1 is the bitwise not of t.  A target of 2^256-1 can't
	// be encoded in compact form, so t+1 never wraps to zero.
	divisor := new(uint256.Uint256).SetUint64(1).Add(&target)
	return *target.Not().Div(divisor).AddUint64(1)
}

// HashToUint256 interprets the provided hash as a little endian unsigned
// 256-bit integer so it can be compared against a target.
func HashToUint256(hash *chainhash.Hash) uint256.Uint256 {
	return *new(uint256.Uint256).SetBytesLE((*[32]byte)(hash))
}

// checkProofOfWorkRange decodes the target difficulty and ensures it is
// positive, representable and no higher than the proof-of-work limit.
func checkProofOfWorkRange(diffBits uint32, powLimit *uint256.Uint256) (uint256.Uint256, error) {
	target, isNegative, overflows := DiffBitsToUint256(diffBits)
	switch {
	case isNegative:
		str := fmt.Sprintf("target difficulty bits %08x is a negative value",
			diffBits)
		return uint256.Uint256{}, ruleError(ErrUnexpectedDifficulty, str)

	case overflows:
		str := fmt.Sprintf("target difficulty bits %08x is higher than the "+
			"max limit %064x", diffBits, powLimit)
		return uint256.Uint256{}, ruleError(ErrUnexpectedDifficulty, str)

	case target.IsZero():
		str := "target difficulty is zero"
		return uint256.Uint256{}, ruleError(ErrUnexpectedDifficulty, str)

	case target.Gt(powLimit):
		str := fmt.Sprintf("target difficulty %064x is higher than max %064x",
			target, powLimit)
		return uint256.Uint256{}, ruleError(ErrUnexpectedDifficulty, str)
	}

	return target, nil
}

// CheckProofOfWorkRange ensures the target difficulty represented by the given
// header bits is well-formed and within the provided proof-of-work limit.
func CheckProofOfWorkRange(diffBits uint32, powLimit *uint256.Uint256) error {
	_, err := checkProofOfWorkRange(diffBits, powLimit)
	return err
}

// CheckProofOfWork ensures the provided hash does not exceed the target
// difficulty represented by the given header bits and that said difficulty is
// within range per the provided proof-of-work limit.
func CheckProofOfWork(powHash *chainhash.Hash, diffBits uint32, powLimit *uint256.Uint256) error {
	target, err := checkProofOfWorkRange(diffBits, powLimit)
	if err != nil {
		return err
	}

	hashNum := HashToUint256(powHash)
	if hashNum.Gt(&target) {
		str := fmt.Sprintf("proof of work hash %064x is higher than expected "+
			"max of %064x", hashNum, target)
		return ruleError(ErrHighHash, str)
	}

	return nil
}
