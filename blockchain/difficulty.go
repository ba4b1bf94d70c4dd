// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"time"

	"github.com/decred/dcrd/math/uint256"
	"github.com/zecnode/zecd/internal/primitives"
)

// averageWindowTarget returns the average target of the windowSize headers
// ending with the provided one along with the header just before the window.
// It returns false when the chain is too short to fill the window.
//
// The sum of the targets may exceed 256 bits, so it is accumulated as a big
// integer.
//
// This function is safe for concurrent access.
func (bi *blockIndex) averageWindowTarget(last *HeaderMeta, windowSize int64) (*big.Int, *HeaderMeta, bool) {
	total := new(big.Int)
	first := last
	for i := int64(0); i < windowSize; i++ {
		if first == nil {
			return nil, nil, false
		}
		target, _, _ := primitives.DiffBitsToUint256(first.Bits)
		total.Add(total, target.ToBig())
		first = bi.parent(first)
	}
	if first == nil {
		return nil, nil, false
	}
	return total.Div(total, big.NewInt(windowSize)), first, true
}

// calcNextRequiredDifficulty calculates the required difficulty for the block
// after the passed parent.
//
// The average target of the last PowAveragingWindow blocks is scaled by how
// long the window took compared to the target spacing.  The time the window
// took is measured between the median times at both of its ends, only a
// quarter of its deviation from the expected timespan is applied, and the
// result is clamped to the maximum adjustments.  Chains that are too short to
// fill the window require the proof of work limit.
//
// This function is safe for concurrent access.
func (b *BlockChain) calcNextRequiredDifficulty(parent *HeaderMeta) uint32 {
	params := b.chainParams
	if params.PowNoRetargeting {
		return parent.Bits
	}
	avgTarget, first, ok := b.index.averageWindowTarget(parent,
		params.PowAveragingWindow)
	if !ok {
		return params.PowLimitBits
	}

	spacing := int64(params.PowTargetSpacing / time.Second)
	windowTimespan := params.PowAveragingWindow * spacing
	minTimespan := windowTimespan * (100 - params.PowMaxAdjustUp) / 100
	maxTimespan := windowTimespan * (100 + params.PowMaxAdjustDown) / 100

	lastMedian := b.index.calcPastMedianTime(parent, params.MedianTimeBlocks)
	firstMedian := b.index.calcPastMedianTime(first, params.MedianTimeBlocks)
	timespan := lastMedian - firstMedian
	timespan = windowTimespan + (timespan-windowTimespan)/4
	if timespan < minTimespan {
		timespan = minTimespan
	} else if timespan > maxTimespan {
		timespan = maxTimespan
	}

	// Calculate new target difficulty as:
	//  (avgTarget / windowTimespan) * timespan
	// The result uses integer division which means it will be slightly
	// rounded down.
	newTarget := avgTarget.Div(avgTarget, big.NewInt(windowTimespan))
	newTarget.Mul(newTarget, big.NewInt(timespan))
	if newTarget.Cmp(params.PowLimit.ToBig()) > 0 {
		return params.PowLimitBits
	}
	var target uint256.Uint256
	target.SetBig(newTarget)
	return primitives.Uint256ToDiffBits(&target)
}
