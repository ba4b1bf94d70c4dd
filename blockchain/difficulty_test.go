// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/zecnode/zecd/chaincfg"
	"github.com/zecnode/zecd/internal/primitives"
	"github.com/zecnode/zecd/wire"
)

// buildDifficultyChain returns an index holding a chain of the provided height
// whose blocks all carry the same bits and are spaced evenly.  The tip of the
// chain is returned along with the index.
func buildDifficultyChain(height int64, bits uint32, spacing int64) (*blockIndex, *HeaderMeta) {
	const baseTime = 1477641360
	bi := newBlockIndex()
	var prev *HeaderMeta
	for h := int64(0); h <= height; h++ {
		meta := &HeaderMeta{
			Hash:      wire.BlockHash{byte(h), byte(h >> 8), 0xd1},
			Height:    h,
			Timestamp: baseTime + h*spacing,
			Bits:      bits,
		}
		if prev != nil {
			meta.ParentHash = prev.Hash
		}
		bi.addMeta(meta)
		prev = meta
	}
	return bi, prev
}

// TestCalcNextRequiredDifficulty ensures the required difficulty averages the
// targets of the window and adjusts them by the dampened and clamped timespan
// of the window.
func TestCalcNextRequiredDifficulty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		noRetarget bool
		tipHeight  int64
		bits       uint32
		spacing    int64
		want       uint32
	}{{
		name:       "retargeting disabled keeps the parent bits",
		noRetarget: true,
		tipHeight:  5,
		bits:       0x1e0fffff,
		spacing:    150,
		want:       0x1e0fffff,
	}, {
		name:      "window not filled requires the limit",
		tipHeight: 16,
		bits:      0x1e0fffff,
		spacing:   150,
		want:      0x1f07ffff,
	}, {
		name:      "first full window",
		tipHeight: 17,
		bits:      0x1e0fffff,
		spacing:   150,
		want:      0x1e0ed39f,
	}, {
		name:      "blocks on schedule round down",
		tipHeight: 30,
		bits:      0x1e0fffff,
		spacing:   150,
		want:      0x1e0ffffe,
	}, {
		name:      "slow blocks ease the difficulty",
		tipHeight: 30,
		bits:      0x1e0fffff,
		spacing:   200,
		want:      0x1e115486,
	}, {
		name:      "fast blocks clamp to the maximum increase",
		tipHeight: 30,
		bits:      0x1e0fffff,
		spacing:   1,
		want:      0x1e0d70a2,
	}, {
		name:      "very slow blocks clamp to the maximum decrease",
		tipHeight: 30,
		bits:      0x1e0fffff,
		spacing:   1000,
		want:      0x1e151eb6,
	}, {
		name:      "easing past the limit is capped",
		tipHeight: 30,
		bits:      0x1f07ffff,
		spacing:   1000,
		want:      0x1f07ffff,
	}}

	for _, test := range tests {
		params := chaincfg.MainNetParams()
		params.PowNoRetargeting = test.noRetarget
		bi, tip := buildDifficultyChain(test.tipHeight, test.bits,
			test.spacing)
		chain := &BlockChain{chainParams: params, index: bi}
		got := chain.calcNextRequiredDifficulty(tip)
		if got != test.want {
			t.Errorf("%s: unexpected bits -- got %08x, want %08x",
				test.name, got, test.want)
		}
	}
}

// TestAverageWindowTarget ensures the window average does not overflow when
// the targets sum to more than 256 bits.
func TestAverageWindowTarget(t *testing.T) {
	t.Parallel()

	params := chaincfg.RegNetParams()
	bi, tip := buildDifficultyChain(20, params.PowLimitBits, 60)
	avg, first, ok := bi.averageWindowTarget(tip, 17)
	if !ok {
		t.Fatal("window was not filled")
	}
	if first.Height != 3 {
		t.Fatalf("unexpected header before the window at height %d",
			first.Height)
	}
	if avg.Cmp(params.PowLimit.ToBig()) > 0 {
		t.Fatalf("average %x exceeds the pow limit", avg)
	}
	target, _, _ := primitives.DiffBitsToUint256(params.PowLimitBits)
	if avg.Cmp(target.ToBig()) != 0 {
		t.Fatalf("average %x differs from the target %x of every block",
			avg, target.ToBig())
	}

	if _, _, ok := bi.averageWindowTarget(tip, 21); ok {
		t.Fatal("window longer than the chain reported as filled")
	}
}
