// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/zecnode/zecd/chaincfg"
	"github.com/zecnode/zecd/wire"
)

// checkpointsByHeight returns the checkpoints of the provided parameters keyed
// by height.  The checkpoints must be sorted by strictly increasing height.
func checkpointsByHeight(params *chaincfg.Params) (map[int64]*chaincfg.Checkpoint, error) {
	if len(params.Checkpoints) == 0 {
		return nil, nil
	}
	byHeight := make(map[int64]*chaincfg.Checkpoint, len(params.Checkpoints))
	prevHeight := int64(0)
	for i := range params.Checkpoints {
		checkpoint := &params.Checkpoints[i]
		if checkpoint.Height <= prevHeight {
			str := fmt.Sprintf("checkpoint at height %d is not sorted by "+
				"height", checkpoint.Height)
			return nil, AssertError(str)
		}
		byHeight[checkpoint.Height] = checkpoint
		prevHeight = checkpoint.Height
	}
	return byHeight, nil
}

// latestCheckpointHeight returns the height of the most recent checkpoint or
// -1 when the network has none.
func (b *BlockChain) latestCheckpointHeight() int64 {
	if cp := b.chainParams.LatestCheckpoint(); cp != nil {
		return cp.Height
	}
	return -1
}

// verifyCheckpoint returns whether the passed block height and hash combination
// match the checkpoint data.  It also returns true if there is no checkpoint
// data for the passed block height.
func (b *BlockChain) verifyCheckpoint(height int64, hash *wire.BlockHash) bool {
	checkpoint, ok := b.checkpointsByHeight[height]
	if !ok {
		return true
	}

	if checkpoint.Hash != *hash {
		return false
	}

	log.Infof("Verified checkpoint at height %d/block %s", checkpoint.Height,
		checkpoint.Hash)
	return true
}

// isTrusted returns whether the proofs of a block at the provided height may
// be skipped.  Blocks at or below the latest checkpoint are covered by it and
// fast adds are trusted by the caller.
func (b *BlockChain) isTrusted(height int64, flags BehaviorFlags) bool {
	return flags&BFFastAdd == BFFastAdd || height <= b.latestCheckpointHeight()
}
