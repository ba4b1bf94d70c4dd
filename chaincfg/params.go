// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"encoding/hex"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/math/uint256"
	"github.com/zecnode/zecd/wire"
)

// Checkpoint identifies a known good point in the block chain.  Blocks at a
// checkpoint height must match the checkpoint hash, blocks at or below the
// final checkpoint skip proof verification, and forks below it are rejected.
type Checkpoint struct {
	Height int64
	Hash   wire.BlockHash
}

// Params defines a network by its parameters.  These parameters may be used by
// applications to differentiate networks as well as addresses and keys for one
// network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net defines the magic bytes used to identify the network.
	Net wire.CurrencyNet

	// GenesisBlock defines the first block of the chain.
	GenesisBlock *wire.MsgBlock

	// GenesisHash is the starting block hash.
	GenesisHash wire.BlockHash

	// PowLimit defines the highest allowed proof of work value for a block
	// as a uint256.
	PowLimit *uint256.Uint256

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	// PowAveragingWindow is the number of blocks whose targets are averaged
	// to calculate the required difficulty of the next block.
	PowAveragingWindow int64

	// PowMaxAdjustDown and PowMaxAdjustUp are the percentages by which the
	// timespan of the averaging window may exceed or fall short of the
	// expected one when adjusting the difficulty.
	PowMaxAdjustDown int64
	PowMaxAdjustUp   int64

	// PowTargetSpacing is the desired amount of time between blocks.
	PowTargetSpacing time.Duration

	// PowNoRetargeting requires every block to carry the difficulty of its
	// parent instead of adjusting it.
	PowNoRetargeting bool

	// EquihashN and EquihashK are the generalized birthday problem
	// parameters every block header solution must satisfy.
	EquihashN uint32
	EquihashK uint32

	// MaxBlockSize is the maximum number of bytes a serialized block may
	// occupy.
	MaxBlockSize int

	// MedianTimeBlocks is the number of previous blocks whose timestamps
	// form the median a new block's timestamp must exceed.
	MedianTimeBlocks int

	// MaxTimeOffset is how far past the median time of the previous blocks
	// a block's timestamp may be.
	MaxTimeOffset time.Duration

	// CoinbaseMaturity is the number of blocks required before newly mined
	// coins can be spent.
	CoinbaseMaturity uint16

	// SaplingActivationHeight is the first height at which transactions may
	// carry second generation shielded spends and outputs.
	SaplingActivationHeight int64

	// MigrationActivationHeight is the first height at which value may no
	// longer flow into the legacy shielded pool.  JoinSplits that only move
	// value out of it remain valid.
	MigrationActivationHeight int64

	// MaxReorgDepth is the maximum number of blocks a reorganization may
	// disconnect.  Side branches forking deeper than this are rejected and
	// abandoned branches buried deeper than this may be pruned.
	MaxReorgDepth int64

	// OrphanCapacity is the maximum number of blocks with unknown parents
	// held while waiting for their parents.
	OrphanCapacity int

	// Subsidy parameters.
	//
	// The subsidy starts at BaseSubsidy and halves every
	// SubsidyHalvingInterval blocks.
	BaseSubsidy            int64
	SubsidyHalvingInterval int64

	// Checkpoints ordered from oldest to newest.
	Checkpoints []Checkpoint
}

// LatestCheckpoint returns the most recent checkpoint or nil when the network
// has none.
func (p *Params) LatestCheckpoint() *Checkpoint {
	if len(p.Checkpoints) == 0 {
		return nil
	}
	return &p.Checkpoints[len(p.Checkpoints)-1]
}

// hexDecode decodes the passed hex string and returns the resulting bytes.  It
// panics if an error occurs.  This is only provided for the hard-coded constants
// so errors in the source code can be detected.  It will only (and must only) be
// called with hard-coded values.
func hexDecode(hexStr string) []byte {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		panic(err)
	}
	return b
}

// hexToUint256 converts the passed big endian hex string into a uint256 and
// will panic if there is an error.  It will only (and must only) be called
// with hard-coded values.
func hexToUint256(hexStr string) *uint256.Uint256 {
	b := hexDecode(hexStr)
	if len(b) > 32 {
		panic("hex overflows 256 bits: " + hexStr)
	}
	return new(uint256.Uint256).SetByteSlice(b)
}

// newHashFromStr converts the passed byte-reversed hex string into a block
// hash.  It panics on an error since it will only (and must only) be called
// with hard-coded, and therefore known good, hashes.
func newHashFromStr(hexStr string) wire.BlockHash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		panic(err)
	}
	return wire.BlockHash(*hash)
}
