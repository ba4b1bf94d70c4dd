// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/zecnode/zecd/wire"
)

// MainNetParams returns the network parameters for the main network.
func MainNetParams() *Params {
	// mainPowLimit is the highest proof of work value a block can have for
	// the main network.
	mainPowLimit := hexToUint256("0007ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

	// genesisBlock defines the genesis block of the block chain which serves
	// as the public transaction ledger for the main network.
	genesisBlock := newGenesisBlock(time.Unix(1477641360, 0), 0x1f07ffff, 0x00)
	genesisHash := genesisBlock.BlockHash()

	return &Params{
		Name:         "mainnet",
		Net:          wire.MainNet,
		GenesisBlock: genesisBlock,
		GenesisHash:  genesisHash,
		PowLimit:     mainPowLimit,
		PowLimitBits: 0x1f07ffff,
		EquihashN:    200,
		EquihashK:    9,

		PowAveragingWindow: 17,
		PowMaxAdjustDown:   32,
		PowMaxAdjustUp:     16,
		PowTargetSpacing:   150 * time.Second,

		MaxBlockSize:     wire.MaxBlockPayload,
		MedianTimeBlocks: 11,
		MaxTimeOffset:    90 * time.Minute,
		CoinbaseMaturity: 100,

		SaplingActivationHeight:   419200,
		MigrationActivationHeight: 1046400,

		MaxReorgDepth:  99,
		OrphanCapacity: 500,

		BaseSubsidy:            1250000000, // 12.5 coins
		SubsidyHalvingInterval: 840000,

		// Checkpoints ordered from oldest to newest.
		Checkpoints: []Checkpoint{
			{0, genesisHash},
		},
	}
}
