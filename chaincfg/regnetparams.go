// Copyright (c) 2018-2021 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/zecnode/zecd/wire"
)

// RegNetParams returns the network parameters for the regression test network.
// The purpose of this network is primarily for unit tests, so the proof of
// work limit is trivial and the maturity and reorganization windows are short.
//
// Since this network is only intended for unit testing, its values are subject
// to change even if it would cause a hard fork.
func RegNetParams() *Params {
	// regNetPowLimit is the highest proof of work value a block can have for
	// the regression test network.
	regNetPowLimit := hexToUint256("0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f")

	genesisBlock := newGenesisBlock(time.Unix(1296688602, 0), 0x200f0f0f, 0x09)

	return &Params{
		Name:         "regnet",
		Net:          wire.RegNet,
		GenesisBlock: genesisBlock,
		GenesisHash:  genesisBlock.BlockHash(),
		PowLimit:     regNetPowLimit,
		PowLimitBits: 0x200f0f0f,
		EquihashN:    48,
		EquihashK:    5,

		PowAveragingWindow: 17,
		PowMaxAdjustDown:   0,
		PowMaxAdjustUp:     0,
		PowTargetSpacing:   150 * time.Second,
		PowNoRetargeting:   true,

		MaxBlockSize:     wire.MaxBlockPayload,
		MedianTimeBlocks: 11,
		MaxTimeOffset:    90 * time.Minute,
		CoinbaseMaturity: 16,

		SaplingActivationHeight:   1,
		MigrationActivationHeight: 1,

		MaxReorgDepth:  15,
		OrphanCapacity: 16,

		BaseSubsidy:            1250000000,
		SubsidyHalvingInterval: 150,

		// Checkpoints ordered from oldest to newest.
		Checkpoints: nil,
	}
}
