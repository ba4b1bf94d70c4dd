// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2019 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "github.com/zecnode/zecd/chaincfg"

// CalcBlockSubsidy returns the subsidy amount a block at the provided height
// should have.  The subsidy starts at the base subsidy of the network and is
// halved every halving interval until it reaches zero.
func CalcBlockSubsidy(height int64, params *chaincfg.Params) int64 {
	if params.SubsidyHalvingInterval == 0 {
		return params.BaseSubsidy
	}

	// Equivalent to: baseSubsidy / 2^(height/subsidyHalvingInterval)
	halvings := uint64(height / params.SubsidyHalvingInterval)
	if halvings >= 63 {
		return 0
	}
	return params.BaseSubsidy >> halvings
}
