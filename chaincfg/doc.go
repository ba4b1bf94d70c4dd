// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines chain configuration parameters.
//
// Two standard networks are provided: the main network, which is intended for
// the transfer of monetary value, and the regression test network, which is
// intended for unit tests.  These networks are incompatible with each other
// (each sharing a different genesis block) and software should handle errors
// where input intended for one network is used on an application instance
// running on a different network.
//
// The parameters are the complete configuration of the consensus engine:
// proof of work limits and equihash parameters, timestamp rules, coinbase
// maturity, activation heights of the shielded pool rule changes, the
// reorganization depth limit, orphan buffering capacity, the subsidy schedule
// and the checkpoints.
//
// If an application does not use one of the standard networks, a new Params
// struct may be created which defines the parameters for the non-standard
// network.  Tests commonly copy the regression test parameters and adjust a
// single field.
package chaincfg
