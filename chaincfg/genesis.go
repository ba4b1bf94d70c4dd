// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2018 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/zecnode/zecd/wire"
)

// genesisCoinbaseTx returns the coinbase transaction shared by the genesis
// blocks of every network.  Its single output is never added to the
// unspent output set.
func genesisCoinbaseTx() *wire.MsgTx {
	return &wire.MsgTx{
		Version: 1,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{
				Hash:  wire.TxID{},
				Index: wire.MaxPrevOutIndex,
			},
			SignatureScript: hexDecode("04ffff071f0104455a6361736830623963" +
				"34656566386237636334313765653530303165333530303938346236" +
				"6665613335363833613763616331343161303433633432303634383335" +
				"643334"),
			Sequence: wire.MaxTxInSequenceNum,
		}},
		TxOut: []*wire.TxOut{{
			Value: 0,
			PkScript: hexDecode("4104678afdb0fe5548271967f1a67130b7105cd6a8" +
				"28e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de" +
				"5c384df7ba0b8d578a4c702b6bf11d5fac"),
		}},
		LockTime: 0,
	}
}

// newGenesisBlock returns a genesis block committing to the shared coinbase
// with the passed header fields.  Genesis blocks are trusted by definition,
// so the solution is not required to satisfy the network's proof of work.
func newGenesisBlock(timestamp time.Time, bits uint32, nonce byte) *wire.MsgBlock {
	coinbase := genesisCoinbaseTx()
	txID := coinbase.TxID()
	return &wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:    4,
			PrevBlock:  wire.BlockHash{}, // All zero.
			MerkleRoot: wire.MerkleRoot(chainhash.Hash(txID)),
			Timestamp:  timestamp,
			Bits:       bits,
			Nonce:      [wire.NonceSize]byte{nonce},
		},
		Transactions: []*wire.MsgTx{coinbase},
	}
}
