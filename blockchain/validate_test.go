// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"testing"
	"time"

	"github.com/zecnode/zecd/blockchain/chaingen"
	"github.com/zecnode/zecd/chaincfg"
	"github.com/zecnode/zecd/wire"
)

// TestCheckTransactionSanity ensures the context free transaction checks
// accept well formed transactions and reject malformed ones with the expected
// error kind.
func TestCheckTransactionSanity(t *testing.T) {
	t.Parallel()

	prevOut := wire.OutPoint{Hash: wire.TxID{0x01}, Index: 0}
	tests := []struct {
		name   string
		mutate func(tx *wire.MsgTx)
		err    error
	}{{
		name:   "valid transparent transaction",
		mutate: func(tx *wire.MsgTx) {},
		err:    nil,
	}, {
		name: "valid shielded output with negative value balance",
		mutate: func(tx *wire.MsgTx) {
			tx.ShieldedOutputs = make([]wire.OutputDescription, 1)
			tx.ValueBalance = -500
		},
		err: nil,
	}, {
		name: "valid joinsplit only transaction",
		mutate: func(tx *wire.MsgTx) {
			tx.TxIn = nil
			tx.TxOut = nil
			tx.JoinSplits = []*wire.JoinSplit{{VPubNew: 10}}
		},
		err: nil,
	}, {
		name:   "no inputs",
		mutate: func(tx *wire.MsgTx) { tx.TxIn = nil },
		err:    ErrNoTxInputs,
	}, {
		name:   "no outputs",
		mutate: func(tx *wire.MsgTx) { tx.TxOut = nil },
		err:    ErrNoTxOutputs,
	}, {
		name:   "negative output value",
		mutate: func(tx *wire.MsgTx) { tx.TxOut[0].Value = -1 },
		err:    ErrBadTxOutValue,
	}, {
		name:   "output value above max money",
		mutate: func(tx *wire.MsgTx) { tx.TxOut[0].Value = maxMoney + 1 },
		err:    ErrBadTxOutValue,
	}, {
		name: "total output value above max money",
		mutate: func(tx *wire.MsgTx) {
			tx.TxOut[0].Value = maxMoney
			tx.AddTxOut(wire.NewTxOut(1, []byte{0x51}))
		},
		err: ErrBadTxOutValue,
	}, {
		name:   "value balance without shielded data",
		mutate: func(tx *wire.MsgTx) { tx.ValueBalance = 1 },
		err:    ErrBadValueBalance,
	}, {
		name: "value balance out of range",
		mutate: func(tx *wire.MsgTx) {
			tx.ShieldedSpends = make([]wire.SpendDescription, 1)
			tx.ValueBalance = maxMoney + 1
		},
		err: ErrBadValueBalance,
	}, {
		name: "joinsplit moving value both ways",
		mutate: func(tx *wire.MsgTx) {
			tx.JoinSplits = []*wire.JoinSplit{{VPubOld: 1, VPubNew: 1}}
		},
		err: ErrBadJoinSplit,
	}, {
		name: "joinsplit value above max money",
		mutate: func(tx *wire.MsgTx) {
			tx.JoinSplits = []*wire.JoinSplit{{VPubNew: maxMoney + 1}}
		},
		err: ErrBadJoinSplit,
	}, {
		name: "total joinsplit value above max money",
		mutate: func(tx *wire.MsgTx) {
			tx.JoinSplits = []*wire.JoinSplit{
				{VPubOld: maxMoney},
				{VPubOld: 1},
			}
		},
		err: ErrBadJoinSplit,
	}, {
		name:   "expiry height at threshold",
		mutate: func(tx *wire.MsgTx) { tx.ExpiryHeight = maxExpiryHeight },
		err:    ErrBadExpiry,
	}, {
		name: "duplicate inputs",
		mutate: func(tx *wire.MsgTx) {
			tx.AddTxIn(wire.NewTxIn(&prevOut, nil))
		},
		err: ErrDuplicateTxInputs,
	}, {
		name: "null input in regular transaction",
		mutate: func(tx *wire.MsgTx) {
			nullOut := wire.OutPoint{Index: wire.MaxPrevOutIndex}
			tx.AddTxIn(wire.NewTxIn(&nullOut, nil))
		},
		err: ErrBadTxInput,
	}, {
		name: "coinbase script too short",
		mutate: func(tx *wire.MsgTx) {
			tx.TxIn[0].PreviousOutPoint = wire.OutPoint{
				Index: wire.MaxPrevOutIndex,
			}
			tx.TxIn[0].SignatureScript = []byte{0x01}
		},
		err: ErrBadCoinbaseScriptLen,
	}, {
		name: "coinbase script too long",
		mutate: func(tx *wire.MsgTx) {
			tx.TxIn[0].PreviousOutPoint = wire.OutPoint{
				Index: wire.MaxPrevOutIndex,
			}
			tx.TxIn[0].SignatureScript = make([]byte, maxCoinbaseScriptLen+1)
		},
		err: ErrBadCoinbaseScriptLen,
	}, {
		name: "coinbase with joinsplit",
		mutate: func(tx *wire.MsgTx) {
			tx.TxIn[0].PreviousOutPoint = wire.OutPoint{
				Index: wire.MaxPrevOutIndex,
			}
			tx.TxIn[0].SignatureScript = []byte{0x01, 0x02}
			tx.JoinSplits = []*wire.JoinSplit{{VPubNew: 1}}
		},
		err: ErrCoinbaseShieldedSpend,
	}, {
		name: "coinbase with shielded output",
		mutate: func(tx *wire.MsgTx) {
			tx.TxIn[0].PreviousOutPoint = wire.OutPoint{
				Index: wire.MaxPrevOutIndex,
			}
			tx.TxIn[0].SignatureScript = []byte{0x01, 0x02}
			tx.ShieldedOutputs = make([]wire.OutputDescription, 1)
		},
		err: nil,
	}}

	for _, test := range tests {
		tx := testSpendTx([]wire.OutPoint{prevOut}, 1000)
		test.mutate(tx)
		err := CheckTransactionSanity(tx)
		if test.err == nil {
			if err != nil {
				t.Errorf("%q: unexpected error: %v", test.name, err)
			}
			continue
		}
		if !errors.Is(err, test.err) {
			t.Errorf("%q: mismatched error -- got %v, want %v", test.name,
				err, test.err)
		}
	}
}

// TestIsFinalizedTransaction ensures lock times are interpreted as heights or
// timestamps and that maxed sequence numbers finalize a transaction.
func TestIsFinalizedTransaction(t *testing.T) {
	t.Parallel()

	blockTime := time.Unix(1600000000, 0)
	tests := []struct {
		name     string
		lockTime uint32
		sequence uint32
		height   int64
		want     bool
	}{
		{"zero lock time", 0, 0, 1, true},
		{"height lock time passed", 10, 0, 11, true},
		{"height lock time not passed", 10, 0, 10, false},
		{"height lock time with max sequence", 10, wire.MaxTxInSequenceNum, 10, true},
		{"time lock time passed", 1599999999, 0, 1, true},
		{"time lock time not passed", 1600000000, 0, 1, false},
	}

	for _, test := range tests {
		tx := testSpendTx([]wire.OutPoint{{Hash: wire.TxID{0x01}}}, 1)
		tx.LockTime = test.lockTime
		tx.TxIn[0].Sequence = test.sequence
		got := IsFinalizedTransaction(tx, test.height, blockTime)
		if got != test.want {
			t.Errorf("%q: got %v, want %v", test.name, got, test.want)
		}
	}
}

// TestCheckTransactionsContext ensures the height dependent transaction rules
// are enforced at the expected heights.
func TestCheckTransactionsContext(t *testing.T) {
	t.Parallel()

	params := chaincfg.RegNetParams()
	params.SaplingActivationHeight = 10
	params.MigrationActivationHeight = 20

	spend := func(mutate func(tx *wire.MsgTx)) *wire.MsgTx {
		tx := testSpendTx([]wire.OutPoint{{Hash: wire.TxID{0x01}}}, 1)
		mutate(tx)
		return tx
	}
	tests := []struct {
		name   string
		height int64
		block  *wire.MsgBlock
		err    error
	}{{
		name:   "plain block",
		height: 1,
		block:  testBlock(testCoinbase(1, 1)),
	}, {
		name:   "unfinalized transaction",
		height: 5,
		block: testBlock(testCoinbase(1, 1), spend(func(tx *wire.MsgTx) {
			tx.LockTime = 5
			tx.TxIn[0].Sequence = 0
		})),
		err: ErrUnfinalizedTx,
	}, {
		name:   "transaction at its expiry height",
		height: 5,
		block: testBlock(testCoinbase(1, 1), spend(func(tx *wire.MsgTx) {
			tx.ExpiryHeight = 5
		})),
	}, {
		name:   "expired transaction",
		height: 6,
		block: testBlock(testCoinbase(1, 1), spend(func(tx *wire.MsgTx) {
			tx.ExpiryHeight = 5
		})),
		err: ErrExpiredTx,
	}, {
		name:   "coinbase past its expiry height",
		height: 6,
		block: func() *wire.MsgBlock {
			coinbase := testCoinbase(1, 1)
			coinbase.ExpiryHeight = 5
			return testBlock(coinbase)
		}(),
	}, {
		name:   "shielded data before activation",
		height: 9,
		block: testBlock(testCoinbase(1, 1), spend(func(tx *wire.MsgTx) {
			tx.ShieldedOutputs = make([]wire.OutputDescription, 1)
		})),
		err: ErrPrematureShielded,
	}, {
		name:   "shielded data at activation",
		height: 10,
		block: testBlock(testCoinbase(1, 1), spend(func(tx *wire.MsgTx) {
			tx.ShieldedOutputs = make([]wire.OutputDescription, 1)
		})),
	}, {
		name:   "legacy pool inflow before migration",
		height: 19,
		block: testBlock(testCoinbase(1, 1), spend(func(tx *wire.MsgTx) {
			tx.JoinSplits = []*wire.JoinSplit{{VPubOld: 1}}
		})),
	}, {
		name:   "legacy pool inflow after migration",
		height: 20,
		block: testBlock(testCoinbase(1, 1), spend(func(tx *wire.MsgTx) {
			tx.JoinSplits = []*wire.JoinSplit{{VPubOld: 1}}
		})),
		err: ErrLegacyPoolInflow,
	}, {
		name:   "legacy pool outflow after migration",
		height: 20,
		block: testBlock(testCoinbase(1, 1), spend(func(tx *wire.MsgTx) {
			tx.JoinSplits = []*wire.JoinSplit{{VPubNew: 1}}
		})),
	}}

	for _, test := range tests {
		err := checkTransactionsContext(test.block, test.height, params)
		if test.err == nil {
			if err != nil {
				t.Errorf("%q: unexpected error: %v", test.name, err)
			}
			continue
		}
		if !errors.Is(err, test.err) {
			t.Errorf("%q: mismatched error -- got %v, want %v", test.name,
				err, test.err)
		}
	}
}

// TestCheckTransactionInputs ensures coinbase maturity and value conservation
// are enforced and the expected fee is returned.
func TestCheckTransactionInputs(t *testing.T) {
	t.Parallel()

	params := chaincfg.RegNetParams()
	coinbaseEntry := NewUtxoEntry(1000, []byte{0x51}, 1, true)
	regularEntry := NewUtxoEntry(1000, []byte{0x51}, 1, false)
	prevOut := wire.OutPoint{Hash: wire.TxID{0x01}}

	tests := []struct {
		name     string
		prevOuts []*UtxoEntry
		height   int64
		mutate   func(tx *wire.MsgTx)
		fee      int64
		err      error
	}{{
		name:     "immature coinbase spend",
		prevOuts: []*UtxoEntry{coinbaseEntry},
		height:   16,
		err:      ErrImmatureSpend,
	}, {
		name:     "mature coinbase spend",
		prevOuts: []*UtxoEntry{coinbaseEntry},
		height:   17,
		fee:      100,
	}, {
		name:     "regular spend at next height",
		prevOuts: []*UtxoEntry{regularEntry},
		height:   2,
		fee:      100,
	}, {
		name:     "outputs exceed inputs",
		prevOuts: []*UtxoEntry{regularEntry},
		height:   2,
		mutate:   func(tx *wire.MsgTx) { tx.TxOut[0].Value = 1001 },
		err:      ErrSpendTooHigh,
	}, {
		name:     "joinsplit outflow funds outputs",
		prevOuts: []*UtxoEntry{regularEntry},
		height:   2,
		mutate: func(tx *wire.MsgTx) {
			tx.TxOut[0].Value = 1500
			tx.JoinSplits = []*wire.JoinSplit{{VPubNew: 600}}
		},
		fee: 100,
	}, {
		name:     "shielded value balance funds outputs",
		prevOuts: []*UtxoEntry{regularEntry},
		height:   2,
		mutate: func(tx *wire.MsgTx) {
			tx.TxOut[0].Value = 1200
			tx.ValueBalance = 250
		},
		fee: 50,
	}, {
		name:     "negative value balance consumes inputs",
		prevOuts: []*UtxoEntry{regularEntry},
		height:   2,
		mutate:   func(tx *wire.MsgTx) { tx.ValueBalance = -901 },
		err:      ErrSpendTooHigh,
	}, {
		name: "inputs above max money",
		prevOuts: []*UtxoEntry{
			NewUtxoEntry(maxMoney, []byte{0x51}, 1, false),
			NewUtxoEntry(1, []byte{0x51}, 1, false),
		},
		height: 2,
		err:    ErrSpendTooHigh,
	}}

	for _, test := range tests {
		prevOuts := make([]wire.OutPoint, len(test.prevOuts))
		for i := range prevOuts {
			prevOuts[i] = prevOut
			prevOuts[i].Index = uint32(i)
		}
		tx := testSpendTx(prevOuts, 900)
		if test.mutate != nil {
			test.mutate(tx)
		}
		fee, err := checkTransactionInputs(tx, test.height, test.prevOuts,
			params)
		if test.err != nil {
			if !errors.Is(err, test.err) {
				t.Errorf("%q: mismatched error -- got %v, want %v",
					test.name, err, test.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", test.name, err)
			continue
		}
		if fee != test.fee {
			t.Errorf("%q: got fee %d, want %d", test.name, fee, test.fee)
		}
	}
}

// TestCheckBlockSanity ensures the context free block checks accept a solved
// block and reject blocks that break each rule.
func TestCheckBlockSanity(t *testing.T) {
	t.Parallel()

	params := chaincfg.RegNetParams()
	g, err := chaingen.MakeGenerator(params)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}
	valid := g.NextBlock("b1", nil)
	if err := CheckBlockSanity(valid, valid.SerializeSize(), params, BFNone); err != nil {
		t.Fatalf("solved block failed sanity checks: %v", err)
	}

	// Tampering with the header invalidates the proof of work.
	tampered := *valid
	tampered.Header.Nonce[31] ^= 0x01
	err = CheckBlockSanity(&tampered, tampered.SerializeSize(), params, BFNone)
	if !errors.Is(err, ErrHighHash) && !errors.Is(err, ErrInvalidSolution) {
		t.Fatalf("unexpected error for tampered header: %v", err)
	}

	spendTx := testSpendTx([]wire.OutPoint{{Hash: wire.TxID{0x01}}}, 1)
	tests := []struct {
		name   string
		mutate func(b *wire.MsgBlock)
		size   int
		err    error
	}{{
		name:   "old block version",
		mutate: func(b *wire.MsgBlock) { b.Header.Version = 3 },
		err:    ErrBlockVersionTooOld,
	}, {
		name:   "difficulty above limit",
		mutate: func(b *wire.MsgBlock) { b.Header.Bits = 0x207fffff },
		err:    ErrUnexpectedDifficulty,
	}, {
		name:   "no transactions",
		mutate: func(b *wire.MsgBlock) { b.Transactions = nil },
		err:    ErrNoTransactions,
	}, {
		name:   "block too big",
		mutate: func(b *wire.MsgBlock) {},
		size:   params.MaxBlockSize + 1,
		err:    ErrBlockTooBig,
	}, {
		name:   "first transaction not coinbase",
		mutate: func(b *wire.MsgBlock) { b.Transactions[0] = spendTx },
		err:    ErrFirstTxNotCoinbase,
	}, {
		name: "multiple coinbases",
		mutate: func(b *wire.MsgBlock) {
			b.Transactions = append(b.Transactions, testCoinbase(7, 1))
		},
		err: ErrMultipleCoinbases,
	}, {
		name: "insane transaction",
		mutate: func(b *wire.MsgBlock) {
			b.Transactions = append(b.Transactions,
				testSpendTx([]wire.OutPoint{{Hash: wire.TxID{0x02}}}))
		},
		err: ErrNoTxOutputs,
	}, {
		name: "duplicate transaction",
		mutate: func(b *wire.MsgBlock) {
			b.Transactions = append(b.Transactions, spendTx, spendTx)
		},
		err: ErrDuplicateTx,
	}, {
		name:   "bad merkle root",
		mutate: func(b *wire.MsgBlock) { b.Header.MerkleRoot[0] ^= 0x01 },
		err:    ErrBadMerkleRoot,
	}}

	for _, test := range tests {
		block, err := wire.DecodeBlock(valid.Bytes())
		if err != nil {
			t.Fatalf("failed to copy block: %v", err)
		}
		test.mutate(block)
		size := test.size
		if size == 0 {
			size = block.SerializeSize()
		}
		err = CheckBlockSanity(block, size, params, BFNoPoWCheck)
		if !errors.Is(err, test.err) {
			t.Errorf("%q: mismatched error -- got %v, want %v", test.name,
				err, test.err)
		}
	}
}
