// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"testing"

	"github.com/zecnode/zecd/wire"
)

// testCoinbase returns a coinbase paying the provided values.  The tag makes
// the transaction unique.
func testCoinbase(tag byte, values ...int64) *wire.MsgTx {
	tx := wire.NewMsgTx()
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: wire.MaxPrevOutIndex},
		SignatureScript:  []byte{0x00, tag},
		Sequence:         wire.MaxTxInSequenceNum,
	})
	for _, value := range values {
		tx.AddTxOut(wire.NewTxOut(value, []byte{0x51}))
	}
	return tx
}

// testSpendTx returns a transaction spending the provided outpoints and paying
// the provided values.
func testSpendTx(prevOuts []wire.OutPoint, values ...int64) *wire.MsgTx {
	tx := wire.NewMsgTx()
	for i := range prevOuts {
		tx.AddTxIn(wire.NewTxIn(&prevOuts[i], []byte{0x51}))
	}
	for _, value := range values {
		tx.AddTxOut(wire.NewTxOut(value, []byte{0x51}))
	}
	return tx
}

// testBlock returns a block holding the provided transactions.  The header is
// irrelevant to the utxo view.
func testBlock(txns ...*wire.MsgTx) *wire.MsgBlock {
	return &wire.MsgBlock{
		Header:       wire.BlockHeader{Version: 4},
		Transactions: txns,
	}
}

// viewSnapshot returns a copy of the unspent entries of the view.
func viewSnapshot(view *UtxoViewpoint) map[wire.OutPoint]UtxoEntry {
	snapshot := make(map[wire.OutPoint]UtxoEntry)
	for outpoint, entry := range view.entries {
		if !entry.IsSpent() {
			snapshot[outpoint] = *entry
		}
	}
	return snapshot
}

// assertSameView ensures the unspent entries of the view match the snapshot.
func assertSameView(t *testing.T, view *UtxoViewpoint, want map[wire.OutPoint]UtxoEntry) {
	t.Helper()

	got := viewSnapshot(view)
	if len(got) != len(want) {
		t.Fatalf("view has %d unspent entries, want %d", len(got), len(want))
	}
	for outpoint, wantEntry := range want {
		gotEntry, ok := got[outpoint]
		if !ok {
			t.Fatalf("view is missing %v", outpoint)
		}
		if !gotEntry.equal(&wantEntry) {
			t.Fatalf("entry %v differs - got %+v, want %+v", outpoint,
				gotEntry, wantEntry)
		}
	}
}

// TestApplyUndoBlock ensures applying a block and undoing it with the returned
// record restores the view exactly, including outputs created and spent within
// the block.
func TestApplyUndoBlock(t *testing.T) {
	t.Parallel()

	view := NewUtxoViewpoint()
	outA := wire.OutPoint{Hash: wire.TxID{0x0a}, Index: 0}
	outB := wire.OutPoint{Hash: wire.TxID{0x0b}, Index: 2}
	view.AddEntry(outA, NewUtxoEntry(5000, []byte{0x51}, 1, true))
	view.AddEntry(outB, NewUtxoEntry(7000, []byte{0x52}, 3, false))
	before := viewSnapshot(view)

	// The second transaction spends an output created by the first one.
	coinbase := testCoinbase(1, 100)
	tx1 := testSpendTx([]wire.OutPoint{outA}, 4000)
	outD := wire.OutPoint{Hash: tx1.TxID(), Index: 0}
	tx2 := testSpendTx([]wire.OutPoint{outD}, 1000, 2000)
	block := testBlock(coinbase, tx1, tx2)

	undo, err := view.ApplyBlock(block, 20)
	if err != nil {
		t.Fatalf("unexpected error applying block: %v", err)
	}

	if len(undo.Spent) != 1 || undo.Spent[0].OutPoint != outA {
		t.Fatalf("unexpected spent outputs %+v", undo.Spent)
	}
	if !undo.Spent[0].Entry.equal(NewUtxoEntry(5000, []byte{0x51}, 1, true)) {
		t.Fatalf("spent pre-image does not match: %+v", undo.Spent[0].Entry)
	}
	wantCreated := []wire.OutPoint{
		{Hash: coinbase.TxID(), Index: 0},
		{Hash: tx2.TxID(), Index: 0},
		{Hash: tx2.TxID(), Index: 1},
	}
	if len(undo.Created) != len(wantCreated) {
		t.Fatalf("unexpected created outputs %v", undo.Created)
	}
	for i := range wantCreated {
		if undo.Created[i] != wantCreated[i] {
			t.Fatalf("created output %d is %v, want %v", i,
				undo.Created[i], wantCreated[i])
		}
	}

	for _, outpoint := range []wire.OutPoint{outA, outD} {
		if entry, _ := view.LookupEntry(outpoint); entry != nil {
			t.Fatalf("output %v is still unspent", outpoint)
		}
	}
	entry, _ := view.LookupEntry(wantCreated[0])
	if entry == nil || !entry.IsCoinBase() || entry.BlockHeight() != 20 {
		t.Fatalf("unexpected coinbase entry %+v", entry)
	}

	// Undo the block and ensure the view matches its original state.
	if err := view.UndoBlock(block, undo); err != nil {
		t.Fatalf("unexpected error undoing block: %v", err)
	}
	assertSameView(t, view, before)
}

// TestApplyBlockFailures ensures blocks that spend missing or spent outputs or
// overwrite unspent outputs are rejected without modifying the view.
func TestApplyBlockFailures(t *testing.T) {
	t.Parallel()

	outA := wire.OutPoint{Hash: wire.TxID{0x0a}, Index: 0}
	existingCoinbase := testCoinbase(9, 50)
	outExisting := wire.OutPoint{Hash: existingCoinbase.TxID(), Index: 0}

	tests := []struct {
		name  string
		block *wire.MsgBlock
		want  ErrorKind
	}{{
		name: "double spend across transactions",
		block: testBlock(testCoinbase(1, 100),
			testSpendTx([]wire.OutPoint{outA}, 10),
			testSpendTx([]wire.OutPoint{outA}, 20)),
		want: ErrMissingOrSpentOutput,
	}, {
		name: "missing output",
		block: testBlock(testCoinbase(2, 100),
			testSpendTx([]wire.OutPoint{{Hash: wire.TxID{0xee}}}, 10)),
		want: ErrMissingOrSpentOutput,
	}, {
		name: "spend of a later output in the same block",
		block: func() *wire.MsgBlock {
			later := testSpendTx([]wire.OutPoint{outA}, 30)
			early := testSpendTx([]wire.OutPoint{{Hash: later.TxID()}}, 10)
			return testBlock(testCoinbase(3, 100), early, later)
		}(),
		want: ErrMissingOrSpentOutput,
	}, {
		name:  "overwrite unspent output",
		block: testBlock(existingCoinbase),
		want:  ErrOverwriteOutput,
	}}

	for _, test := range tests {
		view := NewUtxoViewpoint()
		view.AddEntry(outA, NewUtxoEntry(5000, []byte{0x51}, 1, false))
		view.AddEntry(outExisting, NewUtxoEntry(50, []byte{0x51}, 2, true))
		before := viewSnapshot(view)
		numEntries := len(view.entries)

		_, err := view.ApplyBlock(test.block, 10)
		if !errors.Is(err, test.want) {
			t.Errorf("%q: unexpected error -- got %v, want %v", test.name,
				err, test.want)
			continue
		}
		if len(view.entries) != numEntries {
			t.Errorf("%q: failed block added %d entries", test.name,
				len(view.entries)-numEntries)
			continue
		}
		assertSameView(t, view, before)
	}
}

// TestUndoBlockMismatch ensures undo records that do not match the block are
// reported as assertions without modifying the view.
func TestUndoBlockMismatch(t *testing.T) {
	t.Parallel()

	view := NewUtxoViewpoint()
	outA := wire.OutPoint{Hash: wire.TxID{0x0a}, Index: 0}
	view.AddEntry(outA, NewUtxoEntry(5000, []byte{0x51}, 1, false))
	block := testBlock(testCoinbase(1, 100),
		testSpendTx([]wire.OutPoint{outA}, 4000))
	undo, err := view.ApplyBlock(block, 2)
	if err != nil {
		t.Fatalf("unexpected error applying block: %v", err)
	}
	after := viewSnapshot(view)

	tests := []struct {
		name string
		undo *UndoRecord
	}{{
		name: "created output of another block",
		undo: &UndoRecord{Created: []wire.OutPoint{{Hash: wire.TxID{0xff}}}},
	}, {
		name: "restores an unspent output",
		undo: &UndoRecord{
			Spent: []SpentOutput{{
				OutPoint: undo.Created[0],
				Entry:    NewUtxoEntry(1, []byte{0x51}, 1, false),
			}},
		},
	}, {
		name: "removes an output twice",
		undo: &UndoRecord{
			Created: []wire.OutPoint{undo.Created[1], undo.Created[1]},
		},
	}}

	for _, test := range tests {
		err := view.UndoBlock(block, test.undo)
		var aErr AssertError
		if !errors.As(err, &aErr) {
			t.Errorf("%q: unexpected error %v", test.name, err)
			continue
		}
		assertSameView(t, view, after)
	}
}
