// Copyright (c) 2021 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// hexToBytes converts the passed hex string into bytes and will panic if there
// is an error.  This is only provided for the hard-coded constants so errors in
// the source code can be detected.  It will only (and must only) be called with
// hard-coded values.
func hexToBytes(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("invalid hex in source file: " + s)
	}
	return b
}

// TestUtxoEntryState ensures the spent and modified flags of an entry behave
// as expected and that clones are independent.
func TestUtxoEntryState(t *testing.T) {
	entry := NewUtxoEntry(5000, []byte{0x51}, 12, true)
	if entry.IsSpent() || entry.isModified() {
		t.Fatal("new entry is spent or modified")
	}
	if !entry.IsCoinBase() || entry.BlockHeight() != 12 ||
		entry.Amount() != 5000 {

		t.Fatalf("unexpected entry fields: coinbase %v, height %d, "+
			"amount %d", entry.IsCoinBase(), entry.BlockHeight(),
			entry.Amount())
	}

	clone := entry.Clone()
	clone.Spend()
	clone.PkScript()[0] = 0x00
	if entry.IsSpent() {
		t.Fatal("spending a clone spent the original")
	}
	if entry.PkScript()[0] != 0x51 {
		t.Fatal("modifying the script of a clone modified the original")
	}
	if !clone.IsSpent() || !clone.isModified() {
		t.Fatal("spent clone is not spent and modified")
	}

	// Spending twice has no further effect.
	clone.Spend()
	if !clone.IsSpent() {
		t.Fatal("double spend cleared the spent flag")
	}

	var nilEntry *UtxoEntry
	if nilEntry.Clone() != nil {
		t.Fatal("clone of nil entry is not nil")
	}
}

// TestUtxoSerialization ensures serializing and deserializing unspent
// transaction output entries works as expected.
func TestUtxoSerialization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		entry      *UtxoEntry
		serialized []byte
	}{{
		name:       "coinbase output at height 10",
		entry:      NewUtxoEntry(1250000000, []byte{0x51}, 10, true),
		serialized: hexToBytes("15fe807c814a0151"),
	}, {
		name:       "regular output at height 1",
		entry:      NewUtxoEntry(1, []byte{0x51, 0x52}, 1, false),
		serialized: hexToBytes("0201025152"),
	}, {
		name:       "zero value output with large height",
		entry:      NewUtxoEntry(0, []byte{0x6a}, 300, false),
		serialized: hexToBytes("fd580200016a"),
	}}

	for _, test := range tests {
		// Ensure the utxo entry serializes to the expected value.
		gotBytes := serializeUtxoEntry(test.entry)
		if !bytes.Equal(gotBytes, test.serialized) {
			t.Errorf("%q: mismatched bytes - got %x, want %x", test.name,
				gotBytes, test.serialized)
			continue
		}

		// Deserialize to a utxo entry and ensure it matches.
		utxoEntry, err := deserializeUtxoEntry(test.serialized)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", test.name, err)
			continue
		}
		if !utxoEntry.equal(test.entry) {
			t.Errorf("%q: mismatched entry - got %+v, want %+v",
				test.name, utxoEntry, test.entry)
			continue
		}
	}
}

// TestUtxoEntryDeserializeErrors performs negative tests against deserializing
// unspent transaction outputs to ensure error paths work as expected.
func TestUtxoEntryDeserializeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		serialized []byte
	}{{
		name:       "empty",
		serialized: nil,
	}, {
		name:       "no amount",
		serialized: hexToBytes("15"),
	}, {
		name:       "truncated amount",
		serialized: hexToBytes("15fe807c"),
	}, {
		name:       "no script",
		serialized: hexToBytes("15fe807c814a"),
	}, {
		name:       "truncated script",
		serialized: hexToBytes("15fe807c814a0251"),
	}, {
		name:       "trailing bytes",
		serialized: hexToBytes("15fe807c814a015100"),
	}, {
		name:       "amount above max money",
		serialized: hexToBytes("15ff0000000000000080" + "0151"),
	}, {
		name:       "height overflows",
		serialized: hexToBytes("ff0000000002000000" + "01" + "0151"),
	}}

	for _, test := range tests {
		_, err := deserializeUtxoEntry(test.serialized)
		if !isDeserializeErr(err) {
			t.Errorf("%q: expected deserialize error, got %v", test.name,
				err)
		}
	}
}
