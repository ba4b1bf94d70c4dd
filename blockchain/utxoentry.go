// Copyright (c) 2021 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/zecnode/zecd/wire"
)

// utxoState defines the in-memory state of a utxo entry.
//
// The bit representation is:
//
//	bit  0    - transaction output has been spent
//	bit  1    - transaction output has been modified since it was loaded
//	bits 2-7  - unused
type utxoState uint8

const (
	// utxoStateSpent indicates that a txout is spent.
	utxoStateSpent utxoState = 1 << iota

	// utxoStateModified indicates that a txout has been modified since it was
	// loaded.
	utxoStateModified
)

// maxUtxoScriptSize is the largest lock script accepted when decoding a
// stored entry.
const maxUtxoScriptSize = wire.MaxBlockPayload

// UtxoEntry houses details about an individual unspent transaction output such
// as its value, lock script, the height of the block that created it, and
// whether it was created by a coinbase.
type UtxoEntry struct {
	amount      int64
	pkScript    []byte
	blockHeight uint32
	coinbase    bool
	state       utxoState
}

// NewUtxoEntry returns an unspent entry with the provided details.
func NewUtxoEntry(amount int64, pkScript []byte, blockHeight int64, coinbase bool) *UtxoEntry {
	return &UtxoEntry{
		amount:      amount,
		pkScript:    pkScript,
		blockHeight: uint32(blockHeight),
		coinbase:    coinbase,
	}
}

// isModified returns whether or not the output has been modified since it was
// loaded.
func (entry *UtxoEntry) isModified() bool {
	return entry.state&utxoStateModified == utxoStateModified
}

// IsCoinBase returns whether or not the output was contained in a coinbase
// transaction.
func (entry *UtxoEntry) IsCoinBase() bool {
	return entry.coinbase
}

// BlockHeight returns the height of the block containing the output.
func (entry *UtxoEntry) BlockHeight() int64 {
	return int64(entry.blockHeight)
}

// IsSpent returns whether or not the output has been spent based upon the
// current state of the unspent transaction output view it was obtained from.
func (entry *UtxoEntry) IsSpent() bool {
	return entry.state&utxoStateSpent == utxoStateSpent
}

// Spend marks the output as spent.  Spending an output that is already spent
// has no effect.
func (entry *UtxoEntry) Spend() {
	if entry.IsSpent() {
		return
	}
	entry.state |= utxoStateSpent | utxoStateModified
}

// Amount returns the amount of the output.
func (entry *UtxoEntry) Amount() int64 {
	return entry.amount
}

// PkScript returns the lock script for the output.
func (entry *UtxoEntry) PkScript() []byte {
	return entry.pkScript
}

// Clone returns a copy of the utxo entry.  It performs a deep copy of the
// script so the copy can be modified without affecting the original.
func (entry *UtxoEntry) Clone() *UtxoEntry {
	if entry == nil {
		return nil
	}
	newEntry := *entry
	if entry.pkScript != nil {
		newEntry.pkScript = make([]byte, len(entry.pkScript))
		copy(newEntry.pkScript, entry.pkScript)
	}
	return &newEntry
}

// equal returns whether the persisted fields of both entries match.
func (entry *UtxoEntry) equal(other *UtxoEntry) bool {
	return entry.amount == other.amount &&
		entry.blockHeight == other.blockHeight &&
		entry.coinbase == other.coinbase &&
		bytes.Equal(entry.pkScript, other.pkScript)
}

// errDeserialize signifies that a problem was encountered when deserializing
// data.
type errDeserialize string

// Error implements the error interface.
func (e errDeserialize) Error() string {
	return string(e)
}

// isDeserializeErr returns whether or not the passed error is an errDeserialize
// error.
func isDeserializeErr(err error) bool {
	var e errDeserialize
	return errors.As(err, &e)
}

// -----------------------------------------------------------------------------
// The serialized format of an unspent entry is:
//
//   <header code><amount><script len><script>
//
//   Field          Type     Size
//   header code    VarInt   variable
//   amount         VarInt   variable
//   script len     VarInt   variable
//   script         []byte   variable
//
// The header code is the block height shifted left one bit with the coinbase
// flag in the lowest bit.  Spent entries are never serialized since they are
// removed from the set.
// -----------------------------------------------------------------------------

// serializeUtxoEntry returns the entry serialized to a format that is suitable
// for long-term storage.
func serializeUtxoEntry(entry *UtxoEntry) []byte {
	headerCode := uint64(entry.blockHeight) << 1
	if entry.coinbase {
		headerCode |= 0x01
	}

	size := wire.VarIntSerializeSize(headerCode) +
		wire.VarIntSerializeSize(uint64(entry.amount)) +
		wire.VarBytesSerializeSize(entry.pkScript)
	var buf bytes.Buffer
	buf.Grow(size)
	_ = wire.WriteVarInt(&buf, headerCode)
	_ = wire.WriteVarInt(&buf, uint64(entry.amount))
	_ = wire.WriteVarBytes(&buf, entry.pkScript)
	return buf.Bytes()
}

// readUtxoEntry decodes an entry from the reader.
func readUtxoEntry(r io.Reader) (*UtxoEntry, error) {
	headerCode, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, errDeserialize(fmt.Sprintf("unable to decode utxo "+
			"header code: %v", err))
	}
	if headerCode>>1 > 0xffffffff {
		return nil, errDeserialize("utxo height out of range")
	}
	amount, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, errDeserialize(fmt.Sprintf("unable to decode utxo "+
			"amount: %v", err))
	}
	if amount > maxMoney {
		return nil, errDeserialize("utxo amount out of range")
	}
	pkScript, err := wire.ReadVarBytes(r, maxUtxoScriptSize, "pkscript")
	if err != nil {
		return nil, errDeserialize(fmt.Sprintf("unable to decode utxo "+
			"script: %v", err))
	}
	return &UtxoEntry{
		amount:      int64(amount),
		pkScript:    pkScript,
		blockHeight: uint32(headerCode >> 1),
		coinbase:    headerCode&0x01 != 0,
	}, nil
}

// deserializeUtxoEntry decodes an entry from the passed serialized byte slice.
// The entry must consume the entire slice.
func deserializeUtxoEntry(serialized []byte) (*UtxoEntry, error) {
	r := bytes.NewReader(serialized)
	entry, err := readUtxoEntry(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errDeserialize(fmt.Sprintf("%d trailing bytes after "+
			"utxo entry", r.Len()))
	}
	return entry, nil
}

// outpointKeySize is the size of a serialized outpoint key.
const outpointKeySize = wire.HashSize + 4

// outpointKey returns the key used to store the entry for the outpoint in the
// utxo set.  It is the transaction hash followed by the little endian output
// index.
func outpointKey(outpoint *wire.OutPoint) []byte {
	key := make([]byte, outpointKeySize)
	copy(key, outpoint.Hash[:])
	binary.LittleEndian.PutUint32(key[wire.HashSize:], outpoint.Index)
	return key
}

// readOutPoint decodes an outpoint in key form from the reader.
func readOutPoint(r io.Reader, outpoint *wire.OutPoint) error {
	var key [outpointKeySize]byte
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return errDeserialize(fmt.Sprintf("unable to decode outpoint: %v",
			err))
	}
	copy(outpoint.Hash[:], key[:wire.HashSize])
	outpoint.Index = binary.LittleEndian.Uint32(key[wire.HashSize:])
	return nil
}
