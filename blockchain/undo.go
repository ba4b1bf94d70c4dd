// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/zecnode/zecd/wire"
)

// SpentOutput is the exact state of an output before a block spent it.
type SpentOutput struct {
	OutPoint wire.OutPoint
	Entry    *UtxoEntry
}

// UndoRecord holds everything needed to disconnect a block from the utxo set
// without rescanning the chain.  Spent lists the pre-images of every output
// the block consumed that existed before the block.  Created lists every
// output the block added that was still unspent after it.  Outputs created
// and spent within the block appear in neither.
type UndoRecord struct {
	Spent   []SpentOutput
	Created []wire.OutPoint
}

// maxUndoItems bounds the number of items decoded from a stored undo record.
const maxUndoItems = wire.MaxBlockPayload / 9

// -----------------------------------------------------------------------------
// The serialized format of an undo record is:
//
//   <num spent><spent outputs><num created><created outpoints>
//
//   Field              Type          Size
//   num spent          VarInt        variable
//   spent outputs      []spent       variable
//   num created        VarInt        variable
//   created outpoints  []outpoint    36 each
//
// Each spent output is its outpoint followed by its serialized utxo entry.  An
// outpoint is the transaction hash followed by the little endian output index.
// -----------------------------------------------------------------------------

// serializeUndoRecord returns the undo record serialized to a format that is
// suitable for long-term storage.
func serializeUndoRecord(undo *UndoRecord) []byte {
	var buf bytes.Buffer
	_ = wire.WriteVarInt(&buf, uint64(len(undo.Spent)))
	for i := range undo.Spent {
		spent := &undo.Spent[i]
		buf.Write(outpointKey(&spent.OutPoint))
		buf.Write(serializeUtxoEntry(spent.Entry))
	}
	_ = wire.WriteVarInt(&buf, uint64(len(undo.Created)))
	for i := range undo.Created {
		buf.Write(outpointKey(&undo.Created[i]))
	}
	return buf.Bytes()
}

// deserializeUndoRecord decodes an undo record from the passed serialized byte
// slice.
func deserializeUndoRecord(serialized []byte) (*UndoRecord, error) {
	r := bytes.NewReader(serialized)
	numSpent, err := wire.ReadVarInt(r)
	if err != nil || numSpent > maxUndoItems {
		return nil, errDeserialize("malformed undo record spent count")
	}
	undo := &UndoRecord{Spent: make([]SpentOutput, numSpent)}
	for i := range undo.Spent {
		if err := readOutPoint(r, &undo.Spent[i].OutPoint); err != nil {
			return nil, err
		}
		entry, err := readUtxoEntry(r)
		if err != nil {
			return nil, err
		}
		undo.Spent[i].Entry = entry
	}

	numCreated, err := wire.ReadVarInt(r)
	if err != nil || numCreated > maxUndoItems {
		return nil, errDeserialize("malformed undo record created count")
	}
	undo.Created = make([]wire.OutPoint, numCreated)
	for i := range undo.Created {
		if err := readOutPoint(r, &undo.Created[i]); err != nil {
			return nil, err
		}
	}
	if r.Len() != 0 {
		return nil, errDeserialize(fmt.Sprintf("%d trailing bytes after "+
			"undo record", r.Len()))
	}
	return undo, nil
}

// undoKey returns the key an undo record is stored under.  It is the big
// endian height followed by the block hash so records iterate in height order.
func undoKey(height int64, hash *wire.BlockHash) []byte {
	key := make([]byte, 4+wire.HashSize)
	binary.BigEndian.PutUint32(key, uint32(height))
	copy(key[4:], hash[:])
	return key
}
