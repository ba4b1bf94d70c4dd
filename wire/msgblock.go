// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
)

// defaultTransactionAlloc is the default size used for the backing array
// for transactions.  The transaction array will dynamically grow as needed,
// but this figure is intended to provide enough space for the number of
// transactions in the vast majority of blocks without needing to grow the
// backing array multiple times.
const defaultTransactionAlloc = 2048

// minTxPayload is the minimum payload size for a transaction.  Note
// that any realistically usable transaction must have at least one
// input or output, but that is a rule enforced at a higher layer, so
// it is intentionally not included here.
// Header 4 bytes + Varint number of transaction inputs 1 byte + Varint
// number of transaction outputs 1 byte + LockTime 4 bytes.
const minTxPayload = 10

// maxTxPerBlock is the maximum number of transactions that could
// possibly fit into a block.
const maxTxPerBlock = (MaxBlockPayload / minTxPayload) + 1

// MsgBlock implements a block, which is a header followed by its ordered
// transactions.
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
}

// NewMsgBlock returns a new block message that conforms to the Message
// interface.  See MsgBlock for details.
func NewMsgBlock(blockHeader *BlockHeader) *MsgBlock {
	return &MsgBlock{
		Header:       *blockHeader,
		Transactions: make([]*MsgTx, 0, defaultTransactionAlloc),
	}
}

// AddTransaction adds a transaction to the message.
func (msg *MsgBlock) AddTransaction(tx *MsgTx) {
	msg.Transactions = append(msg.Transactions, tx)
}

// BlockHash computes the block identifier hash for this block.
func (msg *MsgBlock) BlockHash() BlockHash {
	return msg.Header.BlockHash()
}

// TxIDs returns the ids of all transactions in the block, in block order.
func (msg *MsgBlock) TxIDs() []TxID {
	ids := make([]TxID, 0, len(msg.Transactions))
	for _, tx := range msg.Transactions {
		ids = append(ids, tx.TxID())
	}
	return ids
}

// Deserialize decodes a block from r into the receiver.
//
// Field order: header, transaction count (varint), transactions.
func (msg *MsgBlock) Deserialize(r io.Reader) error {
	const op = "MsgBlock.Deserialize"
	if err := msg.Header.Deserialize(r); err != nil {
		return err
	}

	txCount, err := readCount(r, maxTxPerBlock, op, "transactions")
	if err != nil {
		return err
	}

	msg.Transactions = make([]*MsgTx, 0, txCount)
	for i := uint64(0); i < txCount; i++ {
		tx := MsgTx{}
		if err := tx.Deserialize(r); err != nil {
			return err
		}
		msg.Transactions = append(msg.Transactions, &tx)
	}

	return nil
}

// Serialize encodes the block to w.  See Deserialize for the field order.
func (msg *MsgBlock) Serialize(w io.Writer) error {
	if err := msg.Header.Serialize(w); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(msg.Transactions))); err != nil {
		return err
	}
	for _, tx := range msg.Transactions {
		if err := tx.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns the serialized block.
func (msg *MsgBlock) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(msg.SerializeSize())
	msg.Serialize(&buf)
	return buf.Bytes()
}

// SerializeSize returns the number of bytes it would take to serialize the
// block.
func (msg *MsgBlock) SerializeSize() int {
	n := msg.Header.SerializeSize() +
		VarIntSerializeSize(uint64(len(msg.Transactions)))
	for _, tx := range msg.Transactions {
		n += tx.SerializeSize()
	}
	return n
}

// DecodeBlock decodes a block that must occupy the entirety of the passed
// bytes.  Blocks larger than MaxBlockPayload are rejected before decoding.
func DecodeBlock(b []byte) (*MsgBlock, error) {
	const op = "DecodeBlock"
	if len(b) > MaxBlockPayload {
		return nil, messageError(op, ErrMalformedField,
			"block is larger than the maximum block payload")
	}
	var block MsgBlock
	if err := decodeExact(op, b, block.Deserialize); err != nil {
		return nil, err
	}
	return &block, nil
}
