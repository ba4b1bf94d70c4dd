// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

const (
	// MaxBlockPayload is the maximum bytes a block message can be.
	MaxBlockPayload = 2000000

	// MaxPrevOutIndex is the maximum index the index field of a previous
	// outpoint can be.
	MaxPrevOutIndex uint32 = 0xffffffff

	// MaxTxInSequenceNum is the maximum sequence number the sequence field
	// of a transaction input can be.
	MaxTxInSequenceNum uint32 = 0xffffffff

	// OverwinterVersionGroupID is the version group id of overwintered
	// version 3 transactions.
	OverwinterVersionGroupID uint32 = 0x03c48270

	// SaplingVersionGroupID is the version group id of overwintered version
	// 4 transactions.
	SaplingVersionGroupID uint32 = 0x892f2085

	// SpendDescriptionSize is the size of a serialized shielded spend.
	SpendDescriptionSize = 384

	// OutputDescriptionSize is the size of a serialized shielded output.
	OutputDescriptionSize = 948

	// JoinSplitBodySizeLegacy is the size of a JoinSplit body, excluding
	// the two public values, for transactions before version 4.
	JoinSplitBodySizeLegacy = 1786

	// JoinSplitBodySize is the size of a JoinSplit body, excluding the two
	// public values, for version 4 transactions.
	JoinSplitBodySize = 1682

	// JoinSplitPubKeySize is the size of the JoinSplit signing key.
	JoinSplitPubKeySize = 32

	// SignatureSize is the size of the JoinSplit and binding signatures.
	SignatureSize = 64

	// overwinteredFlag is the bit of the header field that marks an
	// overwintered transaction.
	overwinteredFlag = 1 << 31

	// minTxInPayload is the minimum payload size for a transaction input.
	// PreviousOutPoint.Hash + PreviousOutPoint.Index 4 bytes + varint for
	// SignatureScript length 1 byte + Sequence 4 bytes.
	minTxInPayload = 9 + HashSize

	// minTxOutPayload is the minimum payload size for a transaction output.
	// Value 8 bytes + varint for PkScript length 1 byte.
	minTxOutPayload = 9

	// maxTxInPerMessage is the maximum number of transaction inputs that
	// could possibly fit into a block.
	maxTxInPerMessage = (MaxBlockPayload / minTxInPayload) + 1

	// maxTxOutPerMessage is the maximum number of transaction outputs that
	// could possibly fit into a block.
	maxTxOutPerMessage = (MaxBlockPayload / minTxOutPayload) + 1

	// maxSpendsPerMessage is the maximum number of shielded spends that
	// could possibly fit into a block.
	maxSpendsPerMessage = (MaxBlockPayload / SpendDescriptionSize) + 1

	// maxOutputsPerMessage is the maximum number of shielded outputs that
	// could possibly fit into a block.
	maxOutputsPerMessage = (MaxBlockPayload / OutputDescriptionSize) + 1

	// maxJoinSplitsPerMessage is the maximum number of JoinSplits that
	// could possibly fit into a block.
	maxJoinSplitsPerMessage = (MaxBlockPayload / (16 + JoinSplitBodySize)) + 1
)

// OutPoint defines a transaction data type that is used to track previous
// transaction outputs.
type OutPoint struct {
	Hash  TxID
	Index uint32
}

// NewOutPoint returns a new transaction outpoint point with the provided hash
// and index.
func NewOutPoint(hash *TxID, index uint32) *OutPoint {
	return &OutPoint{
		Hash:  *hash,
		Index: index,
	}
}

// String returns the OutPoint in the human-readable form "hash:index".
func (o OutPoint) String() string {
	// Allocate enough for hash string, colon, and 10 digits.  Although
	// at the time of writing, the number of digits can be no greater than
	// the length of the decimal representation of maxTxOutPerMessage, the
	// maximum message payload may increase in the future and this
	// optimization may go unnoticed, so allocate space for 10 decimal
	// digits, which will fit any uint32.
	buf := make([]byte, 2*HashSize+1, 2*HashSize+1+10)
	copy(buf, o.Hash.String())
	buf[2*HashSize] = ':'
	buf = strconv.AppendUint(buf, uint64(o.Index), 10)
	return string(buf)
}

// TxIn defines a transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

// NewTxIn returns a new transaction input with the provided previous outpoint
// and signature script with a default sequence of MaxTxInSequenceNum.
func NewTxIn(prevOut *OutPoint, signatureScript []byte) *TxIn {
	return &TxIn{
		PreviousOutPoint: *prevOut,
		SignatureScript:  signatureScript,
		Sequence:         MaxTxInSequenceNum,
	}
}

// TxOut defines a transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// NewTxOut returns a new transaction output with the provided transaction
// value and public key script.
func NewTxOut(value int64, pkScript []byte) *TxOut {
	return &TxOut{
		Value:    value,
		PkScript: pkScript,
	}
}

// SpendDescription is an opaque shielded spend.  Its contents are only
// interpreted by the proof verifier.
type SpendDescription [SpendDescriptionSize]byte

// OutputDescription is an opaque shielded output.  Its contents are only
// interpreted by the proof verifier.
type OutputDescription [OutputDescriptionSize]byte

// JoinSplit moves value between the transparent pool and the legacy shielded
// pool.  VPubOld is value leaving the transparent pool and VPubNew is value
// entering it.  Body holds the remaining opaque fields.
type JoinSplit struct {
	VPubOld uint64
	VPubNew uint64
	Body    []byte
}

// MsgTx implements a transaction.
type MsgTx struct {
	Overwintered    bool
	Version         uint32
	VersionGroupID  uint32
	TxIn            []*TxIn
	TxOut           []*TxOut
	LockTime        uint32
	ExpiryHeight    uint32
	ValueBalance    int64
	ShieldedSpends  []SpendDescription
	ShieldedOutputs []OutputDescription
	JoinSplits      []*JoinSplit
	JoinSplitPubKey [JoinSplitPubKeySize]byte
	JoinSplitSig    [SignatureSize]byte
	BindingSig      [SignatureSize]byte
}

// NewMsgTx returns a new overwintered version 4 transaction with no inputs or
// outputs.
func NewMsgTx() *MsgTx {
	return &MsgTx{
		Overwintered:   true,
		Version:        4,
		VersionGroupID: SaplingVersionGroupID,
	}
}

// AddTxIn adds a transaction input to the message.
func (msg *MsgTx) AddTxIn(ti *TxIn) {
	msg.TxIn = append(msg.TxIn, ti)
}

// AddTxOut adds a transaction output to the message.
func (msg *MsgTx) AddTxOut(to *TxOut) {
	msg.TxOut = append(msg.TxOut, to)
}

// IsSapling returns whether the transaction uses the version 4 layout that
// carries shielded spends and outputs.
func (msg *MsgTx) IsSapling() bool {
	return msg.Overwintered && msg.Version >= 4
}

// HasShieldedData returns whether the transaction has any shielded spends or
// outputs of the current pool.
func (msg *MsgTx) HasShieldedData() bool {
	return len(msg.ShieldedSpends) > 0 || len(msg.ShieldedOutputs) > 0
}

// supportsJoinSplits returns whether the transaction version carries the
// JoinSplit fields.
func (msg *MsgTx) supportsJoinSplits() bool {
	return msg.Version >= 2
}

// JoinSplitBodyLen returns the body size each JoinSplit of the transaction
// must have.
func (msg *MsgTx) JoinSplitBodyLen() int {
	if msg.IsSapling() {
		return JoinSplitBodySize
	}
	return JoinSplitBodySizeLegacy
}

// TxID generates the hash for the transaction.
func (msg *MsgTx) TxID() TxID {
	return TxID(DoubleHashH(msg.Bytes()))
}

// checkVersion ensures the header fields describe a layout this codec knows.
func (msg *MsgTx) checkVersion(fn string) error {
	if !msg.Overwintered {
		if msg.Version < 1 || msg.Version > 2 {
			str := fmt.Sprintf("unsupported transaction version %d",
				msg.Version)
			return messageError(fn, ErrMalformedField, str)
		}
		return nil
	}

	switch {
	case msg.Version == 3 && msg.VersionGroupID == OverwinterVersionGroupID:
	case msg.Version == 4 && msg.VersionGroupID == SaplingVersionGroupID:
	default:
		str := fmt.Sprintf("unsupported overwintered transaction version %d "+
			"with version group id %08x", msg.Version, msg.VersionGroupID)
		return messageError(fn, ErrMalformedField, str)
	}
	return nil
}

// readOutPoint reads the next sequence of bytes from r as an OutPoint.
func readOutPoint(r io.Reader, op *OutPoint) error {
	const fn = "readOutPoint"
	if err := readHash(r, (*chainhash.Hash)(&op.Hash), fn, "outpoint hash"); err != nil {
		return err
	}
	var err error
	op.Index, err = readUint32LE(r, fn, "outpoint index")
	return err
}

// writeOutPoint encodes op to w.
func writeOutPoint(w io.Writer, op *OutPoint) error {
	if err := writeHash(w, (*chainhash.Hash)(&op.Hash)); err != nil {
		return err
	}
	return writeUint32LE(w, op.Index)
}

// readTxIn reads the next sequence of bytes from r as a transaction input.
func readTxIn(r io.Reader, ti *TxIn) error {
	if err := readOutPoint(r, &ti.PreviousOutPoint); err != nil {
		return err
	}
	var err error
	ti.SignatureScript, err = ReadVarBytes(r, MaxBlockPayload,
		"transaction input signature script")
	if err != nil {
		return err
	}
	ti.Sequence, err = readUint32LE(r, "readTxIn", "sequence")
	return err
}

// readTxOut reads the next sequence of bytes from r as a transaction output.
func readTxOut(r io.Reader, to *TxOut) error {
	value, err := readUint64LE(r, "readTxOut", "value")
	if err != nil {
		return err
	}
	to.Value = int64(value)
	to.PkScript, err = ReadVarBytes(r, MaxBlockPayload,
		"transaction output public key script")
	return err
}

// Deserialize decodes a transaction from r into the receiver.
//
// Field order: header (uint32 LE, bit 31 = overwintered, low 31 bits =
// version), version group id (uint32 LE, overwintered only), inputs, outputs,
// lock time (uint32 LE), expiry height (uint32 LE, overwintered only), then
// for version 4: value balance (int64 LE), shielded spends, shielded outputs;
// for version 2 and later: JoinSplits followed by the JoinSplit public key
// and signature when at least one JoinSplit is present; finally for version 4
// the binding signature when any shielded spend or output is present.
func (msg *MsgTx) Deserialize(r io.Reader) error {
	const op = "MsgTx.Deserialize"
	*msg = MsgTx{}

	header, err := readUint32LE(r, op, "header")
	if err != nil {
		return err
	}
	msg.Overwintered = header&overwinteredFlag != 0
	msg.Version = header &^ overwinteredFlag
	if msg.Overwintered {
		msg.VersionGroupID, err = readUint32LE(r, op, "version group id")
		if err != nil {
			return err
		}
	}
	if err := msg.checkVersion(op); err != nil {
		return err
	}

	count, err := readCount(r, maxTxInPerMessage, op, "transaction inputs")
	if err != nil {
		return err
	}
	if count > 0 {
		txIns := make([]TxIn, count)
		msg.TxIn = make([]*TxIn, count)
		for i := range txIns {
			ti := &txIns[i]
			if err := readTxIn(r, ti); err != nil {
				return err
			}
			msg.TxIn[i] = ti
		}
	}

	count, err = readCount(r, maxTxOutPerMessage, op, "transaction outputs")
	if err != nil {
		return err
	}
	if count > 0 {
		txOuts := make([]TxOut, count)
		msg.TxOut = make([]*TxOut, count)
		for i := range txOuts {
			to := &txOuts[i]
			if err := readTxOut(r, to); err != nil {
				return err
			}
			msg.TxOut[i] = to
		}
	}

	if msg.LockTime, err = readUint32LE(r, op, "lock time"); err != nil {
		return err
	}
	if msg.Overwintered {
		msg.ExpiryHeight, err = readUint32LE(r, op, "expiry height")
		if err != nil {
			return err
		}
	}

	if msg.IsSapling() {
		valueBalance, err := readUint64LE(r, op, "value balance")
		if err != nil {
			return err
		}
		msg.ValueBalance = int64(valueBalance)

		count, err = readCount(r, maxSpendsPerMessage, op, "shielded spends")
		if err != nil {
			return err
		}
		if count > 0 {
			msg.ShieldedSpends = make([]SpendDescription, count)
			for i := range msg.ShieldedSpends {
				err := readFull(r, msg.ShieldedSpends[i][:], op,
					"shielded spend")
				if err != nil {
					return err
				}
			}
		}

		count, err = readCount(r, maxOutputsPerMessage, op,
			"shielded outputs")
		if err != nil {
			return err
		}
		if count > 0 {
			msg.ShieldedOutputs = make([]OutputDescription, count)
			for i := range msg.ShieldedOutputs {
				err := readFull(r, msg.ShieldedOutputs[i][:], op,
					"shielded output")
				if err != nil {
					return err
				}
			}
		}
	}

	if msg.supportsJoinSplits() {
		count, err = readCount(r, maxJoinSplitsPerMessage, op, "joinsplits")
		if err != nil {
			return err
		}
		if count > 0 {
			bodyLen := msg.JoinSplitBodyLen()
			joinSplits := make([]JoinSplit, count)
			msg.JoinSplits = make([]*JoinSplit, count)
			for i := range joinSplits {
				js := &joinSplits[i]
				if js.VPubOld, err = readUint64LE(r, op, "vpub_old"); err != nil {
					return err
				}
				if js.VPubNew, err = readUint64LE(r, op, "vpub_new"); err != nil {
					return err
				}
				js.Body = make([]byte, bodyLen)
				if err := readFull(r, js.Body, op, "joinsplit body"); err != nil {
					return err
				}
				msg.JoinSplits[i] = js
			}
			err := readFull(r, msg.JoinSplitPubKey[:], op, "joinsplit pubkey")
			if err != nil {
				return err
			}
			err = readFull(r, msg.JoinSplitSig[:], op, "joinsplit signature")
			if err != nil {
				return err
			}
		}
	}

	if msg.IsSapling() && msg.HasShieldedData() {
		err := readFull(r, msg.BindingSig[:], op, "binding signature")
		if err != nil {
			return err
		}
	}

	return nil
}

// Serialize encodes the transaction to w.  See Deserialize for the field
// order.
func (msg *MsgTx) Serialize(w io.Writer) error {
	header := msg.Version
	if msg.Overwintered {
		header |= overwinteredFlag
	}
	if err := writeUint32LE(w, header); err != nil {
		return err
	}
	if msg.Overwintered {
		if err := writeUint32LE(w, msg.VersionGroupID); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		if err := writeOutPoint(w, &ti.PreviousOutPoint); err != nil {
			return err
		}
		if err := WriteVarBytes(w, ti.SignatureScript); err != nil {
			return err
		}
		if err := writeUint32LE(w, ti.Sequence); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		if err := writeUint64LE(w, uint64(to.Value)); err != nil {
			return err
		}
		if err := WriteVarBytes(w, to.PkScript); err != nil {
			return err
		}
	}

	if err := writeUint32LE(w, msg.LockTime); err != nil {
		return err
	}
	if msg.Overwintered {
		if err := writeUint32LE(w, msg.ExpiryHeight); err != nil {
			return err
		}
	}

	if msg.IsSapling() {
		if err := writeUint64LE(w, uint64(msg.ValueBalance)); err != nil {
			return err
		}
		if err := WriteVarInt(w, uint64(len(msg.ShieldedSpends))); err != nil {
			return err
		}
		for i := range msg.ShieldedSpends {
			if _, err := w.Write(msg.ShieldedSpends[i][:]); err != nil {
				return err
			}
		}
		if err := WriteVarInt(w, uint64(len(msg.ShieldedOutputs))); err != nil {
			return err
		}
		for i := range msg.ShieldedOutputs {
			if _, err := w.Write(msg.ShieldedOutputs[i][:]); err != nil {
				return err
			}
		}
	}

	if msg.supportsJoinSplits() {
		if err := WriteVarInt(w, uint64(len(msg.JoinSplits))); err != nil {
			return err
		}
		for _, js := range msg.JoinSplits {
			if err := writeUint64LE(w, js.VPubOld); err != nil {
				return err
			}
			if err := writeUint64LE(w, js.VPubNew); err != nil {
				return err
			}
			if _, err := w.Write(js.Body); err != nil {
				return err
			}
		}
		if len(msg.JoinSplits) > 0 {
			if _, err := w.Write(msg.JoinSplitPubKey[:]); err != nil {
				return err
			}
			if _, err := w.Write(msg.JoinSplitSig[:]); err != nil {
				return err
			}
		}
	}

	if msg.IsSapling() && msg.HasShieldedData() {
		if _, err := w.Write(msg.BindingSig[:]); err != nil {
			return err
		}
	}

	return nil
}

// Bytes returns the serialized transaction.
func (msg *MsgTx) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(msg.SerializeSize())
	msg.Serialize(&buf)
	return buf.Bytes()
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction.
func (msg *MsgTx) SerializeSize() int {
	// Header 4 bytes + lock time 4 bytes + input and output counts.
	n := 8 + VarIntSerializeSize(uint64(len(msg.TxIn))) +
		VarIntSerializeSize(uint64(len(msg.TxOut)))
	if msg.Overwintered {
		// Version group id 4 bytes + expiry height 4 bytes.
		n += 8
	}
	for _, ti := range msg.TxIn {
		n += HashSize + 8 + VarBytesSerializeSize(ti.SignatureScript)
	}
	for _, to := range msg.TxOut {
		n += 8 + VarBytesSerializeSize(to.PkScript)
	}
	if msg.IsSapling() {
		n += 8 + VarIntSerializeSize(uint64(len(msg.ShieldedSpends))) +
			len(msg.ShieldedSpends)*SpendDescriptionSize +
			VarIntSerializeSize(uint64(len(msg.ShieldedOutputs))) +
			len(msg.ShieldedOutputs)*OutputDescriptionSize
		if msg.HasShieldedData() {
			n += SignatureSize
		}
	}
	if msg.supportsJoinSplits() {
		n += VarIntSerializeSize(uint64(len(msg.JoinSplits)))
		for _, js := range msg.JoinSplits {
			n += 16 + len(js.Body)
		}
		if len(msg.JoinSplits) > 0 {
			n += JoinSplitPubKeySize + SignatureSize
		}
	}
	return n
}

// DecodeTx decodes a transaction that must occupy the entirety of the passed
// bytes.
func DecodeTx(b []byte) (*MsgTx, error) {
	var tx MsgTx
	if err := decodeExact("DecodeTx", b, tx.Deserialize); err != nil {
		return nil, err
	}
	return &tx, nil
}
