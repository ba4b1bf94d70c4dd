// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/zecnode/zecd/chaincfg"
	"github.com/zecnode/zecd/internal/primitives"
	"github.com/zecnode/zecd/wire"
)

const (
	// maxMoney is the maximum number of base units that can ever exist and
	// bounds every amount, including sums of amounts within a transaction.
	maxMoney = 21000000 * 100000000

	// minBlockVersion is the lowest accepted block header version.
	minBlockVersion = 4

	// lockTimeThreshold is the number below which a lock time is
	// interpreted to be a block height.  Since an average of one block is
	// generated per 2.5 minutes, this allows blocks for about 2378 years.
	lockTimeThreshold = 5e8 // Tue Nov 5 00:53:20 1985 UTC

	// maxExpiryHeight is the first expiry height that is not allowed.
	maxExpiryHeight = 500000000

	// minCoinbaseScriptLen is the minimum length a coinbase script can be.
	minCoinbaseScriptLen = 2

	// maxCoinbaseScriptLen is the maximum length a coinbase script can be.
	maxCoinbaseScriptLen = 100
)

// isNullOutPoint determines whether or not a previous transaction output point
// is set.
func isNullOutPoint(outpoint *wire.OutPoint) bool {
	return outpoint.Index == wire.MaxPrevOutIndex &&
		outpoint.Hash == wire.TxID{}
}

// IsCoinBaseTx determines whether or not a transaction is a coinbase.  A
// coinbase is a special transaction created by miners that has no inputs.
// This is represented in the block chain by a transaction with a single input
// that has a previous output transaction index set to the maximum value along
// with a zero hash.
func IsCoinBaseTx(tx *wire.MsgTx) bool {
	return len(tx.TxIn) == 1 && isNullOutPoint(&tx.TxIn[0].PreviousOutPoint)
}

// IsFinalizedTransaction determines whether or not a transaction is finalized
// at the provided block height and time.
func IsFinalizedTransaction(tx *wire.MsgTx, blockHeight int64, blockTime time.Time) bool {
	// Lock time of zero means the transaction is finalized.
	lockTime := tx.LockTime
	if lockTime == 0 {
		return true
	}

	// The lock time field of a transaction is either a block height at
	// which the transaction is finalized or a timestamp depending on if the
	// value is before the lockTimeThreshold.  When it is under the
	// threshold it is a block height.
	var blockTimeOrHeight int64
	if lockTime < lockTimeThreshold {
		blockTimeOrHeight = blockHeight
	} else {
		blockTimeOrHeight = blockTime.Unix()
	}
	if int64(lockTime) < blockTimeOrHeight {
		return true
	}

	// At this point, the transaction's lock time hasn't occurred yet, but
	// the transaction might still be finalized if the sequence number
	// for all transaction inputs is maxed out.
	for _, txIn := range tx.TxIn {
		if txIn.Sequence != wire.MaxTxInSequenceNum {
			return false
		}
	}
	return true
}

// checkJoinSplits ensures the public values of every JoinSplit of the
// transaction are in range and that each moves value in one direction only.
func checkJoinSplits(tx *wire.MsgTx) error {
	var totalOld, totalNew uint64
	for i, js := range tx.JoinSplits {
		if js.VPubOld > maxMoney || js.VPubNew > maxMoney {
			str := fmt.Sprintf("joinsplit %d public value out of range "+
				"(old %d, new %d)", i, js.VPubOld, js.VPubNew)
			return ruleError(ErrBadJoinSplit, str)
		}
		if js.VPubOld != 0 && js.VPubNew != 0 {
			str := fmt.Sprintf("joinsplit %d moves value in both "+
				"directions", i)
			return ruleError(ErrBadJoinSplit, str)
		}
		totalOld += js.VPubOld
		totalNew += js.VPubNew
		if totalOld > maxMoney || totalNew > maxMoney {
			str := "total joinsplit public value exceeds max allowed " +
				"value"
			return ruleError(ErrBadJoinSplit, str)
		}
	}
	return nil
}

// CheckTransactionSanity performs some preliminary checks on a transaction to
// ensure it is sane.  These checks are context free.
func CheckTransactionSanity(tx *wire.MsgTx) error {
	// A transaction must take value from somewhere.  Shielded spends and
	// JoinSplits count as sources of value.
	if len(tx.TxIn) == 0 && len(tx.ShieldedSpends) == 0 &&
		len(tx.JoinSplits) == 0 {

		return ruleError(ErrNoTxInputs, "transaction has no inputs")
	}

	// Likewise it must send value somewhere.
	if len(tx.TxOut) == 0 && len(tx.ShieldedOutputs) == 0 &&
		len(tx.JoinSplits) == 0 {

		return ruleError(ErrNoTxOutputs, "transaction has no outputs")
	}

	// Ensure the transaction amounts are in range.  Each transaction output
	// must not be negative or more than the max allowed per transaction.
	// Also, the total of all outputs must abide by the same restrictions.
	var totalOut int64
	for _, txOut := range tx.TxOut {
		value := txOut.Value
		if value < 0 {
			str := fmt.Sprintf("transaction output has negative value of %v",
				value)
			return ruleError(ErrBadTxOutValue, str)
		}
		if value > maxMoney {
			str := fmt.Sprintf("transaction output value of %v is higher "+
				"than max allowed value of %v", value, int64(maxMoney))
			return ruleError(ErrBadTxOutValue, str)
		}
		totalOut += value
		if totalOut > maxMoney {
			str := fmt.Sprintf("total value of all transaction outputs is "+
				"%v which is higher than max allowed value of %v",
				totalOut, int64(maxMoney))
			return ruleError(ErrBadTxOutValue, str)
		}
	}

	// The shielded value balance must be in range and may only be non-zero
	// when there is shielded data for it to balance.
	if tx.ValueBalance < -maxMoney || tx.ValueBalance > maxMoney {
		str := fmt.Sprintf("value balance of %d is out of range",
			tx.ValueBalance)
		return ruleError(ErrBadValueBalance, str)
	}
	if tx.ValueBalance != 0 && !tx.HasShieldedData() {
		str := fmt.Sprintf("value balance of %d without shielded spends "+
			"or outputs", tx.ValueBalance)
		return ruleError(ErrBadValueBalance, str)
	}

	if err := checkJoinSplits(tx); err != nil {
		return err
	}

	if tx.Overwintered && tx.ExpiryHeight >= maxExpiryHeight {
		str := fmt.Sprintf("expiry height %d is not below %d",
			tx.ExpiryHeight, maxExpiryHeight)
		return ruleError(ErrBadExpiry, str)
	}

	// Check for duplicate transaction inputs.
	existingTxOut := make(map[wire.OutPoint]struct{}, len(tx.TxIn))
	for _, txIn := range tx.TxIn {
		if _, exists := existingTxOut[txIn.PreviousOutPoint]; exists {
			str := "transaction contains duplicate inputs"
			return ruleError(ErrDuplicateTxInputs, str)
		}
		existingTxOut[txIn.PreviousOutPoint] = struct{}{}
	}

	if IsCoinBaseTx(tx) {
		// Coinbase script length must be between min and max length.
		slen := len(tx.TxIn[0].SignatureScript)
		if slen < minCoinbaseScriptLen || slen > maxCoinbaseScriptLen {
			str := fmt.Sprintf("coinbase transaction script length of %d "+
				"is out of range (min: %d, max: %d)", slen,
				minCoinbaseScriptLen, maxCoinbaseScriptLen)
			return ruleError(ErrBadCoinbaseScriptLen, str)
		}

		// Newly generated coins may only enter the shielded pool through
		// shielded outputs.
		if len(tx.JoinSplits) > 0 || len(tx.ShieldedSpends) > 0 {
			str := "coinbase transaction has joinsplits or shielded spends"
			return ruleError(ErrCoinbaseShieldedSpend, str)
		}
		return nil
	}

	// Previous transaction outputs referenced by the inputs to this
	// transaction must not be null.
	for _, txIn := range tx.TxIn {
		if isNullOutPoint(&txIn.PreviousOutPoint) {
			str := "transaction input refers to previous output that is null"
			return ruleError(ErrBadTxInput, str)
		}
	}
	return nil
}

// checkBlockHeaderSanity performs some preliminary checks on a block header to
// ensure it is sane before continuing with processing.  These checks are
// context free.
func checkBlockHeaderSanity(header *wire.BlockHeader, params *chaincfg.Params, flags BehaviorFlags) error {
	if header.Version < minBlockVersion {
		str := fmt.Sprintf("block version %d is older than the minimum "+
			"version %d", header.Version, minBlockVersion)
		return ruleError(ErrBlockVersionTooOld, str)
	}

	err := primitives.CheckProofOfWorkRange(header.Bits, params.PowLimit)
	if err != nil {
		return ruleErrorRaw(ErrUnexpectedDifficulty, "block difficulty "+
			"bits are invalid", err)
	}
	if flags&BFNoPoWCheck == BFNoPoWCheck {
		return nil
	}

	hash := header.BlockHash()
	err = primitives.CheckProofOfWork((*chainhash.Hash)(&hash), header.Bits,
		params.PowLimit)
	if err != nil {
		str := fmt.Sprintf("block hash %s is higher than the target", hash)
		return ruleErrorRaw(ErrHighHash, str, err)
	}

	eqParams := primitives.EquihashParams{N: params.EquihashN, K: params.EquihashK}
	err = primitives.CheckEquihashSolution(eqParams, header.PowInput(),
		header.Nonce[:], header.Solution)
	if err != nil {
		str := fmt.Sprintf("block %s has an invalid equihash solution", hash)
		return ruleErrorRaw(ErrInvalidSolution, str, err)
	}
	return nil
}

// CheckBlockSanity performs some preliminary checks on a block to ensure it is
// sane before continuing with block processing.  These checks are context
// free.  The serialized size is the number of bytes the block was decoded
// from.
//
// The flags modify the behavior of this function as follows:
//   - BFNoPoWCheck: The check to ensure the block hash is less than the target
//     difficulty and carries a valid equihash solution is not performed.
func CheckBlockSanity(block *wire.MsgBlock, serializedSize int, params *chaincfg.Params, flags BehaviorFlags) error {
	header := &block.Header
	if err := checkBlockHeaderSanity(header, params, flags); err != nil {
		return err
	}

	// A block must have at least one transaction.
	numTx := len(block.Transactions)
	if numTx == 0 {
		return ruleError(ErrNoTransactions, "block does not contain any "+
			"transactions")
	}

	// A block must not exceed the maximum allowed block payload when
	// serialized.
	if serializedSize > params.MaxBlockSize {
		str := fmt.Sprintf("serialized block is too big - got %d, max %d",
			serializedSize, params.MaxBlockSize)
		return ruleError(ErrBlockTooBig, str)
	}

	// The first transaction in a block must be a coinbase.
	if !IsCoinBaseTx(block.Transactions[0]) {
		str := "first transaction in block is not a coinbase"
		return ruleError(ErrFirstTxNotCoinbase, str)
	}

	// A block must not have more than one coinbase.
	for i, tx := range block.Transactions[1:] {
		if IsCoinBaseTx(tx) {
			str := fmt.Sprintf("block contains second coinbase at index %d",
				i+1)
			return ruleError(ErrMultipleCoinbases, str)
		}
	}

	// Do some preliminary checks on each transaction to ensure they are
	// sane before continuing.
	for _, tx := range block.Transactions {
		if err := CheckTransactionSanity(tx); err != nil {
			return err
		}
	}

	// Check for duplicate transactions while collecting the merkle leaves.
	txIDs := block.TxIDs()
	existingTxIDs := make(map[wire.TxID]struct{}, numTx)
	leaves := make([]chainhash.Hash, 0, numTx)
	for _, txID := range txIDs {
		if _, exists := existingTxIDs[txID]; exists {
			str := fmt.Sprintf("block contains duplicate transaction %v",
				txID)
			return ruleError(ErrDuplicateTx, str)
		}
		existingTxIDs[txID] = struct{}{}
		leaves = append(leaves, chainhash.Hash(txID))
	}

	// Build merkle tree and ensure the calculated merkle root matches the
	// entry in the block header.
	merkleRoot := wire.MerkleRoot(primitives.CalcMerkleRoot(leaves))
	if header.MerkleRoot != merkleRoot {
		str := fmt.Sprintf("block merkle root is invalid - block header "+
			"indicates %v, but calculated value is %v", header.MerkleRoot,
			merkleRoot)
		return ruleError(ErrBadMerkleRoot, str)
	}
	return nil
}

// checkBlockHeaderContext performs the checks on a block header that depend on
// its position in the chain.  These cover the checkpoints, the depth of the fork
// it creates, its difficulty and its timestamp relative to the median time of
// its ancestors.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) checkBlockHeaderContext(header *wire.BlockHeader, parent *HeaderMeta) error {
	hash := header.BlockHash()
	height := parent.Height + 1

	// Ensure the chain matches any checkpoint at this height.
	if !b.verifyCheckpoint(height, &hash) {
		str := fmt.Sprintf("block at height %d does not match checkpoint "+
			"hash", height)
		return ruleError(ErrBadCheckpoint, str)
	}

	// Once the active chain has passed the latest checkpoint, no block may
	// create a fork at or below it.
	tip := b.bestChain.tip()
	if cp := b.chainParams.LatestCheckpoint(); cp != nil {
		if tip.Height >= cp.Height && height <= cp.Height {
			str := fmt.Sprintf("block at height %d forks the chain before "+
				"the latest checkpoint at height %d", height, cp.Height)
			return ruleError(ErrForkTooOld, str)
		}
	}

	// Reject blocks that fork the active chain deeper than a reorganization
	// is allowed to go.
	fork := b.findFork(parent)
	if fork == nil {
		return AssertError(fmt.Sprintf("block %s has no ancestor on the "+
			"active chain", hash))
	}
	if depth := tip.Height - fork.Height; depth > b.chainParams.MaxReorgDepth {
		str := fmt.Sprintf("block %s forks the active chain at height %d "+
			"which is %d blocks below the tip (max %d)", hash, fork.Height,
			depth, b.chainParams.MaxReorgDepth)
		return ruleError(ErrAncientFork, str)
	}

	// Ensure the difficulty specified in the block header matches the
	// calculated difficulty based on the previous blocks and the difficulty
	// retarget rules.
	expDiff := b.calcNextRequiredDifficulty(parent)
	if header.Bits != expDiff {
		str := fmt.Sprintf("block difficulty of %08x is not the expected "+
			"value of %08x", header.Bits, expDiff)
		return ruleError(ErrWrongDifficulty, str)
	}

	// Ensure the timestamp for the block header is after the median time
	// of the last several blocks and not too far past it.
	medianTime := b.index.calcPastMedianTime(parent,
		b.chainParams.MedianTimeBlocks)
	timestamp := header.Timestamp.Unix()
	if timestamp <= medianTime {
		str := fmt.Sprintf("block timestamp of %v is not after expected %v",
			header.Timestamp, time.Unix(medianTime, 0))
		return ruleError(ErrTimeTooOld, str)
	}
	maxTimestamp := medianTime + int64(b.chainParams.MaxTimeOffset/time.Second)
	if timestamp > maxTimestamp {
		str := fmt.Sprintf("block timestamp of %v is too far past the "+
			"median time %v", header.Timestamp, time.Unix(medianTime, 0))
		return ruleError(ErrTimeTooNew, str)
	}
	return nil
}

// checkTransactionsContext performs the transaction checks that depend on the
// height of the block containing them: finality, expiry and the activation of
// the shielded pools.
func checkTransactionsContext(block *wire.MsgBlock, height int64, params *chaincfg.Params) error {
	blockTime := block.Header.Timestamp
	for txIdx, tx := range block.Transactions {
		txID := tx.TxID()
		if !IsFinalizedTransaction(tx, height, blockTime) {
			str := fmt.Sprintf("block contains unfinalized transaction %v",
				txID)
			return ruleError(ErrUnfinalizedTx, str)
		}

		if txIdx > 0 && tx.Overwintered && tx.ExpiryHeight != 0 &&
			height > int64(tx.ExpiryHeight) {

			str := fmt.Sprintf("transaction %v expired at height %d",
				txID, tx.ExpiryHeight)
			return ruleError(ErrExpiredTx, str)
		}

		if tx.HasShieldedData() && height < params.SaplingActivationHeight {
			str := fmt.Sprintf("transaction %v has shielded data before "+
				"activation height %d", txID,
				params.SaplingActivationHeight)
			return ruleError(ErrPrematureShielded, str)
		}

		if height >= params.MigrationActivationHeight {
			for i, js := range tx.JoinSplits {
				if js.VPubOld > 0 {
					str := fmt.Sprintf("joinsplit %d of transaction %v "+
						"moves %d into the legacy shielded pool", i, txID,
						js.VPubOld)
					return ruleError(ErrLegacyPoolInflow, str)
				}
			}
		}
	}
	return nil
}

// txValueFlows returns the value available to and spent by a transaction
// beyond its transparent inputs and outputs.  JoinSplits and the shielded
// value balance contribute to both sides.
func txValueFlows(tx *wire.MsgTx) (in, out int64) {
	for _, js := range tx.JoinSplits {
		in += int64(js.VPubNew)
		out += int64(js.VPubOld)
	}
	if tx.ValueBalance > 0 {
		in += tx.ValueBalance
	} else {
		out -= tx.ValueBalance
	}
	return in, out
}

// checkTransactionInputs performs the value checks on a transaction: every
// spent coinbase output is mature and the value leaving the transaction does
// not exceed the value entering it.  It returns the fee paid.
func checkTransactionInputs(tx *wire.MsgTx, height int64, prevOuts []*UtxoEntry, params *chaincfg.Params) (int64, error) {
	txID := tx.TxID()
	shieldedIn, shieldedOut := txValueFlows(tx)

	totalIn := shieldedIn
	for i, entry := range prevOuts {
		if entry.IsCoinBase() {
			originHeight := entry.BlockHeight()
			blocksSincePrev := height - originHeight
			maturity := int64(params.CoinbaseMaturity)
			if blocksSincePrev < maturity {
				str := fmt.Sprintf("tried to spend coinbase output %v from "+
					"height %d at height %d before required maturity of "+
					"%d blocks", tx.TxIn[i].PreviousOutPoint, originHeight,
					height, maturity)
				return 0, ruleError(ErrImmatureSpend, str)
			}
		}

		totalIn += entry.Amount()
		if totalIn > maxMoney {
			str := fmt.Sprintf("total value of all inputs of transaction %v "+
				"exceeds max allowed value of %v", txID, int64(maxMoney))
			return 0, ruleError(ErrSpendTooHigh, str)
		}
	}

	totalOut := shieldedOut
	for _, txOut := range tx.TxOut {
		totalOut += txOut.Value
	}
	if totalOut > maxMoney {
		str := fmt.Sprintf("total value of all outputs of transaction %v "+
			"exceeds max allowed value of %v", txID, int64(maxMoney))
		return 0, ruleError(ErrSpendTooHigh, str)
	}
	if totalOut > totalIn {
		str := fmt.Sprintf("total value of all transaction outputs for "+
			"transaction %v is %v which exceeds the input value of %v",
			txID, totalOut, totalIn)
		return 0, ruleError(ErrSpendTooHigh, str)
	}
	return totalIn - totalOut, nil
}

// checkConnectBlock performs the value checks of a block that is being
// connected at the provided height and, unless the block is trusted, verifies
// every proof and signature through the configured verifiers.  The undo record
// returned when the block was applied provides the outputs it spends.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) checkConnectBlock(block *wire.MsgBlock, height int64, undo *UndoRecord, trusted bool) error {
	params := b.chainParams
	spent := make(map[wire.OutPoint]*UtxoEntry, len(undo.Spent))
	for i := range undo.Spent {
		spent[undo.Spent[i].OutPoint] = undo.Spent[i].Entry
	}

	// Outputs created earlier in the block may be spent later in it, so
	// they are made available as transactions are visited.
	var totalFees int64
	jobs := make([]verifyJob, 0, len(block.Transactions))
	for txIdx, tx := range block.Transactions {
		if txIdx > 0 {
			prevOuts := make([]*UtxoEntry, 0, len(tx.TxIn))
			for _, txIn := range tx.TxIn {
				entry, ok := spent[txIn.PreviousOutPoint]
				if !ok {
					str := fmt.Sprintf("no previous output %v for "+
						"transaction %v", txIn.PreviousOutPoint, tx.TxID())
					return AssertError(str)
				}
				prevOuts = append(prevOuts, entry)
			}
			fee, err := checkTransactionInputs(tx, height, prevOuts, params)
			if err != nil {
				return err
			}
			totalFees += fee
			if totalFees > maxMoney {
				return ruleError(ErrSpendTooHigh, "total fees for block "+
					"overflows accumulator")
			}
			jobs = append(jobs, verifyJob{txIdx: txIdx, tx: tx,
				prevOuts: prevOuts})
		}

		txID := tx.TxID()
		for outIdx, txOut := range tx.TxOut {
			outpoint := wire.OutPoint{Hash: txID, Index: uint32(outIdx)}
			spent[outpoint] = NewUtxoEntry(txOut.Value, txOut.PkScript,
				height, txIdx == 0)
		}
	}

	// The coinbase may claim at most the block subsidy plus the fees paid
	// by every other transaction.
	coinbase := block.Transactions[0]
	_, coinbaseOut := txValueFlows(coinbase)
	for _, txOut := range coinbase.TxOut {
		coinbaseOut += txOut.Value
	}
	maxCoinbaseOut := CalcBlockSubsidy(height, params) + totalFees
	if coinbaseOut > maxCoinbaseOut {
		str := fmt.Sprintf("coinbase transaction for block pays %v which "+
			"is more than expected value of %v", coinbaseOut,
			maxCoinbaseOut)
		return ruleError(ErrBadCoinbaseValue, str)
	}

	if trusted {
		return nil
	}
	jobs = append(jobs, verifyJob{txIdx: 0, tx: coinbase})
	hash := block.BlockHash()
	return b.verifyProofs(&hash, height, jobs)
}

// isStorageErr returns whether the error originated in the database rather than
// in a consensus rule.
func isStorageErr(err error) bool {
	var rErr RuleError
	var aErr AssertError
	return err != nil && !errors.As(err, &rErr) && !errors.As(err, &aErr)
}
