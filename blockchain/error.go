// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"

	"github.com/zecnode/zecd/wire"
)

// AssertError identifies an error that indicates an internal code consistency
// issue and should be treated as a critical and unrecoverable error.
type AssertError string

// Error returns the assertion error as a human-readable string and satisfies
// the error interface.
func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

// ErrorCategory groups error kinds by how the caller must react to them.  It
// has full support for errors.Is, so errors.Is(err, CategoryStructural)
// reports whether err carries any kind of that category.
type ErrorCategory string

// These constants identify the category of every ErrorKind.
const (
	// CategoryCodec identifies input that could not be decoded.  Nothing is
	// recorded for it.
	CategoryCodec = ErrorCategory("CategoryCodec")

	// CategoryStructural identifies blocks that violate a rule checkable
	// without chain context.  Such blocks are permanently rejected.
	CategoryStructural = ErrorCategory("CategoryStructural")

	// CategoryContextual identifies blocks that violate a rule depending on
	// the chain they extend.  Their headers are recorded as invalid.
	CategoryContextual = ErrorCategory("CategoryContextual")

	// CategoryReorgFailed identifies a reorganization that was abandoned
	// because a block of the candidate branch failed to connect.  The prior
	// tip is preserved.
	CategoryReorgFailed = ErrorCategory("CategoryReorgFailed")

	// CategoryOrphanBufferFull identifies a block that could not be held
	// while waiting for its parent.  The caller may retry later.
	CategoryOrphanBufferFull = ErrorCategory("CategoryOrphanBufferFull")

	// CategoryStorage identifies a failure of the underlying database.  It
	// is fatal to the chain instance.
	CategoryStorage = ErrorCategory("CategoryStorage")
)

// Error satisfies the error interface and prints human-readable errors.
func (c ErrorCategory) Error() string {
	return string(c)
}

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific ErrorKind.
const (
	// ErrMalformedBlock indicates the block bytes could not be decoded.
	ErrMalformedBlock = ErrorKind("ErrMalformedBlock")

	// ErrBlockVersionTooOld indicates the block version is lower than the
	// minimum version allowed.
	ErrBlockVersionTooOld = ErrorKind("ErrBlockVersionTooOld")

	// ErrUnexpectedDifficulty indicates the difficulty bits of a header are
	// malformed or exceed the proof of work limit of the network.
	ErrUnexpectedDifficulty = ErrorKind("ErrUnexpectedDifficulty")

	// ErrHighHash indicates the block does not hash to a value which is
	// lower than the required target difficultly.
	ErrHighHash = ErrorKind("ErrHighHash")

	// ErrInvalidSolution indicates the equihash solution of a header is
	// malformed or does not solve the generalized birthday problem.
	ErrInvalidSolution = ErrorKind("ErrInvalidSolution")

	// ErrNoTransactions indicates the block does not have at least one
	// transaction.  A valid block must have at least the coinbase
	// transaction.
	ErrNoTransactions = ErrorKind("ErrNoTransactions")

	// ErrBlockTooBig indicates the serialized block size exceeds the
	// maximum allowed size.
	ErrBlockTooBig = ErrorKind("ErrBlockTooBig")

	// ErrFirstTxNotCoinbase indicates the first transaction in a block
	// is not a coinbase transaction.
	ErrFirstTxNotCoinbase = ErrorKind("ErrFirstTxNotCoinbase")

	// ErrMultipleCoinbases indicates a block contains more than one
	// coinbase transaction.
	ErrMultipleCoinbases = ErrorKind("ErrMultipleCoinbases")

	// ErrBadCoinbaseScriptLen indicates the length of the signature script
	// for a coinbase transaction is not within the valid range.
	ErrBadCoinbaseScriptLen = ErrorKind("ErrBadCoinbaseScriptLen")

	// ErrCoinbaseShieldedSpend indicates a coinbase transaction spends from
	// a shielded pool.
	ErrCoinbaseShieldedSpend = ErrorKind("ErrCoinbaseShieldedSpend")

	// ErrNoTxInputs indicates a transaction neither has transparent inputs
	// nor spends shielded value.
	ErrNoTxInputs = ErrorKind("ErrNoTxInputs")

	// ErrNoTxOutputs indicates a transaction neither has transparent
	// outputs nor creates shielded value.
	ErrNoTxOutputs = ErrorKind("ErrNoTxOutputs")

	// ErrBadTxOutValue indicates an output value for a transaction is
	// invalid in some way such as being out of range.
	ErrBadTxOutValue = ErrorKind("ErrBadTxOutValue")

	// ErrBadValueBalance indicates the shielded value balance of a
	// transaction is out of range or set without shielded data.
	ErrBadValueBalance = ErrorKind("ErrBadValueBalance")

	// ErrBadJoinSplit indicates the public values of a JoinSplit are out of
	// range or move value in both directions at once.
	ErrBadJoinSplit = ErrorKind("ErrBadJoinSplit")

	// ErrBadExpiry indicates the expiry height of an overwintered
	// transaction is beyond the allowed maximum.
	ErrBadExpiry = ErrorKind("ErrBadExpiry")

	// ErrDuplicateTxInputs indicates a transaction references the same
	// input more than once.
	ErrDuplicateTxInputs = ErrorKind("ErrDuplicateTxInputs")

	// ErrBadTxInput indicates a transaction input is invalid in some way
	// such as referencing a previous transaction outpoint which is out of
	// range or not referencing one at all.
	ErrBadTxInput = ErrorKind("ErrBadTxInput")

	// ErrDuplicateTx indicates a block contains an identical transaction
	// (or at least two transactions which hash to the same value).  A
	// valid block may only contain unique transactions.
	ErrDuplicateTx = ErrorKind("ErrDuplicateTx")

	// ErrBadMerkleRoot indicates the calculated merkle root does not match
	// the expected value.
	ErrBadMerkleRoot = ErrorKind("ErrBadMerkleRoot")

	// ErrDuplicateBlock indicates a block with the same hash already
	// exists.
	ErrDuplicateBlock = ErrorKind("ErrDuplicateBlock")

	// ErrKnownInvalid indicates a block that was already rejected was
	// received again.
	ErrKnownInvalid = ErrorKind("ErrKnownInvalid")

	// ErrUnknownParent indicates the parent of a header is not known.
	ErrUnknownParent = ErrorKind("ErrUnknownParent")

	// ErrInvalidAncestorBlock indicates that an ancestor of this block has
	// already failed validation.
	ErrInvalidAncestorBlock = ErrorKind("ErrInvalidAncestorBlock")

	// ErrWrongDifficulty indicates the difficulty bits of a header do not
	// match the difficulty required by its ancestors.
	ErrWrongDifficulty = ErrorKind("ErrWrongDifficulty")

	// ErrTimeTooOld indicates the time is either before the median time of
	// the last several blocks per the chain consensus rules.
	ErrTimeTooOld = ErrorKind("ErrTimeTooOld")

	// ErrTimeTooNew indicates the time is too far past the median time of
	// the last several blocks.
	ErrTimeTooNew = ErrorKind("ErrTimeTooNew")

	// ErrBadCheckpoint indicates a block that is expected to be at a
	// checkpoint height does not match the expected one.
	ErrBadCheckpoint = ErrorKind("ErrBadCheckpoint")

	// ErrForkTooOld indicates a block is attempting to fork the block chain
	// before the most recent checkpoint.
	ErrForkTooOld = ErrorKind("ErrForkTooOld")

	// ErrAncientFork indicates a block forks from the active chain deeper
	// than the maximum reorganization depth.
	ErrAncientFork = ErrorKind("ErrAncientFork")

	// ErrUnfinalizedTx indicates a transaction has not been finalized.
	// A valid block may only contain finalized transactions.
	ErrUnfinalizedTx = ErrorKind("ErrUnfinalizedTx")

	// ErrExpiredTx indicates a transaction is included in a block after its
	// expiry height.
	ErrExpiredTx = ErrorKind("ErrExpiredTx")

	// ErrPrematureShielded indicates a transaction carries shielded spends
	// or outputs before they activate.
	ErrPrematureShielded = ErrorKind("ErrPrematureShielded")

	// ErrLegacyPoolInflow indicates a JoinSplit moves value into the legacy
	// shielded pool after the pool migration activated.
	ErrLegacyPoolInflow = ErrorKind("ErrLegacyPoolInflow")

	// ErrMissingOrSpentOutput indicates a transaction references an output
	// that either does not exist or has already been spent.
	ErrMissingOrSpentOutput = ErrorKind("ErrMissingOrSpentOutput")

	// ErrOverwriteOutput indicates a transaction creates an output that is
	// already present and unspent.
	ErrOverwriteOutput = ErrorKind("ErrOverwriteOutput")

	// ErrImmatureSpend indicates a transaction is attempting to spend a
	// coinbase that has not yet reached the required maturity.
	ErrImmatureSpend = ErrorKind("ErrImmatureSpend")

	// ErrSpendTooHigh indicates a transaction is attempting to spend more
	// value than the sum of all of its inputs.
	ErrSpendTooHigh = ErrorKind("ErrSpendTooHigh")

	// ErrBadCoinbaseValue indicates the amount of a coinbase value does
	// not match the expected value of the subsidy plus the sum of all fees.
	ErrBadCoinbaseValue = ErrorKind("ErrBadCoinbaseValue")

	// ErrProofVerification indicates the script or proof verifier rejected
	// a transaction.
	ErrProofVerification = ErrorKind("ErrProofVerification")

	// ErrReorgFailed indicates a block of a branch with more work than the
	// active chain failed to connect and the reorganization was abandoned.
	ErrReorgFailed = ErrorKind("ErrReorgFailed")

	// ErrOrphanBufferFull indicates a block with an unknown parent could not
	// be held.
	ErrOrphanBufferFull = ErrorKind("ErrOrphanBufferFull")

	// ErrNotFound indicates a requested block, header, or output is not
	// known.
	ErrNotFound = ErrorKind("ErrNotFound")
)

// kindCategories maps each error kind to its category.  Kinds not listed are
// contextual.
var kindCategories = map[ErrorKind]ErrorCategory{
	ErrMalformedBlock:        CategoryCodec,
	ErrBlockVersionTooOld:    CategoryStructural,
	ErrUnexpectedDifficulty:  CategoryStructural,
	ErrHighHash:              CategoryStructural,
	ErrInvalidSolution:       CategoryStructural,
	ErrNoTransactions:        CategoryStructural,
	ErrBlockTooBig:           CategoryStructural,
	ErrFirstTxNotCoinbase:    CategoryStructural,
	ErrMultipleCoinbases:     CategoryStructural,
	ErrBadCoinbaseScriptLen:  CategoryStructural,
	ErrCoinbaseShieldedSpend: CategoryStructural,
	ErrNoTxInputs:            CategoryStructural,
	ErrNoTxOutputs:           CategoryStructural,
	ErrBadTxOutValue:         CategoryStructural,
	ErrBadValueBalance:       CategoryStructural,
	ErrBadJoinSplit:          CategoryStructural,
	ErrBadExpiry:             CategoryStructural,
	ErrDuplicateTxInputs:     CategoryStructural,
	ErrBadTxInput:            CategoryStructural,
	ErrDuplicateTx:           CategoryStructural,
	ErrBadMerkleRoot:         CategoryStructural,
	ErrReorgFailed:           CategoryReorgFailed,
	ErrOrphanBufferFull:      CategoryOrphanBufferFull,
}

// Category returns the category the kind belongs to.
func (e ErrorKind) Category() ErrorCategory {
	if category, ok := kindCategories[e]; ok {
		return category
	}
	return CategoryContextual
}

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Is implements the interface to work with the standard library's errors.Is.
// A kind matches itself and its category.
func (e ErrorKind) Is(target error) bool {
	switch target := target.(type) {
	case ErrorKind:
		return e == target
	case ErrorCategory:
		return e.Category() == target
	}
	return false
}

// ContextError wraps an error with additional context.  It has full support for
// errors.Is and errors.As, so the caller can ascertain the specific wrapped
// error.
type ContextError struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e ContextError) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e ContextError) Unwrap() error {
	return e.Err
}

// contextError creates a ContextError given a set of arguments.
func contextError(kind ErrorKind, desc string) ContextError {
	return ContextError{Err: kind, Description: desc}
}

// notFoundError returns a ContextError for a block that is not known.
func notFoundError(hash *wire.BlockHash) ContextError {
	str := fmt.Sprintf("block %s is not known", hash)
	return contextError(ErrNotFound, str)
}

// RuleError identifies a rule violation.  It has full support for errors.Is
// and errors.As, so the caller can ascertain the specific reason for the
// error by checking the underlying error.
//
// RawErr holds the error reported by a lower layer, such as the decoder or
// the proof verifier, when the violation was detected there.
type RuleError struct {
	Err         error
	RawErr      error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.RawErr == nil {
		return e.Description
	}
	return e.Description + ": " + e.RawErr.Error()
}

// Unwrap returns the underlying wrapped errors.
func (e RuleError) Unwrap() []error {
	if e.RawErr == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.RawErr}
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(kind ErrorKind, desc string) RuleError {
	return RuleError{Err: kind, Description: desc}
}

// ruleErrorRaw creates a RuleError that also carries the lower level error
// that caused it.
func ruleErrorRaw(kind ErrorKind, desc string, rawErr error) RuleError {
	return RuleError{Err: kind, RawErr: rawErr, Description: desc}
}

// StorageError identifies a failed database operation.  The chain instance
// that returned it no longer accepts blocks since the state of the database
// is unknown.  It has full support for errors.Is and errors.As and matches
// CategoryStorage.
type StorageError struct {
	Op  string
	Err error
}

// Error satisfies the error interface and prints human-readable errors.
func (e StorageError) Error() string {
	return "storage failure during " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying wrapped error.
func (e StorageError) Unwrap() error {
	return e.Err
}

// Is implements the interface to work with the standard library's errors.Is.
func (e StorageError) Is(target error) bool {
	return target == CategoryStorage
}

// PeerID is an opaque identifier of the source of a block.  The chain never
// interprets it and only hands it back with rejections.
type PeerID string

// Rejection describes why a block submitted by a peer was not accepted.  The
// chain only classifies the failure.  Penalizing the peer is left to the
// caller.
//
// Misbehaving is set when the block could only have been produced by a faulty
// or malicious source.  Repeated is set when the block was already rejected
// before.
type Rejection struct {
	Peer        PeerID
	Hash        wire.BlockHash
	Misbehaving bool
	Repeated    bool
	Err         error
}

// Error satisfies the error interface and prints human-readable errors.
func (r *Rejection) Error() string {
	return fmt.Sprintf("block %s from peer %q rejected: %v", r.Hash, r.Peer,
		r.Err)
}

// Unwrap returns the underlying wrapped error.
func (r *Rejection) Unwrap() error {
	return r.Err
}

// isMisbehavior returns whether an error identifies a block a well behaved
// source would never relay.
func isMisbehavior(err error) bool {
	switch {
	case errors.Is(err, CategoryCodec), errors.Is(err, CategoryStructural):
		return true
	case errors.Is(err, ErrDuplicateBlock), errors.Is(err, ErrKnownInvalid),
		errors.Is(err, ErrOrphanBufferFull), errors.Is(err, CategoryStorage):
		return false
	case errors.Is(err, CategoryContextual), errors.Is(err, CategoryReorgFailed):
		return true
	}
	return false
}
