// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"io"
	"testing"

	"github.com/zecnode/zecd/wire"
)

// TestErrorKindStringer tests the stringized output for the ErrorKind type.
func TestErrorKindStringer(t *testing.T) {
	tests := []struct {
		in   ErrorKind
		want string
	}{
		{ErrMalformedBlock, "ErrMalformedBlock"},
		{ErrBlockVersionTooOld, "ErrBlockVersionTooOld"},
		{ErrUnexpectedDifficulty, "ErrUnexpectedDifficulty"},
		{ErrHighHash, "ErrHighHash"},
		{ErrInvalidSolution, "ErrInvalidSolution"},
		{ErrNoTransactions, "ErrNoTransactions"},
		{ErrBlockTooBig, "ErrBlockTooBig"},
		{ErrFirstTxNotCoinbase, "ErrFirstTxNotCoinbase"},
		{ErrMultipleCoinbases, "ErrMultipleCoinbases"},
		{ErrBadCoinbaseScriptLen, "ErrBadCoinbaseScriptLen"},
		{ErrCoinbaseShieldedSpend, "ErrCoinbaseShieldedSpend"},
		{ErrNoTxInputs, "ErrNoTxInputs"},
		{ErrNoTxOutputs, "ErrNoTxOutputs"},
		{ErrBadTxOutValue, "ErrBadTxOutValue"},
		{ErrBadValueBalance, "ErrBadValueBalance"},
		{ErrBadJoinSplit, "ErrBadJoinSplit"},
		{ErrBadExpiry, "ErrBadExpiry"},
		{ErrDuplicateTxInputs, "ErrDuplicateTxInputs"},
		{ErrBadTxInput, "ErrBadTxInput"},
		{ErrDuplicateTx, "ErrDuplicateTx"},
		{ErrBadMerkleRoot, "ErrBadMerkleRoot"},
		{ErrDuplicateBlock, "ErrDuplicateBlock"},
		{ErrKnownInvalid, "ErrKnownInvalid"},
		{ErrUnknownParent, "ErrUnknownParent"},
		{ErrInvalidAncestorBlock, "ErrInvalidAncestorBlock"},
		{ErrWrongDifficulty, "ErrWrongDifficulty"},
		{ErrTimeTooOld, "ErrTimeTooOld"},
		{ErrTimeTooNew, "ErrTimeTooNew"},
		{ErrBadCheckpoint, "ErrBadCheckpoint"},
		{ErrForkTooOld, "ErrForkTooOld"},
		{ErrAncientFork, "ErrAncientFork"},
		{ErrUnfinalizedTx, "ErrUnfinalizedTx"},
		{ErrExpiredTx, "ErrExpiredTx"},
		{ErrPrematureShielded, "ErrPrematureShielded"},
		{ErrLegacyPoolInflow, "ErrLegacyPoolInflow"},
		{ErrMissingOrSpentOutput, "ErrMissingOrSpentOutput"},
		{ErrOverwriteOutput, "ErrOverwriteOutput"},
		{ErrImmatureSpend, "ErrImmatureSpend"},
		{ErrSpendTooHigh, "ErrSpendTooHigh"},
		{ErrBadCoinbaseValue, "ErrBadCoinbaseValue"},
		{ErrProofVerification, "ErrProofVerification"},
		{ErrReorgFailed, "ErrReorgFailed"},
		{ErrOrphanBufferFull, "ErrOrphanBufferFull"},
		{ErrNotFound, "ErrNotFound"},
	}

	for i, test := range tests {
		result := test.in.Error()
		if result != test.want {
			t.Errorf("#%d: got: %s want: %s", i, result, test.want)
			continue
		}
	}
}

// TestErrorCategories ensures every kind matches its own category and no
// other one.
func TestErrorCategories(t *testing.T) {
	categories := []ErrorCategory{
		CategoryCodec,
		CategoryStructural,
		CategoryContextual,
		CategoryReorgFailed,
		CategoryOrphanBufferFull,
		CategoryStorage,
	}

	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{{
		name: "malformed block is a codec failure",
		err:  ruleError(ErrMalformedBlock, ""),
		want: CategoryCodec,
	}, {
		name: "high hash is structural",
		err:  ruleError(ErrHighHash, ""),
		want: CategoryStructural,
	}, {
		name: "bad merkle root is structural",
		err:  ruleError(ErrBadMerkleRoot, ""),
		want: CategoryStructural,
	}, {
		name: "immature spend is contextual",
		err:  ruleError(ErrImmatureSpend, ""),
		want: CategoryContextual,
	}, {
		name: "bad checkpoint is contextual",
		err:  ruleError(ErrBadCheckpoint, ""),
		want: CategoryContextual,
	}, {
		name: "wrong difficulty is contextual",
		err:  ruleError(ErrWrongDifficulty, ""),
		want: CategoryContextual,
	}, {
		name: "duplicate block is contextual",
		err:  ruleError(ErrDuplicateBlock, ""),
		want: CategoryContextual,
	}, {
		name: "failed reorg",
		err:  ruleErrorRaw(ErrReorgFailed, "", ruleError(ErrSpendTooHigh, "")),
		want: CategoryReorgFailed,
	}, {
		name: "full orphan buffer",
		err:  ruleError(ErrOrphanBufferFull, ""),
		want: CategoryOrphanBufferFull,
	}, {
		name: "storage failure",
		err:  StorageError{Op: "test", Err: io.ErrUnexpectedEOF},
		want: CategoryStorage,
	}}

	for _, test := range tests {
		for _, category := range categories {
			// A failed reorg also carries the category of its cause.
			if test.want == CategoryReorgFailed &&
				category == CategoryContextual {

				continue
			}
			got := errors.Is(test.err, category)
			want := category == test.want
			if got != want {
				t.Errorf("%q: errors.Is(%v) = %v, want %v", test.name,
					category, got, want)
			}
		}
	}
}

// TestRuleError tests the error output for the RuleError type.
func TestRuleError(t *testing.T) {
	tests := []struct {
		in   RuleError
		want string
	}{{
		RuleError{Description: "duplicate block"},
		"duplicate block",
	}, {
		RuleError{Description: "human-readable error"},
		"human-readable error",
	}, {
		RuleError{Description: "bad block", RawErr: io.EOF},
		"bad block: EOF",
	}}

	for i, test := range tests {
		result := test.in.Error()
		if result != test.want {
			t.Errorf("#%d: got: %s want: %s", i, result, test.want)
			continue
		}
	}
}

// TestErrorKindIsAs ensures both ErrorKind and RuleError can be identified as
// being a specific error kind via errors.Is and unwrapped via errors.As.
func TestErrorKindIsAs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
		wantAs    ErrorKind
	}{{
		name:      "ErrDuplicateBlock == ErrDuplicateBlock",
		err:       ErrDuplicateBlock,
		target:    ErrDuplicateBlock,
		wantMatch: true,
		wantAs:    ErrDuplicateBlock,
	}, {
		name:      "RuleError.ErrDuplicateBlock == ErrDuplicateBlock",
		err:       ruleError(ErrDuplicateBlock, ""),
		target:    ErrDuplicateBlock,
		wantMatch: true,
		wantAs:    ErrDuplicateBlock,
	}, {
		name:      "ErrDuplicateBlock != ErrBlockTooBig",
		err:       ErrDuplicateBlock,
		target:    ErrBlockTooBig,
		wantMatch: false,
		wantAs:    ErrDuplicateBlock,
	}, {
		name:      "RuleError.ErrReorgFailed wraps ErrImmatureSpend",
		err:       ruleErrorRaw(ErrReorgFailed, "", ruleError(ErrImmatureSpend, "")),
		target:    ErrImmatureSpend,
		wantMatch: true,
		wantAs:    ErrReorgFailed,
	}, {
		name:      "ContextError.ErrNotFound == ErrNotFound",
		err:       notFoundError(&wire.BlockHash{}),
		target:    ErrNotFound,
		wantMatch: true,
		wantAs:    ErrNotFound,
	}, {
		name: "Rejection wraps ErrHighHash",
		err: &Rejection{
			Peer: testPeer,
			Err:  ruleError(ErrHighHash, ""),
		},
		target:    ErrHighHash,
		wantMatch: true,
		wantAs:    ErrHighHash,
	}}

	for _, test := range tests {
		// Ensure the error matches or not depending on the expected result.
		result := errors.Is(test.err, test.target)
		if result != test.wantMatch {
			t.Errorf("%s: incorrect error identification -- got %v, want %v",
				test.name, result, test.wantMatch)
			continue
		}

		// Ensure the underlying error kind can be unwrapped and is the
		// expected kind.
		var kind ErrorKind
		if !errors.As(test.err, &kind) {
			t.Errorf("%s: unable to unwrap to error kind", test.name)
			continue
		}
		if kind != test.wantAs {
			t.Errorf("%s: unexpected unwrapped error kind -- got %v, want %v",
				test.name, kind, test.wantAs)
			continue
		}
	}
}

// TestMisbehavior ensures rejections only blame the source for blocks a well
// behaved peer would never relay.
func TestMisbehavior(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"malformed", ruleError(ErrMalformedBlock, ""), true},
		{"structural", ruleError(ErrInvalidSolution, ""), true},
		{"contextual", ruleError(ErrBadCoinbaseValue, ""), true},
		{"reorg failed", ruleError(ErrReorgFailed, ""), true},
		{"duplicate", ruleError(ErrDuplicateBlock, ""), false},
		{"known invalid", ruleError(ErrKnownInvalid, ""), false},
		{"orphan buffer full", ruleError(ErrOrphanBufferFull, ""), false},
		{"storage", StorageError{Op: "test", Err: io.EOF}, false},
	}

	for _, test := range tests {
		if got := isMisbehavior(test.err); got != test.want {
			t.Errorf("%s: got misbehavior %v, want %v", test.name, got,
				test.want)
		}
	}
}
