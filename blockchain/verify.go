// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"context"
	"fmt"
	"runtime"

	"github.com/zecnode/zecd/wire"
	"golang.org/x/sync/errgroup"
)

// VerifyContext provides a proof verifier with the chain context of the
// transaction being verified.
type VerifyContext struct {
	// BlockHash and Height identify the block containing the transaction.
	BlockHash wire.BlockHash
	Height    int64

	// TxIndex is the position of the transaction in the block.
	TxIndex int

	// PrevOuts holds the outputs spent by the transparent inputs of the
	// transaction in input order.
	PrevOuts []*UtxoEntry
}

// ProofVerifier verifies the signatures or zero-knowledge proofs of a
// transaction for one value pool.  Implementations must be safe for
// concurrent use since transactions are verified in parallel.
type ProofVerifier interface {
	VerifyTx(tx *wire.MsgTx, vctx *VerifyContext) error
}

// VerifierFunc is an adapter that allows an ordinary function to be used as a
// ProofVerifier.
type VerifierFunc func(tx *wire.MsgTx, vctx *VerifyContext) error

// VerifyTx calls f(tx, vctx).
func (f VerifierFunc) VerifyTx(tx *wire.MsgTx, vctx *VerifyContext) error {
	return f(tx, vctx)
}

// Verifiers selects the verifier for each value pool.  A nil verifier accepts
// everything routed to it.
//
// Transparent verifies the unlock scripts of transparent inputs.  Legacy
// verifies JoinSplits in blocks below the migration activation height.
// Current verifies shielded spends and outputs along with the JoinSplits of
// blocks at or above the migration activation height.
type Verifiers struct {
	Transparent ProofVerifier
	Legacy      ProofVerifier
	Current     ProofVerifier
}

// verifyJob is a single transaction awaiting proof verification.
type verifyJob struct {
	txIdx    int
	tx       *wire.MsgTx
	prevOuts []*UtxoEntry
}

// verifiersFor returns the verifiers a transaction in a block at the provided
// height must pass.
func (b *BlockChain) verifiersFor(tx *wire.MsgTx, txIdx int, height int64) []ProofVerifier {
	var result []ProofVerifier
	add := func(v ProofVerifier) {
		if v != nil {
			result = append(result, v)
		}
	}

	if txIdx > 0 && len(tx.TxIn) > 0 {
		add(b.verifiers.Transparent)
	}
	needCurrent := tx.HasShieldedData()
	if len(tx.JoinSplits) > 0 {
		if height < b.chainParams.MigrationActivationHeight {
			add(b.verifiers.Legacy)
		} else {
			needCurrent = true
		}
	}
	if needCurrent {
		add(b.verifiers.Current)
	}
	return result
}

// verifyProofs runs the configured verifiers over every job concurrently.  The
// first failure cancels the jobs that have not started yet and is returned as
// ErrProofVerification once every running job finishes.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) verifyProofs(hash *wire.BlockHash, height int64, jobs []verifyJob) error {
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.NumCPU() * 3)
	for i := range jobs {
		job := &jobs[i]
		verifiers := b.verifiersFor(job.tx, job.txIdx, height)
		if len(verifiers) == 0 {
			continue
		}
		vctx := &VerifyContext{
			BlockHash: *hash,
			Height:    height,
			TxIndex:   job.txIdx,
			PrevOuts:  job.prevOuts,
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			for _, v := range verifiers {
				if err := v.VerifyTx(job.tx, vctx); err != nil {
					str := fmt.Sprintf("transaction %v at index %d failed "+
						"verification", job.tx.TxID(), job.txIdx)
					return ruleErrorRaw(ErrProofVerification, str, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
